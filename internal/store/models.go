package store

import (
	"sort"
	"time"
)

type User struct {
	ID                    string
	DisplayName           string
	Email                 string
	PasswordHash          string
	IsEmailVerified       bool
	VerificationToken     string
	VerificationExpiresAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type Team struct {
	ID        string
	Name      string
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type TeamMember struct {
	ID       string
	TeamID   string
	UserID   string
	Role     string // owner, admin, member
	InviteID string // invite that produced this membership, if any
	JoinedAt time.Time
}

type TeamInvite struct {
	ID        string
	TeamID    string
	TeamName  string // snapshot so pending invites render without a team read
	Email     string
	InvitedBy string
	Status    string // pending, accepted, rejected
	CreatedAt time.Time
}

type Collection struct {
	ID             string
	TeamID         string
	Name           string
	// SortOrder defaults to the creation unix-millis so new collections sort
	// last; a reorder rewrites it to dense 0..N-1 positions.
	SortOrder      *int64
	BannerImage    string
	BannerPosition string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Document struct {
	ID                 string
	CollectionID       string
	TeamID             string
	Title              string
	Author             string
	Content            string // serialized rich-text HTML
	BannerImage        string
	BannerPositionPage string // "<x>% <y>%" crop focal point for the page header
	BannerPositionGrid string // independent focal point for the grid thumbnail
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Settings struct {
	UserID        string
	CurrentTeamID string
	GoogleFont    string
	UpdatedAt     time.Time
}

// effectiveOrder is the sort key for a collection. Legacy rows may be missing
// SortOrder entirely; they fall back to creation time so the list still
// renders in a stable order.
func (c Collection) effectiveOrder() int64 {
	if c.SortOrder != nil {
		return *c.SortOrder
	}
	return c.CreatedAt.UnixMilli()
}

// SortCollections orders sibling collections for display. Explicit sort
// orders win, ascending; rows without one fall back to creation time,
// descending, and never crash on gaps or duplicates.
func SortCollections(items []Collection) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.SortOrder != nil && b.SortOrder != nil {
			if *a.SortOrder != *b.SortOrder {
				return *a.SortOrder < *b.SortOrder
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		if a.SortOrder != nil || b.SortOrder != nil {
			return a.effectiveOrder() < b.effectiveOrder()
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}
