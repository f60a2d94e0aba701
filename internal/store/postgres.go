package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ---- users ----

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, display_name, email, password_hash, is_email_verified, verification_token)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, user.ID, user.DisplayName, user.Email, user.PasswordHash, user.IsEmailVerified, user.VerificationToken)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, password_hash, is_email_verified, created_at, updated_at
		FROM users
		WHERE id=$1
	`, userID).Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.IsEmailVerified, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, password_hash, is_email_verified, created_at, updated_at
		FROM users
		WHERE LOWER(email)=LOWER($1)
	`, email).Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.IsEmailVerified, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) UpdateUserVerificationToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET verification_token=$2, verification_expires_at=$3, updated_at=NOW()
		WHERE id=$1
	`, userID, token, expiresAt)
	if err != nil {
		return fmt.Errorf("update verification token: %w", err)
	}
	return nil
}

func (s *PostgresStore) VerifyUserEmail(ctx context.Context, token string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET is_email_verified=TRUE, verification_token='', verification_expires_at=NULL, updated_at=NOW()
		WHERE verification_token=$1 AND verification_expires_at > NOW()
	`, token)
	if err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("verify email rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) UpdateUserPassword(ctx context.Context, userID, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET password_hash=$2, updated_at=NOW() WHERE id=$1
	`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreatePasswordReset(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO password_resets (token, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token) DO NOTHING
	`, token, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("create password reset: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPasswordReset(ctx context.Context, token string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id FROM password_resets
		WHERE token=$1 AND used_at IS NULL AND expires_at > NOW()
	`, token).Scan(&userID)
	if err != nil {
		return "", err
	}
	return userID, nil
}

func (s *PostgresStore) MarkPasswordResetUsed(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE password_resets SET used_at=NOW() WHERE token=$1`, token)
	if err != nil {
		return fmt.Errorf("mark password reset used: %w", err)
	}
	return nil
}

// ---- refresh sessions (postgres fallback when redis is not configured) ----

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.display_name, u.email, u.is_email_verified
		FROM refresh_sessions rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
	`, tokenHash).Scan(&user.ID, &user.DisplayName, &user.Email, &user.IsEmailVerified)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

// ---- teams ----

func (s *PostgresStore) CreateTeam(ctx context.Context, team Team) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO teams (id, name, created_by)
		VALUES ($1, $2, $3)
	`, team.ID, team.Name, team.CreatedBy)
	if err != nil {
		return fmt.Errorf("create team: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTeam(ctx context.Context, teamID string) (Team, error) {
	var team Team
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_by, created_at, updated_at FROM teams WHERE id=$1
	`, teamID).Scan(&team.ID, &team.Name, &team.CreatedBy, &team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		return Team{}, err
	}
	return team, nil
}

func (s *PostgresStore) UpdateTeamName(ctx context.Context, teamID, name string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE teams SET name=$2, updated_at=NOW() WHERE id=$1`, teamID, name)
	if err != nil {
		return fmt.Errorf("update team name: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteTeam(ctx context.Context, teamID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM teams WHERE id=$1`, teamID)
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	return nil
}

// ---- team members ----

func (s *PostgresStore) AddTeamMember(ctx context.Context, member TeamMember) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO team_members (id, team_id, user_id, role, invite_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (team_id, user_id) DO NOTHING
	`, member.ID, member.TeamID, member.UserID, member.Role, member.InviteID)
	if err != nil {
		return fmt.Errorf("add team member: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTeamMember(ctx context.Context, teamID, userID string) (TeamMember, error) {
	var member TeamMember
	err := s.db.QueryRowContext(ctx, `
		SELECT id, team_id, user_id, role, invite_id, joined_at
		FROM team_members
		WHERE team_id=$1 AND user_id=$2
	`, teamID, userID).Scan(&member.ID, &member.TeamID, &member.UserID, &member.Role, &member.InviteID, &member.JoinedAt)
	if err != nil {
		return TeamMember{}, err
	}
	return member, nil
}

func (s *PostgresStore) ListTeamMembers(ctx context.Context, teamID string) ([]TeamMember, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, team_id, user_id, role, invite_id, joined_at
		FROM team_members
		WHERE team_id=$1
		ORDER BY joined_at DESC
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	defer rows.Close()

	items := make([]TeamMember, 0)
	for rows.Next() {
		var member TeamMember
		if err := rows.Scan(&member.ID, &member.TeamID, &member.UserID, &member.Role, &member.InviteID, &member.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		items = append(items, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate team members: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpdateTeamMemberRole(ctx context.Context, teamID, userID, role string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE team_members SET role=$3 WHERE team_id=$1 AND user_id=$2
	`, teamID, userID, role)
	if err != nil {
		return fmt.Errorf("update member role: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveTeamMember(ctx context.Context, teamID, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM team_members WHERE team_id=$1 AND user_id=$2`, teamID, userID)
	if err != nil {
		return fmt.Errorf("remove team member: %w", err)
	}
	return nil
}

// ListTeamsByUser is the cross-parent membership query: every team the user
// belongs to, without knowing team ids in advance.
func (s *PostgresStore) ListTeamsByUser(ctx context.Context, userID string) ([]Team, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.created_by, t.created_at, t.updated_at
		FROM team_members tm
		JOIN teams t ON t.id = tm.team_id
		WHERE tm.user_id=$1
		ORDER BY t.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list teams by user: %w", err)
	}
	defer rows.Close()

	items := make([]Team, 0)
	for rows.Next() {
		var team Team
		if err := rows.Scan(&team.ID, &team.Name, &team.CreatedBy, &team.CreatedAt, &team.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		items = append(items, team)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teams: %w", err)
	}
	return items, nil
}

// ---- team invites ----

func (s *PostgresStore) CreateTeamInvite(ctx context.Context, invite TeamInvite) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO team_invites (id, team_id, team_name, email, invited_by, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, invite.ID, invite.TeamID, invite.TeamName, invite.Email, invite.InvitedBy, invite.Status)
	if err != nil {
		return fmt.Errorf("create team invite: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTeamInvite(ctx context.Context, teamID, inviteID string) (TeamInvite, error) {
	var invite TeamInvite
	err := s.db.QueryRowContext(ctx, `
		SELECT id, team_id, team_name, email, invited_by, status, created_at
		FROM team_invites
		WHERE team_id=$1 AND id=$2
	`, teamID, inviteID).Scan(&invite.ID, &invite.TeamID, &invite.TeamName, &invite.Email, &invite.InvitedBy, &invite.Status, &invite.CreatedAt)
	if err != nil {
		return TeamInvite{}, err
	}
	return invite, nil
}

func (s *PostgresStore) ListTeamInvites(ctx context.Context, teamID string) ([]TeamInvite, error) {
	return s.queryInvites(ctx, `
		SELECT id, team_id, team_name, email, invited_by, status, created_at
		FROM team_invites
		WHERE team_id=$1
		ORDER BY created_at DESC
	`, teamID)
}

// ListPendingInvitesByEmail is the cross-parent invite query: pending invites
// for an email address across every team.
func (s *PostgresStore) ListPendingInvitesByEmail(ctx context.Context, email string) ([]TeamInvite, error) {
	return s.queryInvites(ctx, `
		SELECT id, team_id, team_name, email, invited_by, status, created_at
		FROM team_invites
		WHERE LOWER(email)=LOWER($1) AND status='pending'
		ORDER BY created_at DESC
	`, email)
}

func (s *PostgresStore) queryInvites(ctx context.Context, query string, arg any) ([]TeamInvite, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	defer rows.Close()

	items := make([]TeamInvite, 0)
	for rows.Next() {
		var invite TeamInvite
		if err := rows.Scan(&invite.ID, &invite.TeamID, &invite.TeamName, &invite.Email, &invite.InvitedBy, &invite.Status, &invite.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan invite: %w", err)
		}
		items = append(items, invite)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invites: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpdateTeamInviteStatus(ctx context.Context, teamID, inviteID, status string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE team_invites SET status=$3 WHERE team_id=$1 AND id=$2 AND status='pending'
	`, teamID, inviteID, status)
	if err != nil {
		return fmt.Errorf("update invite status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update invite status rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) DeleteTeamInvite(ctx context.Context, teamID, inviteID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM team_invites WHERE team_id=$1 AND id=$2`, teamID, inviteID)
	if err != nil {
		return fmt.Errorf("delete team invite: %w", err)
	}
	return nil
}

// ---- collections ----

func (s *PostgresStore) CreateCollection(ctx context.Context, item Collection) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collections (id, team_id, name, sort_order, banner_image, banner_position)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, item.ID, item.TeamID, item.Name, item.SortOrder, item.BannerImage, item.BannerPosition)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetCollection(ctx context.Context, collectionID string) (Collection, error) {
	var item Collection
	err := s.db.QueryRowContext(ctx, `
		SELECT id, team_id, name, sort_order, banner_image, banner_position, created_at, updated_at
		FROM collections
		WHERE id=$1
	`, collectionID).Scan(&item.ID, &item.TeamID, &item.Name, &item.SortOrder, &item.BannerImage, &item.BannerPosition, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return Collection{}, err
	}
	return item, nil
}

// ListCollectionsByTeam returns siblings in raw creation order; display order
// (explicit sort_order with legacy fallback) is applied by SortCollections.
func (s *PostgresStore) ListCollectionsByTeam(ctx context.Context, teamID string) ([]Collection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, team_id, name, sort_order, banner_image, banner_position, created_at, updated_at
		FROM collections
		WHERE team_id=$1
		ORDER BY created_at DESC
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	items := make([]Collection, 0)
	for rows.Next() {
		var item Collection
		if err := rows.Scan(&item.ID, &item.TeamID, &item.Name, &item.SortOrder, &item.BannerImage, &item.BannerPosition, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collections: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpdateCollection(ctx context.Context, collectionID, name, bannerImage, bannerPosition string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE collections
		SET name=$2, banner_image=$3, banner_position=$4, updated_at=NOW()
		WHERE id=$1
	`, collectionID, name, bannerImage, bannerPosition)
	if err != nil {
		return fmt.Errorf("update collection: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateCollectionOrder(ctx context.Context, collectionID string, order int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE collections SET sort_order=$2, updated_at=NOW() WHERE id=$1
	`, collectionID, order)
	if err != nil {
		return fmt.Errorf("update collection order: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteCollection(ctx context.Context, collectionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE id=$1`, collectionID)
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return nil
}

// ---- documents ----

func (s *PostgresStore) CreateDocument(ctx context.Context, item Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, collection_id, team_id, title, author, content, banner_image, banner_position_page, banner_position_grid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, item.ID, item.CollectionID, item.TeamID, item.Title, item.Author, item.Content, item.BannerImage, item.BannerPositionPage, item.BannerPositionGrid)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

const documentColumns = `id, collection_id, team_id, title, author, content, banner_image, banner_position_page, banner_position_grid, created_at, updated_at`

func scanDocument(row interface{ Scan(...any) error }) (Document, error) {
	var item Document
	err := row.Scan(&item.ID, &item.CollectionID, &item.TeamID, &item.Title, &item.Author, &item.Content, &item.BannerImage, &item.BannerPositionPage, &item.BannerPositionGrid, &item.CreatedAt, &item.UpdatedAt)
	return item, err
}

func (s *PostgresStore) GetDocument(ctx context.Context, collectionID, documentID string) (Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+` FROM documents WHERE collection_id=$1 AND id=$2
	`, collectionID, documentID)
	return scanDocument(row)
}

func (s *PostgresStore) ListDocumentsByCollection(ctx context.Context, collectionID string) ([]Document, error) {
	return s.queryDocuments(ctx, `
		SELECT `+documentColumns+` FROM documents WHERE collection_id=$1 ORDER BY created_at DESC
	`, collectionID)
}

// ListDocumentsByTeam is the cross-parent document query: every document in
// any of the team's collections.
func (s *PostgresStore) ListDocumentsByTeam(ctx context.Context, teamID string) ([]Document, error) {
	return s.queryDocuments(ctx, `
		SELECT `+documentColumns+` FROM documents WHERE team_id=$1 ORDER BY created_at DESC
	`, teamID)
}

func (s *PostgresStore) queryDocuments(ctx context.Context, query string, arg any) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	items := make([]Document, 0)
	for rows.Next() {
		item, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpdateDocumentContent(ctx context.Context, collectionID, documentID, content string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE documents SET content=$3, updated_at=NOW() WHERE collection_id=$1 AND id=$2
	`, collectionID, documentID, content)
	if err != nil {
		return fmt.Errorf("update document content: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateDocumentMeta(ctx context.Context, collectionID, documentID, title, bannerImage string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE documents SET title=$3, banner_image=$4, updated_at=NOW() WHERE collection_id=$1 AND id=$2
	`, collectionID, documentID, title, bannerImage)
	if err != nil {
		return fmt.Errorf("update document meta: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateDocumentBannerPosition(ctx context.Context, collectionID, documentID, column, position string) error {
	var query string
	switch column {
	case "banner_position_page":
		query = `UPDATE documents SET banner_position_page=$3, updated_at=NOW() WHERE collection_id=$1 AND id=$2`
	case "banner_position_grid":
		query = `UPDATE documents SET banner_position_grid=$3, updated_at=NOW() WHERE collection_id=$1 AND id=$2`
	default:
		return errors.New("unknown banner position column: " + column)
	}
	_, err := s.db.ExecContext(ctx, query, collectionID, documentID, position)
	if err != nil {
		return fmt.Errorf("update banner position: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteDocument(ctx context.Context, collectionID, documentID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection_id=$1 AND id=$2`, collectionID, documentID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// ---- settings ----

func (s *PostgresStore) GetSettings(ctx context.Context, userID string) (Settings, error) {
	var item Settings
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, current_team_id, google_font, updated_at FROM settings WHERE user_id=$1
	`, userID).Scan(&item.UserID, &item.CurrentTeamID, &item.GoogleFont, &item.UpdatedAt)
	if err != nil {
		return Settings{}, err
	}
	return item, nil
}

func (s *PostgresStore) UpsertSettings(ctx context.Context, item Settings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (user_id, current_team_id, google_font)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET current_team_id=EXCLUDED.current_team_id, google_font=EXCLUDED.google_font, updated_at=NOW()
	`, item.UserID, item.CurrentTeamID, item.GoogleFont)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}
