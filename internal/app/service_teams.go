package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"folio/api/internal/rbac"
	"folio/api/internal/store"
	"folio/api/internal/util"
)

func (s *Service) CreateTeam(ctx context.Context, session Session, name string) (map[string]any, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}

	team := store.Team{
		ID:        util.NewID("team"),
		Name:      name,
		CreatedBy: session.UserID,
	}
	if err := s.store.CreateTeam(ctx, team); err != nil {
		return nil, fmt.Errorf("create team: %w", err)
	}
	if err := s.store.AddTeamMember(ctx, store.TeamMember{
		ID:     util.NewID("mem"),
		TeamID: team.ID,
		UserID: session.UserID,
		Role:   string(rbac.RoleOwner),
	}); err != nil {
		return nil, fmt.Errorf("add owner membership: %w", err)
	}
	return teamPayload(team, string(rbac.RoleOwner)), nil
}

func (s *Service) ListTeams(ctx context.Context, session Session) ([]map[string]any, error) {
	teams, err := s.store.ListTeamsByUser(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	payload := make([]map[string]any, 0, len(teams))
	for _, team := range teams {
		payload = append(payload, teamPayload(team, ""))
	}
	return payload, nil
}

func (s *Service) GetTeam(ctx context.Context, session Session, teamID string) (map[string]any, error) {
	member, err := s.requireTeamRole(ctx, session, teamID, rbac.ActionRead)
	if err != nil {
		return nil, err
	}
	team, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return teamPayload(team, member.Role), nil
}

func (s *Service) UpdateTeam(ctx context.Context, session Session, teamID, name string) (map[string]any, error) {
	member, err := s.requireTeamRole(ctx, session, teamID, rbac.ActionManageTeam)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	if err := s.store.UpdateTeamName(ctx, teamID, name); err != nil {
		return nil, err
	}
	team, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return teamPayload(team, member.Role), nil
}

// DeleteTeam is owner-only and requires the confirm flag; collections and
// documents cascade in the database.
func (s *Service) DeleteTeam(ctx context.Context, session Session, teamID string, confirm bool) error {
	if _, err := s.requireTeamRole(ctx, session, teamID, rbac.ActionDeleteTeam); err != nil {
		return err
	}
	if !confirm {
		return domainError(http.StatusUnprocessableEntity, "CONFIRM_REQUIRED", "confirm flag is required to delete a team", nil)
	}
	if err := s.store.DeleteTeam(ctx, teamID); err != nil {
		return err
	}
	s.publish("teams", "deleted", teamID)
	return nil
}

func (s *Service) ListTeamMembers(ctx context.Context, session Session, teamID string) ([]map[string]any, error) {
	if _, err := s.requireTeamRole(ctx, session, teamID, rbac.ActionRead); err != nil {
		return nil, err
	}
	members, err := s.store.ListTeamMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}
	payload := make([]map[string]any, 0, len(members))
	for _, member := range members {
		entry := map[string]any{
			"userId":   member.UserID,
			"role":     member.Role,
			"joinedAt": member.JoinedAt.UTC().Format(time.RFC3339),
		}
		if user, err := s.store.GetUserByID(ctx, member.UserID); err == nil {
			entry["displayName"] = user.DisplayName
			entry["email"] = user.Email
		}
		payload = append(payload, entry)
	}
	return payload, nil
}

func (s *Service) UpdateTeamMemberRole(ctx context.Context, session Session, teamID, userID, role string) error {
	if _, err := s.requireTeamRole(ctx, session, teamID, rbac.ActionManageTeam); err != nil {
		return err
	}
	switch rbac.Role(role) {
	case rbac.RoleAdmin, rbac.RoleMember:
	case rbac.RoleOwner:
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "ownership cannot be granted through role updates", nil)
	default:
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "role must be admin or member", nil)
	}
	target, err := s.store.GetTeamMember(ctx, teamID, userID)
	if err != nil {
		return err
	}
	if target.Role == string(rbac.RoleOwner) {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "the owner role cannot be changed", nil)
	}
	return s.store.UpdateTeamMemberRole(ctx, teamID, userID, role)
}

func (s *Service) RemoveTeamMember(ctx context.Context, session Session, teamID, userID string) error {
	if userID != session.UserID {
		if _, err := s.requireTeamRole(ctx, session, teamID, rbac.ActionManageTeam); err != nil {
			return err
		}
	}
	target, err := s.store.GetTeamMember(ctx, teamID, userID)
	if err != nil {
		return err
	}
	if target.Role == string(rbac.RoleOwner) {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "the owner cannot be removed", nil)
	}
	return s.store.RemoveTeamMember(ctx, teamID, userID)
}

func (s *Service) CreateTeamInvite(ctx context.Context, session Session, teamID, emailAddr string) (map[string]any, error) {
	if _, err := s.requireTeamRole(ctx, session, teamID, rbac.ActionInvite); err != nil {
		return nil, err
	}
	emailAddr = strings.TrimSpace(strings.ToLower(emailAddr))
	if emailAddr == "" || !strings.Contains(emailAddr, "@") {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "a valid email is required", nil)
	}
	team, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	invite := store.TeamInvite{
		ID:        util.NewID("inv"),
		TeamID:    teamID,
		TeamName:  team.Name,
		Email:     emailAddr,
		InvitedBy: session.UserName,
		Status:    "pending",
	}
	if err := s.store.CreateTeamInvite(ctx, invite); err != nil {
		return nil, fmt.Errorf("create invite: %w", err)
	}

	if s.SMTPConfigured() {
		acceptURL := fmt.Sprintf("%s/invites/%s/%s", s.cfg.AppBaseURL, teamID, invite.ID)
		go func(to, teamName, inviter, url string) {
			if err := s.mail.SendInviteEmail(to, teamName, inviter, url); err != nil {
				s.logger.Printf("send invite email: %v", err)
			}
		}(emailAddr, team.Name, session.UserName, acceptURL)
	}
	return invitePayload(invite), nil
}

func (s *Service) ListTeamInvites(ctx context.Context, session Session, teamID string) ([]map[string]any, error) {
	if _, err := s.requireTeamRole(ctx, session, teamID, rbac.ActionInvite); err != nil {
		return nil, err
	}
	invites, err := s.store.ListTeamInvites(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return invitePayloads(invites), nil
}

// PendingInvites is the cross-team query: every pending invite addressed to
// the caller's email, regardless of team.
func (s *Service) PendingInvites(ctx context.Context, session Session) ([]map[string]any, error) {
	invites, err := s.store.ListPendingInvitesByEmail(ctx, strings.ToLower(session.Email))
	if err != nil {
		return nil, err
	}
	return invitePayloads(invites), nil
}

func (s *Service) AcceptInvite(ctx context.Context, session Session, teamID, inviteID string) (map[string]any, error) {
	invite, err := s.inviteForRecipient(ctx, session, teamID, inviteID)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateTeamInviteStatus(ctx, teamID, inviteID, "accepted"); err != nil {
		return nil, err
	}
	if err := s.store.AddTeamMember(ctx, store.TeamMember{
		ID:       util.NewID("mem"),
		TeamID:   teamID,
		UserID:   session.UserID,
		Role:     string(rbac.RoleMember),
		InviteID: invite.ID,
	}); err != nil {
		return nil, fmt.Errorf("add member from invite: %w", err)
	}
	return map[string]any{"teamId": teamID, "role": string(rbac.RoleMember)}, nil
}

func (s *Service) RejectInvite(ctx context.Context, session Session, teamID, inviteID string) error {
	if _, err := s.inviteForRecipient(ctx, session, teamID, inviteID); err != nil {
		return err
	}
	return s.store.UpdateTeamInviteStatus(ctx, teamID, inviteID, "rejected")
}

func (s *Service) DeleteTeamInvite(ctx context.Context, session Session, teamID, inviteID string) error {
	if _, err := s.requireTeamRole(ctx, session, teamID, rbac.ActionInvite); err != nil {
		return err
	}
	return s.store.DeleteTeamInvite(ctx, teamID, inviteID)
}

// inviteForRecipient loads a pending invite and checks it is addressed to
// the caller.
func (s *Service) inviteForRecipient(ctx context.Context, session Session, teamID, inviteID string) (store.TeamInvite, error) {
	invite, err := s.store.GetTeamInvite(ctx, teamID, inviteID)
	if err != nil {
		return store.TeamInvite{}, err
	}
	if !strings.EqualFold(invite.Email, session.Email) {
		return store.TeamInvite{}, domainError(http.StatusForbidden, "FORBIDDEN", "This invite is addressed to a different account", nil)
	}
	if invite.Status != "pending" {
		return store.TeamInvite{}, domainError(http.StatusConflict, "INVITE_SETTLED", "This invite was already "+invite.Status, nil)
	}
	return invite, nil
}

func teamPayload(team store.Team, viewerRole string) map[string]any {
	payload := map[string]any{
		"id":        team.ID,
		"name":      team.Name,
		"createdBy": team.CreatedBy,
		"createdAt": team.CreatedAt.UTC().Format(time.RFC3339),
	}
	if viewerRole != "" {
		payload["viewerRole"] = viewerRole
	}
	return payload
}

func invitePayload(invite store.TeamInvite) map[string]any {
	return map[string]any{
		"id":        invite.ID,
		"teamId":    invite.TeamID,
		"teamName":  invite.TeamName,
		"email":     invite.Email,
		"invitedBy": invite.InvitedBy,
		"status":    invite.Status,
		"createdAt": invite.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func invitePayloads(invites []store.TeamInvite) []map[string]any {
	payload := make([]map[string]any, 0, len(invites))
	for _, invite := range invites {
		payload = append(payload, invitePayload(invite))
	}
	return payload
}
