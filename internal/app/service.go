package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"folio/api/internal/auth"
	"folio/api/internal/authpw"
	"folio/api/internal/blob"
	"folio/api/internal/config"
	"folio/api/internal/email"
	"folio/api/internal/export"
	"folio/api/internal/history"
	"folio/api/internal/live"
	"folio/api/internal/rbac"
	"folio/api/internal/search"
	"folio/api/internal/store"
	"folio/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Email        string
	JTI          string
	ExpiresAt    time.Time
}

// dataStore is the slice of the Postgres store the service needs.
type dataStore interface {
	Ping(ctx context.Context) error
	GetUserByID(context.Context, string) (store.User, error)

	CreateTeam(context.Context, store.Team) error
	GetTeam(context.Context, string) (store.Team, error)
	UpdateTeamName(context.Context, string, string) error
	DeleteTeam(context.Context, string) error

	AddTeamMember(context.Context, store.TeamMember) error
	GetTeamMember(context.Context, string, string) (store.TeamMember, error)
	ListTeamMembers(context.Context, string) ([]store.TeamMember, error)
	UpdateTeamMemberRole(context.Context, string, string, string) error
	RemoveTeamMember(context.Context, string, string) error
	ListTeamsByUser(context.Context, string) ([]store.Team, error)

	CreateTeamInvite(context.Context, store.TeamInvite) error
	GetTeamInvite(context.Context, string, string) (store.TeamInvite, error)
	ListTeamInvites(context.Context, string) ([]store.TeamInvite, error)
	ListPendingInvitesByEmail(context.Context, string) ([]store.TeamInvite, error)
	UpdateTeamInviteStatus(context.Context, string, string, string) error
	DeleteTeamInvite(context.Context, string, string) error

	CreateCollection(context.Context, store.Collection) error
	GetCollection(context.Context, string) (store.Collection, error)
	ListCollectionsByTeam(context.Context, string) ([]store.Collection, error)
	UpdateCollection(context.Context, string, string, string, string) error
	UpdateCollectionOrder(context.Context, string, int64) error
	DeleteCollection(context.Context, string) error

	CreateDocument(context.Context, store.Document) error
	GetDocument(context.Context, string, string) (store.Document, error)
	ListDocumentsByCollection(context.Context, string) ([]store.Document, error)
	ListDocumentsByTeam(context.Context, string) ([]store.Document, error)
	UpdateDocumentContent(context.Context, string, string, string) error
	UpdateDocumentMeta(context.Context, string, string, string, string) error
	UpdateDocumentBannerPosition(context.Context, string, string, string, string) error
	DeleteDocument(context.Context, string, string) error

	GetSettings(context.Context, string) (store.Settings, error)
	UpsertSettings(context.Context, store.Settings) error
}

// SessionStore holds refresh sessions. Backed by redis when available,
// with the Postgres table as fallback.
type SessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

// Deps carries the service collaborators. Hub, Search, Exporter and Blobs
// may be nil; the matching endpoints degrade or return 503.
type Deps struct {
	Store    dataStore
	Sessions SessionStore
	Accounts *authpw.Service
	Mail     *email.Service
	Hub      *live.Hub
	Search   *search.Service
	History  *history.Service
	Exporter *export.Service
	Blobs    *blob.Store
	Logger   *log.Logger
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions SessionStore
	accounts *authpw.Service
	mail     *email.Service
	hub      *live.Hub
	search   *search.Service
	history  *history.Service
	exporter *export.Service
	blobs    *blob.Store
	logger   *log.Logger
}

func New(cfg config.Config, deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		cfg:      cfg,
		store:    deps.Store,
		sessions: deps.Sessions,
		accounts: deps.Accounts,
		mail:     deps.Mail,
		hub:      deps.Hub,
		search:   deps.Search,
		history:  deps.History,
		exporter: deps.Exporter,
		blobs:    deps.Blobs,
		logger:   logger,
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) SMTPConfigured() bool {
	return s.mail != nil && s.mail.IsConfigured()
}

// SignUp registers an account and mails the verification link. When SMTP is
// not configured the verification token is surfaced to the caller instead.
func (s *Service) SignUp(ctx context.Context, emailAddr, password, displayName string) (map[string]any, error) {
	resp, err := s.accounts.SignUp(ctx, authpw.SignUpRequest{
		Email:       emailAddr,
		Password:    password,
		DisplayName: displayName,
	})
	if err != nil {
		if err.Error() == "email already registered" {
			return nil, domainError(http.StatusConflict, "EMAIL_EXISTS", "Email already registered", nil)
		}
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
	}

	payload := map[string]any{
		"userId":  resp.UserID,
		"message": "Please check your email to verify your account",
	}
	if s.SMTPConfigured() {
		verifyURL := fmt.Sprintf("%s/verify-email?token=%s", s.cfg.AppBaseURL, resp.VerificationToken)
		go func(to, name, url string) {
			if err := s.mail.SendVerificationEmail(to, name, url); err != nil {
				s.logger.Printf("send verification email: %v", err)
			}
		}(emailAddr, displayName, verifyURL)
	} else {
		payload["devVerificationToken"] = resp.VerificationToken
		payload["message"] = "Account created. Verify your email to continue."
	}
	return payload, nil
}

func (s *Service) SignIn(ctx context.Context, emailAddr, password string) (Session, error) {
	resp, err := s.accounts.SignIn(ctx, authpw.SignInRequest{Email: emailAddr, Password: password})
	if err != nil {
		return Session{}, domainError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
	}
	if resp.RequiresVerify {
		return Session{}, domainError(http.StatusForbidden, "EMAIL_NOT_VERIFIED", "Verify your email before signing in", nil)
	}
	return s.issueSession(ctx, resp.User)
}

func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	if err := s.accounts.VerifyEmail(ctx, token); err != nil {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
	}
	return nil
}

// RequestPasswordReset never reveals whether the address exists.
func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string) (map[string]any, error) {
	token, err := s.accounts.RequestPasswordReset(ctx, emailAddr)
	if err != nil {
		return nil, err
	}
	payload := map[string]any{"message": "If that email is registered, a reset link was sent"}
	if token == "" {
		return payload, nil
	}
	if s.SMTPConfigured() {
		resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.cfg.AppBaseURL, token)
		go func(to, url string) {
			if err := s.mail.SendPasswordResetEmail(to, "", url); err != nil {
				s.logger.Printf("send password reset email: %v", err)
			}
		}(emailAddr, resetURL)
	} else {
		payload["devResetToken"] = token
	}
	return payload, nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := s.accounts.ResetPassword(ctx, authpw.ResetPasswordRequest{Token: token, NewPassword: newPassword}); err != nil {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
	}
	return nil
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.TokenSecret), auth.Claims{
		Sub:   user.ID,
		Name:  user.DisplayName,
		Email: user.Email,
		JTI:   jti,
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user.ID, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		Email:        user.Email,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	partial, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	// The redis-backed store only guarantees the user id; re-read the
	// profile so the new token carries current name and email.
	user, err := s.store.GetUserByID(ctx, partial.ID)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.TokenSecret), token)
	if err != nil {
		return Session{}, err
	}
	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		Email:     user.Email,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// requireTeamRole loads the caller's membership and checks it allows the
// action. Non-members get the same 403 as under-privileged members.
func (s *Service) requireTeamRole(ctx context.Context, session Session, teamID string, action rbac.Action) (store.TeamMember, error) {
	member, err := s.store.GetTeamMember(ctx, teamID, session.UserID)
	if err != nil {
		return store.TeamMember{}, domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}
	if !rbac.Can(rbac.Normalize(member.Role), action) {
		return store.TeamMember{}, domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}
	return member, nil
}

func (s *Service) publish(path, action, id string) {
	if s.hub == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.hub.Publish(ctx, live.Event{Path: path, Action: action, ID: id}); err != nil {
			s.logger.Printf("publish %s %s: %v", action, path, err)
		}
	}()
}

// Watch exposes the live hub subscription for the SSE endpoint.
func (s *Service) Watch(ctx context.Context, paths ...string) (<-chan live.Event, func(), error) {
	if s.hub == nil {
		return nil, nil, domainError(http.StatusServiceUnavailable, "LIVE_UNAVAILABLE", "Live updates not configured", nil)
	}
	return s.hub.Subscribe(ctx, paths...)
}

// UploadImage stores a banner or inline image and returns its key plus a
// presigned fetch URL.
func (s *Service) UploadImage(ctx context.Context, session Session, filename, contentType string, r io.Reader, size int64) (map[string]any, error) {
	if s.blobs == nil {
		return nil, domainError(http.StatusServiceUnavailable, "UPLOADS_UNAVAILABLE", "Object storage not configured", nil)
	}
	ext := ""
	if idx := strings.LastIndex(filename, "."); idx >= 0 {
		ext = strings.ToLower(filename[idx:])
	}
	key := "images/" + session.UserID + "/" + util.NewID("img") + ext
	if _, err := s.blobs.Upload(ctx, key, r, size, contentType); err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	url, err := s.blobs.URL(ctx, key, 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("presign image: %w", err)
	}
	return map[string]any{"key": key, "url": url}, nil
}

// ImageURL re-signs a stored object key for display.
func (s *Service) ImageURL(ctx context.Context, key string) (string, error) {
	if s.blobs == nil {
		return "", domainError(http.StatusServiceUnavailable, "UPLOADS_UNAVAILABLE", "Object storage not configured", nil)
	}
	return s.blobs.URL(ctx, key, 15*time.Minute)
}
