package authpw

import (
	"context"
	"errors"
	"testing"
	"time"

	"folio/api/internal/store"
)

type resetEntry struct {
	userID    string
	expiresAt time.Time
	used      bool
}

// memStore is an in-memory UserStore for exercising the account flows.
type memStore struct {
	byID    map[string]store.User
	byEmail map[string]string
	resets  map[string]resetEntry
}

func newMemStore() *memStore {
	return &memStore{
		byID:    make(map[string]store.User),
		byEmail: make(map[string]string),
		resets:  make(map[string]resetEntry),
	}
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	if id, ok := m.byEmail[email]; ok {
		return m.byID[id], nil
	}
	return store.User{}, errors.New("not found")
}

func (m *memStore) CreateUser(_ context.Context, user store.User) error {
	m.byID[user.ID] = user
	m.byEmail[user.Email] = user.ID
	return nil
}

func (m *memStore) UpdateUserVerificationToken(_ context.Context, userID, token string, expiresAt time.Time) error {
	user, ok := m.byID[userID]
	if !ok {
		return errors.New("not found")
	}
	user.VerificationToken = token
	user.VerificationExpiresAt = &expiresAt
	m.byID[userID] = user
	return nil
}

func (m *memStore) VerifyUserEmail(_ context.Context, token string) error {
	for id, user := range m.byID {
		if user.VerificationToken == token && token != "" {
			user.IsEmailVerified = true
			m.byID[id] = user
			return nil
		}
	}
	return errors.New("invalid token")
}

func (m *memStore) UpdateUserPassword(_ context.Context, userID, passwordHash string) error {
	user, ok := m.byID[userID]
	if !ok {
		return errors.New("not found")
	}
	user.PasswordHash = passwordHash
	m.byID[userID] = user
	return nil
}

func (m *memStore) CreatePasswordReset(_ context.Context, userID, token string, expiresAt time.Time) error {
	m.resets[token] = resetEntry{userID: userID, expiresAt: expiresAt}
	return nil
}

func (m *memStore) GetPasswordReset(_ context.Context, token string) (string, error) {
	entry, ok := m.resets[token]
	if !ok || entry.used || time.Now().After(entry.expiresAt) {
		return "", errors.New("invalid or expired token")
	}
	return entry.userID, nil
}

func (m *memStore) MarkPasswordResetUsed(_ context.Context, token string) error {
	if entry, ok := m.resets[token]; ok {
		entry.used = true
		m.resets[token] = entry
	}
	return nil
}

func signUpVerified(t *testing.T, svc *Service, email, password string) *SignUpResponse {
	t.Helper()
	resp, err := svc.SignUp(context.Background(), SignUpRequest{
		Email:       email,
		Password:    password,
		DisplayName: "Someone",
	})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if err := svc.VerifyEmail(context.Background(), resp.VerificationToken); err != nil {
		t.Fatalf("VerifyEmail() error = %v", err)
	}
	return resp
}

func TestSignUpValidation(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()

	cases := []struct {
		name string
		req  SignUpRequest
	}{
		{"empty request", SignUpRequest{}},
		{"short password", SignUpRequest{Email: "a@b.co", Password: "short", DisplayName: "A"}},
		{"blank name", SignUpRequest{Email: "a@b.co", Password: "password123", DisplayName: "  "}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.SignUp(ctx, tc.req); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestSignUpNormalizesAndRejectsDuplicates(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()

	resp, err := svc.SignUp(ctx, SignUpRequest{
		Email:       "  Casey@Example.COM ",
		Password:    "password123",
		DisplayName: "Casey",
	})
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if resp.UserID == "" || resp.VerificationToken == "" {
		t.Fatalf("incomplete response: %+v", resp)
	}
	if !resp.RequiresEmailVerify {
		t.Fatal("new accounts must require verification")
	}

	// The stored email is lowercased, so a differently cased duplicate
	// still collides.
	_, err = svc.SignUp(ctx, SignUpRequest{
		Email:       "casey@example.com",
		Password:    "password123",
		DisplayName: "Casey Again",
	})
	if err == nil || err.Error() != "email already registered" {
		t.Fatalf("duplicate signup error = %v", err)
	}
}

func TestSignInFlow(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()
	signUpVerified(t, svc, "casey@example.com", "password123")

	resp, err := svc.SignIn(ctx, SignInRequest{Email: "Casey@Example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if resp.RequiresVerify {
		t.Fatal("verified user flagged as unverified")
	}
	if resp.User.Email != "casey@example.com" {
		t.Fatalf("user email = %q", resp.User.Email)
	}

	if _, err := svc.SignIn(ctx, SignInRequest{Email: "casey@example.com", Password: "wrong-password"}); err == nil {
		t.Fatal("expected error for wrong password")
	}
	if _, err := svc.SignIn(ctx, SignInRequest{Email: "nobody@example.com", Password: "password123"}); err == nil {
		t.Fatal("expected error for unknown email")
	}
}

func TestSignInUnverifiedAccount(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, SignUpRequest{
		Email:       "pending@example.com",
		Password:    "password123",
		DisplayName: "Pending",
	}); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	resp, err := svc.SignIn(ctx, SignInRequest{Email: "pending@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if !resp.RequiresVerify {
		t.Fatal("unverified user not flagged")
	}

	// A wrong password on an unverified account is still a credential
	// failure, not a verification prompt.
	if _, err := svc.SignIn(ctx, SignInRequest{Email: "pending@example.com", Password: "other-password"}); err == nil {
		t.Fatal("expected error for wrong password")
	}
}

func TestVerifyEmailRejectsBadTokens(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()

	if err := svc.VerifyEmail(ctx, ""); err == nil {
		t.Fatal("expected error for empty token")
	}
	if err := svc.VerifyEmail(ctx, "no-such-token"); err == nil {
		t.Fatal("expected error for unknown token")
	}
}

func TestPasswordResetRoundTrip(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()
	signUpVerified(t, svc, "casey@example.com", "password123")

	token, err := svc.RequestPasswordReset(ctx, "casey@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset() error = %v", err)
	}
	if token == "" {
		t.Fatal("expected a reset token")
	}

	if err := svc.ResetPassword(ctx, ResetPasswordRequest{Token: token, NewPassword: "fresh-password-1"}); err != nil {
		t.Fatalf("ResetPassword() error = %v", err)
	}
	if _, err := svc.SignIn(ctx, SignInRequest{Email: "casey@example.com", Password: "password123"}); err == nil {
		t.Fatal("old password still accepted")
	}
	if _, err := svc.SignIn(ctx, SignInRequest{Email: "casey@example.com", Password: "fresh-password-1"}); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}

	// Reset tokens are single use.
	if err := svc.ResetPassword(ctx, ResetPasswordRequest{Token: token, NewPassword: "another-password"}); err == nil {
		t.Fatal("expected error reusing reset token")
	}
}

func TestPasswordResetHidesUnknownEmails(t *testing.T) {
	svc := NewService(newMemStore())

	token, err := svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset() error = %v", err)
	}
	if token != "" {
		t.Fatal("unknown email must not yield a token")
	}
}

func TestResetPasswordValidation(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()

	if err := svc.ResetPassword(ctx, ResetPasswordRequest{}); err == nil {
		t.Fatal("expected error for empty request")
	}
	if err := svc.ResetPassword(ctx, ResetPasswordRequest{Token: "tok", NewPassword: "short"}); err == nil {
		t.Fatal("expected error for short password")
	}
	if err := svc.ResetPassword(ctx, ResetPasswordRequest{Token: "bogus", NewPassword: "long-enough-pass"}); err == nil {
		t.Fatal("expected error for unknown token")
	}
}
