package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mauli-interior/go-storefront/internal/auth"
)

type memStore struct {
	byID    map[string]Profile
	byEmail map[string]Profile
}

func newMemStore() *memStore {
	return &memStore{byID: map[string]Profile{}, byEmail: map[string]Profile{}}
}

func (m *memStore) Create(ctx context.Context, p Profile) error {
	m.byID[p.UserID] = p
	m.byEmail[p.Email] = p
	return nil
}

func (m *memStore) GetByID(ctx context.Context, userID string) (*Profile, error) {
	if p, ok := m.byID[userID]; ok {
		return &p, nil
	}
	return nil, nil
}

func (m *memStore) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	if p, ok := m.byEmail[email]; ok {
		return &p, nil
	}
	return nil, nil
}

func (m *memStore) UpdateDetails(ctx context.Context, userID, name, phone string) error {
	p, ok := m.byID[userID]
	if !ok {
		return errors.New("missing")
	}
	p.Name = name
	p.Phone = phone
	m.byID[userID] = p
	m.byEmail[p.Email] = p
	return nil
}

func (m *memStore) SetResetToken(ctx context.Context, userID, tokenHash string, expiry time.Time) error {
	p, ok := m.byID[userID]
	if !ok {
		return errors.New("missing")
	}
	p.ResetTokenHash = tokenHash
	p.ResetTokenExpiry = expiry.Unix()
	m.byID[userID] = p
	m.byEmail[p.Email] = p
	return nil
}

func (m *memStore) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	p, ok := m.byID[userID]
	if !ok {
		return errors.New("missing")
	}
	p.PasswordHash = passwordHash
	p.ResetTokenHash = ""
	p.ResetTokenExpiry = 0
	m.byID[userID] = p
	m.byEmail[p.Email] = p
	return nil
}

func (m *memStore) List(ctx context.Context) ([]Profile, error) {
	out := make([]Profile, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, p)
	}
	return out, nil
}

type memMailer struct {
	tokens map[string]string
}

func (m *memMailer) SendPasswordReset(ctx context.Context, toEmail, toName, token string) error {
	if m.tokens == nil {
		m.tokens = map[string]string{}
	}
	m.tokens[toEmail] = token
	return nil
}

func newTestService() (*Service, *memStore) {
	store := newMemStore()
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	return NewService(store, issuer, &memMailer{}), store
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	reg, err := svc.Register(ctx, "Asha@Example.com", "hunter22", "Asha Kulkarni")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if reg.Profile.Email != "asha@example.com" {
		t.Errorf("email = %q, want lowercased", reg.Profile.Email)
	}
	if reg.Profile.Role != auth.RoleCustomer {
		t.Errorf("role = %q, want customer", reg.Profile.Role)
	}
	if reg.Profile.PasswordHash == "hunter22" {
		t.Error("password stored in plain text")
	}
	if reg.Token == "" {
		t.Error("no token issued")
	}

	login, err := svc.Login(ctx, "asha@example.com", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.Profile.UserID != reg.Profile.UserID {
		t.Errorf("login user = %s, want %s", login.Profile.UserID, reg.Profile.UserID)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	if _, err := svc.Register(ctx, "asha@example.com", "hunter22", "Asha"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, "asha@example.com", "other", "Asha"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	if _, err := svc.Register(ctx, "asha@example.com", "hunter22", "Asha"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, "asha@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "hunter22"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email err = %v, want ErrInvalidCredentials", err)
	}
}

func TestGet_Missing(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStartPasswordReset_UnknownEmailIsSilent(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	mailer := &memMailer{}
	svc := NewService(store, auth.NewTokenIssuer("test-secret", time.Hour), mailer)

	if err := svc.StartPasswordReset(ctx, "nobody@example.com"); err != nil {
		t.Fatalf("unknown email should succeed silently, got %v", err)
	}
	if len(mailer.tokens) != 0 {
		t.Errorf("mail sent for unknown email: %v", mailer.tokens)
	}
}

func TestResetPassword_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	mailer := &memMailer{}
	svc := NewService(store, auth.NewTokenIssuer("test-secret", time.Hour), mailer)

	if _, err := svc.Register(ctx, "asha@example.com", "hunter22", "Asha"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.StartPasswordReset(ctx, "Asha@Example.com"); err != nil {
		t.Fatalf("start reset: %v", err)
	}
	token := mailer.tokens["asha@example.com"]
	if token == "" {
		t.Fatal("no reset token mailed")
	}

	if err := svc.ResetPassword(ctx, "asha@example.com", "not-the-token", "newpass99"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("wrong token err = %v, want ErrInvalidResetToken", err)
	}
	if err := svc.ResetPassword(ctx, "asha@example.com", token, "newpass99"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if _, err := svc.Login(ctx, "asha@example.com", "hunter22"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("old password still accepted after reset")
	}
	if _, err := svc.Login(ctx, "asha@example.com", "newpass99"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}

	if err := svc.ResetPassword(ctx, "asha@example.com", token, "again"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("reused token err = %v, want ErrInvalidResetToken", err)
	}
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	mailer := &memMailer{}
	svc := NewService(store, auth.NewTokenIssuer("test-secret", time.Hour), mailer)

	if _, err := svc.Register(ctx, "asha@example.com", "hunter22", "Asha"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.StartPasswordReset(ctx, "asha@example.com"); err != nil {
		t.Fatalf("start reset: %v", err)
	}
	token := mailer.tokens["asha@example.com"]

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if err := svc.ResetPassword(ctx, "asha@example.com", token, "newpass99"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("expired token err = %v, want ErrInvalidResetToken", err)
	}
}
