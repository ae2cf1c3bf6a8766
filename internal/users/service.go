package users

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mauli-interior/go-storefront/internal/auth"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotFound           = errors.New("user not found")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

// ProfileStore is the persistence surface the service needs.
type ProfileStore interface {
	Create(ctx context.Context, p Profile) error
	GetByID(ctx context.Context, userID string) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	UpdateDetails(ctx context.Context, userID, name, phone string) error
	SetResetToken(ctx context.Context, userID, tokenHash string, expiry time.Time) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	List(ctx context.Context) ([]Profile, error)
}

// ResetMailer delivers password-reset mail. May be nil; reset requests then
// succeed silently without sending anything.
type ResetMailer interface {
	SendPasswordReset(ctx context.Context, toEmail, toName, token string) error
}

// Session is what a successful register or login hands back.
type Session struct {
	Token   string  `json:"token"`
	Profile Profile `json:"profile"`
}

// Service implements registration, login and password reset on top of the
// profile store.
type Service struct {
	store  ProfileStore
	issuer *auth.TokenIssuer
	mailer ResetMailer
	newID  func() string
	now    func() time.Time
}

func NewService(store ProfileStore, issuer *auth.TokenIssuer, mailer ResetMailer) *Service {
	return &Service{
		store:  store,
		issuer: issuer,
		mailer: mailer,
		newID:  uuid.NewString,
		now:    time.Now,
	}
}

// Register creates a profile with a bcrypt password hash and signs the user
// in. Email uniqueness is checked against the email index.
func (s *Service) Register(ctx context.Context, email, password, name string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	profile := Profile{
		UserID:       s.newID(),
		Email:        email,
		Name:         name,
		Role:         auth.RoleCustomer,
		PasswordHash: string(hash),
	}
	if err := s.store.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return s.session(profile)
}

// Login verifies credentials and signs the user in. A missing account and a
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	profile, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup profile: %w", err)
	}
	if profile == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.session(*profile)
}

// Get returns a profile by id.
func (s *Service) Get(ctx context.Context, userID string) (*Profile, error) {
	profile, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrNotFound
	}
	return profile, nil
}

// UpdateDetails changes the mutable profile fields.
func (s *Service) UpdateDetails(ctx context.Context, userID, name, phone string) error {
	return s.store.UpdateDetails(ctx, userID, name, phone)
}

// List returns every profile for the admin back office.
func (s *Service) List(ctx context.Context) ([]Profile, error) {
	return s.store.List(ctx)
}

// StartPasswordReset issues a one-hour reset token and mails it. An unknown
// email succeeds silently so the endpoint cannot be used to probe accounts.
func (s *Service) StartPasswordReset(ctx context.Context, emailAddr string) error {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))
	profile, err := s.store.GetByEmail(ctx, emailAddr)
	if err != nil {
		return fmt.Errorf("lookup profile: %w", err)
	}
	if profile == nil {
		return nil
	}

	token := s.newID()
	if err := s.store.SetResetToken(ctx, profile.UserID, hashToken(token), s.now().Add(time.Hour)); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	if s.mailer == nil {
		return nil
	}
	if err := s.mailer.SendPasswordReset(ctx, profile.Email, profile.Name, token); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	return nil
}

// ResetPassword redeems a reset token and sets the new password.
func (s *Service) ResetPassword(ctx context.Context, emailAddr, token, newPassword string) error {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))
	profile, err := s.store.GetByEmail(ctx, emailAddr)
	if err != nil {
		return fmt.Errorf("lookup profile: %w", err)
	}
	if profile == nil || profile.ResetTokenHash == "" {
		return ErrInvalidResetToken
	}
	if subtle.ConstantTimeCompare([]byte(profile.ResetTokenHash), []byte(hashToken(token))) != 1 {
		return ErrInvalidResetToken
	}
	if s.now().Unix() > profile.ResetTokenExpiry {
		return ErrInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.store.UpdatePassword(ctx, profile.UserID, string(hash))
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *Service) session(profile Profile) (*Session, error) {
	token, err := s.issuer.Issue(profile.UserID, profile.Email, profile.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: token, Profile: profile}, nil
}
