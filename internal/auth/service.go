package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hwstore/hwstore-server/internal/store"
)

var (
	// ErrInvalidCredentials is returned when email/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when trying to register with an existing email.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidEmail is returned when the email doesn't look like one.
	ErrInvalidEmail = errors.New("invalid email")
	// ErrInvalidPassword is returned when password doesn't meet constraints.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrIncompleteProfile is returned when an identity provider omits id or email.
	ErrIncompleteProfile = errors.New("incomplete profile")
	// ErrUnverifiedEmail is returned when an identity provider has not verified the email.
	ErrUnverifiedEmail = errors.New("email not verified")
)

const minPasswordLength = 6

// Session is the result of a successful login.
type Session struct {
	Token string
	User  *store.User
}

// Service provides authentication operations.
type Service struct {
	store     store.UserStore
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service.
func NewService(userStore store.UserStore, jwtConfig *JWTConfig) *Service {
	return &Service{
		store:     userStore,
		jwtConfig: jwtConfig,
	}
}

// Register creates a local account with a hashed password and returns a session.
func (s *Service) Register(ctx context.Context, email, name, password string) (*Session, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, ErrInvalidPassword
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = email[:strings.Index(email, "@")]
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, &store.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.issue(user)
}

// Login validates credentials and returns a session.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	// Accounts created through Google have no local password.
	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if errPwd := ComparePassword(user.PasswordHash, password); errPwd != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// LoginWithGoogle finds or creates the account behind a Google profile.
// An existing local account with the same email is linked rather than duplicated.
// Linking and creating both require Google to have verified the email.
func (s *Service) LoginWithGoogle(ctx context.Context, profile *GoogleProfile) (*Session, error) {
	if profile == nil || profile.ID == "" || profile.Email == "" {
		return nil, ErrIncompleteProfile
	}

	user, err := s.store.GetUserByGoogleID(ctx, profile.ID)
	if err == nil {
		return s.issue(user)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("get user by google id: %w", err)
	}
	if !profile.VerifiedEmail {
		return nil, ErrUnverifiedEmail
	}

	email := normalizeEmail(profile.Email)
	user, err = s.store.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if linkErr := s.store.LinkGoogleID(ctx, user.ID, profile.ID); linkErr != nil {
			return nil, fmt.Errorf("link google account: %w", linkErr)
		}
		user.GoogleID = profile.ID
	case errors.Is(err, store.ErrNotFound):
		user, err = s.store.CreateUser(ctx, &store.User{
			GoogleID: profile.ID,
			Name:     profile.Name,
			Email:    email,
		})
		if err != nil {
			return nil, fmt.Errorf("create google user: %w", err)
		}
	default:
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return s.issue(user)
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}

// CurrentUser loads the user a set of claims refers to.
func (s *Service) CurrentUser(ctx context.Context, claims *Claims) (*store.User, error) {
	return s.store.GetUserByID(ctx, claims.UserID)
}

func (s *Service) issue(user *store.User) (*Session, error) {
	token, err := GenerateToken(s.jwtConfig, user.ID, user.Email, user.Name)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &Session{Token: token, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validEmail requires a non-empty local part and domain around a single "@".
func validEmail(email string) bool {
	local, domain, ok := strings.Cut(email, "@")
	return ok && local != "" && domain != "" && !strings.Contains(domain, "@")
}
