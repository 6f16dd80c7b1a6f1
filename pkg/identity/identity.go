// Package identity signs users up, logs them in and issues the bearer
// tokens that authenticate later requests.
//
// Accounts are stored as documents owned by [storage.SystemUser] in the
// "accounts" collection, keyed by a hash of the normalized email. Passwords
// are hashed with bcrypt. Tokens are HS256 JWTs whose subject is the user id.
//
// Failures carry the codes and messages users see on the login and sign up
// forms:
//
//	USER_NOT_FOUND   User not found. Please sign up first.
//	WRONG_PASSWORD   Incorrect password.
//	INVALID_EMAIL    Invalid email address.
//	CONFLICT         This email is already registered.
//	WEAK_PASSWORD    Password should be at least 6 characters.
package identity

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/matzehuels/gardengrid/pkg/cache"
	"github.com/matzehuels/gardengrid/pkg/errors"
	"github.com/matzehuels/gardengrid/pkg/garden"
	"github.com/matzehuels/gardengrid/pkg/storage"
)

// CollectionAccounts holds account documents.
const CollectionAccounts = "accounts"

// DefaultTokenTTL is the lifetime of issued tokens when Config leaves it zero.
const DefaultTokenTTL = 7 * 24 * time.Hour

// Messages shown for authentication failures.
const (
	MsgUserNotFound  = "User not found. Please sign up first."
	MsgWrongPassword = "Incorrect password."
	MsgEmailTaken    = "This email is already registered."
	MsgLoginFailed   = "Login failed. Please try again."
	MsgSignupFailed  = "Signup failed. Please try again."
)

// User is the public view of an account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// Config configures a Service.
type Config struct {
	Secret   []byte        // HMAC key, required
	Issuer   string        // iss claim
	TokenTTL time.Duration // defaults to DefaultTokenTTL
	Cost     int           // bcrypt cost, defaults to bcrypt.DefaultCost
}

// Service implements sign up, log in and token handling.
type Service struct {
	store storage.Store
	cfg   Config
	now   func() time.Time

	// signup serializes the check-then-insert of a new email.
	signup sync.Mutex
}

// New returns a Service storing accounts in store.
func New(store storage.Store, cfg Config) (*Service, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("token secret is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	if cfg.Cost == 0 {
		cfg.Cost = bcrypt.DefaultCost
	}
	return &Service{store: store, cfg: cfg, now: time.Now}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func accountID(email string) string {
	return cache.Hash([]byte(email))[:32]
}

func (s *Service) find(ctx context.Context, email string) (account, bool, error) {
	doc, err := s.store.Get(ctx, storage.SystemUser, CollectionAccounts, accountID(email))
	if stderrors.Is(err, storage.ErrNotFound) {
		return account{}, false, nil
	}
	if err != nil {
		return account{}, false, err
	}
	var a account
	if err := doc.Decode(&a); err != nil {
		return account{}, false, err
	}
	return a, true, nil
}

// SignUp creates an account.
func (s *Service) SignUp(ctx context.Context, email, password string) (User, error) {
	email = normalizeEmail(email)
	if err := errors.ValidateEmail(email); err != nil {
		return User{}, err
	}
	if err := errors.ValidatePassword(password); err != nil {
		return User{}, err
	}

	s.signup.Lock()
	defer s.signup.Unlock()

	if _, exists, err := s.find(ctx, email); err != nil {
		return User{}, errors.Wrap(errors.ErrCodeInternal, err, MsgSignupFailed)
	} else if exists {
		return User{}, errors.New(errors.ErrCodeConflict, MsgEmailTaken)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.Cost)
	if err != nil {
		return User{}, errors.Wrap(errors.ErrCodeInternal, err, MsgSignupFailed)
	}
	a := account{ID: garden.NewID(), Email: email, PasswordHash: string(hash), CreatedAt: s.now().UTC()}
	doc, err := storage.NewDocument(accountID(email), 0, a)
	if err != nil {
		return User{}, errors.Wrap(errors.ErrCodeInternal, err, MsgSignupFailed)
	}
	if err := s.store.Put(ctx, storage.SystemUser, CollectionAccounts, doc); err != nil {
		return User{}, errors.Wrap(errors.ErrCodeInternal, err, MsgSignupFailed)
	}
	return User{ID: a.ID, Email: a.Email}, nil
}

// LogIn checks credentials.
func (s *Service) LogIn(ctx context.Context, email, password string) (User, error) {
	email = normalizeEmail(email)
	if err := errors.ValidateEmail(email); err != nil {
		return User{}, err
	}

	a, ok, err := s.find(ctx, email)
	if err != nil {
		return User{}, errors.Wrap(errors.ErrCodeInternal, err, MsgLoginFailed)
	}
	if !ok {
		return User{}, errors.New(errors.ErrCodeUserNotFound, MsgUserNotFound)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return User{}, errors.New(errors.ErrCodeWrongPassword, MsgWrongPassword)
	}
	return User{ID: a.ID, Email: a.Email}, nil
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Issue signs a token for u and returns it with its expiry.
func (s *Service) Issue(u User) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.cfg.TokenTTL)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        garden.NewID(),
		},
	})
	signed, err := tok.SignedString(s.cfg.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses and validates a token and returns its user.
func (s *Service) Verify(token string) (User, error) {
	var c claims
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return s.cfg.Secret, nil
	}, opts...)
	switch {
	case stderrors.Is(err, jwt.ErrTokenExpired):
		return User{}, errors.Wrap(errors.ErrCodeSessionExpired, err, "session expired")
	case err != nil:
		return User{}, errors.Wrap(errors.ErrCodeUnauthorized, err, "invalid token")
	case c.Subject == "":
		return User{}, errors.New(errors.ErrCodeUnauthorized, "token has no subject")
	}
	return User{ID: c.Subject, Email: c.Email}, nil
}
