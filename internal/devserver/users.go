package devserver

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"time"

	"skillconnect/internal/models"
	"skillconnect/internal/stubs"

	"github.com/c-pro/geche"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists      = errors.New("user already exists")
	ErrInvalidLogin    = errors.New("invalid credentials")
	ErrNotVerified     = errors.New("email is not verified")
	ErrInvalidOTP      = errors.New("invalid or expired code")
	ErrAlreadyVerified = errors.New("email is already verified")
)

type user struct {
	Email        string
	PasswordHash []byte
	Role         models.Role
	Phone        string
	Verified     bool
	FirstLogin   bool
	// Profile holds the form field names of the last profile submission.
	Profile []string
}

func (u *user) profile() models.Profile {
	return models.Profile{Email: u.Email, Role: u.Role, FirstLogin: u.FirstLogin}
}

// accounts keeps registered users, their one-time codes and live tokens.
type accounts struct {
	users  *geche.Locker[string, *user]
	tokens geche.Geche[string, string]
	otps   geche.Geche[string, string]
	cost   int
}

func newAccounts(ctx context.Context, tokenExpiry, otpExpiry time.Duration, cost int) (*accounts, error) {
	a := &accounts{
		users:  geche.NewLocker[string, *user](geche.NewMapCache[string, *user]()),
		tokens: geche.NewMapTTLCache[string, string](ctx, tokenExpiry, time.Minute),
		otps:   geche.NewMapTTLCache[string, string](ctx, otpExpiry, time.Minute),
		cost:   cost,
	}

	for _, acc := range stubs.Accounts {
		if _, err := a.add(acc.Email, acc.Password, acc.Role, "", true); err != nil {
			return nil, fmt.Errorf("failed to seed %s: %w", acc.Email, err)
		}
	}
	return a, nil
}

func (a *accounts) add(email, password string, role models.Role, phone string, verified bool) (*user, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	tx := a.users.Lock()
	defer tx.Unlock()
	if _, err := tx.Get(email); err == nil {
		return nil, ErrUserExists
	}

	u := &user{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Phone:        phone,
		Verified:     verified,
		FirstLogin:   !verified,
	}
	tx.Set(email, u)
	return u, nil
}

// login checks the password and issues a token.
func (a *accounts) login(email, password string) (string, error) {
	tx := a.users.Lock()
	stored, err := tx.Get(email)
	var u user
	if err == nil {
		u = *stored
	}
	tx.Unlock()
	if err != nil {
		return "", ErrInvalidLogin
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return "", ErrInvalidLogin
	}
	if !u.Verified {
		return "", ErrNotVerified
	}
	return a.issue(email)
}

func (a *accounts) issue(email string) (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(b)
	a.tokens.Set(token, email)
	return token, nil
}

func (a *accounts) revoke(token string) {
	_ = a.tokens.Del(token)
}

// lookup resolves a token to a snapshot of its user.
func (a *accounts) lookup(token string) (user, error) {
	if token == "" {
		return user{}, ErrInvalidLogin
	}
	email, err := a.tokens.Get(token)
	if err != nil {
		return user{}, ErrInvalidLogin
	}

	tx := a.users.Lock()
	defer tx.Unlock()
	u, err := tx.Get(email)
	if err != nil {
		return user{}, ErrInvalidLogin
	}
	return *u, nil
}

// update runs fn on the stored user under the registry lock.
func (a *accounts) update(email string, fn func(*user) error) error {
	tx := a.users.Lock()
	defer tx.Unlock()
	u, err := tx.Get(email)
	if err != nil {
		return models.ErrNotFound
	}
	return fn(u)
}

// newOTP issues a fresh six digit code for an unverified user.
func (a *accounts) newOTP(email string) (string, error) {
	err := a.update(email, func(u *user) error {
		if u.Verified {
			return ErrAlreadyVerified
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())
	a.otps.Set(email, code)
	return code, nil
}

// verify consumes the code and returns a token for the now verified user.
func (a *accounts) verify(email, code string) (string, models.Role, error) {
	want, err := a.otps.Get(email)
	if err != nil || code == "" || want != code {
		return "", "", ErrInvalidOTP
	}
	_ = a.otps.Del(email)

	var role models.Role
	err = a.update(email, func(u *user) error {
		u.Verified = true
		role = u.Role
		return nil
	})
	if err != nil {
		return "", "", err
	}

	token, err := a.issue(email)
	return token, role, err
}

func (a *accounts) exists(email string) bool {
	tx := a.users.Lock()
	defer tx.Unlock()
	_, err := tx.Get(email)
	return err == nil
}
