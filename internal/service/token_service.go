package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/galgamex/fuxiaochen/internal/model"
	appErr "github.com/galgamex/fuxiaochen/internal/pkg/errors"
	"github.com/galgamex/fuxiaochen/internal/pkg/timeutil"
	"github.com/galgamex/fuxiaochen/internal/repo"
)

const (
	tokenExpireMinutes = 10
	resetPrefix        = "reset:"
)

// ResetIdentifier namespaces a password-reset token so it never collides with
// a signup verification token for the same email.
func ResetIdentifier(email string) string {
	return resetPrefix + email
}

// TokenService owns the verification-code lifecycle shared by signup
// verification and password reset. At most one token per identifier is kept
// live: Issue deletes the old rows before inserting. The delete-then-insert
// pair is not transactional, so concurrent issues for one identifier can race.
type TokenService struct {
	tokens *repo.TokenRepo
}

func NewTokenService(tokens *repo.TokenRepo) *TokenService {
	return &TokenService{tokens: tokens}
}

// Issue replaces any existing token for identifier with a fresh 6-digit code
// expiring in 10 minutes and returns the code for mail delivery.
func (s *TokenService) Issue(ctx context.Context, identifier string) (string, error) {
	if identifier == "" {
		return "", appErr.ErrInvalid
	}
	if err := s.tokens.DeleteByIdentifier(ctx, identifier); err != nil {
		return "", err
	}
	code := s.generateCode()
	item := &model.VerificationToken{
		Identifier: identifier,
		Token:      code,
		ExpiresAt:  timeutil.NowUnix() + int64(tokenExpireMinutes*60),
	}
	if err := s.tokens.Create(ctx, item); err != nil {
		return "", err
	}
	return code, nil
}

// Consume validates the exact (identifier, code) pair. An absent pair fails
// with ErrNotFound. An expired pair is deleted and fails with ErrExpired.
// A valid pair is deleted before returning, so a second consume of the same
// code fails with ErrNotFound.
func (s *TokenService) Consume(ctx context.Context, identifier, code string) error {
	if identifier == "" || code == "" {
		return appErr.ErrInvalid
	}
	item, err := s.tokens.Get(ctx, identifier, code)
	if err != nil {
		return err
	}
	if item.ExpiresAt <= timeutil.NowUnix() {
		if err := s.tokens.Delete(ctx, identifier, code); err != nil {
			return err
		}
		return appErr.ErrExpired
	}
	return s.tokens.Delete(ctx, identifier, code)
}

// Revoke removes every token for identifier, used by the sign-up
// compensation path.
func (s *TokenService) Revoke(ctx context.Context, identifier string) error {
	return s.tokens.DeleteByIdentifier(ctx, identifier)
}

func (s *TokenService) generateCode() string {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return fmt.Sprintf("%06d", rng.Intn(1000000))
}
