package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/galgamex/fuxiaochen/internal/model"
	appErr "github.com/galgamex/fuxiaochen/internal/pkg/errors"
	"github.com/galgamex/fuxiaochen/internal/pkg/jwt"
	"github.com/galgamex/fuxiaochen/internal/pkg/password"
	"github.com/galgamex/fuxiaochen/internal/pkg/timeutil"
	"github.com/galgamex/fuxiaochen/internal/repo"
)

type AuthService struct {
	users     *repo.UserRepo
	tokens    *TokenService
	sender    EmailSender
	jwtSecret []byte
	jwtTTL    time.Duration
}

func NewAuthService(users *repo.UserRepo, tokens *TokenService, sender EmailSender, secret []byte, ttl time.Duration) *AuthService {
	return &AuthService{users: users, tokens: tokens, sender: sender, jwtSecret: secret, jwtTTL: ttl}
}

// SignUp creates an unverified user and mails a verification code. Delivery
// failure rolls the user and token rows back; a crash between the insert and
// the compensation can still leave an orphaned unverified user behind.
func (s *AuthService) SignUp(ctx context.Context, name, email, plainPassword string) error {
	email = normalizeEmail(email)
	if email == "" || plainPassword == "" {
		return appErr.ErrInvalid
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return appErr.ErrConflict
	} else if !appErr.IsNotFound(err) {
		return err
	}
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return err
	}
	now := timeutil.NowUnix()
	user := &model.User{
		ID:           newID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Ctime:        now,
		Mtime:        now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return err
	}
	code, err := s.tokens.Issue(ctx, email)
	if err != nil {
		_ = s.users.Delete(ctx, user.ID)
		return err
	}
	if err := s.sender.Send(email, verificationSubject, verificationEmailHTML(displayName(user), code)); err != nil {
		_ = s.users.Delete(ctx, user.ID)
		_ = s.tokens.Revoke(ctx, email)
		return fmt.Errorf("send verification mail: %w", err)
	}
	return nil
}

func (s *AuthService) SignIn(ctx context.Context, email, plainPassword string) (*model.User, string, error) {
	email = normalizeEmail(email)
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", appErr.ErrUnauthorized
	}
	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		return nil, "", appErr.ErrUnauthorized
	}
	token, err := jwt.GenerateToken(user.ID, user.Email, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	if err := s.tokens.Consume(ctx, email, strings.TrimSpace(code)); err != nil {
		return err
	}
	return s.users.MarkEmailVerified(ctx, email, timeutil.NowUnix(), timeutil.NowUnix())
}

// ResendVerification re-issues the signup code. Unlike SignUp there is no
// rollback on delivery failure: the fresh token stays consumable until its
// natural expiry.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.Verified() {
		return appErr.ErrAlreadyVerified
	}
	code, err := s.tokens.Issue(ctx, email)
	if err != nil {
		return err
	}
	if err := s.sender.Send(email, verificationSubject, verificationEmailHTML(displayName(user), code)); err != nil {
		return fmt.Errorf("send verification mail: %w", err)
	}
	return nil
}

// ForgotPassword reports success for unknown emails so the endpoint cannot be
// used to probe which addresses are registered.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return appErr.ErrInvalid
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil
		}
		return err
	}
	code, err := s.tokens.Issue(ctx, ResetIdentifier(email))
	if err != nil {
		return err
	}
	if err := s.sender.Send(email, passwordResetSubject, passwordResetEmailHTML(displayName(user), code)); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)
	if newPassword == "" {
		return appErr.ErrInvalid
	}
	if err := s.tokens.Consume(ctx, ResetIdentifier(email), strings.TrimSpace(code)); err != nil {
		return err
	}
	hash, err := password.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePasswordByEmail(ctx, email, hash, timeutil.NowUnix())
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func displayName(user *model.User) string {
	if user.Name != "" {
		return user.Name
	}
	return user.Email
}
