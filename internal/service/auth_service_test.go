package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/galgamex/fuxiaochen/internal/model"
	appErr "github.com/galgamex/fuxiaochen/internal/pkg/errors"
	"github.com/galgamex/fuxiaochen/internal/pkg/timeutil"
	"github.com/galgamex/fuxiaochen/internal/repo"
	"github.com/galgamex/fuxiaochen/internal/service"
	"github.com/galgamex/fuxiaochen/internal/testutil"
)

type recordingSender struct {
	sent []string
	err  error
}

func (s *recordingSender) Send(to, subject, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, to)
	return nil
}

func newAuthService(users *repo.UserRepo, tokens *repo.TokenRepo, sender service.EmailSender) *service.AuthService {
	return service.NewAuthService(users, service.NewTokenService(tokens), sender, []byte("test-secret"), time.Hour)
}

func TestSignUp_MailFailureRollsBackUserAndToken(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	users := repo.NewUserRepo(conn)
	tokens := repo.NewTokenRepo(conn)
	auth := newAuthService(users, tokens, &recordingSender{err: errors.New("smtp down")})
	ctx := context.Background()

	err := auth.SignUp(ctx, "A", "a@x.com", "secret")
	require.Error(t, err)

	_, err = users.GetByEmail(ctx, "a@x.com")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	var tokenRows int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM verification_tokens WHERE identifier = $1", "a@x.com").Scan(&tokenRows))
	require.Zero(t, tokenRows)
}

func TestSignUp_DuplicateEmailConflicts(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	users := repo.NewUserRepo(conn)
	tokens := repo.NewTokenRepo(conn)
	auth := newAuthService(users, tokens, &recordingSender{})
	ctx := context.Background()

	require.NoError(t, auth.SignUp(ctx, "A", "dup@x.com", "secret"))
	require.ErrorIs(t, auth.SignUp(ctx, "A", "dup@x.com", "secret"), appErr.ErrConflict)
}

func TestSignInAndVerifyFlow(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	users := repo.NewUserRepo(conn)
	tokens := repo.NewTokenRepo(conn)
	sender := &recordingSender{}
	auth := newAuthService(users, tokens, sender)
	ctx := context.Background()

	require.NoError(t, auth.SignUp(ctx, "B", "b@x.com", "secret"))
	require.Equal(t, []string{"b@x.com"}, sender.sent)

	user, token, err := auth.SignIn(ctx, "b@x.com", "secret")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, user.Verified())

	_, _, err = auth.SignIn(ctx, "b@x.com", "wrong")
	require.ErrorIs(t, err, appErr.ErrUnauthorized)

	// plant a known code instead of intercepting mail
	require.NoError(t, tokens.DeleteByIdentifier(ctx, "b@x.com"))
	require.NoError(t, tokens.Create(ctx, &model.VerificationToken{
		Identifier: "b@x.com",
		Token:      "424242",
		ExpiresAt:  timeutil.NowUnix() + 600,
	}))
	require.NoError(t, auth.VerifyEmail(ctx, "b@x.com", "424242"))

	user, err = users.GetByEmail(ctx, "b@x.com")
	require.NoError(t, err)
	require.True(t, user.Verified())

	// already verified: resend is rejected with a dedicated error
	require.ErrorIs(t, auth.ResendVerification(ctx, "b@x.com"), appErr.ErrAlreadyVerified)
}

func TestForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	sender := &recordingSender{}
	auth := newAuthService(repo.NewUserRepo(conn), repo.NewTokenRepo(conn), sender)

	require.NoError(t, auth.ForgotPassword(context.Background(), "ghost@x.com"))
	require.Empty(t, sender.sent)
}

func TestResetPassword_ExpiredCodeLeavesHashUnchanged(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	users := repo.NewUserRepo(conn)
	tokens := repo.NewTokenRepo(conn)
	auth := newAuthService(users, tokens, &recordingSender{})
	ctx := context.Background()

	require.NoError(t, auth.SignUp(ctx, "C", "c@x.com", "oldpass"))
	before, err := users.GetByEmail(ctx, "c@x.com")
	require.NoError(t, err)

	require.NoError(t, tokens.Create(ctx, &model.VerificationToken{
		Identifier: service.ResetIdentifier("c@x.com"),
		Token:      "111111",
		ExpiresAt:  timeutil.NowUnix() - 1,
	}))

	err = auth.ResetPassword(ctx, "c@x.com", "111111", "newpass")
	require.ErrorIs(t, err, appErr.ErrExpired)

	after, err := users.GetByEmail(ctx, "c@x.com")
	require.NoError(t, err)
	require.Equal(t, before.PasswordHash, after.PasswordHash)

	// the stale row was deleted on detection
	_, err = tokens.Get(ctx, service.ResetIdentifier("c@x.com"), "111111")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	// old password still works
	_, _, err = auth.SignIn(ctx, "c@x.com", "oldpass")
	require.NoError(t, err)
}

func TestResetPassword_ValidCodeUpdatesPassword(t *testing.T) {
	conn, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	users := repo.NewUserRepo(conn)
	tokens := repo.NewTokenRepo(conn)
	auth := newAuthService(users, tokens, &recordingSender{})
	ctx := context.Background()

	require.NoError(t, auth.SignUp(ctx, "D", "d@x.com", "oldpass"))
	require.NoError(t, tokens.Create(ctx, &model.VerificationToken{
		Identifier: service.ResetIdentifier("d@x.com"),
		Token:      "222222",
		ExpiresAt:  timeutil.NowUnix() + 600,
	}))

	require.NoError(t, auth.ResetPassword(ctx, "d@x.com", "222222", "newpass"))

	_, _, err := auth.SignIn(ctx, "d@x.com", "newpass")
	require.NoError(t, err)
	_, _, err = auth.SignIn(ctx, "d@x.com", "oldpass")
	require.ErrorIs(t, err, appErr.ErrUnauthorized)
}
