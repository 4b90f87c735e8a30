package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/galgamex/fuxiaochen/internal/model"
	"github.com/galgamex/fuxiaochen/internal/pkg/dbutil"
	appErr "github.com/galgamex/fuxiaochen/internal/pkg/errors"
)

type TokenRepo struct {
	db *sql.DB
}

func NewTokenRepo(db *sql.DB) *TokenRepo {
	return &TokenRepo{db: db}
}

func (r *TokenRepo) Create(ctx context.Context, token *model.VerificationToken) error {
	data := map[string]interface{}{
		"identifier": token.Identifier,
		"token":      token.Token,
		"expires_at": token.ExpiresAt,
	}
	sqlStr, args, err := builder.BuildInsert("verification_tokens", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *TokenRepo) Get(ctx context.Context, identifier, token string) (*model.VerificationToken, error) {
	where := map[string]interface{}{"identifier": identifier, "token": token}
	sqlStr, args, err := builder.BuildSelect("verification_tokens", where, []string{"identifier", "token", "expires_at"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var item model.VerificationToken
	if err := rows.Scan(&item.Identifier, &item.Token, &item.ExpiresAt); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *TokenRepo) Delete(ctx context.Context, identifier, token string) error {
	where := map[string]interface{}{"identifier": identifier, "token": token}
	sqlStr, args, err := builder.BuildDelete("verification_tokens", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// DeleteByIdentifier clears every token for an identifier. Called before each
// issue so at most one token stays live per identifier.
func (r *TokenRepo) DeleteByIdentifier(ctx context.Context, identifier string) error {
	where := map[string]interface{}{"identifier": identifier}
	sqlStr, args, err := builder.BuildDelete("verification_tokens", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *TokenRepo) DeleteExpired(ctx context.Context, now int64) (int64, error) {
	where := map[string]interface{}{"expires_at <=": now}
	sqlStr, args, err := builder.BuildDelete("verification_tokens", where)
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
