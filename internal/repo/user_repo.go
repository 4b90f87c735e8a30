package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/galgamex/fuxiaochen/internal/model"
	"github.com/galgamex/fuxiaochen/internal/pkg/dbutil"
	appErr "github.com/galgamex/fuxiaochen/internal/pkg/errors"
)

var userColumns = []string{"id", "name", "email", "password_hash", "email_verified_at", "ctime", "mtime"}

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	data := map[string]interface{}{
		"id":                user.ID,
		"name":              user.Name,
		"email":             user.Email,
		"password_hash":     user.PasswordHash,
		"email_verified_at": user.EmailVerifiedAt,
		"ctime":             user.Ctime,
		"mtime":             user.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("users", []map[string]interface{}{data})
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

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, map[string]interface{}{"email": email})
}

func (r *UserRepo) GetByID(ctx context.Context, userID string) (*model.User, error) {
	return r.getOne(ctx, map[string]interface{}{"id": userID})
}

func (r *UserRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.User, error) {
	sqlStr, args, err := builder.BuildSelect("users", where, userColumns)
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
	var user model.User
	if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.EmailVerifiedAt, &user.Ctime, &user.Mtime); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepo) MarkEmailVerified(ctx context.Context, email string, verifiedAt, mtime int64) error {
	where := map[string]interface{}{"email": email}
	update := map[string]interface{}{
		"email_verified_at": verifiedAt,
		"mtime":             mtime,
	}
	return r.update(ctx, where, update)
}

func (r *UserRepo) UpdatePasswordByEmail(ctx context.Context, email, passwordHash string, mtime int64) error {
	where := map[string]interface{}{"email": email}
	update := map[string]interface{}{
		"password_hash": passwordHash,
		"mtime":         mtime,
	}
	return r.update(ctx, where, update)
}

func (r *UserRepo) update(ctx context.Context, where, update map[string]interface{}) error {
	sqlStr, args, err := builder.BuildUpdate("users", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

// Delete removes a user row. Used as the compensating step when the sign-up
// verification mail cannot be delivered.
func (r *UserRepo) Delete(ctx context.Context, userID string) error {
	where := map[string]interface{}{"id": userID}
	sqlStr, args, err := builder.BuildDelete("users", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}
