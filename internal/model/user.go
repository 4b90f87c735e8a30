package model

type User struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	PasswordHash    string `json:"-"`
	EmailVerifiedAt *int64 `json:"email_verified_at"`
	Ctime           int64  `json:"ctime"`
	Mtime           int64  `json:"mtime"`
}

func (u *User) Verified() bool {
	return u.EmailVerifiedAt != nil
}
