package userdb

import (
	"time"

	"github.com/uptrace/bun"
)

// User is a registered participant or administrator.
// Score is a denormalised cache of the points credited at solve time.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64      `bun:"id,pk,autoincrement" json:"id"`
	Username     string     `bun:"username,notnull,unique" json:"username"`
	Email        string     `bun:"email,notnull,unique" json:"email"`
	PasswordHash string     `bun:"password_hash,notnull" json:"-"`
	IsAdmin      bool       `bun:"is_admin,notnull,default:false" json:"is_admin"`
	Score        int        `bun:"score,notnull,default:0" json:"score"`
	IsActive     bool       `bun:"is_active,notnull,default:true" json:"is_active"`
	CreatedAt    time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	LastLogin    *time.Time `bun:"last_login,nullzero" json:"last_login,omitempty"`
}

// UserUpdateFields carries a partial update. Nil fields are left untouched.
type UserUpdateFields struct {
	Username     *string
	Email        *string
	PasswordHash *string
	IsAdmin      *bool
	IsActive     *bool
}

// IsEmpty reports whether no field is set.
func (u *UserUpdateFields) IsEmpty() bool {
	return u == nil || (u.Username == nil && u.Email == nil && u.PasswordHash == nil &&
		u.IsAdmin == nil && u.IsActive == nil)
}

// UserScore pairs a user with a recomputed total.
type UserScore struct {
	UserID int64 `bun:"user_id"`
	Score  int   `bun:"score"`
}
