package domain

import (
	"context"
	"encoding/json"
)

type Role string

const (
	UserRoleAdmin Role = "admin"
	UserRoleUser  Role = "user"
)

type User struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      int    `json:"age"`
	Role     Role   `json:"role"`
}

func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

type UserRepository interface {
	FindAll(ctx context.Context) ([]*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	RemoveByIDs(ctx context.Context, ids []int64) error
	Count(ctx context.Context) (int, error)
}

// UserService receives request inputs as they arrived on the wire and runs
// every validation gate itself.
type UserService interface {
	GetUserByID(ctx context.Context, rawID string) (*User, error)
	GetUsersByAgeRange(ctx context.Context, rawMin, rawMax string) ([]*User, error)
	UpdateUser(ctx context.Context, rawID string, body map[string]json.RawMessage) (*User, error)
	CleanupInactiveUsers(ctx context.Context, confirm string) ([]*User, error)
}
