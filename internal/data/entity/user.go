package entity

import "strings"

type UserRole string

const (
	RoleUser      UserRole = "user"
	RoleModerator UserRole = "moderator"
	RoleAdmin     UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// ReservedUsernames cannot be registered; "me" would shadow /users/me.
var ReservedUsernames = []string{"me", "admin"}

func IsReservedUsername(username string) bool {
	for _, reserved := range ReservedUsernames {
		if strings.EqualFold(username, reserved) {
			return true
		}
	}
	return false
}

type User struct {
	Base
	Username    string   `db:"username"`
	Email       string   `db:"email"`
	FirstName   string   `db:"first_name"`
	LastName    string   `db:"last_name"`
	Role        UserRole `db:"role"`
	Bio         string   `db:"bio"`
	IsSuperuser bool     `db:"is_superuser"`
	// bcrypt hash of the most recently issued confirmation code
	ConfirmationCode string `db:"confirmation_code"`
	IsConfirmed      bool   `db:"is_confirmed"`
}
