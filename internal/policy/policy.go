// Package policy decides who may do what to which kind of resource.
// It has no side effects and never touches storage.
package policy

import (
	"context"

	"yamdb-api/internal/data/entity"
	"yamdb-api/pkg/utils"

	"github.com/google/uuid"
)

type Resource int

const (
	// Catalog covers categories, genres and titles.
	Catalog Resource = iota
	// Feedback covers reviews and comments.
	Feedback
	// Users is the admin-only user directory.
	Users
	// Profile is the caller's own record at /users/me.
	Profile
)

func (r Resource) String() string {
	switch r {
	case Catalog:
		return "catalog"
	case Feedback:
		return "feedback"
	case Users:
		return "users"
	case Profile:
		return "profile"
	}
	return "unknown"
}

type Action int

const (
	List Action = iota
	Retrieve
	Create
	Update
	Delete
)

func (a Action) String() string {
	switch a {
	case List:
		return "list"
	case Retrieve:
		return "retrieve"
	case Create:
		return "create"
	case Update:
		return "update"
	case Delete:
		return "delete"
	}
	return "unknown"
}

func (a Action) readOnly() bool {
	return a == List || a == Retrieve
}

type Decision int

const (
	Allow Decision = iota
	DenyUnauthenticated
	DenyForbidden
)

// CapabilitySet is what a role grants beyond being signed in.
type CapabilitySet struct {
	ManageCatalog bool
	Moderate      bool
	ManageUsers   bool
}

// Capabilities maps a role to its capability set. Superusers are treated as
// admins whatever their stored role is.
func Capabilities(role entity.UserRole, superuser bool) CapabilitySet {
	if superuser {
		role = entity.RoleAdmin
	}

	switch role {
	case entity.RoleAdmin:
		return CapabilitySet{ManageCatalog: true, Moderate: true, ManageUsers: true}
	case entity.RoleModerator:
		return CapabilitySet{Moderate: true}
	default:
		return CapabilitySet{}
	}
}

// Subject is the caller being authorized. The zero value is anonymous.
type Subject struct {
	ID            uuid.UUID
	Role          entity.UserRole
	Superuser     bool
	Authenticated bool
}

func (s Subject) Capabilities() CapabilitySet {
	if !s.Authenticated {
		return CapabilitySet{}
	}
	return Capabilities(s.Role, s.Superuser)
}

func SubjectFromAuthUser(user utils.AuthUser) Subject {
	return Subject{
		ID:            user.ID,
		Role:          entity.UserRole(user.Role),
		Superuser:     user.IsSuperuser,
		Authenticated: true,
	}
}

// SubjectFromContext returns the authenticated caller or an anonymous subject.
func SubjectFromContext(ctx context.Context) Subject {
	user, ok := utils.GetAuthUser(ctx)
	if !ok {
		return Subject{}
	}
	return SubjectFromAuthUser(user)
}

// Check decides whether subject may perform action on resource. ownerID is
// the author of the target object and only matters for feedback writes;
// pass uuid.Nil when there is no single target.
func Check(subject Subject, resource Resource, action Action, ownerID uuid.UUID) Decision {
	caps := subject.Capabilities()

	switch resource {
	case Catalog:
		if action.readOnly() {
			return Allow
		}
		return require(subject, caps.ManageCatalog)

	case Feedback:
		if action.readOnly() {
			return Allow
		}
		if action == Create {
			return require(subject, true)
		}
		owner := ownerID != uuid.Nil && subject.ID == ownerID
		return require(subject, owner || caps.Moderate)

	case Users:
		return require(subject, caps.ManageUsers)

	case Profile:
		if action == Retrieve || action == Update {
			return require(subject, true)
		}
		return require(subject, false)
	}

	return require(subject, false)
}

func require(subject Subject, granted bool) Decision {
	if !subject.Authenticated {
		return DenyUnauthenticated
	}
	if !granted {
		return DenyForbidden
	}
	return Allow
}
