package policy

import (
	"context"
	"testing"

	"yamdb-api/internal/data/entity"
	"yamdb-api/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCapabilities(t *testing.T) {
	assert.Equal(t, CapabilitySet{}, Capabilities(entity.RoleUser, false))
	assert.Equal(t, CapabilitySet{Moderate: true}, Capabilities(entity.RoleModerator, false))
	assert.Equal(t, CapabilitySet{ManageCatalog: true, Moderate: true, ManageUsers: true}, Capabilities(entity.RoleAdmin, false))
	assert.Equal(t, Capabilities(entity.RoleAdmin, false), Capabilities(entity.RoleUser, true))
	assert.Equal(t, CapabilitySet{}, Capabilities(entity.UserRole("root"), false))
}

func TestCheck(t *testing.T) {
	author := uuid.New()
	other := uuid.New()

	anon := Subject{}
	owner := Subject{ID: author, Role: entity.RoleUser, Authenticated: true}
	user := Subject{ID: other, Role: entity.RoleUser, Authenticated: true}
	moderator := Subject{ID: uuid.New(), Role: entity.RoleModerator, Authenticated: true}
	admin := Subject{ID: uuid.New(), Role: entity.RoleAdmin, Authenticated: true}
	superuser := Subject{ID: uuid.New(), Role: entity.RoleUser, Superuser: true, Authenticated: true}

	tests := []struct {
		name     string
		subject  Subject
		resource Resource
		action   Action
		owner    uuid.UUID
		want     Decision
	}{
		{"anonymous lists catalog", anon, Catalog, List, uuid.Nil, Allow},
		{"anonymous retrieves catalog", anon, Catalog, Retrieve, uuid.Nil, Allow},
		{"anonymous creates catalog", anon, Catalog, Create, uuid.Nil, DenyUnauthenticated},
		{"user creates catalog", user, Catalog, Create, uuid.Nil, DenyForbidden},
		{"moderator deletes catalog", moderator, Catalog, Delete, uuid.Nil, DenyForbidden},
		{"admin updates catalog", admin, Catalog, Update, uuid.Nil, Allow},
		{"superuser creates catalog", superuser, Catalog, Create, uuid.Nil, Allow},

		{"anonymous lists feedback", anon, Feedback, List, uuid.Nil, Allow},
		{"anonymous creates feedback", anon, Feedback, Create, uuid.Nil, DenyUnauthenticated},
		{"user creates feedback", user, Feedback, Create, uuid.Nil, Allow},
		{"author updates own feedback", owner, Feedback, Update, author, Allow},
		{"author deletes own feedback", owner, Feedback, Delete, author, Allow},
		{"other user updates feedback", user, Feedback, Update, author, DenyForbidden},
		{"other user deletes feedback", user, Feedback, Delete, author, DenyForbidden},
		{"moderator deletes feedback", moderator, Feedback, Delete, author, Allow},
		{"admin updates feedback", admin, Feedback, Update, author, Allow},
		{"anonymous deletes feedback", anon, Feedback, Delete, author, DenyUnauthenticated},
		{"user without owner deletes feedback", user, Feedback, Delete, uuid.Nil, DenyForbidden},

		{"anonymous lists users", anon, Users, List, uuid.Nil, DenyUnauthenticated},
		{"user lists users", user, Users, List, uuid.Nil, DenyForbidden},
		{"moderator retrieves user", moderator, Users, Retrieve, uuid.Nil, DenyForbidden},
		{"admin deletes user", admin, Users, Delete, uuid.Nil, Allow},
		{"superuser creates user", superuser, Users, Create, uuid.Nil, Allow},

		{"anonymous reads profile", anon, Profile, Retrieve, uuid.Nil, DenyUnauthenticated},
		{"user reads profile", user, Profile, Retrieve, uuid.Nil, Allow},
		{"user updates profile", user, Profile, Update, uuid.Nil, Allow},
		{"user deletes profile", user, Profile, Delete, uuid.Nil, DenyForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Check(tt.subject, tt.resource, tt.action, tt.owner))
		})
	}
}

func TestCheckIsDeterministic(t *testing.T) {
	subject := Subject{ID: uuid.New(), Role: entity.RoleModerator, Authenticated: true}
	owner := uuid.New()

	for _, resource := range []Resource{Catalog, Feedback, Users, Profile} {
		for _, action := range []Action{List, Retrieve, Create, Update, Delete} {
			first := Check(subject, resource, action, owner)
			for i := 0; i < 5; i++ {
				assert.Equal(t, first, Check(subject, resource, action, owner), "%s/%s", resource, action)
			}
		}
	}
}

func TestSubjectFromContext(t *testing.T) {
	assert.False(t, SubjectFromContext(context.Background()).Authenticated)

	id := uuid.New()
	ctx := utils.SetAuthUser(context.Background(), utils.AuthUser{ID: id, Username: "bob", Role: "moderator"})
	subject := SubjectFromContext(ctx)

	assert.True(t, subject.Authenticated)
	assert.Equal(t, id, subject.ID)
	assert.Equal(t, entity.RoleModerator, subject.Role)
	assert.True(t, subject.Capabilities().Moderate)
}
