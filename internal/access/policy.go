package access

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthenticated = errors.New("authentication credentials were not provided")
	ErrForbidden       = errors.New("you do not have permission to perform this action")
)

// Action is what a request wants to do with a resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Safe reports whether the action never mutates state.
func (a Action) Safe() bool {
	return a == ActionRead
}

// ActionForMethod maps an HTTP method onto an Action.
// GET, HEAD and OPTIONS are reads; unknown methods are treated as updates.
func ActionForMethod(method string) Action {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ActionRead
	case http.MethodPost:
		return ActionCreate
	case http.MethodDelete:
		return ActionDelete
	default:
		return ActionUpdate
	}
}

// Resource is anything with an owning user. A nil Resource means the
// collection itself (list/create) rather than a single object.
type Resource interface {
	OwnerID() string
}

// Policy decides whether identity may perform action on res.
type Policy interface {
	Allows(action Action, identity *Identity, res Resource) bool
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(action Action, identity *Identity, res Resource) bool

func (f PolicyFunc) Allows(action Action, identity *Identity, res Resource) bool {
	return f(action, identity, res)
}

// All allows only when every policy allows.
func All(policies ...Policy) Policy {
	return PolicyFunc(func(action Action, identity *Identity, res Resource) bool {
		for _, p := range policies {
			if !p.Allows(action, identity, res) {
				return false
			}
		}
		return true
	})
}

// Any allows when at least one policy allows.
func Any(policies ...Policy) Policy {
	return PolicyFunc(func(action Action, identity *Identity, res Resource) bool {
		for _, p := range policies {
			if p.Allows(action, identity, res) {
				return true
			}
		}
		return false
	})
}

// ReadOnly allows safe actions for everyone.
var ReadOnly Policy = PolicyFunc(func(action Action, _ *Identity, _ Resource) bool {
	return action.Safe()
})

// Authenticated allows any known user.
var Authenticated Policy = PolicyFunc(func(_ Action, identity *Identity, _ Resource) bool {
	return identity.Authenticated()
})

// AdminOnly guards user management. There is no read-only carve-out.
var AdminOnly Policy = PolicyFunc(func(_ Action, identity *Identity, _ Resource) bool {
	return identity.Can(LevelAdmin)
})

// AuthenticatedOrReadOnly lets anonymous callers read.
var AuthenticatedOrReadOnly = Any(ReadOnly, Authenticated)

// AdminOrReadOnly guards the catalogue: categories, genres and titles.
var AdminOrReadOnly = Any(ReadOnly, AdminOnly)

// OwnerOrStaffOrReadOnly guards reviews and comments. On the collection
// (res == nil) any authenticated user may write; on an object the actor must
// be its author or hold moderator level or above.
var OwnerOrStaffOrReadOnly Policy = PolicyFunc(func(action Action, identity *Identity, res Resource) bool {
	if action.Safe() {
		return true
	}
	if !identity.Authenticated() {
		return false
	}
	if res == nil {
		return true
	}
	return identity.Owns(res) || identity.Can(LevelModerator)
})

// Check evaluates p and converts a denial into ErrUnauthenticated for
// anonymous callers or ErrForbidden for everyone else.
func Check(p Policy, action Action, identity *Identity, res Resource) error {
	allowed := p.Allows(action, identity, res)
	recordDecision(action, identity, allowed)
	if allowed {
		return nil
	}
	if !identity.Authenticated() {
		return ErrUnauthenticated
	}
	return ErrForbidden
}
