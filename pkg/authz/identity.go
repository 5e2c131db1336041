package authz

import (
	"context"
	"errors"
)

// ErrUnknownPrincipal is returned by a PrincipalResolver when no account
// exists for the requested employee id.
var ErrUnknownPrincipal = errors.New("unknown principal")

// principalCtxKey is an unexported type used as the context key for Principal.
type principalCtxKey struct{}

// Principal is the authenticated caller.
type Principal struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Role       Role   `json:"role"`
	Region     string `json:"region"`
}

// PrincipalResolver loads the current principal for an employee id.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, employeeID string) (Principal, error)
}

// WithPrincipal returns a new context with the given Principal attached.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

// PrincipalFromContext retrieves the Principal from the context.
// Returns the zero value and false if no principal is set.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(Principal)
	return p, ok
}
