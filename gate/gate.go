// Package gate provides role profile authorization. A Profile grants
// "resource:action" permissions (with wildcards) and a Gate resolves the
// profile of a subject before checking a request against it.
//
// The package has no dependency on domain models; U is the subject type
// (an employee id in this application).
package gate

import "context"

// Gate checks subjects against the permissions of their resolved profile.
type Gate[U comparable] struct {
	resolver ProfileResolver[U]
}

// New creates a gate backed by resolver.
func New[U comparable](resolver ProfileResolver[U]) *Gate[U] {
	return &Gate[U]{resolver: resolver}
}

// Profile returns the subject's profile, or ErrUnauthorized when there is none.
func (g *Gate[U]) Profile(ctx context.Context, user U) (Profile, error) {
	var zero U
	if user == zero {
		return nil, ErrUnauthorized
	}
	profile, err := g.resolver.Resolve(ctx, user)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrUnauthorized
	}
	return profile, nil
}

// Authorize returns nil when the subject may perform action on resourceType.
// It returns ErrUnauthorized for unknown subjects and ErrForbidden when the
// profile lacks the permission.
func (g *Gate[U]) Authorize(ctx context.Context, user U, action Action, resourceType string) error {
	profile, err := g.Profile(ctx, user)
	if err != nil {
		return err
	}
	if !profile.HasPermission(NewPermission(resourceType, action)) {
		return ErrForbidden
	}
	return nil
}

// Can is a convenience wrapper returning bool instead of error.
func (g *Gate[U]) Can(ctx context.Context, user U, action Action, resourceType string) bool {
	return g.Authorize(ctx, user, action, resourceType) == nil
}

// IsSuperAdmin reports whether the subject's profile holds "*:*".
func (g *Gate[U]) IsSuperAdmin(ctx context.Context, user U) bool {
	profile, err := g.Profile(ctx, user)
	return err == nil && profile.HasPermission(PermissionSuperAdmin)
}
