package gate

import (
	"context"
	"sort"
)

// Profile represents a role with a set of permissions.
type Profile interface {
	Name() string
	HasPermission(permission Permission) bool
	Permissions() []Permission
}

// ProfileResolver resolves a subject to its profile.
// A nil profile with a nil error means the subject has no access.
type ProfileResolver[U any] interface {
	Resolve(ctx context.Context, user U) (Profile, error)
}

// ResolverFunc adapts a function to ProfileResolver.
type ResolverFunc[U any] func(ctx context.Context, user U) (Profile, error)

// Resolve calls f.
func (f ResolverFunc[U]) Resolve(ctx context.Context, user U) (Profile, error) {
	return f(ctx, user)
}

// StaticProfile is an in-memory profile, used for role tables and tests.
type StaticProfile struct {
	name        string
	permissions map[Permission]bool
}

// NewStaticProfile creates a profile with the given permissions.
func NewStaticProfile(name string, permissions ...Permission) *StaticProfile {
	p := &StaticProfile{
		name:        name,
		permissions: make(map[Permission]bool, len(permissions)),
	}
	for _, perm := range permissions {
		p.permissions[perm] = true
	}
	return p
}

func (p *StaticProfile) Name() string { return p.name }

// Permissions returns all permissions in this profile, sorted.
func (p *StaticProfile) Permissions() []Permission {
	perms := make([]Permission, 0, len(p.permissions))
	for perm := range p.permissions {
		perms = append(perms, perm)
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i] < perms[j] })
	return perms
}

// HasPermission checks if the profile has the requested permission.
// Supports wildcard matching.
func (p *StaticProfile) HasPermission(requested Permission) bool {
	if p.permissions[requested] {
		return true
	}
	for perm := range p.permissions {
		if perm.Matches(requested) {
			return true
		}
	}
	return false
}

// StaticResolver is a simple in-memory resolver for testing.
type StaticResolver[U comparable] struct {
	profiles map[U]Profile
}

// NewStaticResolver creates a resolver with predefined subject-profile mappings.
func NewStaticResolver[U comparable]() *StaticResolver[U] {
	return &StaticResolver[U]{profiles: make(map[U]Profile)}
}

// Set assigns a profile to a subject.
func (r *StaticResolver[U]) Set(user U, profile Profile) {
	r.profiles[user] = profile
}

// Resolve returns the profile for the given subject.
func (r *StaticResolver[U]) Resolve(_ context.Context, user U) (Profile, error) {
	return r.profiles[user], nil
}
