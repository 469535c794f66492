package auth

// Identity is the authenticated principal as the rest of the application sees it.
// OAuthAttributes is only populated for federated sign-ins.
type Identity struct {
	EmployeeID      uint
	Email           string
	DisplayName     string
	Role            string
	CredentialHash  string
	Enabled         bool
	OAuthAttributes map[string]any
}

// HasRole reports whether the identity carries the given role.
func (i *Identity) HasRole(role string) bool {
	return i != nil && i.Role == role
}
