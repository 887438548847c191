package identity

// Role represents the principal kind of an account.
// The hierarchy is strictly two-level: members belong to exactly one
// merchant; merchants and the owner have no parent.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleMerchant Role = "merchant"
	RoleMember   Role = "member"
)

// roleLevels orders roles by privilege. Higher wins.
var roleLevels = map[Role]int{
	RoleMember:   1,
	RoleMerchant: 2,
	RoleOwner:    3,
}

// IsValid checks if the role is a known Role
func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleMerchant, RoleMember:
		return true
	}
	return false
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// Level returns the privilege level of the role, 0 for unknown roles
func (r Role) Level() int {
	return roleLevels[r]
}

// AtOrAbove reports whether r carries at least the privilege of required.
// Unknown roles are below everything.
func (r Role) AtOrAbove(required Role) bool {
	if !r.IsValid() {
		return false
	}
	return roleLevels[r] >= roleLevels[required]
}

// ParseRole validates a raw role string
func ParseRole(raw string) (Role, bool) {
	r := Role(raw)
	return r, r.IsValid()
}
