//go:generate go tool stringer -type=Role

package holders

// Role tags an identity with its privilege level. OPERATOR grants access
// to the admin surface, including check-in scanning.
type Role int

const (
	HOLDER Role = iota
	OPERATOR
)
