//go:generate go tool stringer -type=Status

package registration

// Status is the approval state of a registration. The only legal
// transitions are PENDING -> APPROVED and PENDING -> REJECTED; both
// terminal states are final.
type Status int

const (
	PENDING Status = iota
	APPROVED
	REJECTED
)
