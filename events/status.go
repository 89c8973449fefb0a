//go:generate go tool stringer -type=Status

package events

type Status int

const (
	ACTIVE Status = iota
	EXPIRED
)
