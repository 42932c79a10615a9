package meminfo

import "errors"

var (
	// ErrUnreadable indicates /proc/meminfo was missing, unopenable, or had
	// no (or a zero) MemTotal field.
	ErrUnreadable = errors.New("meminfo: unreadable or missing MemTotal")
)
