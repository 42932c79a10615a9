package procfs

import "errors"

var (
	// ErrEnumerate indicates /proc itself could not be opened for
	// directory listing.
	ErrEnumerate = errors.New("procfs: cannot enumerate /proc")

	// errNoStat indicates /proc/<pid>/stat was empty or malformed.
	errNoStat = errors.New("procfs: malformed or empty stat")

	// errShortStat indicates /proc/<pid>/stat had fewer fields than expected.
	errShortStat = errors.New("procfs: short stat")

	// errNoUID indicates /proc/<pid>/status had no Uid: line.
	errNoUID = errors.New("procfs: no uid")
)
