//go:build linux

package hooks

import (
	"os"
	"syscall"

	"go.uber.org/zap"
)

// checkOwnership never rejects a script based on ownership alone — the
// executable-bit check in ValidateScript is the real security gate. It
// logs a warning when the script is owned by neither root nor the daemon's
// own uid, matching the original's permissive "warn, don't reject" policy.
func checkOwnership(path string, log *zap.SugaredLogger) {
	uid, err := OwnerUID(path)
	if err != nil {
		return
	}
	if uid != 0 && uid != os.Getuid() {
		log.Warnw("hook script owned by neither root nor the current user", "path", path, "owner_uid", uid)
	}
}

// OwnerUID returns the uid of the file at path, for callers that want to
// warn on scripts owned by neither root nor the current user.
func OwnerUID(path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, nil
	}
	return int(stat.Uid), nil
}
