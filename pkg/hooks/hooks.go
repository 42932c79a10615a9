//go:build linux

// Package hooks implements the external-interface contracts the Control Loop
// publishes around a kill: a pre-kill hook invoked before signal delivery,
// and a post-kill hook invoked after. Both are optional external scripts;
// their failure never aborts or retroactively undoes the kill itself.
package hooks

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/oomguard/oomguard/pkg/procfs"
	"github.com/oomguard/oomguard/pkg/sanitize"
)

// Payload describes the victim a hook script or notifier is told about.
type Payload struct {
	PID      int
	Name     string
	Cmdline  string
	UID      int
	RSSKiB   uint64
	OOMScore int
}

func PayloadFromRecord(r procfs.Record) Payload {
	return Payload{
		PID:      r.PID,
		Name:     r.Name,
		Cmdline:  r.Cmdline,
		UID:      r.UID,
		RSSKiB:   uint64(r.RSSKiB),
		OOMScore: r.OOMScore,
	}
}

// Notifier is the interface the Control Loop calls around a kill. PreKill
// runs before signal delivery; PostKill runs after every kill attempt, with
// killErr nil on success and set if the kill ultimately failed.
type Notifier interface {
	PreKill(p Payload)
	PostKill(p Payload, killErr error)
}

// NopNotifier implements Notifier with no-ops, for configurations with no
// hook scripts configured.
type NopNotifier struct{}

func (NopNotifier) PreKill(Payload)         {}
func (NopNotifier) PostKill(Payload, error) {}

// ScriptHook runs external shell scripts around a kill, passing the victim's
// sanitized attributes as OOM_GUARD_* environment variables. Either script
// path may be empty to disable that hook.
type ScriptHook struct {
	PreKillScript  string
	PostKillScript string
	Log            *zap.SugaredLogger
}

func (h *ScriptHook) PreKill(p Payload) {
	if h.PreKillScript == "" {
		return
	}
	if err := h.run(h.PreKillScript, p); err != nil {
		h.log().Warnw("pre-kill hook failed", "script", h.PreKillScript, "error", err)
	}
}

func (h *ScriptHook) PostKill(p Payload, killErr error) {
	if h.PostKillScript == "" {
		return
	}
	if err := h.run(h.PostKillScript, p); err != nil {
		h.log().Warnw("post-kill hook failed", "script", h.PostKillScript, "error", err)
	}
}

func (h *ScriptHook) log() *zap.SugaredLogger {
	if h.Log != nil {
		return h.Log
	}
	return zap.NewNop().Sugar()
}

func (h *ScriptHook) run(script string, p Payload) error {
	cmd := exec.Command(script)
	cmd.Env = append(os.Environ(), hookEnviron(p)...)
	return cmd.Run()
}

// hookEnviron builds the OOM_GUARD_* environment variables, running every
// string-valued field through sanitize.ForEnv before it reaches the child
// process's environment.
func hookEnviron(p Payload) []string {
	return []string{
		"OOM_GUARD_PID=" + strconv.Itoa(p.PID),
		"OOM_GUARD_NAME=" + sanitize.ForEnv(p.Name),
		"OOM_GUARD_CMDLINE=" + sanitize.ForEnv(p.Cmdline),
		"OOM_GUARD_UID=" + strconv.Itoa(p.UID),
		"OOM_GUARD_RSS=" + strconv.FormatUint(p.RSSKiB, 10),
		"OOM_GUARD_SCORE=" + strconv.Itoa(p.OOMScore),
	}
}

// EnvironmentVariableNames lists the environment variables a hook script can
// expect to receive, for inclusion in --help or documentation output.
func EnvironmentVariableNames() []string {
	return []string{
		"OOM_GUARD_PID",
		"OOM_GUARD_NAME",
		"OOM_GUARD_CMDLINE",
		"OOM_GUARD_UID",
		"OOM_GUARD_RSS",
		"OOM_GUARD_SCORE",
	}
}

// ValidateScript checks that path exists, is (or resolves through a symlink
// to) a regular file, and is executable by someone. Ownership by neither
// root nor the current user is logged as a warning, not rejected outright —
// matching the permissive original behavior.
func ValidateScript(path string, log *zap.SugaredLogger) error {
	info, err := os.Lstat(path)
	if err != nil {
		return fmt.Errorf("script does not exist: %s", path)
	}

	target := path
	if info.Mode()&os.ModeSymlink != 0 {
		resolved, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to resolve symlink %s: %w", path, err)
		}
		target = resolved
		info, err = os.Stat(target)
		if err != nil {
			return fmt.Errorf("symlink %s points to unreadable target: %w", path, err)
		}
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("path is not a file: %s", path)
	}

	if info.Mode()&0o111 == 0 {
		return fmt.Errorf("script is not executable: %s (chmod +x %s)", path, path)
	}

	checkOwnership(target, log)
	return nil
}

// ValidateHooks validates whichever of pre/post scripts are non-empty.
func ValidateHooks(preKillScript, postKillScript string, log *zap.SugaredLogger) error {
	if preKillScript != "" {
		if err := ValidateScript(preKillScript, log); err != nil {
			return fmt.Errorf("pre-kill script validation failed: %w", err)
		}
	}
	if postKillScript != "" {
		if err := ValidateScript(postKillScript, log); err != nil {
			return fmt.Errorf("post-kill script validation failed: %w", err)
		}
	}
	return nil
}
