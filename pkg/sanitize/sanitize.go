// Package sanitize provides the two distinct string sanitizers the daemon
// needs: one for values destined for log lines, one for values destined for
// an external hook's process environment. They are deliberately not merged
// — a log-safe string is not necessarily safe to hand to a child process's
// environment, and vice versa.
package sanitize

import "strings"

// ForLog maps every control character except newline and tab to '?', to
// defeat log-injection via crafted process names or command lines. Newline
// and tab are preserved so multi-line log payloads still read naturally.
func ForLog(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if r < 0x20 || (r >= 0x7f && r <= 0x9f) {
			b.WriteByte('?')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const maxEnvLen = 256

// ForEnv restricts s to alphanumerics and ". - _ /", replacing every other
// byte with '_', then truncates to 256 bytes. Intended for values that will
// be placed into an external hook's process environment.
func ForEnv(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isEnvSafe(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('_')
	}
	out := b.String()
	if len(out) > maxEnvLen {
		out = out[:maxEnvLen]
	}
	return out
}

func isEnvSafe(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '.' || c == '-' || c == '_' || c == '/':
		return true
	default:
		return false
	}
}
