// Package types holds small value types shared across oomguard's packages.
package types

import "fmt"

// KiB is a kibibyte count, the unit every /proc memory field is reported in.
type KiB uint64

// Humanized returns a human-readable string with an automatically chosen
// unit (KiB, MiB, GiB, TiB).
func (k KiB) Humanized() string {
	v := float64(k)
	switch {
	case k >= 1<<30:
		return fmt.Sprintf("%.2f TiB", v/(1<<30))
	case k >= 1<<20:
		return fmt.Sprintf("%.2f GiB", v/(1<<20))
	case k >= 1<<10:
		return fmt.Sprintf("%.2f MiB", v/(1<<10))
	default:
		return fmt.Sprintf("%d KiB", uint64(k))
	}
}

// MB returns the value in mebibytes.
func (k KiB) MB() float64 { return float64(k) / 1024 }

// GB returns the value in gibibytes.
func (k KiB) GB() float64 { return float64(k) / (1024 * 1024) }

// Percent returns 100*k/total, or 0 if total is 0.
func Percent(k, total KiB) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(k) / float64(total)
}
