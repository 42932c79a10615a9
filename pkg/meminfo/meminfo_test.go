//go:build linux

package meminfo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oomguard/oomguard/pkg/types"
)

func writeMeminfo(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meminfo")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestReadFromPath(t *testing.T) {
	path := writeMeminfo(t, `MemTotal:       16000000 kB
MemFree:         2000000 kB
MemAvailable:    8000000 kB
SwapTotal:       8000000 kB
SwapFree:        4000000 kB
Cached:          3000000 kB
`)
	snap, err := readFromPath(path)
	require.NoError(t, err)
	assert.EqualValues(t, 16000000, snap.MemTotal)
	assert.EqualValues(t, 8000000, snap.MemAvailable)
	assert.EqualValues(t, 8000000, snap.SwapTotal)
	assert.EqualValues(t, 4000000, snap.SwapFree)
}

func TestReadFromPath_MissingMemTotal(t *testing.T) {
	path := writeMeminfo(t, "SwapTotal: 8000000 kB\n")
	_, err := readFromPath(path)
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestReadFromPath_Unopenable(t *testing.T) {
	_, err := readFromPath(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestRead_RealProc(t *testing.T) {
	snap, err := Read()
	require.NoError(t, err)
	assert.Greater(t, snap.MemTotal, types.KiB(0))
}

func TestPercentages(t *testing.T) {
	snap := Snapshot{
		MemTotal:     16_000_000,
		MemAvailable: 8_000_000,
		SwapTotal:    8_000_000,
		SwapFree:     4_000_000,
	}
	assert.Equal(t, 50.0, snap.MemAvailablePercent())
	assert.Equal(t, 50.0, snap.SwapFreePercent())
}

func TestThresholds(t *testing.T) {
	snap := Snapshot{
		MemTotal:     16_000_000,
		MemAvailable: 1_600_000, // 10%
		SwapTotal:    8_000_000,
		SwapFree:     800_000, // 10%
	}
	assert.True(t, snap.MemBelow(15.0))
	assert.False(t, snap.MemBelow(5.0))
	assert.True(t, snap.MemBelowKB(2_000_000))
	assert.False(t, snap.MemBelowKB(1_000_000))

	assert.True(t, snap.SwapBelow(15.0))
	assert.False(t, snap.SwapBelow(5.0))
	assert.True(t, snap.SwapBelowKB(1_000_000))
	assert.False(t, snap.SwapBelowKB(500_000))
}

func TestSwaplessSystem_NeverBlocks(t *testing.T) {
	snap := Snapshot{MemTotal: 16_000_000, MemAvailable: 100, SwapTotal: 0, SwapFree: 0}
	// Display invariant: reported as 100% free.
	assert.Equal(t, 100.0, snap.SwapFreePercent())
	// Decision-predicate correction: swap condition always satisfied.
	assert.True(t, snap.SwapBelow(0))
	assert.True(t, snap.SwapBelowKB(0))
}

func TestString(t *testing.T) {
	snap := Snapshot{MemTotal: 1024, MemAvailable: 512, SwapTotal: 0, SwapFree: 0}
	s := snap.String()
	assert.Contains(t, s, "mem available")
	assert.Contains(t, s, "swap free")
}
