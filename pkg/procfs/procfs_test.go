//go:build linux

package procfs

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageSize(t *testing.T) {
	t.Setenv("PAGE_SIZE", "")
	assert.Greater(t, PageSize(), 0)

	t.Setenv("PAGE_SIZE", "16384")
	assert.Equal(t, 16384, PageSize())
}

func TestExists(t *testing.T) {
	assert.True(t, Exists(os.Getpid()))
	assert.False(t, Exists(999999))
}

func TestReadAll_IncludesSelf(t *testing.T) {
	records, err := ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, records)

	me := os.Getpid()
	found := false
	for _, r := range records {
		if r.PID == me {
			found = true
			assert.NotEmpty(t, r.Name)
			assert.NotEmpty(t, r.Cmdline)
		}
	}
	assert.True(t, found, "expected to find our own pid in the process table")
}

func TestIsKernelThread(t *testing.T) {
	r := Record{Name: "kthreadd", Cmdline: "[kthreadd]"}
	assert.True(t, r.IsKernelThread())

	r2 := Record{Name: "firefox", Cmdline: "/usr/bin/firefox"}
	assert.False(t, r2.IsKernelThread())
}

func TestReadStat_Self(t *testing.T) {
	name, state, rss, err := readStat(os.Getpid(), PageSize())
	require.NoError(t, err)
	assert.NotEmpty(t, name)
	assert.NotEqual(t, byte(0), state)
	assert.GreaterOrEqual(t, rss, rss*0) // non-negative by type
}

func TestReadStat_NoSuchPid(t *testing.T) {
	_, _, _, err := readStat(999999, PageSize())
	assert.Error(t, err)
}

func TestReadUID_Self(t *testing.T) {
	uid, err := readUID(os.Getpid())
	require.NoError(t, err)
	assert.Equal(t, os.Getuid(), uid)
}

func TestReadCmdline_EmptyForUnreadablePid(t *testing.T) {
	cmd := readCmdline(999999)
	assert.Equal(t, "", cmd)
}
