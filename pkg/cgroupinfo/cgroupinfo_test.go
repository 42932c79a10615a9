//go:build linux

package cgroupinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect_RealHost(t *testing.T) {
	ver, detail, err := Detect()
	require.NoError(t, err)
	assert.NotEmpty(t, detail)
	t.Logf("detected %s: %s", ver, detail)
}

func TestVersion_String(t *testing.T) {
	assert.Equal(t, "cgroup v1", V1.String())
	assert.Equal(t, "cgroup v2", V2.String())
	assert.Equal(t, "cgroup hybrid", Hybrid.String())
	assert.Equal(t, "unsupported", Unsupported.String())
}

func TestSelfMemoryCeiling_NeverPanics(t *testing.T) {
	// No fixed expectation on ok: whether this test process's own cgroup
	// carries a memory ceiling depends entirely on the host it runs on.
	limit, ok := SelfMemoryCeiling()
	if ok {
		assert.Greater(t, uint64(limit), uint64(0))
	}
}
