//go:build linux

package daemon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/oomguard/oomguard/pkg/config"
	"github.com/oomguard/oomguard/pkg/meminfo"
)

func newTestLoop(cfg config.Config) *Loop {
	return New(cfg, zap.NewNop().Sugar(), nil)
}

func TestDecide_CalmSystem(t *testing.T) {
	l := newTestLoop(config.Default())
	snap := meminfo.Snapshot{MemTotal: 16_000_000, MemAvailable: 8_000_000, SwapTotal: 8_000_000, SwapFree: 4_000_000}

	assert.Equal(t, DecisionNone, l.decide(snap))
}

func TestDecide_WarnCrossedOnBoth(t *testing.T) {
	l := newTestLoop(config.Default())
	snap := meminfo.Snapshot{MemTotal: 16_000_000, MemAvailable: 1_200_000, SwapTotal: 8_000_000, SwapFree: 600_000}

	assert.Equal(t, DecisionGraceful, l.decide(snap))
}

func TestDecide_KillCrossedOnBoth(t *testing.T) {
	l := newTestLoop(config.Default())
	// both mem (2%) and swap (2%) below the 5% kill threshold
	snap := meminfo.Snapshot{MemTotal: 16_000_000, MemAvailable: 320_000, SwapTotal: 8_000_000, SwapFree: 160_000}

	assert.Equal(t, DecisionForceful, l.decide(snap))
}

func TestDecide_OnlyOneResourceLow_NoDecision(t *testing.T) {
	l := newTestLoop(config.Default())
	snap := meminfo.Snapshot{MemTotal: 16_000_000, MemAvailable: 320_000, SwapTotal: 8_000_000, SwapFree: 4_000_000}

	assert.Equal(t, DecisionNone, l.decide(snap))
}

func TestDecide_SwaplessSystemNeverBlocksDecision(t *testing.T) {
	l := newTestLoop(config.Default())
	// swap_total == 0 must be treated as "swap condition satisfied", so a
	// low-memory-only system still reaches a decision.
	snap := meminfo.Snapshot{MemTotal: 16_000_000, MemAvailable: 320_000, SwapTotal: 0, SwapFree: 0}

	assert.Equal(t, DecisionForceful, l.decide(snap))
}

func TestSleepDuration_AdaptiveBoundaries(t *testing.T) {
	l := newTestLoop(config.Default())

	// headroom = 0: mem_available_percent == mem_threshold_warn (10%)
	snap := meminfo.Snapshot{MemTotal: 1000, MemAvailable: 100, SwapTotal: 1000, SwapFree: 100}
	assert.Equal(t, 100*time.Millisecond, l.sleepDuration(snap))

	// headroom = 20: mem_available_percent == 30%
	snap = meminfo.Snapshot{MemTotal: 1000, MemAvailable: 300, SwapTotal: 1000, SwapFree: 300}
	assert.Equal(t, 1000*time.Millisecond, l.sleepDuration(snap))

	// headroom = 10: mem_available_percent == 20%
	snap = meminfo.Snapshot{MemTotal: 1000, MemAvailable: 200, SwapTotal: 1000, SwapFree: 200}
	assert.Equal(t, 550*time.Millisecond, l.sleepDuration(snap))
}

func TestSleepDuration_NonAdaptiveUsesCheckInterval(t *testing.T) {
	cfg := config.Default()
	cfg.AdaptiveSleep = false
	cfg.CheckInterval = 3 * time.Second
	l := newTestLoop(cfg)

	snap := meminfo.Snapshot{MemTotal: 1000, MemAvailable: 900, SwapTotal: 1000, SwapFree: 900}
	assert.Equal(t, 3*time.Second, l.sleepDuration(snap))
}

func TestTick_CooldownGateSkipsSecondTick(t *testing.T) {
	l := newTestLoop(config.Default())
	l.hasKilled = true
	l.lastKillAt = time.Now()

	snap := meminfo.Snapshot{MemTotal: 16_000_000, MemAvailable: 320_000, SwapTotal: 8_000_000, SwapFree: 160_000}

	// still within the 10s cooldown: tick must return without attempting a
	// new selection/kill (no panic, no state change to lastKillAt)
	before := l.lastKillAt
	l.tick(snap)
	assert.Equal(t, before, l.lastKillAt)
}

func TestStop_SetsRunningFalse(t *testing.T) {
	l := newTestLoop(config.Default())
	l.running.Store(true)
	l.Stop()
	assert.False(t, l.running.Load())
}
