package server

import (
	"context"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccumulatorFloorSteps(t *testing.T) {
	step := 50 * time.Millisecond
	rng := rand.New(rand.NewSource(5))

	for trial := 0; trial < 200; trial++ {
		acc := NewAccumulator(step)
		var total time.Duration
		steps := 0
		n := rng.Intn(50) + 1
		for i := 0; i < n; i++ {
			d := time.Duration(rng.Int63n(int64(200 * time.Millisecond)))
			total += d
			steps += acc.Add(d)
		}
		assert.Equal(t, int(total/step), steps)
		assert.Equal(t, total%step, acc.Pending())
	}
}

func TestAccumulatorCatchesUpAfterStall(t *testing.T) {
	acc := NewAccumulator(50 * time.Millisecond)
	assert.Equal(t, 0, acc.Add(30*time.Millisecond))
	assert.Equal(t, 4, acc.Add(190*time.Millisecond))
	assert.Equal(t, 20*time.Millisecond, acc.Pending())
}

func TestAccumulatorIgnoresNegative(t *testing.T) {
	acc := NewAccumulator(50 * time.Millisecond)
	assert.Equal(t, 0, acc.Add(-time.Second))
	assert.Equal(t, time.Duration(0), acc.Pending())
}

func TestPhysicsTickRunsFixedSteps(t *testing.T) {
	g := NewGame(DefaultGameConfig(), WithRand(rand.New(rand.NewSource(2))))
	acc := NewAccumulator(g.Config().FixedStep())

	assert.Equal(t, 3, g.PhysicsTick(acc, 170*time.Millisecond))
	assert.Equal(t, uint64(3), g.engine.Tick())
	assert.Equal(t, 20*time.Millisecond, acc.Pending())
	assert.Equal(t, int64(3), g.Metrics().StepCount)
	assert.Equal(t, int64(3), g.Metrics().MaxStepsPerTick)
}

func TestRunAdvancesPhysicsFromClock(t *testing.T) {
	base := time.Unix(100, 0)
	var calls atomic.Int32
	// 第一次读时钟（循环启动）返回 base，之后恒为 base+170ms
	clock := func() time.Time {
		if calls.Add(1) == 1 {
			return base
		}
		return base.Add(170 * time.Millisecond)
	}
	g := startGame(t, DefaultGameConfig(), WithClock(clock))

	require.Eventually(t, func() bool {
		snap, err := g.Snapshot(context.Background())
		return err == nil && snap.Tick == 3
	}, 2*time.Second, 10*time.Millisecond)

	// 时钟不再前进，后续唤醒不应再走步
	time.Sleep(150 * time.Millisecond)
	snap, err := g.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(3), snap.Tick)
}
