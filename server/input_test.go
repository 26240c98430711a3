package server

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyInputSetsAngle(t *testing.T) {
	e := newTestEngine(t)
	p := placePlayer(t, e, "a", 100, 100)

	e.ApplyInput("a", Input{Angle: angle(1.25)}, time.Now())
	assert.Equal(t, 1.25, p.Angle)

	// 缺省 angle 保持原朝向
	e.ApplyInput("a", Input{}, time.Now())
	assert.Equal(t, 1.25, p.Angle)
}

func TestForwardThrust(t *testing.T) {
	e := newTestEngine(t)
	p := placePlayer(t, e, "a", 100, 100)

	e.ApplyInput("a", Input{Up: true, Angle: angle(0)}, time.Now())
	assert.InDelta(t, 200.0/20, p.VX, 1e-9)
	assert.InDelta(t, 0, p.VY, 1e-9)
}

func TestBackwardThrustHalfMagnitude(t *testing.T) {
	e := newTestEngine(t)
	p := placePlayer(t, e, "a", 100, 100)

	e.ApplyInput("a", Input{Down: true, Angle: angle(math.Pi / 2)}, time.Now())
	assert.InDelta(t, 0, p.VX, 1e-9)
	assert.InDelta(t, -5, p.VY, 1e-9)
}

func TestForwardAndBackwardTogether(t *testing.T) {
	e := newTestEngine(t)
	p := placePlayer(t, e, "a", 100, 100)

	e.ApplyInput("a", Input{Up: true, Down: true, Angle: angle(0)}, time.Now())
	assert.InDelta(t, 5, p.VX, 1e-9)
}

func TestLeftRightDoNothing(t *testing.T) {
	e := newTestEngine(t)
	p := placePlayer(t, e, "a", 100, 100)

	e.ApplyInput("a", Input{Left: true, Right: true, Angle: angle(0.3)}, time.Now())
	assert.Equal(t, 0.0, p.VX)
	assert.Equal(t, 0.0, p.VY)
	assert.Equal(t, 0.3, p.Angle)
	assert.Equal(t, 100.0, p.X)
}

func TestSpeedNeverExceedsMax(t *testing.T) {
	e := newTestEngine(t)
	p := placePlayer(t, e, "a", 800, 450)
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 2000; i++ {
		in := Input{
			Up:    rng.Intn(4) != 0,
			Down:  rng.Intn(3) == 0,
			Angle: angle((rng.Float64() - 0.5) * 20),
		}
		e.ApplyInput("a", in, time.Now())
		require.LessOrEqual(t, math.Hypot(p.VX, p.VY), 300.0+1e-9)
	}
}

func TestSpeedClampPreservesDirection(t *testing.T) {
	e := newTestEngine(t)
	p := placePlayer(t, e, "a", 800, 450)
	p.VX, p.VY = 400, 300

	e.ApplyInput("a", Input{}, time.Now())
	assert.InDelta(t, 300, math.Hypot(p.VX, p.VY), 1e-9)
	assert.InDelta(t, 0.75, p.VY/p.VX, 1e-9)
}

func TestFireSpawnsBullet(t *testing.T) {
	e := newTestEngine(t)
	placePlayer(t, e, "a", 100, 100)

	b := e.ApplyInput("a", Input{Shoot: true, Angle: angle(0)}, time.Now())
	require.NotNil(t, b)
	assert.Equal(t, PlayerID("a"), b.OwnerID)
	assert.InDelta(t, 120, b.X, 1e-9)
	assert.InDelta(t, 100, b.Y, 1e-9)
	assert.InDelta(t, 600, b.VX, 1e-9)
	assert.InDelta(t, 0, b.VY, 1e-9)
	assert.Equal(t, 2.5, b.Life)
	assert.Equal(t, 25, b.Damage)
}

func TestFireCooldown(t *testing.T) {
	e := newTestEngine(t)
	p := placePlayer(t, e, "a", 100, 100)
	t0 := time.Unix(1000, 0)

	require.NotNil(t, e.ApplyInput("a", Input{Shoot: true}, t0))
	assert.Nil(t, e.ApplyInput("a", Input{Shoot: true}, t0.Add(249*time.Millisecond)))
	assert.Equal(t, 1, e.World().BulletCount())
	assert.Equal(t, t0, p.LastShot)

	require.NotNil(t, e.ApplyInput("a", Input{Shoot: true}, t0.Add(250*time.Millisecond)))
	assert.Equal(t, 2, e.World().BulletCount())
}

func TestInputForMissingPlayerIsNoop(t *testing.T) {
	e := newTestEngine(t)

	assert.NotPanics(t, func() {
		b := e.ApplyInput("gone", Input{Up: true, Shoot: true, Angle: angle(1)}, time.Now())
		assert.Nil(t, b)
	})
	assert.Equal(t, 0, e.World().BulletCount())
	assert.Equal(t, int64(1), e.metrics.InputsIgnored)
}

func TestInputRecordsSeq(t *testing.T) {
	e := newTestEngine(t)
	p := placePlayer(t, e, "a", 100, 100)

	e.ApplyInput("a", Input{Seq: 17}, time.Now())
	assert.Equal(t, int64(17), p.InputSeq)
}

func TestDecodeInputMessageToleratesBadFields(t *testing.T) {
	m, ok := DecodeInputMessage([]byte(`{"type":"input","seq":"x","up":1,"down":true,"shoot":true,"angle":"north"}`))
	require.True(t, ok)
	assert.Equal(t, MsgInput, m.Type)
	assert.Equal(t, int64(0), m.Seq)
	assert.False(t, m.Up)
	assert.True(t, m.Down)
	assert.True(t, m.Shoot)
	assert.Nil(t, m.Angle)

	m, ok = DecodeInputMessage([]byte(`{"type":"input","seq":4,"angle":0.5,"left":true}`))
	require.True(t, ok)
	assert.Equal(t, int64(4), m.Seq)
	require.NotNil(t, m.Angle)
	assert.Equal(t, 0.5, *m.Angle)
	assert.True(t, m.Left)

	m, ok = DecodeInputMessage([]byte(`{"type":"input","angle":null}`))
	require.True(t, ok)
	assert.Nil(t, m.Angle)

	for _, bad := range []string{"{not json", "[1,2]", "null", `"input"`} {
		_, ok = DecodeInputMessage([]byte(bad))
		assert.False(t, ok, bad)
	}
}

func TestBadAngleKeepsFacing(t *testing.T) {
	e := newTestEngine(t)
	p := placePlayer(t, e, "a", 100, 100)
	p.Angle = 0.4

	m, ok := DecodeInputMessage([]byte(`{"type":"input","up":true,"angle":"north"}`))
	require.True(t, ok)
	e.ApplyInput("a", m.Input(), time.Now())

	assert.Equal(t, 0.4, p.Angle)
	assert.InDelta(t, math.Cos(0.4)*10, p.VX, 1e-9)
	assert.InDelta(t, math.Sin(0.4)*10, p.VY, 1e-9)
}
