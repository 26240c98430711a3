package server

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "bulletarena/server"

// Metrics 记录运行期关键指标：原子计数供 /metrics 输出，同时上报 OTel（未安装 provider 时为 no-op）
type Metrics struct {
	TickCount       int64 // 物理驱动被唤醒的次数
	StepCount       int64 // 实际执行的固定步数
	InputsAccepted  int64
	InputsIgnored   int64 // 玩家不存在
	InputsDropped   int64 // 输入队列满
	ShotsFired      int64
	ShotsThrottled  int64 // 射速限制
	BulletsExpired  int64
	Hits            int64
	Kills           int64
	Snapshots       int64
	SendsDropped    int64 // 客户端发送队列满
	Connects        int64
	Rejected        int64 // server_full
	Disconnects     int64
	TotalTickNs     int64
	MaxStepsPerTick int64

	events       metric.Int64Counter
	tickDuration metric.Float64Histogram
}

// NewMetrics 使用全局 MeterProvider 创建指标
func NewMetrics() *Metrics {
	meter := otel.Meter(instrumentationName)
	m := &Metrics{}

	var err error
	m.events, err = meter.Int64Counter(
		"arena.game.events",
		metric.WithDescription("Game loop events by kind"),
	)
	if err != nil {
		m.events, _ = noop.Meter{}.Int64Counter("arena.game.events")
	}
	m.tickDuration, err = meter.Float64Histogram(
		"arena.game.tick.duration",
		metric.WithDescription("Wall time spent in one physics driver wakeup"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.tickDuration, _ = noop.Meter{}.Float64Histogram("arena.game.tick.duration")
	}
	return m
}

func (m *Metrics) add(field *int64, event string, n int64) {
	atomic.AddInt64(field, n)
	m.events.Add(context.Background(), n, metric.WithAttributes(attribute.String("event", event)))
}

func (m *Metrics) IncInputsAccepted() { m.add(&m.InputsAccepted, "input_accepted", 1) }
func (m *Metrics) IncInputsIgnored()  { m.add(&m.InputsIgnored, "input_ignored", 1) }
func (m *Metrics) IncInputsDropped()  { m.add(&m.InputsDropped, "input_dropped", 1) }
func (m *Metrics) IncShotsFired()     { m.add(&m.ShotsFired, "shot_fired", 1) }
func (m *Metrics) IncShotsThrottled() { m.add(&m.ShotsThrottled, "shot_throttled", 1) }
func (m *Metrics) IncBulletsExpired() { m.add(&m.BulletsExpired, "bullet_expired", 1) }
func (m *Metrics) IncHits()           { m.add(&m.Hits, "hit", 1) }
func (m *Metrics) IncKills()          { m.add(&m.Kills, "kill", 1) }
func (m *Metrics) IncSnapshots()      { m.add(&m.Snapshots, "snapshot", 1) }
func (m *Metrics) IncSendsDropped()   { m.add(&m.SendsDropped, "send_dropped", 1) }
func (m *Metrics) IncConnects()       { m.add(&m.Connects, "connect", 1) }
func (m *Metrics) IncRejected()       { m.add(&m.Rejected, "rejected", 1) }
func (m *Metrics) IncDisconnects()    { m.add(&m.Disconnects, "disconnect", 1) }

// AddTick 记录一次物理驱动唤醒：执行了 steps 步，耗时 ns
func (m *Metrics) AddTick(steps int, ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
	if steps > 0 {
		m.add(&m.StepCount, "step", int64(steps))
	}
	for {
		cur := atomic.LoadInt64(&m.MaxStepsPerTick)
		if int64(steps) <= cur || atomic.CompareAndSwapInt64(&m.MaxStepsPerTick, cur, int64(steps)) {
			break
		}
	}
	m.tickDuration.Record(context.Background(), float64(ns)/1e6)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *Metrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":         tick,
		"step_count":         atomic.LoadInt64(&m.StepCount),
		"max_steps_per_tick": atomic.LoadInt64(&m.MaxStepsPerTick),
		"inputs_accepted":    atomic.LoadInt64(&m.InputsAccepted),
		"inputs_ignored":     atomic.LoadInt64(&m.InputsIgnored),
		"inputs_dropped":     atomic.LoadInt64(&m.InputsDropped),
		"shots_fired":        atomic.LoadInt64(&m.ShotsFired),
		"shots_throttled":    atomic.LoadInt64(&m.ShotsThrottled),
		"bullets_expired":    atomic.LoadInt64(&m.BulletsExpired),
		"hits":               atomic.LoadInt64(&m.Hits),
		"kills":              atomic.LoadInt64(&m.Kills),
		"snapshots":          atomic.LoadInt64(&m.Snapshots),
		"sends_dropped":      atomic.LoadInt64(&m.SendsDropped),
		"connects":           atomic.LoadInt64(&m.Connects),
		"rejected":           atomic.LoadInt64(&m.Rejected),
		"disconnects":        atomic.LoadInt64(&m.Disconnects),
		"avg_tick_ms":        avgMs,
	}
}
