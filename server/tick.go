package server

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// ErrStopped 游戏循环已退出
var ErrStopped = errors.New("game loop stopped")

// Client 连接的发送端：Enqueue 非阻塞，队列满时丢弃并返回 false
type Client interface {
	Enqueue(b []byte) bool
	Close()
}

// Game 唯一的游戏世界。World 只由 Run 所在协程读写，
// 连接、断开、输入、查询全部经通道进入该协程串行执行
type Game struct {
	cfg     GameConfig
	engine  *Engine
	metrics *Metrics
	clients map[PlayerID]Client

	joinChan  chan joinRequest
	leaveChan chan PlayerID
	inputChan chan inputEvent
	queryChan chan func()
	done      chan struct{}

	now   func() time.Time
	newID func() PlayerID
}

// Option 调整 Game 的可替换依赖（测试用时钟、随机源、ID 生成）
type Option func(*gameOptions)

type gameOptions struct {
	now     func() time.Time
	rng     *rand.Rand
	newID   func() PlayerID
	metrics *Metrics
}

func WithClock(now func() time.Time) Option {
	return func(o *gameOptions) { o.now = now }
}

func WithRand(rng *rand.Rand) Option {
	return func(o *gameOptions) { o.rng = rng }
}

func WithIDGenerator(newID func() PlayerID) Option {
	return func(o *gameOptions) { o.newID = newID }
}

func WithMetrics(m *Metrics) Option {
	return func(o *gameOptions) { o.metrics = m }
}

// NewGame 创建游戏世界（尚未开始 Tick，需调用 Start 或 Run）
func NewGame(cfg GameConfig, opts ...Option) *Game {
	o := gameOptions{
		now:   time.Now,
		newID: func() PlayerID { return PlayerID(uuid.NewString()) },
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if o.metrics == nil {
		o.metrics = NewMetrics()
	}

	world := NewWorld(cfg.WorldWidth, cfg.WorldHeight, cfg.PlayerMaxHP, o.rng)
	return &Game{
		cfg:       cfg,
		engine:    NewEngine(cfg, world, o.metrics),
		metrics:   o.metrics,
		clients:   make(map[PlayerID]Client),
		joinChan:  make(chan joinRequest),
		leaveChan: make(chan PlayerID),
		inputChan: make(chan inputEvent, cfg.InputBuffer), // 足够缓冲，避免网络读阻塞影响 Tick
		queryChan: make(chan func()),
		done:      make(chan struct{}),
		now:       o.now,
		newID:     o.newID,
	}
}

func (g *Game) Config() GameConfig { return g.cfg }

func (g *Game) Metrics() *Metrics { return g.metrics }

// Done 在循环退出后关闭
func (g *Game) Done() <-chan struct{} { return g.done }

// Start 在新协程中运行循环
func (g *Game) Start(ctx context.Context) {
	go g.Run(ctx)
}

// Run 游戏循环：物理驱动与快照驱动各自一个 ticker，互不共享状态，
// 与连接/输入事件一起在同一个 select 中串行执行
func (g *Game) Run(ctx context.Context) {
	defer close(g.done)

	step := g.cfg.FixedStep()
	physics := time.NewTicker(step)
	defer physics.Stop()
	// time.Ticker 在消费方落后时会丢弃多余的触发，快照因此只跳过不补发
	snapshots := time.NewTicker(g.cfg.SnapshotInterval())
	defer snapshots.Stop()

	acc := NewAccumulator(step)
	last := g.now()

	Log.Infof("game loop started: tick=%d/s snapshot=%d/s world=%.0fx%.0f maxPlayers=%d",
		g.cfg.TickRate, g.cfg.SnapshotRate, g.cfg.WorldWidth, g.cfg.WorldHeight, g.cfg.MaxPlayers)

	for {
		select {
		case <-ctx.Done():
			g.closeAll()
			Log.Info("game loop stopped")
			return
		case req := <-g.joinChan:
			g.handleJoin(req)
		case pid := <-g.leaveChan:
			g.handleLeave(pid)
		case ev := <-g.inputChan:
			g.handleInput(ev)
		case fn := <-g.queryChan:
			fn()
		case <-physics.C:
			now := g.now()
			g.PhysicsTick(acc, now.Sub(last))
			last = now
		case <-snapshots.C:
			g.BroadcastSnapshot()
		}
	}
}

// PhysicsTick 把 elapsed 累加进 acc，并执行应走的全部固定步
func (g *Game) PhysicsTick(acc *Accumulator, elapsed time.Duration) int {
	start := time.Now()
	n := acc.Add(elapsed)
	dt := acc.Step().Seconds()
	for i := 0; i < n; i++ {
		for _, h := range g.engine.Step(dt) {
			if h.Killed {
				Log.Debugf("kill: shooter=%s target=%s bullet=%d", h.Shooter, h.Target, h.Bullet)
			} else {
				Log.Debugf("hit: shooter=%s target=%s bullet=%d", h.Shooter, h.Target, h.Bullet)
			}
		}
	}
	if n > 1 {
		Log.Debugf("physics catch-up: %d steps in one wakeup", n)
	}
	g.metrics.AddTick(n, time.Since(start).Nanoseconds())
	return n
}

func (g *Game) handleInput(ev inputEvent) {
	g.engine.ApplyInput(ev.player, ev.input, g.now())
}

// closeAll 循环退出时断开所有连接
func (g *Game) closeAll() {
	for id, c := range g.clients {
		c.Close()
		g.engine.World().RemovePlayer(id)
		delete(g.clients, id)
	}
}
