package server

// Engine 规则引擎：输入解释与固定步长物理都在这里改写 World
// 不做任何同步，调用方（游戏循环）保证串行
type Engine struct {
	cfg     GameConfig
	world   *World
	metrics *Metrics
	tick    uint64
}

func NewEngine(cfg GameConfig, world *World, metrics *Metrics) *Engine {
	return &Engine{cfg: cfg, world: world, metrics: metrics}
}

func (e *Engine) World() *World { return e.world }

// Tick 已执行的物理步数
func (e *Engine) Tick() uint64 { return e.tick }

// HitEvent 一次子弹命中的结果
type HitEvent struct {
	Bullet  BulletID
	Shooter PlayerID
	Target  PlayerID
	Killed  bool
}

// Step 推进世界 dt 秒；dt 必须等于固定步长
func (e *Engine) Step(dt float64) []HitEvent {
	e.tick++
	w := e.world

	for _, p := range w.Players() {
		p.X += p.VX * dt
		p.Y += p.VY * dt
		// 阻尼按 Tick 乘算，不随 dt 缩放
		p.VX *= e.cfg.Drag
		p.VY *= e.cfg.Drag
		p.X, p.Y = w.Clamp(p.X, p.Y)
	}

	r2 := e.cfg.CollisionRadius * e.cfg.CollisionRadius
	var hits []HitEvent
	players := w.Players()
	for _, b := range w.Bullets() {
		b.X += b.VX * dt
		b.Y += b.VY * dt
		b.Life -= dt
		if b.Life <= 0 {
			w.RemoveBullet(b.ID)
			e.metrics.IncBulletsExpired()
			continue
		}

		for _, p := range players {
			if p.ID == b.OwnerID {
				continue
			}
			dx := p.X - b.X
			dy := p.Y - b.Y
			if dx*dx+dy*dy >= r2 {
				continue
			}
			hits = append(hits, e.resolveHit(b, p))
			w.RemoveBullet(b.ID)
			break
		}
	}
	return hits
}

// resolveHit 扣血、加分，必要时原地重生；开火者离线则不加分
func (e *Engine) resolveHit(b *Bullet, target *Player) HitEvent {
	ev := HitEvent{Bullet: b.ID, Shooter: b.OwnerID, Target: target.ID}
	owner, ownerLive := e.world.Player(b.OwnerID)

	target.HP -= b.Damage
	if ownerLive {
		owner.Score += e.cfg.HitScore
	}
	e.metrics.IncHits()

	if target.HP <= 0 {
		target.HP = e.world.MaxHP
		target.X, target.Y = e.world.RandomPosition()
		if ownerLive {
			owner.Score += e.cfg.KillScore
		}
		ev.Killed = true
		e.metrics.IncKills()
	}
	return ev
}
