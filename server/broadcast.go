package server

import "context"

// BuildSnapshot 读取当前世界生成客户端视图，不修改世界
func (g *Game) BuildSnapshot() Snapshot {
	world := g.engine.World()
	players := world.Players()
	bullets := world.Bullets()

	snap := Snapshot{
		Tick:    g.engine.Tick(),
		Players: make([]PlayerState, 0, len(players)),
		Bullets: make([]BulletState, 0, len(bullets)),
	}
	for _, p := range players {
		snap.Players = append(snap.Players, p.State())
	}
	for _, b := range bullets {
		snap.Bullets = append(snap.Bullets, b.State())
	}
	return snap
}

// BroadcastSnapshot 将当前世界广播给所有连接（编码一次，逐个入队，队列满则丢弃）
func (g *Game) BroadcastSnapshot() {
	b := encodeMessage(SnapshotMessage{Type: MsgSnapshot, Snapshot: g.BuildSnapshot()})
	if b == nil {
		return
	}
	for id, c := range g.clients {
		if !c.Enqueue(b) {
			g.metrics.IncSendsDropped()
			Log.Debugf("snapshot dropped for %s: send queue full", id)
		}
	}
	g.metrics.IncSnapshots()
}

// Snapshot 在循环协程中读取一份一致的世界视图（供 HTTP 管理接口使用）
func (g *Game) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	fn := func() { reply <- g.BuildSnapshot() }
	select {
	case g.queryChan <- fn:
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-g.done:
		return Snapshot{}, ErrStopped
	}
	return <-reply, nil
}
