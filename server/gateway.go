package server

import (
	"context"
	"errors"
)

// ErrServerFull 在线人数已达上限
var ErrServerFull = errors.New("server full")

type joinRequest struct {
	client Client
	reply  chan joinResult
}

type joinResult struct {
	id  PlayerID
	err error
}

type inputEvent struct {
	player PlayerID
	input  Input
}

// Connect 接入一条新连接：满员时发送 server_full 并关闭 client，返回 ErrServerFull；
// 否则创建玩家并发送 welcome
func (g *Game) Connect(ctx context.Context, c Client) (PlayerID, error) {
	req := joinRequest{client: c, reply: make(chan joinResult, 1)}
	select {
	case g.joinChan <- req:
	case <-ctx.Done():
		return "", ctx.Err()
	case <-g.done:
		return "", ErrStopped
	}
	res := <-req.reply
	return res.id, res.err
}

// Disconnect 请求在循环协程中移除玩家；重复调用或玩家已不存在时无副作用
func (g *Game) Disconnect(id PlayerID) {
	// 同步交给循环，之后提交的请求都能看到移除结果；循环已退出则直接返回
	select {
	case g.leaveChan <- id:
	case <-g.done:
	}
}

// Input 入站输入（不阻塞）：队列拥塞时丢弃，保证 Tick 准时
func (g *Game) Input(id PlayerID, in Input) bool {
	select {
	case g.inputChan <- inputEvent{player: id, input: in}:
		return true
	default:
		g.metrics.IncInputsDropped()
		Log.Debugf("input dropped: player=%s seq=%d", id, in.Seq)
		return false
	}
}

func (g *Game) handleJoin(req joinRequest) {
	world := g.engine.World()
	if world.PlayerCount() >= g.cfg.MaxPlayers {
		req.client.Enqueue(encodeMessage(ServerFullMessage{Type: MsgServerFull}))
		req.client.Close()
		g.metrics.IncRejected()
		Log.Infof("connection rejected: server full (%d/%d)", world.PlayerCount(), g.cfg.MaxPlayers)
		req.reply <- joinResult{err: ErrServerFull}
		return
	}

	id := g.newID()
	if _, err := world.AddPlayer(id); err != nil {
		req.client.Close()
		Log.Warnf("add player %s: %v", id, err)
		req.reply <- joinResult{err: err}
		return
	}
	g.clients[id] = req.client
	g.metrics.IncConnects()

	req.client.Enqueue(encodeMessage(WelcomeMessage{
		Type:         MsgWelcome,
		ID:           string(id),
		World:        WorldSize{W: g.cfg.WorldWidth, H: g.cfg.WorldHeight},
		TickRate:     g.cfg.TickRate,
		SnapshotRate: g.cfg.SnapshotRate,
	}))
	Log.Infof("player connected: id=%s players=%d", id, world.PlayerCount())
	req.reply <- joinResult{id: id}
}

func (g *Game) handleLeave(id PlayerID) {
	world := g.engine.World()
	if _, ok := world.Player(id); ok {
		world.RemovePlayer(id)
		g.metrics.IncDisconnects()
		Log.Infof("player disconnected: id=%s players=%d", id, world.PlayerCount())
	}
	if c, ok := g.clients[id]; ok {
		c.Close()
		delete(g.clients, id)
	}
}
