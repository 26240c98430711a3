package server

import "time"

// PlayerID 玩家唯一标识（每条连接一个，连接存活期间不变）
type PlayerID string

// Player 世界中的玩家实体（服务端权威状态）
// 死亡后原地重生：ID 与 Score 保留，HP 与位置重置
type Player struct {
	ID PlayerID

	X, Y   float64
	VX, VY float64
	Angle  float64 // 弧度，客户端声明，服务端原样采用

	HP    int
	Score int

	LastShot time.Time // 最近一次成功开火的时间，零值表示从未开火
	InputSeq int64     // 最近收到的客户端输入序列号，仅记录
}

// PlayerState 为广播给客户端的轻量状态
type PlayerState struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"`
	HP    int     `json:"hp"`
	Score int     `json:"score"`
}

func (p *Player) State() PlayerState {
	return PlayerState{
		ID:    string(p.ID),
		X:     p.X,
		Y:     p.Y,
		Angle: p.Angle,
		HP:    p.HP,
		Score: p.Score,
	}
}
