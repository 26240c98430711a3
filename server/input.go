package server

import (
	"encoding/json"
	"math"
	"time"
)

// Input 客户端声明的控制意图，由服务端解释后作用于世界
type Input struct {
	Seq   int64
	Up    bool // 沿朝向推进
	Down  bool // 反向推进（一半推力）
	Left  bool // 协议保留，物理不读取
	Right bool // 协议保留，物理不读取
	Shoot bool
	Angle *float64 // 缺省时保持当前朝向
}

// InputMessage 入站输入的 JSON 结构（WebSocket 文本消息）
// 示例：{"type":"input","seq":3,"up":true,"shoot":false,"angle":1.57}
type InputMessage struct {
	Type  string   `json:"type"`
	Seq   int64    `json:"seq,omitempty"`
	Up    bool     `json:"up,omitempty"`
	Down  bool     `json:"down,omitempty"`
	Left  bool     `json:"left,omitempty"`
	Right bool     `json:"right,omitempty"`
	Shoot bool     `json:"shoot,omitempty"`
	Angle *float64 `json:"angle,omitempty"`
}

// DecodeInputMessage 逐字段宽松解码：类型不对的字段按缺省处理，不连累其他字段
// 只有整帧不是 JSON 对象时才返回 false
func DecodeInputMessage(payload []byte) (InputMessage, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil || fields == nil {
		return InputMessage{}, false
	}

	var m InputMessage
	decodeField(fields, "type", &m.Type)
	decodeField(fields, "seq", &m.Seq)
	decodeField(fields, "up", &m.Up)
	decodeField(fields, "down", &m.Down)
	decodeField(fields, "left", &m.Left)
	decodeField(fields, "right", &m.Right)
	decodeField(fields, "shoot", &m.Shoot)

	var a float64
	if raw, ok := fields["angle"]; ok && json.Unmarshal(raw, &a) == nil && string(raw) != "null" {
		m.Angle = &a
	}
	return m, true
}

// decodeField 解码失败时保持零值
func decodeField[T any](fields map[string]json.RawMessage, key string, dst *T) {
	raw, ok := fields[key]
	if !ok {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return
	}
	*dst = v
}

func (m InputMessage) Input() Input {
	return Input{
		Seq:   m.Seq,
		Up:    m.Up,
		Down:  m.Down,
		Left:  m.Left,
		Right: m.Right,
		Shoot: m.Shoot,
		Angle: m.Angle,
	}
}

// ApplyInput 立即把一次输入作用到玩家：朝向、推力、限速、开火
// 玩家不存在（例如已断线）时静默忽略；成功开火时返回新子弹
func (e *Engine) ApplyInput(id PlayerID, in Input, now time.Time) *Bullet {
	p, ok := e.world.Player(id)
	if !ok {
		e.metrics.IncInputsIgnored()
		return nil
	}
	e.metrics.IncInputsAccepted()

	p.InputSeq = in.Seq
	if in.Angle != nil {
		p.Angle = *in.Angle
	}

	accel := e.cfg.Thrust / float64(e.cfg.TickRate)
	cos, sin := math.Cos(p.Angle), math.Sin(p.Angle)
	if in.Up {
		p.VX += cos * accel
		p.VY += sin * accel
	}
	if in.Down {
		back := accel * e.cfg.BackwardThrustFactor
		p.VX -= cos * back
		p.VY -= sin * back
	}
	if sp := math.Hypot(p.VX, p.VY); sp > e.cfg.MaxSpeed {
		scale := e.cfg.MaxSpeed / sp
		p.VX *= scale
		p.VY *= scale
	}

	if !in.Shoot {
		return nil
	}
	if !p.LastShot.IsZero() && now.Sub(p.LastShot) < e.cfg.FireCooldown() {
		e.metrics.IncShotsThrottled()
		return nil
	}
	p.LastShot = now
	e.metrics.IncShotsFired()
	return e.world.AddBullet(Bullet{
		OwnerID: p.ID,
		X:       p.X + cos*e.cfg.MuzzleOffset,
		Y:       p.Y + sin*e.cfg.MuzzleOffset,
		VX:      cos * e.cfg.BulletSpeed,
		VY:      sin * e.cfg.BulletSpeed,
		Life:    e.cfg.BulletLife,
		Damage:  e.cfg.BulletDamage,
	})
}
