package server

import (
	"errors"
	"math/rand"
	"sort"
)

// ErrDuplicateEntity 表示同一 ID 的实体已经存在
var ErrDuplicateEntity = errors.New("duplicate entity")

// World 世界状态：玩家与子弹的唯一真实副本
// 只允许由游戏循环协程访问，外部一律通过 Game 的通道进入
type World struct {
	Width  float64
	Height float64
	MaxHP  int

	players map[PlayerID]*Player
	bullets map[BulletID]*Bullet

	lastBulletID BulletID
	rng          *rand.Rand
}

// NewWorld 创建空世界；rng 用于出生点与重生点
func NewWorld(width, height float64, maxHP int, rng *rand.Rand) *World {
	return &World{
		Width:   width,
		Height:  height,
		MaxHP:   maxHP,
		players: make(map[PlayerID]*Player),
		bullets: make(map[BulletID]*Bullet),
		rng:     rng,
	}
}

// AddPlayer 以满血、随机位置创建玩家
func (w *World) AddPlayer(id PlayerID) (*Player, error) {
	if _, ok := w.players[id]; ok {
		return nil, ErrDuplicateEntity
	}
	x, y := w.RandomPosition()
	p := &Player{ID: id, X: x, Y: y, HP: w.MaxHP}
	w.players[id] = p
	return p, nil
}

// RemovePlayer 移除玩家，不存在时为 no-op
func (w *World) RemovePlayer(id PlayerID) {
	delete(w.players, id)
}

// AddBullet 分配新编号并加入世界，返回入库后的子弹
func (w *World) AddBullet(b Bullet) *Bullet {
	w.lastBulletID++
	b.ID = w.lastBulletID
	nb := &b
	w.bullets[nb.ID] = nb
	return nb
}

// RemoveBullet 移除子弹，不存在时为 no-op
func (w *World) RemoveBullet(id BulletID) {
	delete(w.bullets, id)
}

func (w *World) Player(id PlayerID) (*Player, bool) {
	p, ok := w.players[id]
	return p, ok
}

func (w *World) Bullet(id BulletID) (*Bullet, bool) {
	b, ok := w.bullets[id]
	return b, ok
}

// Players 按 ID 升序返回所有玩家；碰撞检测依赖这个顺序决定同帧命中谁
func (w *World) Players() []*Player {
	out := make([]*Player, 0, len(w.players))
	for _, p := range w.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Bullets 按编号升序返回所有子弹
func (w *World) Bullets() []*Bullet {
	out := make([]*Bullet, 0, len(w.bullets))
	for _, b := range w.bullets {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (w *World) PlayerCount() int { return len(w.players) }
func (w *World) BulletCount() int { return len(w.bullets) }

// RandomPosition 在世界范围内均匀取点
func (w *World) RandomPosition() (float64, float64) {
	return w.rng.Float64() * w.Width, w.rng.Float64() * w.Height
}

// Clamp 将坐标裁剪到世界边界内
func (w *World) Clamp(x, y float64) (float64, float64) {
	return clamp(x, 0, w.Width), clamp(y, 0, w.Height)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
