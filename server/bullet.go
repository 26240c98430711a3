package server

// BulletID 子弹编号，进程内单调递增且不复用
type BulletID uint64

// Bullet 飞行中的子弹
type Bullet struct {
	ID      BulletID
	OwnerID PlayerID // 开火者；开火者离线后仍可能存在

	X, Y   float64
	VX, VY float64

	Life   float64 // 剩余寿命（秒）
	Damage int
}

// BulletState 为广播给客户端的子弹状态
type BulletState struct {
	ID BulletID `json:"id"`
	X  float64  `json:"x"`
	Y  float64  `json:"y"`
}

func (b *Bullet) State() BulletState {
	return BulletState{ID: b.ID, X: b.X, Y: b.Y}
}
