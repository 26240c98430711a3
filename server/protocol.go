package server

import "encoding/json"

// 消息类型（JSON 文本帧的 type 字段）
const (
	MsgInput      = "input"
	MsgWelcome    = "welcome"
	MsgServerFull = "server_full"
	MsgSnapshot   = "snapshot"
)

// WorldSize 世界尺寸
type WorldSize struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// WelcomeMessage 接入成功后单发给该连接
type WelcomeMessage struct {
	Type         string    `json:"type"`
	ID           string    `json:"id"`
	World        WorldSize `json:"world"`
	TickRate     int       `json:"tickRate"`
	SnapshotRate int       `json:"snapshotRate"`
}

// ServerFullMessage 满员拒绝，随后服务端断开
type ServerFullMessage struct {
	Type string `json:"type"`
}

// Snapshot 世界的客户端视图
type Snapshot struct {
	Tick    uint64        `json:"tick"`
	Players []PlayerState `json:"players"`
	Bullets []BulletState `json:"bullets"`
}

// SnapshotMessage 按快照频率广播给所有连接
type SnapshotMessage struct {
	Type string `json:"type"`
	Snapshot
}

func encodeMessage(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		Log.Errorf("encode message: %v", err)
		return nil
	}
	return b
}
