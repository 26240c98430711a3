package server

import (
	"encoding/json"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := DefaultGameConfig()
	world := NewWorld(cfg.WorldWidth, cfg.WorldHeight, cfg.PlayerMaxHP, rand.New(rand.NewSource(1)))
	return NewEngine(cfg, world, NewMetrics())
}

// placePlayer 创建玩家并放到指定位置，速度清零
func placePlayer(t *testing.T, e *Engine, id PlayerID, x, y float64) *Player {
	t.Helper()
	p, err := e.World().AddPlayer(id)
	require.NoError(t, err)
	p.X, p.Y = x, y
	return p
}

func angle(a float64) *float64 { return &a }

// fakeClient 记录收到的消息
type fakeClient struct {
	mu     sync.Mutex
	msgs   [][]byte
	closed bool
	full   bool // 模拟发送队列满
	notify chan struct{}
}

func newFakeClient() *fakeClient {
	return &fakeClient{notify: make(chan struct{}, 1024)}
}

func (f *fakeClient) Enqueue(b []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.full {
		return false
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	f.msgs = append(f.msgs, cp)
	select {
	case f.notify <- struct{}{}:
	default:
	}
	return true
}

func (f *fakeClient) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeClient) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeClient) messages() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.msgs))
	copy(out, f.msgs)
	return out
}

func messageType(t *testing.T, b []byte) string {
	t.Helper()
	var env struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(b, &env))
	return env.Type
}

// waitForSnapshot 等待满足条件的快照
func waitForSnapshot(t *testing.T, f *fakeClient, cond func(SnapshotMessage) bool) SnapshotMessage {
	t.Helper()
	deadline := time.After(2 * time.Second)
	seen := 0
	for {
		msgs := f.messages()
		for ; seen < len(msgs); seen++ {
			if messageType(t, msgs[seen]) != MsgSnapshot {
				continue
			}
			var s SnapshotMessage
			require.NoError(t, json.Unmarshal(msgs[seen], &s))
			if cond(s) {
				return s
			}
		}
		select {
		case <-f.notify:
		case <-deadline:
			t.Fatalf("timed out waiting for snapshot")
		}
	}
}
