package server

import (
	"encoding/json"
	"net/http"
)

// HandleAdminConfig 返回当前生效的玩法参数
// GET /admin/config
func HandleAdminConfig(g *Game) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, g.Config())
	}
}

// HandleMetrics 输出运行指标
// GET /metrics
func HandleMetrics(g *Game) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := g.Snapshot(r.Context())
		payload := map[string]any{
			"metrics": g.Metrics().Snapshot(),
		}
		if err == nil {
			payload["tick"] = snap.Tick
			payload["players"] = len(snap.Players)
			payload["bullets"] = len(snap.Bullets)
		}
		writeJSON(w, http.StatusOK, payload)
	}
}

// HandleState 输出当前世界快照（与广播内容一致）
// GET /admin/state
func HandleState(g *Game) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := g.Snapshot(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
