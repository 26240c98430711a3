package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bulletarena/server"
)

// BulletArena 入口：加载配置，启动游戏循环与 HTTP + WebSocket 服务
func main() {
	var configPath, addr string
	flag.StringVar(&configPath, "config", "", "config file (json/yaml/toml), optional")
	flag.StringVar(&addr, "addr", "", "listen address override, e.g. :3000")
	flag.Parse()

	cfg, err := server.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if addr != "" {
		cfg.Listen = addr
	}

	// 使用 zap 日志库写入日志文件（lumberjack 滚动）
	if err := server.InitLogger(cfg.Log); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer server.SyncLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	game := server.NewGame(cfg.Game)
	game.Start(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.HandleWS(game))
	mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	// 管理与监控接口
	mux.HandleFunc("/admin/config", server.HandleAdminConfig(game))
	mux.HandleFunc("/admin/state", server.HandleState(game))
	mux.HandleFunc("/metrics", server.HandleMetrics(game))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: cfg.Listen, Handler: mux}

	go serve(srv, stop)

	// 优雅退出（Ctrl+C）：先停循环，再关 HTTP
	<-ctx.Done()
	server.Log.Info("Shutting down...")
	<-game.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		server.Log.Warnf("http shutdown: %v", err)
	}
}

// serve 监听失败时不直接退出进程，而是触发 stop 走正常退出流程，保证日志落盘
func serve(srv *http.Server, stop func()) {
	server.Log.Infof("BulletArena listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		server.Log.Errorf("listen: %v", err)
		stop()
	}
}
