package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"addon_engine/internal/history"
	"addon_engine/internal/logger"
	"addon_engine/internal/recommend"
	"addon_engine/internal/scorer"
	"addon_engine/internal/server"
	"addon_engine/internal/session"
	"addon_engine/internal/situation"
	"addon_engine/internal/supervisor"

	"github.com/thejerf/suture/v4"
)

// App 持有进程内所有长生命周期组件
type App struct {
	cfg         *ServerConfig
	artifacts   *recommend.Artifacts
	sessions    *session.Manager
	history     history.Backend // 可以为 nil
	server      *server.Server
	lastCleanup time.Time
}

// setup 按配置加载产物并组装服务，任何必需产物缺失都返回错误
func setup(cfg *ServerConfig) (*App, error) {
	// 1. 离线产物：目录、特征契约、模型、品类名、pipeline
	artifacts, err := recommend.LoadArtifacts(cfg.Artifacts)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded catalog %s (%d items, %d categories), %d feature columns, model %s",
		cfg.Artifacts.Catalog, artifacts.Store.Len(), len(artifacts.Store.Categories()),
		artifacts.Contract.Len(), artifacts.Scorer.Name())

	// 2. 情境
	sp, err := situation.New(cfg.Situation)
	if err != nil {
		artifacts.Close()
		return nil, err
	}

	svc, err := recommend.NewService(artifacts, sp, cfg.Recommend)
	if err != nil {
		artifacts.Close()
		return nil, err
	}

	// 3. 曝光记录 (可选)
	var hb history.Backend
	var hs history.Store
	if cfg.History.Path != "" {
		hb, err = history.Open(cfg.History.Backend, cfg.History.Path)
		if err != nil {
			artifacts.Close()
			return nil, err
		}
		hs = hb
	}

	sessions := session.NewManager(session.Config{
		MaxCartItems: cfg.Session.MaxCartItems,
		PriceSeed:    cfg.Session.PriceSeed,
	})

	return &App{
		cfg:         cfg,
		artifacts:   artifacts,
		sessions:    sessions,
		history:     hb,
		server:      server.NewServer(sessions, svc, hs, cfg.Server.HTTP),
		lastCleanup: time.Now(),
	}, nil
}

// sweep 清理空闲会话、限流记录，每天清理一次过期曝光
func (a *App) sweep(_ context.Context, now time.Time) error {
	if ttl := a.cfg.Session.TTL; ttl > 0 {
		if n := a.sessions.Expire(ttl); n > 0 {
			logger.Debug("Expired %d idle sessions", n)
		}
		a.server.SweepLimiters(ttl)
	}
	if a.history != nil && a.cfg.History.RetentionDays > 0 && now.Sub(a.lastCleanup) >= 24*time.Hour {
		a.lastCleanup = now
		if err := a.history.Cleanup(a.cfg.History.RetentionDays); err != nil {
			return err
		}
	}
	return nil
}

// supervise 把 HTTP 服务和定时清理挂到监督树上
func (a *App) supervise() *suture.Supervisor {
	sup := supervisor.New("addon-engine", a.cfg.Supervisor)
	srv := &http.Server{
		Addr:              ":" + a.cfg.Server.Port,
		Handler:           a.server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	sup.Add(supervisor.NewHTTPService(srv, a.cfg.Supervisor.ShutdownTimeout))
	sup.Add(&supervisor.TickerService{Name: "janitor", Interval: time.Minute, Task: a.sweep})
	return sup
}

// Close 释放曝光存储、模型和 onnxruntime 环境
func (a *App) Close() error {
	var errs []error
	if a.history != nil {
		errs = append(errs, a.history.Close())
	}
	errs = append(errs, a.artifacts.Close(), scorer.Shutdown())
	return errors.Join(errs...)
}
