// Package app 负责组件装配与进程生命周期。
package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"tidemark/internal/config"
	"tidemark/internal/gateway/binance"
	"tidemark/internal/ledger"
	"tidemark/internal/logger"
	"tidemark/internal/market/snapshot"
	apihttp "tidemark/internal/transport/http"
)

// App 持有全部已装配的组件。
type App struct {
	cfg     *config.Config
	source  *binance.Source
	builder *snapshot.Builder
	store   *ledger.Store
	server  *apihttp.Server
}

// New 按配置装配行情源、快照构建器、决策账本与 HTTP 服务。
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	source, err := binance.New(binance.Config{
		RESTBaseURL:  cfg.Market.RESTBaseURL,
		HTTPTimeout:  cfg.Market.Timeout(),
		ProxyEnabled: cfg.Market.ProxyEnabled,
		RESTProxyURL: cfg.Market.ProxyURL,
	})
	if err != nil {
		return nil, fmt.Errorf("init market source: %w", err)
	}

	builder := snapshot.NewBuilder(source, snapshot.Config{
		QuoteAsset:    cfg.Market.QuoteAsset,
		ShortInterval: cfg.Market.ShortInterval,
		LongInterval:  cfg.Market.LongInterval,
		ShortLimit:    cfg.Market.ShortLimit,
		LongLimit:     cfg.Market.LongLimit,
	})

	store, err := ledger.NewStore(cfg.Ledger.Dir)
	if err != nil {
		return nil, fmt.Errorf("open decision ledger: %w", err)
	}

	server, err := apihttp.NewServer(apihttp.ServerConfig{
		Addr:      cfg.App.HTTPAddr,
		Snapshots: builder,
		Ledger:    store,
		Lookback:  cfg.Analysis.LookbackCycles,
	})
	if err != nil {
		return nil, fmt.Errorf("init http server: %w", err)
	}

	return &App{
		cfg:     cfg,
		source:  source,
		builder: builder,
		store:   store,
		server:  server,
	}, nil
}

// Ledger 返回决策账本。
func (a *App) Ledger() *ledger.Store { return a.store }

// Builder 返回快照构建器。
func (a *App) Builder() *snapshot.Builder { return a.builder }

// Run 启动 HTTP 服务与账本清理循环，阻塞到 ctx 取消。
func (a *App) Run(ctx context.Context) error {
	logger.InfoBlock(fmt.Sprintf(
		"行情源: %s (%s/%s)\n账本目录: %s\nHTTP 监听: %s",
		a.cfg.Market.RESTBaseURL, a.cfg.Market.ShortInterval, a.cfg.Market.LongInterval,
		a.store.Dir(), a.server.Addr()))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.server.Start(ctx)
	})
	g.Go(func() error {
		a.runCleanupLoop(ctx)
		return nil
	})

	err := g.Wait()
	if closeErr := a.source.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// runCleanupLoop 周期性删除超过保留期的账本记录。
func (a *App) runCleanupLoop(ctx context.Context) {
	every := a.cfg.Ledger.CleanupEvery()
	retention := a.cfg.Ledger.Retention()
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	logger.Infof("账本清理循环启动: 每 %s 清理早于 %d 天的记录", every, a.cfg.Ledger.RetentionDays)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := a.store.Prune(time.Now().Add(-retention))
			if err != nil {
				logger.Errorf("账本清理失败: %v", err)
				continue
			}
			if removed > 0 {
				logger.Infof("账本清理完成: 删除 %d 条过期记录", removed)
			}
		}
	}
}
