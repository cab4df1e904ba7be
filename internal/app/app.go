package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AdminStatusFinance/seaport/internal/chain"
	"github.com/AdminStatusFinance/seaport/internal/config"
	"github.com/AdminStatusFinance/seaport/internal/log"
	"github.com/AdminStatusFinance/seaport/internal/monitor"
	"github.com/AdminStatusFinance/seaport/internal/router"
	"github.com/AdminStatusFinance/seaport/internal/seaport"
	"github.com/AdminStatusFinance/seaport/internal/store"
)

// App 聚合核心依赖并驱动系统生命周期。
type App struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *store.Store
	chain    *chain.Chain
	router   *router.Router
	backends []seaport.Contract
	events   *monitor.Service
}

// New 创建账本，部署两个版本的结算合约与路由。
func New(cfg *config.Config, logger *zap.Logger, store *store.Store) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	ledger, err := chain.New(cfg.Chain, log.Component(logger, "chain"))
	if err != nil {
		return nil, err
	}

	backends := make([]seaport.Contract, 0, len(cfg.Router.Backends))
	for _, backendCfg := range cfg.Router.Backends {
		contract, err := seaport.NewContract(backendCfg, log.Component(logger, "seaport"))
		if err != nil {
			return nil, err
		}
		if err := ledger.Deploy(contract.Address(), contract); err != nil {
			return nil, fmt.Errorf("部署结算合约 %s 失败: %w", backendCfg.Name, err)
		}
		backends = append(backends, contract)
	}
	if len(backends) != 2 {
		return nil, fmt.Errorf("需要恰好两个结算后端，实际 %d 个", len(backends))
	}

	r := router.New(
		common.HexToAddress(cfg.Router.Address),
		router.NewRegistry(backends[0].Address(), backends[1].Address()),
		log.Component(logger, "router"),
	)
	if err := ledger.Deploy(r.Address(), r); err != nil {
		return nil, fmt.Errorf("部署路由失败: %w", err)
	}

	var publisher monitor.Publisher
	if p := monitor.NewKafkaPublisher(cfg.Events.Kafka); p != nil {
		publisher = p
	}
	var events *monitor.Service
	if store != nil {
		events, err = monitor.NewService(store, publisher, log.Component(logger, "monitor"))
		if err != nil {
			return nil, err
		}
	}

	return &App{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		chain:    ledger,
		router:   r,
		backends: backends,
		events:   events,
	}, nil
}

// Run 启动 HTTP 接口，直到 ctx 结束。
func (a *App) Run(ctx context.Context) error {
	versions := make([]string, 0, len(a.backends))
	for _, b := range a.backends {
		versions = append(versions, b.Information().Version)
	}
	a.logger.Info("路由已初始化",
		zap.String("environment", a.cfg.App.Environment),
		zap.String("router", a.router.Address().Hex()),
		zap.Strings("backend_versions", versions),
	)

	srv := &http.Server{
		Addr:        a.cfg.API.ListenAddress,
		Handler:     newAPIServer(a).handler(),
		ReadTimeout: a.cfg.API.ReadTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		a.logger.Info("HTTP 接口已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP 接口异常: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.API.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("关闭 HTTP 接口失败", zap.Error(err))
		}
		return nil
	})

	err := group.Wait()
	if a.events != nil {
		if closeErr := a.events.Close(); closeErr != nil {
			a.logger.Warn("关闭事件转发失败", zap.Error(closeErr))
		}
	}
	if err != nil {
		return err
	}
	a.logger.Info("系统收到退出信号，正在停止")
	return nil
}
