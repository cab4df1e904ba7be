package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/AdminStatusFinance/seaport/internal/app"
	"github.com/AdminStatusFinance/seaport/internal/config"
	"github.com/AdminStatusFinance/seaport/internal/log"
	"github.com/AdminStatusFinance/seaport/internal/store"
)

func main() {
	var (
		configPath string
		listenAddr string
	)
	flag.StringVar(&configPath, "config", "", "配置文件路径，默认使用 configs/config.yaml")
	flag.StringVar(&listenAddr, "listen", "", "覆盖 api.listen_address")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	if listenAddr != "" {
		cfg.API.ListenAddress = listenAddr
	}

	logger, err := log.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	code := 0
	if err := run(cfg, logger); err != nil {
		logger.Error("系统运行异常", zap.Error(err))
		code = 1
	} else {
		logger.Info("系统已安全退出")
	}
	_ = logger.Sync()
	os.Exit(code)
}

func run(cfg *config.Config, logger *zap.Logger) error {
	sqliteStore, err := store.NewSQLite(cfg.Database)
	if err != nil {
		return fmt.Errorf("初始化数据库失败: %w", err)
	}
	defer func() {
		if closeErr := sqliteStore.Close(); closeErr != nil {
			logger.Warn("关闭数据库失败", zap.Error(closeErr))
		}
	}()

	routerApp, err := app.New(cfg, logger, sqliteStore)
	if err != nil {
		return fmt.Errorf("初始化路由失败: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return routerApp.Run(ctx)
}
