package seaport

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/AdminStatusFinance/seaport/internal/chain"
	"github.com/AdminStatusFinance/seaport/internal/config"
)

const (
	// Version14 为 1.4 版协议。
	Version14 = "1.4"
	// Version15 为 1.5 版协议。
	Version15 = "1.5"

	contractName = "Consideration"
)

// Backend 抽象路由可委托的批量成交能力，每个协议版本一个实现。
type Backend interface {
	FulfillAvailableAdvancedOrders(ctx context.Context, tx *chain.Tx, msg chain.Msg, args FulfillArgs) ([]bool, []Execution, error)
}

// Contract 为已部署的结算合约。
type Contract interface {
	Backend
	Information() Information
	Address() common.Address
	Cancel(ctx context.Context, tx *chain.Tx, msg chain.Msg, orders []OrderParameters) error
	GetOrderStatus(tx *chain.Tx, orderHash common.Hash) OrderStatus
	GetOrderHash(p OrderParameters) (common.Hash, error)
}

// V14 为 1.4 版结算合约。
type V14 struct {
	*Engine
}

// NewV14 创建部署在 address 的 1.4 版合约。
func NewV14(address common.Address, logger *zap.Logger) *V14 {
	return &V14{Engine: newEngine(Information{Name: contractName, Version: Version14}, address, logger)}
}

// V15 为 1.5 版结算合约。
type V15 struct {
	*Engine
}

// NewV15 创建部署在 address 的 1.5 版合约。
func NewV15(address common.Address, logger *zap.Logger) *V15 {
	return &V15{Engine: newEngine(Information{Name: contractName, Version: Version15}, address, logger)}
}

var (
	_ Contract = (*V14)(nil)
	_ Contract = (*V15)(nil)
)

// NewContract 按配置的版本号创建对应实现。
func NewContract(cfg config.BackendConfig, logger *zap.Logger) (Contract, error) {
	if !common.IsHexAddress(cfg.Address) {
		return nil, fmt.Errorf("seaport: 后端地址非法: %q", cfg.Address)
	}
	address := common.HexToAddress(cfg.Address)

	switch strings.TrimSpace(cfg.Version) {
	case Version14:
		return NewV14(address, logger), nil
	case Version15:
		return NewV15(address, logger), nil
	default:
		return nil, fmt.Errorf("seaport: 不支持的协议版本 %q", cfg.Version)
	}
}
