package router

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/AdminStatusFinance/seaport/internal/chain"
	"github.com/AdminStatusFinance/seaport/internal/seaport"
)

// Transactor 执行原子的顶层调用，由 *chain.Chain 实现。
type Transactor interface {
	Transact(ctx context.Context, origin common.Address, fn func(ctx context.Context, tx *chain.Tx) error) error
}

// Submit 以 caller 身份发起一次顶层调用：随附 value 转给路由后执行批量成交。出错时整个调用回滚。
func (r *Router) Submit(ctx context.Context, c Transactor, caller common.Address, value *uint256.Int, req BatchRequest) ([][]bool, [][]seaport.Execution, error) {
	var (
		availableOrders [][]bool
		executions      [][]seaport.Execution
	)
	err := c.Transact(ctx, caller, func(ctx context.Context, tx *chain.Tx) error {
		msg := chain.Msg{From: caller, To: r.address, Value: value}
		return tx.Call(ctx, msg, func(ctx context.Context, inner *chain.Tx) error {
			var err error
			availableOrders, executions, err = r.FulfillAvailableAdvancedOrders(ctx, inner, msg, req)
			return err
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return availableOrders, executions, nil
}
