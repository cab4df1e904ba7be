package router

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/AdminStatusFinance/seaport/internal/chain"
)

var (
	_ chain.Receiver         = (*Router)(nil)
	_ chain.FallbackReceiver = (*Router)(nil)
)

// returnExcessValue 在持有 guard 的情况下把路由的全部余额退给 caller。
func (r *Router) returnExcessValue(ctx context.Context, tx *chain.Tx, caller common.Address) error {
	return r.guard.Enter(func() error {
		amount := tx.Balance(r.address)
		if amount.IsZero() {
			return nil
		}
		if err := tx.Send(ctx, r.address, caller, amount, nil); err != nil {
			r.logger.Warn("退还剩余资产失败",
				zap.String("recipient", caller.Hex()),
				zap.String("amount", amount.Dec()),
				zap.Error(err),
			)
			return &ValueReturnError{Recipient: caller, Amount: amount, Diagnostic: err}
		}

		observerFrom(ctx).OnValueReturned(caller, amount)
		r.logger.Debug("已退还剩余资产", zap.String("recipient", caller.Hex()), zap.String("amount", amount.Dec()))
		return nil
	})
}

// Receive 处理不带 data 的转账。
// 分发进行中由后端退回的资产留在路由，由分发结束时统一退还；其他情况立即原路退回，
// 包括分发之外后端地址主动转入的资产。
func (r *Router) Receive(ctx context.Context, tx *chain.Tx, msg chain.Msg) error {
	if r.dispatching > 0 && r.registry.Allowed(msg.From) {
		return nil
	}
	return r.returnExcessValue(ctx, tx, msg.From)
}

// Fallback 处理带 data 的转账，行为与 Receive 相同。
func (r *Router) Fallback(ctx context.Context, tx *chain.Tx, msg chain.Msg, data []byte) error {
	return r.Receive(ctx, tx, msg)
}
