package router

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/AdminStatusFinance/seaport/internal/chain"
	"github.com/AdminStatusFinance/seaport/internal/seaport"
)

// invoke 在隔离的子调用中请求后端成交。子调用内的任何失败都只回滚它自己的修改，并以 OutcomeAborted 返回。
func (r *Router) invoke(ctx context.Context, tx *chain.Tx, index int, entry Entry, req BatchRequest, budget uint64) Outcome {
	var (
		flags      []bool
		executions []seaport.Execution
	)

	msg := chain.Msg{From: r.address, To: entry.Backend, Value: entry.Request.Value}
	err := tx.Call(ctx, msg, func(ctx context.Context, inner *chain.Tx) error {
		backend, err := backendAt(inner, entry.Backend)
		if err != nil {
			return err
		}

		flags, executions, err = backend.FulfillAvailableAdvancedOrders(ctx, inner, msg, seaport.FulfillArgs{
			Orders:                    entry.Request.Orders,
			CriteriaResolvers:         entry.Request.CriteriaResolvers,
			OfferFulfillments:         entry.Request.OfferFulfillments,
			ConsiderationFulfillments: entry.Request.ConsiderationFulfillments,
			FulfillerConduitKey:       req.RoutingKey,
			Recipient:                 req.Recipient,
			MaximumFulfilled:          budget,
		})
		return err
	})
	if err != nil {
		return aborted(&BackendCallError{Backend: entry.Backend, Index: index, Cause: err})
	}
	return fulfilled(flags, executions)
}

func backendAt(tx *chain.Tx, addr common.Address) (seaport.Backend, error) {
	code := tx.Code(addr)
	if code == nil {
		return nil, fmt.Errorf("no code at %s", addr.Hex())
	}
	backend, ok := code.(seaport.Backend)
	if !ok {
		return nil, fmt.Errorf("code at %s is %T, not a settlement backend", addr.Hex(), code)
	}
	return backend, nil
}
