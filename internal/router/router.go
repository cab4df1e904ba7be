package router

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/AdminStatusFinance/seaport/internal/chain"
	"github.com/AdminStatusFinance/seaport/internal/seaport"
)

// Router 将批量成交请求分发到两个登记的结算后端，并在同一次调用内退还未使用的原生资产。
type Router struct {
	address  common.Address
	registry Registry
	guard    Guard
	logger   *zap.Logger

	// dispatching 记录正在进行的分发层数，只有分发期间后端的转入才会保留在路由。
	dispatching int
}

// New 创建部署在 address 的路由，registry 创建后不可更改。
func New(address common.Address, registry Registry, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		address:  address,
		registry: registry,
		logger:   logger,
	}
}

// Address 返回路由部署地址。
func (r *Router) Address() common.Address { return r.address }

// GuardState 返回当前重入保护状态。
func (r *Router) GuardState() GuardState { return r.guard.State() }

// GetAllowedBackends 按登记顺序返回两个后端地址。
func (r *Router) GetAllowedBackends() []common.Address {
	endpoints := r.registry.Endpoints()
	return endpoints[:]
}

// FulfillAvailableAdvancedOrders 按顺序把每个子请求交给对应后端，所有后端共享 MaximumFulfilled 额度。
// 返回结果与 req.Entries 下标对齐，失败或未处理的后端对应空切片。
// 只有后端未登记、退款失败、重入或 ctx 取消会返回错误，此时整个顶层调用回滚。
func (r *Router) FulfillAvailableAdvancedOrders(ctx context.Context, tx *chain.Tx, msg chain.Msg, req BatchRequest) ([][]bool, [][]seaport.Execution, error) {
	if err := r.guard.CheckClear(); err != nil {
		return nil, nil, err
	}
	r.dispatching++
	defer func() { r.dispatching-- }()

	observer := observerFrom(ctx)
	availableOrders := make([][]bool, len(req.Entries))
	executions := make([][]seaport.Execution, len(req.Entries))
	for i := range req.Entries {
		availableOrders[i] = []bool{}
		executions[i] = []seaport.Execution{}
	}

	budget := req.MaximumFulfilled
	for i, entry := range req.Entries {
		if err := ctx.Err(); err != nil {
			return nil, nil, fmt.Errorf("router: 分发中断于第 %d 个后端: %w", i, err)
		}
		if !r.registry.Allowed(entry.Backend) {
			r.logger.Warn("后端未登记，整批回滚", zap.Int("entry", i), zap.String("backend", entry.Backend.Hex()))
			return nil, nil, &BackendNotAllowedError{Backend: entry.Backend}
		}

		outcome := r.invoke(ctx, tx, i, entry, req, budget)
		observer.OnOutcome(i, entry.Backend, outcome)

		switch outcome.Kind {
		case OutcomeAborted:
			r.logger.Info("后端调用失败，已跳过",
				zap.Int("entry", i),
				zap.String("backend", entry.Backend.Hex()),
				zap.Error(outcome.Reason),
			)
			continue
		case OutcomeFulfilled:
			availableOrders[i] = outcome.AvailableOrders
			executions[i] = outcome.Executions
		}

		budget = consumeBudget(budget, outcome.AvailableOrders)
		r.logger.Debug("后端成交完成",
			zap.Int("entry", i),
			zap.String("backend", entry.Backend.Hex()),
			zap.Int("fulfilled", outcome.Fulfilled()),
			zap.Uint64("remaining_budget", budget),
		)
		if budget == 0 {
			break
		}
	}

	if !tx.Balance(r.address).IsZero() {
		if err := r.returnExcessValue(ctx, tx, msg.From); err != nil {
			return nil, nil, err
		}
	}

	return availableOrders, executions, nil
}

// consumeBudget 逐个检查所有标记，每个 true 扣减一次额度，额度不会低于零。
func consumeBudget(budget uint64, flags []bool) uint64 {
	for i := 0; i < len(flags); i++ {
		if flags[i] && budget > 0 {
			budget--
		}
	}
	return budget
}
