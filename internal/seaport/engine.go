package seaport

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/AdminStatusFinance/seaport/internal/chain"
)

// Engine 为进程内的参考结算实现，订单状态写在自身地址的合约存储中，随调用一起回滚。
// ERC20/721/1155 条目的实际划转由 conduit 完成，这里只产出 Execution；原生资产在账本上结算。
type Engine struct {
	info    Information
	address common.Address
	logger  *zap.Logger
}

func newEngine(info Information, address common.Address, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		info:    info,
		address: address,
		logger:  logger.With(zap.String("seaport_version", info.Version)),
	}
}

// Information 返回协议名称与版本。
func (e *Engine) Information() Information { return e.info }

// Address 返回部署地址。
func (e *Engine) Address() common.Address { return e.address }

// GetOrderStatus 读取订单成交状态。
func (e *Engine) GetOrderStatus(tx *chain.Tx, orderHash common.Hash) OrderStatus {
	return decodeStatus(tx.Load(e.address, statusSlot(orderHash)))
}

// GetOrderHash 计算本版本下的订单哈希。
func (e *Engine) GetOrderHash(p OrderParameters) (common.Hash, error) {
	return OrderHash(e.info.Version, p)
}

// Cancel 取消订单，只有 offerer 或 zone 可以取消。
func (e *Engine) Cancel(ctx context.Context, tx *chain.Tx, msg chain.Msg, orders []OrderParameters) error {
	for i, params := range orders {
		if msg.From != params.Offerer && msg.From != params.Zone {
			return fmt.Errorf("%w: order %d caller %s", ErrCannotCancelOrder, i, msg.From.Hex())
		}
		hash, err := e.GetOrderHash(params)
		if err != nil {
			return err
		}
		status := e.GetOrderStatus(tx, hash)
		status.IsValidated = false
		status.IsCancelled = true
		tx.Store(e.address, statusSlot(hash), encodeStatus(status))
		e.logger.Debug("订单已取消", zap.String("order_hash", hash.Hex()))
	}
	return nil
}

// FulfillAvailableAdvancedOrders 尽可能成交给定订单，最多成交 MaximumFulfilled 笔。
// 返回的可用标记与入参订单一一对应；没有任何订单可成交时返回 ErrNoSpecifiedOrdersAvailable。
func (e *Engine) FulfillAvailableAdvancedOrders(ctx context.Context, tx *chain.Tx, msg chain.Msg, args FulfillArgs) ([]bool, []Execution, error) {
	orders := cloneOrders(args.Orders)
	now := uint64(tx.Time().Unix())

	hashes := make([]common.Hash, len(orders))
	for i := range orders {
		hash, err := e.GetOrderHash(orders[i].Parameters)
		if err != nil {
			return nil, nil, err
		}
		hashes[i] = hash
	}

	if err := applyCriteriaResolvers(orders, args.CriteriaResolvers); err != nil {
		return nil, nil, err
	}

	available := make([]bool, len(orders))
	fills := make([]fraction, len(orders))
	remaining := args.MaximumFulfilled
	for i := range orders {
		if remaining == 0 {
			break
		}
		fill, ok, err := e.validateAndUpdateStatus(tx, hashes[i], orders[i], now)
		if err != nil {
			return nil, nil, fmt.Errorf("order %d: %w", i, err)
		}
		if !ok {
			continue
		}
		if err := checkResolved(orders[i].Parameters); err != nil {
			return nil, nil, fmt.Errorf("order %d: %w", i, err)
		}
		available[i] = true
		fills[i] = fill
		remaining--
	}
	if remaining == args.MaximumFulfilled {
		return nil, nil, ErrNoSpecifiedOrdersAvailable
	}

	recipient := args.Recipient
	if recipient == (common.Address{}) {
		recipient = msg.From
	}

	agg := aggregator{
		orders:    orders,
		available: available,
		fills:     fills,
		now:       now,
		recipient: recipient,
		fulfiller: msg.From,
		conduit:   args.FulfillerConduitKey,
	}
	offerExecutions, err := agg.offer(args.OfferFulfillments)
	if err != nil {
		return nil, nil, err
	}
	considerationExecutions, err := agg.consideration(args.ConsiderationFulfillments)
	if err != nil {
		return nil, nil, err
	}

	nativeLeft := valueOrZero(msg.Value).Clone()
	for _, execution := range considerationExecutions {
		if execution.Item.ItemType != ItemNative {
			continue
		}
		if nativeLeft.Lt(execution.Item.Amount) {
			return nil, nil, fmt.Errorf("%w: need %s, have %s", ErrInsufficientNativeTokensSupplied, execution.Item.Amount.Dec(), nativeLeft.Dec())
		}
		nativeLeft.Sub(nativeLeft, execution.Item.Amount)
		if err := tx.Send(ctx, e.address, execution.Item.Recipient, execution.Item.Amount, nil); err != nil {
			return nil, nil, fmt.Errorf("seaport: 支付原生资产失败: %w", err)
		}
	}
	if !nativeLeft.IsZero() {
		if err := tx.Send(ctx, e.address, msg.From, nativeLeft, nil); err != nil {
			return nil, nil, fmt.Errorf("seaport: 退还剩余原生资产失败: %w", err)
		}
	}

	executions := make([]Execution, 0, len(offerExecutions)+len(considerationExecutions))
	executions = append(executions, offerExecutions...)
	executions = append(executions, considerationExecutions...)

	e.logger.Debug("批量成交完成",
		zap.Int("orders", len(orders)),
		zap.Uint64("fulfilled", args.MaximumFulfilled-remaining),
		zap.Int("executions", len(executions)),
		zap.String("refund", nativeLeft.Dec()),
	)

	return available, executions, nil
}

func (e *Engine) validateAndUpdateStatus(tx *chain.Tx, hash common.Hash, order AdvancedOrder, now uint64) (fraction, bool, error) {
	params := order.Parameters
	for _, item := range params.Offer {
		if item.ItemType == ItemNative && params.OrderType != OrderContract {
			return fraction{}, false, ErrInvalidNativeOfferItem
		}
	}

	if params.EndTime <= params.StartTime || now < params.StartTime || now >= params.EndTime {
		return fraction{}, false, nil
	}

	requested := fraction{num: order.Numerator, den: order.Denominator}
	if requested.den == 0 {
		requested = fraction{num: 1, den: 1}
	}
	if requested.num == 0 || requested.num > requested.den {
		return fraction{}, false, fmt.Errorf("%w: %d/%d", ErrBadFraction, requested.num, requested.den)
	}
	if requested.num != requested.den && !params.OrderType.AllowsPartialFill() {
		return fraction{}, false, fmt.Errorf("%w: partial fill not enabled", ErrBadFraction)
	}

	status := e.GetOrderStatus(tx, hash)
	if status.IsCancelled {
		return fraction{}, false, nil
	}

	fill, filled := requested, requested
	if status.Denominator != 0 {
		if status.Numerator >= status.Denominator {
			return fraction{}, false, nil
		}
		var err error
		fill, filled, err = accumulate(fraction{num: status.Numerator, den: status.Denominator}, requested)
		if err != nil {
			return fraction{}, false, fmt.Errorf("%w: %d/%d on top of %d/%d", err, requested.num, requested.den, status.Numerator, status.Denominator)
		}
	}

	tx.Store(e.address, statusSlot(hash), encodeStatus(OrderStatus{
		IsValidated: true,
		Numerator:   filled.num,
		Denominator: filled.den,
	}))
	return fill, true, nil
}

func applyCriteriaResolvers(orders []AdvancedOrder, resolvers []CriteriaResolver) error {
	for i, resolver := range resolvers {
		if resolver.OrderIndex >= uint64(len(orders)) {
			return fmt.Errorf("resolver %d: %w", i, ErrOrderCriteriaResolverOutOfRange)
		}
		params := &orders[resolver.OrderIndex].Parameters
		switch resolver.Side {
		case SideOffer:
			if resolver.Index >= uint64(len(params.Offer)) {
				return fmt.Errorf("resolver %d: %w", i, ErrOfferCriteriaResolverOutOfRange)
			}
			item := &params.Offer[resolver.Index]
			if err := resolveItem(&item.ItemType, &item.IdentifierOrCriteria, resolver); err != nil {
				return fmt.Errorf("resolver %d: %w", i, err)
			}
		case SideConsideration:
			if resolver.Index >= uint64(len(params.Consideration)) {
				return fmt.Errorf("resolver %d: %w", i, ErrConsiderationCriteriaResolverOutOfRange)
			}
			item := &params.Consideration[resolver.Index]
			if err := resolveItem(&item.ItemType, &item.IdentifierOrCriteria, resolver); err != nil {
				return fmt.Errorf("resolver %d: %w", i, err)
			}
		default:
			return fmt.Errorf("resolver %d: unknown side %d: %w", i, resolver.Side, ErrOrderCriteriaResolverOutOfRange)
		}
	}
	return nil
}

func resolveItem(itemType *ItemType, identifier **uint256.Int, resolver CriteriaResolver) error {
	if !itemType.HasCriteria() {
		return ErrCriteriaNotEnabledForItem
	}
	root := common.Hash(valueOrZero(*identifier).Bytes32())
	if root != (common.Hash{}) {
		if !verifyProof(root, resolver.Identifier, resolver.CriteriaProof) {
			return ErrInvalidProof
		}
	} else if len(resolver.CriteriaProof) != 0 {
		return ErrInvalidProof
	}
	*itemType = itemType.resolved()
	*identifier = valueOrZero(resolver.Identifier).Clone()
	return nil
}

func checkResolved(params OrderParameters) error {
	for _, item := range params.Offer {
		if item.ItemType.HasCriteria() {
			return ErrUnresolvedOfferCriteria
		}
	}
	for _, item := range params.Consideration {
		if item.ItemType.HasCriteria() {
			return ErrUnresolvedConsiderationCriteria
		}
	}
	return nil
}

func cloneOrders(orders []AdvancedOrder) []AdvancedOrder {
	out := make([]AdvancedOrder, len(orders))
	for i, order := range orders {
		out[i] = order
		out[i].Parameters.Offer = append([]OfferItem(nil), order.Parameters.Offer...)
		out[i].Parameters.Consideration = append([]ConsiderationItem(nil), order.Parameters.Consideration...)
	}
	return out
}
