package seaport

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

type aggregator struct {
	orders    []AdvancedOrder
	available []bool
	fills     []fraction
	now       uint64
	recipient common.Address
	fulfiller common.Address
	conduit   common.Hash
}

func (a *aggregator) window(orderIndex uint64) window {
	params := a.orders[orderIndex].Parameters
	return window{start: params.StartTime, end: params.EndTime, current: a.now}
}

// offer 将每组 offer 条目合并为一笔转给 recipient 的 Execution。
func (a *aggregator) offer(groups [][]FulfillmentComponent) ([]Execution, error) {
	executions := make([]Execution, 0, len(groups))
	for g, group := range groups {
		if len(group) == 0 {
			return nil, fmt.Errorf("offer group %d: %w", g, ErrMissingFulfillmentComponent)
		}

		var merged *Execution
		for _, component := range group {
			if component.OrderIndex >= uint64(len(a.orders)) {
				return nil, fmt.Errorf("offer group %d: order %d: %w", g, component.OrderIndex, ErrInvalidFulfillmentComponentData)
			}
			params := a.orders[component.OrderIndex].Parameters
			if component.ItemIndex >= uint64(len(params.Offer)) {
				return nil, fmt.Errorf("offer group %d: item %d: %w", g, component.ItemIndex, ErrInvalidFulfillmentComponentData)
			}
			if !a.available[component.OrderIndex] {
				continue
			}

			item := params.Offer[component.ItemIndex]
			amount := deriveAmount(item.StartAmount, item.EndAmount, a.fills[component.OrderIndex], a.window(component.OrderIndex), false)
			if merged == nil {
				merged = &Execution{
					Item: ReceivedItem{
						ItemType:   item.ItemType,
						Token:      item.Token,
						Identifier: valueOrZero(item.IdentifierOrCriteria).Clone(),
						Amount:     amount,
						Recipient:  a.recipient,
					},
					Offerer:    params.Offerer,
					ConduitKey: params.ConduitKey,
				}
				continue
			}
			if merged.Item.ItemType != item.ItemType ||
				merged.Item.Token != item.Token ||
				!merged.Item.Identifier.Eq(valueOrZero(item.IdentifierOrCriteria)) ||
				merged.Offerer != params.Offerer ||
				merged.ConduitKey != params.ConduitKey {
				return nil, fmt.Errorf("offer group %d: mismatched items: %w", g, ErrInvalidFulfillmentComponentData)
			}
			merged.Item.Amount.Add(merged.Item.Amount, amount)
		}

		if merged == nil || merged.Item.Amount.IsZero() {
			continue
		}
		executions = append(executions, *merged)
	}
	return executions, nil
}

// consideration 将每组 consideration 条目合并为一笔由成交方支付的 Execution，
// 并确认所有可成交订单的每个 consideration 条目都已被覆盖。
func (a *aggregator) consideration(groups [][]FulfillmentComponent) ([]Execution, error) {
	covered := make(map[FulfillmentComponent]struct{})
	executions := make([]Execution, 0, len(groups))
	for g, group := range groups {
		if len(group) == 0 {
			return nil, fmt.Errorf("consideration group %d: %w", g, ErrMissingFulfillmentComponent)
		}

		var merged *Execution
		for _, component := range group {
			if component.OrderIndex >= uint64(len(a.orders)) {
				return nil, fmt.Errorf("consideration group %d: order %d: %w", g, component.OrderIndex, ErrInvalidFulfillmentComponentData)
			}
			params := a.orders[component.OrderIndex].Parameters
			if component.ItemIndex >= uint64(len(params.Consideration)) {
				return nil, fmt.Errorf("consideration group %d: item %d: %w", g, component.ItemIndex, ErrInvalidFulfillmentComponentData)
			}
			if !a.available[component.OrderIndex] {
				continue
			}
			covered[component] = struct{}{}

			item := params.Consideration[component.ItemIndex]
			amount := deriveAmount(item.StartAmount, item.EndAmount, a.fills[component.OrderIndex], a.window(component.OrderIndex), true)
			if merged == nil {
				merged = &Execution{
					Item: ReceivedItem{
						ItemType:   item.ItemType,
						Token:      item.Token,
						Identifier: valueOrZero(item.IdentifierOrCriteria).Clone(),
						Amount:     amount,
						Recipient:  item.Recipient,
					},
					Offerer:    a.fulfiller,
					ConduitKey: a.conduit,
				}
				continue
			}
			if merged.Item.ItemType != item.ItemType ||
				merged.Item.Token != item.Token ||
				!merged.Item.Identifier.Eq(valueOrZero(item.IdentifierOrCriteria)) ||
				merged.Item.Recipient != item.Recipient {
				return nil, fmt.Errorf("consideration group %d: mismatched items: %w", g, ErrInvalidFulfillmentComponentData)
			}
			merged.Item.Amount.Add(merged.Item.Amount, amount)
		}

		if merged == nil || merged.Item.Amount.IsZero() {
			continue
		}
		executions = append(executions, *merged)
	}

	for i, order := range a.orders {
		if !a.available[i] {
			continue
		}
		for j := range order.Parameters.Consideration {
			key := FulfillmentComponent{OrderIndex: uint64(i), ItemIndex: uint64(j)}
			if _, ok := covered[key]; !ok {
				return nil, fmt.Errorf("order %d item %d: %w", i, j, ErrConsiderationNotMet)
			}
		}
	}

	return executions, nil
}
