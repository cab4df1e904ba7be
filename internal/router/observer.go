package router

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Observer 接收单次调用内的分发事件。调用可能整体回滚，观察方应在调用提交后再落盘。
type Observer interface {
	OnOutcome(index int, backend common.Address, outcome Outcome)
	OnValueReturned(recipient common.Address, amount *uint256.Int)
}

type observerKey struct{}

// WithObserver 将 Observer 绑定到本次调用的 context。
func WithObserver(ctx context.Context, o Observer) context.Context {
	return context.WithValue(ctx, observerKey{}, o)
}

func observerFrom(ctx context.Context) Observer {
	if o, ok := ctx.Value(observerKey{}).(Observer); ok && o != nil {
		return o
	}
	return nopObserver{}
}

type nopObserver struct{}

func (nopObserver) OnOutcome(int, common.Address, Outcome) {}
func (nopObserver) OnValueReturned(common.Address, *uint256.Int) {}
