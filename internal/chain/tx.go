package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Tx 是一次顶层调用内的状态句柄，只在持有它的调用栈内使用。
type Tx struct {
	state    *State
	origin   common.Address
	now      time.Time
	depth    int
	maxDepth int
}

// Origin 返回发起顶层调用的账户。
func (tx *Tx) Origin() common.Address { return tx.origin }

// Time 返回当前区块时间。
func (tx *Tx) Time() time.Time { return tx.now }

// Depth 返回当前调用深度，顶层为 0。
func (tx *Tx) Depth() int { return tx.depth }

// Balance 返回账户余额副本。
func (tx *Tx) Balance(addr common.Address) *uint256.Int {
	return tx.state.Balance(addr)
}

// Transfer 直接转移原生资产，不触发接收方逻辑。
// 合约代码视为可信，不校验 from 是否为当前调用帧。
func (tx *Tx) Transfer(from, to common.Address, amount *uint256.Int) error {
	return tx.state.Transfer(from, to, amount)
}

// Load 读取合约存储。
func (tx *Tx) Load(addr common.Address, key common.Hash) common.Hash {
	return tx.state.Load(addr, key)
}

// Store 写入合约存储。
func (tx *Tx) Store(addr common.Address, key, value common.Hash) {
	tx.state.Store(addr, key, value)
}

// Code 返回地址上的合约实现。
func (tx *Tx) Code(addr common.Address) any {
	return tx.state.Code(addr)
}

// Call 执行一次隔离的子调用：先随调用转入 msg.Value，再在下一层调用深度运行 fn。
// fn 返回错误或 panic 时，只回滚本次子调用产生的修改。
func (tx *Tx) Call(ctx context.Context, msg Msg, fn func(ctx context.Context, inner *Tx) error) (err error) {
	if tx.depth+1 > tx.maxDepth {
		return fmt.Errorf("%w: depth %d", ErrDepthExceeded, tx.depth+1)
	}

	snapshot := tx.state.Snapshot()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
		if err != nil {
			tx.state.RevertToSnapshot(snapshot)
		}
	}()

	if err = tx.state.Transfer(msg.From, msg.To, msg.Value); err != nil {
		return err
	}

	inner := &Tx{
		state:    tx.state,
		origin:   tx.origin,
		now:      tx.now,
		depth:    tx.depth + 1,
		maxDepth: tx.maxDepth,
	}
	return fn(ctx, inner)
}

// Send 向 to 转账并执行其接收逻辑：data 为空时优先 Receive，否则走 Fallback。
// 普通账户直接入账；合约拒收时整笔转账回滚。
// 与 Transfer 一样不校验 from，调用方负责只以自身地址转出。
func (tx *Tx) Send(ctx context.Context, from, to common.Address, amount *uint256.Int, data []byte) error {
	msg := Msg{From: from, To: to, Value: amount}
	return tx.Call(ctx, msg, func(ctx context.Context, inner *Tx) error {
		code := inner.Code(to)
		if code == nil {
			return nil
		}
		if len(data) == 0 {
			if receiver, ok := code.(Receiver); ok {
				return receiver.Receive(ctx, inner, msg)
			}
		}
		if fallback, ok := code.(FallbackReceiver); ok {
			return fallback.Fallback(ctx, inner, msg, data)
		}
		return fmt.Errorf("%w: %s", ErrNoReceiver, to.Hex())
	})
}
