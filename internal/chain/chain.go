package chain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/AdminStatusFinance/seaport/internal/config"
)

const defaultMaxCallDepth = 1024

// Msg 描述一次调用的上下文：调用方、被调用方与随附的原生资产。
type Msg struct {
	From  common.Address
	To    common.Address
	Value *uint256.Int
}

// Receiver 由可通过空 data 转账接收原生资产的合约实现。
type Receiver interface {
	Receive(ctx context.Context, tx *Tx, msg Msg) error
}

// FallbackReceiver 由可接收带 data 转账的合约实现。
type FallbackReceiver interface {
	Fallback(ctx context.Context, tx *Tx, msg Msg, data []byte) error
}

// Chain 串行执行顶层调用，每次调用要么全部生效要么全部回滚。
type Chain struct {
	mu       sync.Mutex
	state    *State
	maxDepth int
	clock    func() time.Time
	logger   *zap.Logger
}

// Option 调整 Chain 行为。
type Option func(*Chain)

// WithClock 替换区块时间来源。
func WithClock(clock func() time.Time) Option {
	return func(c *Chain) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// New 按配置创建账本并写入创世余额。
func New(cfg config.ChainConfig, logger *zap.Logger, opts ...Option) (*Chain, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxDepth := cfg.MaxCallDepth
	if maxDepth <= 0 {
		maxDepth = defaultMaxCallDepth
	}

	c := &Chain{
		state:    NewState(),
		maxDepth: maxDepth,
		clock:    func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	for i, alloc := range cfg.Genesis {
		if !common.IsHexAddress(alloc.Address) {
			return nil, fmt.Errorf("chain: genesis[%d] 地址非法: %q", i, alloc.Address)
		}
		amount, err := uint256.FromDecimal(alloc.Balance)
		if err != nil {
			return nil, fmt.Errorf("chain: genesis[%d] 余额解析失败: %w", i, err)
		}
		c.state.Credit(common.HexToAddress(alloc.Address), amount)
	}
	c.state.Commit()

	return c, nil
}

// Deploy 在指定地址部署合约实现。
func (c *Chain) Deploy(addr common.Address, code any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.state.Deploy(addr, code); err != nil {
		return err
	}
	c.logger.Info("合约已部署", zap.String("address", addr.Hex()), zap.String("type", fmt.Sprintf("%T", code)))
	return nil
}

// Fund 直接为账户增加余额，仅用于测试与本地演示。
func (c *Chain) Fund(addr common.Address, amount *uint256.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Credit(addr, amount)
	c.state.Commit()
}

// BalanceOf 返回账户余额。
func (c *Chain) BalanceOf(addr common.Address) *uint256.Int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state.Balance(addr)
}

// StorageAt 返回合约存储槽的当前值。
func (c *Chain) StorageAt(addr common.Address, key common.Hash) common.Hash {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state.Load(addr, key)
}

// Transact 以 origin 身份执行一次顶层调用；fn 返回错误或 panic 时回滚全部修改。
func (c *Chain) Transact(ctx context.Context, origin common.Address, fn func(ctx context.Context, tx *Tx) error) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := c.state.Snapshot()
	tx := &Tx{
		state:    c.state,
		origin:   origin,
		now:      c.clock(),
		maxDepth: c.maxDepth,
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
		if err != nil {
			c.state.RevertToSnapshot(snapshot)
			c.logger.Debug("顶层调用已回滚", zap.String("origin", origin.Hex()), zap.Error(err))
			return
		}
		c.state.Commit()
	}()

	return fn(ctx, tx)
}
