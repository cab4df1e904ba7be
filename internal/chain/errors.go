package chain

import "errors"

var (
	// ErrInsufficientBalance 表示转出账户余额不足。
	ErrInsufficientBalance = errors.New("chain: insufficient balance")
	// ErrDepthExceeded 表示调用栈超过上限。
	ErrDepthExceeded = errors.New("chain: max call depth exceeded")
	// ErrNoReceiver 表示目标合约既无 Receive 也无 Fallback，无法接收原生资产。
	ErrNoReceiver = errors.New("chain: contract cannot receive value")
	// ErrAddressInUse 表示该地址已部署合约。
	ErrAddressInUse = errors.New("chain: address already has code")
	// ErrPanic 表示合约执行过程中发生 panic，调用被回滚。
	ErrPanic = errors.New("chain: contract panicked")
)
