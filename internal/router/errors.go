package router

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	// ErrBackendNotAllowed 表示请求指向注册表之外的后端，整批请求回滚。
	ErrBackendNotAllowed = errors.New("router: backend not allowed")
	// ErrBackendCallAborted 表示单个后端调用失败；只出现在 Outcome.Reason 中，不会返回给调用方。
	ErrBackendCallAborted = errors.New("router: backend call aborted")
	// ErrValueReturnFailed 表示退还剩余原生资产失败。
	ErrValueReturnFailed = errors.New("router: value return failed")
	// ErrReentrancy 表示在 guard 持有期间再次进入受保护操作。
	ErrReentrancy = errors.New("router: reentrancy violation")
)

// BackendNotAllowedError 携带被拒绝的后端地址。
type BackendNotAllowedError struct {
	Backend common.Address
}

func (e *BackendNotAllowedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrBackendNotAllowed, e.Backend.Hex())
}

func (e *BackendNotAllowedError) Unwrap() error { return ErrBackendNotAllowed }

// ValueReturnError 描述一次失败的退款：收款人、金额以及转账失败的原因。
type ValueReturnError struct {
	Recipient  common.Address
	Amount     *uint256.Int
	Diagnostic error
}

func (e *ValueReturnError) Error() string {
	amount := "0"
	if e.Amount != nil {
		amount = e.Amount.Dec()
	}
	return fmt.Sprintf("%s: recipient=%s amount=%s: %v", ErrValueReturnFailed, e.Recipient.Hex(), amount, e.Diagnostic)
}

// Unwrap 同时暴露哨兵错误与底层原因。
func (e *ValueReturnError) Unwrap() []error {
	if e.Diagnostic == nil {
		return []error{ErrValueReturnFailed}
	}
	return []error{ErrValueReturnFailed, e.Diagnostic}
}

// BackendCallError 记录被吸收的后端失败。
type BackendCallError struct {
	Backend common.Address
	Index   int
	Cause   error
}

func (e *BackendCallError) Error() string {
	return fmt.Sprintf("%s: entry %d backend %s: %v", ErrBackendCallAborted, e.Index, e.Backend.Hex(), e.Cause)
}

func (e *BackendCallError) Unwrap() []error {
	return []error{ErrBackendCallAborted, e.Cause}
}
