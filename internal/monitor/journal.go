package monitor

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/AdminStatusFinance/seaport/internal/router"
)

// Journal 缓存单次调用内的路由事件。调用可能回滚，只有在提交后才调用 Flush 落盘。
type Journal struct {
	entries []EntryPayload
	refunds []RefundPayload
}

var _ router.Observer = (*Journal)(nil)

// NewJournal 创建空的事件缓存。
func NewJournal() *Journal {
	return &Journal{}
}

// OnOutcome 记录单个后端的处理结果。
func (j *Journal) OnOutcome(index int, backend common.Address, outcome router.Outcome) {
	entry := EntryPayload{
		Index:     index,
		Backend:   backend.Hex(),
		Outcome:   outcome.Kind.String(),
		Fulfilled: outcome.Fulfilled(),
	}
	if outcome.Reason != nil {
		entry.Reason = outcome.Reason.Error()
	}
	j.entries = append(j.entries, entry)
}

// OnValueReturned 记录退款。
func (j *Journal) OnValueReturned(recipient common.Address, amount *uint256.Int) {
	j.refunds = append(j.refunds, RefundPayload{Recipient: recipient.Hex(), Amount: amount.Dec()})
}

// Refunds 返回已记录的退款。
func (j *Journal) Refunds() []RefundPayload {
	return j.refunds
}

// Flush 将缓存事件写入 svc。entries 为空时只写退款。
func (j *Journal) Flush(ctx context.Context, svc *Service, caller common.Address, value *uint256.Int, maximumFulfilled uint64) {
	if svc == nil {
		return
	}
	if len(j.entries) > 0 {
		total := 0
		for _, entry := range j.entries {
			total += entry.Fulfilled
		}
		amount := "0"
		if value != nil {
			amount = value.Dec()
		}
		svc.RecordDispatch(ctx, DispatchPayload{
			Caller:           caller.Hex(),
			Value:            amount,
			MaximumFulfilled: maximumFulfilled,
			TotalFulfilled:   total,
			Entries:          j.entries,
		})
	}
	for _, refund := range j.refunds {
		svc.RecordRefund(ctx, refund)
	}
}
