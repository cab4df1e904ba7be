package monitor

import (
	"time"
)

// EventType 表示路由事件类型。
type EventType string

const (
	EventDispatch EventType = "dispatch"
	EventRefund   EventType = "refund"
	EventError    EventType = "error"
)

// Event 封装通用路由事件。
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// DispatchPayload 记录一次已提交的批量成交。
type DispatchPayload struct {
	Caller           string         `json:"caller"`
	Value            string         `json:"value"`
	MaximumFulfilled uint64         `json:"maximum_fulfilled"`
	TotalFulfilled   int            `json:"total_fulfilled"`
	Entries          []EntryPayload `json:"entries"`
}

// EntryPayload 记录单个后端的处理结果。
type EntryPayload struct {
	Index     int    `json:"index"`
	Backend   string `json:"backend"`
	Outcome   string `json:"outcome"`
	Fulfilled int    `json:"fulfilled"`
	Reason    string `json:"reason,omitempty"`
}

// RefundPayload 记录退还给调用方的剩余资产。
type RefundPayload struct {
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

// ErrorPayload 记录异常。
type ErrorPayload struct {
	Message string                 `json:"message"`
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}
