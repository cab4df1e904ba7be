package router

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/AdminStatusFinance/seaport/internal/seaport"
)

// BatchRequest 为一次批量成交请求，按 Entries 顺序分发到各后端。
type BatchRequest struct {
	Entries          []Entry        `json:"entries"`
	RoutingKey       common.Hash    `json:"routing_key"`
	Recipient        common.Address `json:"recipient"`
	MaximumFulfilled uint64         `json:"maximum_fulfilled"`
}

// Entry 指定后端及发往该后端的子请求。
type Entry struct {
	Backend common.Address `json:"backend"`
	Request BackendRequest `json:"request"`
}

// BackendRequest 为单个后端的子请求，Value 随调用一并转给后端。
type BackendRequest struct {
	Orders                    []seaport.AdvancedOrder          `json:"orders"`
	CriteriaResolvers         []seaport.CriteriaResolver       `json:"criteria_resolvers"`
	OfferFulfillments         [][]seaport.FulfillmentComponent `json:"offer_fulfillments"`
	ConsiderationFulfillments [][]seaport.FulfillmentComponent `json:"consideration_fulfillments"`
	Value                     *uint256.Int                     `json:"value"`
}

// OutcomeKind 区分后端调用成功与失败。
type OutcomeKind uint8

const (
	OutcomeFulfilled OutcomeKind = iota + 1
	OutcomeAborted
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeFulfilled:
		return "fulfilled"
	case OutcomeAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Outcome 为一次后端调用的结果。Fulfilled 时携带可用标记与执行记录，Aborted 时只有 Reason。
type Outcome struct {
	Kind            OutcomeKind
	AvailableOrders []bool
	Executions      []seaport.Execution
	Reason          error
}

func fulfilled(flags []bool, executions []seaport.Execution) Outcome {
	if flags == nil {
		flags = []bool{}
	}
	if executions == nil {
		executions = []seaport.Execution{}
	}
	return Outcome{Kind: OutcomeFulfilled, AvailableOrders: flags, Executions: executions}
}

func aborted(reason error) Outcome {
	return Outcome{Kind: OutcomeAborted, Reason: reason}
}

// Fulfilled 返回成交的订单数。
func (o Outcome) Fulfilled() int {
	n := 0
	for _, ok := range o.AvailableOrders {
		if ok {
			n++
		}
	}
	return n
}
