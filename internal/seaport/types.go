package seaport

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ItemType 表示订单条目的资产类型。
type ItemType uint8

const (
	ItemNative ItemType = iota
	ItemERC20
	ItemERC721
	ItemERC1155
	ItemERC721WithCriteria
	ItemERC1155WithCriteria
)

// HasCriteria 判断条目是否需要 criteria resolver 指定具体 tokenId。
func (t ItemType) HasCriteria() bool {
	return t == ItemERC721WithCriteria || t == ItemERC1155WithCriteria
}

func (t ItemType) resolved() ItemType {
	switch t {
	case ItemERC721WithCriteria:
		return ItemERC721
	case ItemERC1155WithCriteria:
		return ItemERC1155
	default:
		return t
	}
}

// OrderType 表示订单是否允许部分成交以及是否受 zone 限制。
type OrderType uint8

const (
	OrderFullOpen OrderType = iota
	OrderPartialOpen
	OrderFullRestricted
	OrderPartialRestricted
	OrderContract
)

// AllowsPartialFill 判断订单是否支持部分成交。
func (t OrderType) AllowsPartialFill() bool {
	return t == OrderPartialOpen || t == OrderPartialRestricted
}

// Side 区分 offer 与 consideration。
type Side uint8

const (
	SideOffer Side = iota
	SideConsideration
)

// OfferItem 为挂单方提供的资产。
type OfferItem struct {
	ItemType             ItemType       `json:"item_type"`
	Token                common.Address `json:"token"`
	IdentifierOrCriteria *uint256.Int   `json:"identifier_or_criteria"`
	StartAmount          *uint256.Int   `json:"start_amount"`
	EndAmount            *uint256.Int   `json:"end_amount"`
}

// ConsiderationItem 为挂单方要求收到的资产及收款人。
type ConsiderationItem struct {
	ItemType             ItemType       `json:"item_type"`
	Token                common.Address `json:"token"`
	IdentifierOrCriteria *uint256.Int   `json:"identifier_or_criteria"`
	StartAmount          *uint256.Int   `json:"start_amount"`
	EndAmount            *uint256.Int   `json:"end_amount"`
	Recipient            common.Address `json:"recipient"`
}

// OrderParameters 为订单主体，订单哈希由其计算。
type OrderParameters struct {
	Offerer                         common.Address      `json:"offerer"`
	Zone                            common.Address      `json:"zone"`
	Offer                           []OfferItem         `json:"offer"`
	Consideration                   []ConsiderationItem `json:"consideration"`
	OrderType                       OrderType           `json:"order_type"`
	StartTime                       uint64              `json:"start_time"`
	EndTime                         uint64              `json:"end_time"`
	ZoneHash                        common.Hash         `json:"zone_hash"`
	Salt                            *uint256.Int        `json:"salt"`
	ConduitKey                      common.Hash         `json:"conduit_key"`
	TotalOriginalConsiderationItems uint64              `json:"total_original_consideration_items"`
}

// AdvancedOrder 支持部分成交比例与附加数据。
type AdvancedOrder struct {
	Parameters  OrderParameters `json:"parameters"`
	Numerator   uint64          `json:"numerator"`
	Denominator uint64          `json:"denominator"`
	Signature   []byte          `json:"signature"`
	ExtraData   []byte          `json:"extra_data"`
}

// CriteriaResolver 为 criteria 条目指定具体 tokenId 及 merkle 证明。
type CriteriaResolver struct {
	OrderIndex    uint64        `json:"order_index"`
	Side          Side          `json:"side"`
	Index         uint64        `json:"index"`
	Identifier    *uint256.Int  `json:"identifier"`
	CriteriaProof []common.Hash `json:"criteria_proof"`
}

// FulfillmentComponent 指向某订单某一侧的某个条目。
type FulfillmentComponent struct {
	OrderIndex uint64 `json:"order_index"`
	ItemIndex  uint64 `json:"item_index"`
}

// ReceivedItem 为一次实际转移的资产。
type ReceivedItem struct {
	ItemType   ItemType       `json:"item_type"`
	Token      common.Address `json:"token"`
	Identifier *uint256.Int   `json:"identifier"`
	Amount     *uint256.Int   `json:"amount"`
	Recipient  common.Address `json:"recipient"`
}

// Execution 为聚合后的一笔转移记录。
type Execution struct {
	Item       ReceivedItem   `json:"item"`
	Offerer    common.Address `json:"offerer"`
	ConduitKey common.Hash    `json:"conduit_key"`
}

// FulfillArgs 为 fulfillAvailableAdvancedOrders 的全部入参。
type FulfillArgs struct {
	Orders                    []AdvancedOrder
	CriteriaResolvers         []CriteriaResolver
	OfferFulfillments         [][]FulfillmentComponent
	ConsiderationFulfillments [][]FulfillmentComponent
	FulfillerConduitKey       common.Hash
	Recipient                 common.Address
	MaximumFulfilled          uint64
}

// OrderStatus 为订单在链上的成交状态。
type OrderStatus struct {
	IsValidated bool
	IsCancelled bool
	Numerator   uint64
	Denominator uint64
}

// Information 描述结算后端版本。
type Information struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func valueOrZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}
