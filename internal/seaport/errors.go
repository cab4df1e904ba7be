package seaport

import "errors"

// 结算错误，任一发生都会使整个 fulfillAvailableAdvancedOrders 调用回滚。
var (
	ErrNoSpecifiedOrdersAvailable              = errors.New("seaport: no specified orders available")
	ErrOrderCriteriaResolverOutOfRange         = errors.New("seaport: order criteria resolver out of range")
	ErrOfferCriteriaResolverOutOfRange         = errors.New("seaport: offer criteria resolver out of range")
	ErrConsiderationCriteriaResolverOutOfRange = errors.New("seaport: consideration criteria resolver out of range")
	ErrCriteriaNotEnabledForItem               = errors.New("seaport: criteria not enabled for item")
	ErrInvalidProof                            = errors.New("seaport: invalid criteria proof")
	ErrUnresolvedOfferCriteria                 = errors.New("seaport: unresolved offer criteria")
	ErrUnresolvedConsiderationCriteria         = errors.New("seaport: unresolved consideration criteria")
	ErrInvalidFulfillmentComponentData         = errors.New("seaport: invalid fulfillment component data")
	ErrMissingFulfillmentComponent             = errors.New("seaport: missing fulfillment component on aggregation")
	ErrConsiderationNotMet                     = errors.New("seaport: consideration not met")
	ErrInsufficientNativeTokensSupplied        = errors.New("seaport: insufficient native tokens supplied")
	ErrBadFraction                             = errors.New("seaport: bad fraction")
	ErrCannotCancelOrder                       = errors.New("seaport: cannot cancel order")
	ErrInvalidNativeOfferItem                  = errors.New("seaport: invalid native offer item")
)
