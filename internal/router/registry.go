package router

import "github.com/ethereum/go-ethereum/common"

// Registry 为创建时固定的两个后端地址，创建后不可修改。
type Registry struct {
	endpoints [2]common.Address
}

// NewRegistry 按给定顺序登记两个后端。
func NewRegistry(first, second common.Address) Registry {
	return Registry{endpoints: [2]common.Address{first, second}}
}

// Endpoints 按登记顺序返回后端地址。
func (r Registry) Endpoints() [2]common.Address {
	return r.endpoints
}

// Allowed 判断地址是否已登记。
func (r Registry) Allowed(addr common.Address) bool {
	return addr == r.endpoints[0] || addr == r.endpoints[1]
}
