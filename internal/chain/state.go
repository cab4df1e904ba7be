package chain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type account struct {
	balance *uint256.Int
	storage map[common.Hash]common.Hash
	code    any
}

// State 为内存世界状态，所有修改都记入 journal 以支持回滚。
type State struct {
	accounts map[common.Address]*account
	journal  []func()
}

// NewState 创建空状态。
func NewState() *State {
	return &State{accounts: make(map[common.Address]*account)}
}

func (s *State) getOrCreate(addr common.Address) *account {
	acc, ok := s.accounts[addr]
	if !ok {
		acc = &account{
			balance: new(uint256.Int),
			storage: make(map[common.Hash]common.Hash),
		}
		s.accounts[addr] = acc
	}
	return acc
}

// Snapshot 返回当前 journal 位置，用于 RevertToSnapshot。
func (s *State) Snapshot() int {
	return len(s.journal)
}

// RevertToSnapshot 逆序撤销 snapshot 之后的全部修改。
func (s *State) RevertToSnapshot(id int) {
	if id < 0 || id > len(s.journal) {
		panic(fmt.Sprintf("chain: invalid snapshot %d (journal=%d)", id, len(s.journal)))
	}
	for i := len(s.journal) - 1; i >= id; i-- {
		s.journal[i]()
	}
	s.journal = s.journal[:id]
}

// Commit 丢弃 journal，之后的修改无法再回滚到此前的快照。
func (s *State) Commit() {
	s.journal = s.journal[:0]
}

// Balance 返回余额副本。
func (s *State) Balance(addr common.Address) *uint256.Int {
	acc, ok := s.accounts[addr]
	if !ok {
		return new(uint256.Int)
	}
	return acc.balance.Clone()
}

func (s *State) setBalance(addr common.Address, value *uint256.Int) {
	acc := s.getOrCreate(addr)
	prev := acc.balance
	acc.balance = value
	s.journal = append(s.journal, func() { acc.balance = prev })
}

// Credit 增加余额，用于创世分配。
func (s *State) Credit(addr common.Address, amount *uint256.Int) {
	if amount == nil || amount.IsZero() {
		return
	}
	acc := s.getOrCreate(addr)
	s.setBalance(addr, new(uint256.Int).Add(acc.balance, amount))
}

// Transfer 在两个账户间转移原生资产。
func (s *State) Transfer(from, to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	balance := s.Balance(from)
	if balance.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from.Hex(), balance.Dec(), amount.Dec())
	}
	if from == to {
		return nil
	}
	s.setBalance(from, new(uint256.Int).Sub(balance, amount))
	s.setBalance(to, new(uint256.Int).Add(s.Balance(to), amount))
	return nil
}

// Load 读取合约存储槽。
func (s *State) Load(addr common.Address, key common.Hash) common.Hash {
	acc, ok := s.accounts[addr]
	if !ok {
		return common.Hash{}
	}
	return acc.storage[key]
}

// Store 写入合约存储槽。
func (s *State) Store(addr common.Address, key, value common.Hash) {
	acc := s.getOrCreate(addr)
	prev, existed := acc.storage[key]
	acc.storage[key] = value
	s.journal = append(s.journal, func() {
		if existed {
			acc.storage[key] = prev
			return
		}
		delete(acc.storage, key)
	})
}

// Code 返回部署在地址上的合约实现，普通账户返回 nil。
func (s *State) Code(addr common.Address) any {
	acc, ok := s.accounts[addr]
	if !ok {
		return nil
	}
	return acc.code
}

// Deploy 在空地址上部署合约。部署不进入 journal，只在创世阶段调用。
func (s *State) Deploy(addr common.Address, code any) error {
	acc := s.getOrCreate(addr)
	if acc.code != nil {
		return fmt.Errorf("%w: %s", ErrAddressInUse, addr.Hex())
	}
	acc.code = code
	return nil
}
