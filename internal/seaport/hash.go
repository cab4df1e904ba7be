package seaport

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

type hashedItem struct {
	ItemType    uint8
	Token       common.Address
	Identifier  [32]byte
	StartAmount [32]byte
	EndAmount   [32]byte
	Recipient   common.Address
}

type hashedOrder struct {
	Version       string
	Offerer       common.Address
	Zone          common.Address
	Offer         []hashedItem
	Consideration []hashedItem
	OrderType     uint8
	StartTime     uint64
	EndTime       uint64
	ZoneHash      common.Hash
	Salt          [32]byte
	ConduitKey    common.Hash
}

// OrderHash 计算订单哈希。version 参与哈希，同一订单在不同协议版本下互不相同。
func OrderHash(version string, p OrderParameters) (common.Hash, error) {
	preimage := hashedOrder{
		Version:       version,
		Offerer:       p.Offerer,
		Zone:          p.Zone,
		Offer:         make([]hashedItem, 0, len(p.Offer)),
		Consideration: make([]hashedItem, 0, len(p.Consideration)),
		OrderType:     uint8(p.OrderType),
		StartTime:     p.StartTime,
		EndTime:       p.EndTime,
		ZoneHash:      p.ZoneHash,
		Salt:          valueOrZero(p.Salt).Bytes32(),
		ConduitKey:    p.ConduitKey,
	}
	for _, item := range p.Offer {
		preimage.Offer = append(preimage.Offer, hashedItem{
			ItemType:    uint8(item.ItemType),
			Token:       item.Token,
			Identifier:  valueOrZero(item.IdentifierOrCriteria).Bytes32(),
			StartAmount: valueOrZero(item.StartAmount).Bytes32(),
			EndAmount:   valueOrZero(item.EndAmount).Bytes32(),
		})
	}
	for _, item := range p.Consideration {
		preimage.Consideration = append(preimage.Consideration, hashedItem{
			ItemType:    uint8(item.ItemType),
			Token:       item.Token,
			Identifier:  valueOrZero(item.IdentifierOrCriteria).Bytes32(),
			StartAmount: valueOrZero(item.StartAmount).Bytes32(),
			EndAmount:   valueOrZero(item.EndAmount).Bytes32(),
			Recipient:   item.Recipient,
		})
	}

	encoded, err := rlp.EncodeToBytes(&preimage)
	if err != nil {
		return common.Hash{}, fmt.Errorf("seaport: 编码订单失败: %w", err)
	}
	return crypto.Keccak256Hash(encoded), nil
}

// CriteriaLeaf 返回 tokenId 对应的 merkle 叶子。
func CriteriaLeaf(identifier *uint256.Int) common.Hash {
	id := valueOrZero(identifier).Bytes32()
	return crypto.Keccak256Hash(id[:])
}

// CriteriaRoot 按排序对哈希的规则由叶子计算根，叶子数为奇数时末位直接上提。
func CriteriaRoot(leaves []common.Hash) common.Hash {
	if len(leaves) == 0 {
		return common.Hash{}
	}
	level := append([]common.Hash(nil), leaves...)
	for len(level) > 1 {
		next := make([]common.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, hashPair(level[i], level[i+1]))
		}
		level = next
	}
	return level[0]
}

func hashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return crypto.Keccak256Hash(a[:], b[:])
}

func verifyProof(root common.Hash, identifier *uint256.Int, proof []common.Hash) bool {
	computed := CriteriaLeaf(identifier)
	for _, sibling := range proof {
		computed = hashPair(computed, sibling)
	}
	return computed == root
}

func statusSlot(orderHash common.Hash) common.Hash {
	return crypto.Keccak256Hash(orderHash[:], []byte("status"))
}

func encodeStatus(s OrderStatus) common.Hash {
	var out common.Hash
	if s.IsValidated {
		out[0] = 1
	}
	if s.IsCancelled {
		out[1] = 1
	}
	binary.BigEndian.PutUint64(out[16:24], s.Numerator)
	binary.BigEndian.PutUint64(out[24:32], s.Denominator)
	return out
}

func decodeStatus(raw common.Hash) OrderStatus {
	return OrderStatus{
		IsValidated: raw[0] == 1,
		IsCancelled: raw[1] == 1,
		Numerator:   binary.BigEndian.Uint64(raw[16:24]),
		Denominator: binary.BigEndian.Uint64(raw[24:32]),
	}
}
