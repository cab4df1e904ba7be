package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/AdminStatusFinance/seaport/internal/config"
)

var (
	alice = common.HexToAddress("0xa11ce00000000000000000000000000000000001")
	bob   = common.HexToAddress("0xb0b0000000000000000000000000000000000002")
	vault = common.HexToAddress("0xc0de000000000000000000000000000000000003")
)

type hookContract struct {
	receiveErr error
	received   int
}

func (h *hookContract) Receive(ctx context.Context, tx *Tx, msg Msg) error {
	h.received++
	return h.receiveErr
}

type fallbackOnly struct {
	calls int
	data  []byte
}

func (f *fallbackOnly) Fallback(ctx context.Context, tx *Tx, msg Msg, data []byte) error {
	f.calls++
	f.data = data
	return nil
}

func newTestChain(t *testing.T, depth int) *Chain {
	t.Helper()
	c, err := New(config.ChainConfig{
		MaxCallDepth: depth,
		Genesis: []config.GenesisAccount{
			{Address: alice.Hex(), Balance: "1000"},
		},
	}, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return c
}

func TestNew_RejectsBadGenesis(t *testing.T) {
	if _, err := New(config.ChainConfig{Genesis: []config.GenesisAccount{{Address: "nope", Balance: "1"}}}, nil); err == nil {
		t.Fatalf("expected error for invalid address")
	}
	if _, err := New(config.ChainConfig{Genesis: []config.GenesisAccount{{Address: alice.Hex(), Balance: "-1"}}}, nil); err == nil {
		t.Fatalf("expected error for invalid balance")
	}
}

func TestTransact_CommitsOnSuccess(t *testing.T) {
	c := newTestChain(t, 0)

	err := c.Transact(context.Background(), alice, func(ctx context.Context, tx *Tx) error {
		return tx.Transfer(alice, bob, uint256.NewInt(400))
	})
	if err != nil {
		t.Fatalf("Transact returned error: %v", err)
	}
	if got := c.BalanceOf(alice).Uint64(); got != 600 {
		t.Errorf("alice balance = %d, want 600", got)
	}
	if got := c.BalanceOf(bob).Uint64(); got != 400 {
		t.Errorf("bob balance = %d, want 400", got)
	}
}

func TestTransact_RevertsEverythingOnError(t *testing.T) {
	c := newTestChain(t, 0)
	boom := errors.New("boom")
	slot := common.HexToHash("0x01")

	err := c.Transact(context.Background(), alice, func(ctx context.Context, tx *Tx) error {
		if err := tx.Transfer(alice, bob, uint256.NewInt(100)); err != nil {
			return err
		}
		tx.Store(vault, slot, common.HexToHash("0xff"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if got := c.BalanceOf(alice).Uint64(); got != 1000 {
		t.Errorf("alice balance = %d, want 1000", got)
	}
	if got := c.BalanceOf(bob).Uint64(); got != 0 {
		t.Errorf("bob balance = %d, want 0", got)
	}
	if got := c.StorageAt(vault, slot); got != (common.Hash{}) {
		t.Errorf("storage not reverted: %s", got.Hex())
	}
}

func TestTransact_RecoversPanic(t *testing.T) {
	c := newTestChain(t, 0)

	err := c.Transact(context.Background(), alice, func(ctx context.Context, tx *Tx) error {
		_ = tx.Transfer(alice, bob, uint256.NewInt(1))
		panic("unexpected")
	})
	if !errors.Is(err, ErrPanic) {
		t.Fatalf("expected ErrPanic, got %v", err)
	}
	if got := c.BalanceOf(bob).Uint64(); got != 0 {
		t.Errorf("bob balance = %d, want 0", got)
	}
}

func TestCall_RevertsOnlyTheSubCall(t *testing.T) {
	c := newTestChain(t, 0)

	var callErr error
	err := c.Transact(context.Background(), alice, func(ctx context.Context, tx *Tx) error {
		if err := tx.Transfer(alice, bob, uint256.NewInt(100)); err != nil {
			return err
		}
		callErr = tx.Call(ctx, Msg{From: alice, To: vault, Value: uint256.NewInt(300)}, func(ctx context.Context, inner *Tx) error {
			if inner.Depth() != 1 {
				t.Errorf("inner depth = %d, want 1", inner.Depth())
			}
			if got := inner.Balance(vault).Uint64(); got != 300 {
				t.Errorf("value not forwarded, vault=%d", got)
			}
			return errors.New("sub-call aborted")
		})
		return nil
	})
	if err != nil {
		t.Fatalf("Transact returned error: %v", err)
	}
	if callErr == nil {
		t.Fatalf("expected sub-call error")
	}
	if got := c.BalanceOf(alice).Uint64(); got != 900 {
		t.Errorf("alice balance = %d, want 900", got)
	}
	if got := c.BalanceOf(vault).Uint64(); got != 0 {
		t.Errorf("vault balance = %d, want 0", got)
	}
}

func TestCall_InsufficientBalance(t *testing.T) {
	c := newTestChain(t, 0)

	err := c.Transact(context.Background(), bob, func(ctx context.Context, tx *Tx) error {
		return tx.Call(ctx, Msg{From: bob, To: vault, Value: uint256.NewInt(1)}, func(ctx context.Context, inner *Tx) error {
			t.Errorf("callee must not run")
			return nil
		})
	})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestCall_DepthLimit(t *testing.T) {
	c := newTestChain(t, 3)

	var recurse func(ctx context.Context, tx *Tx) error
	recurse = func(ctx context.Context, tx *Tx) error {
		return tx.Call(ctx, Msg{From: alice, To: vault}, recurse)
	}

	err := c.Transact(context.Background(), alice, recurse)
	if !errors.Is(err, ErrDepthExceeded) {
		t.Fatalf("expected ErrDepthExceeded, got %v", err)
	}
}

func TestSend_Hooks(t *testing.T) {
	c := newTestChain(t, 0)
	accepting := &hookContract{}
	rejecting := &hookContract{receiveErr: errors.New("no thanks")}
	fallback := &fallbackOnly{}
	plain := struct{}{}

	contracts := map[common.Address]any{
		common.HexToAddress("0x10"): accepting,
		common.HexToAddress("0x11"): rejecting,
		common.HexToAddress("0x12"): fallback,
		common.HexToAddress("0x13"): &plain,
	}
	for addr, code := range contracts {
		if err := c.Deploy(addr, code); err != nil {
			t.Fatalf("Deploy returned error: %v", err)
		}
	}

	tests := []struct {
		name    string
		to      common.Address
		data    []byte
		wantErr error
		anyErr  bool
	}{
		{name: "externally owned", to: bob},
		{name: "receive accepts", to: common.HexToAddress("0x10")},
		{name: "receive rejects", to: common.HexToAddress("0x11"), anyErr: true},
		{name: "fallback on empty data", to: common.HexToAddress("0x12")},
		{name: "fallback with data", to: common.HexToAddress("0x12"), data: []byte{0xde, 0xad}},
		{name: "no hooks", to: common.HexToAddress("0x13"), wantErr: ErrNoReceiver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := c.BalanceOf(tt.to)
			err := c.Transact(context.Background(), alice, func(ctx context.Context, tx *Tx) error {
				return tx.Send(ctx, alice, tt.to, uint256.NewInt(5), tt.data)
			})
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			case tt.anyErr:
				if err == nil {
					t.Fatalf("expected error")
				}
			default:
				if err != nil {
					t.Fatalf("Send returned error: %v", err)
				}
			}
			after := c.BalanceOf(tt.to)
			credited := err == nil
			if credited && new(uint256.Int).Sub(after, before).Uint64() != 5 {
				t.Errorf("expected credit of 5, before=%s after=%s", before.Dec(), after.Dec())
			}
			if !credited && !after.Eq(before) {
				t.Errorf("balance changed on failed send: before=%s after=%s", before.Dec(), after.Dec())
			}
		})
	}

	if accepting.received != 1 {
		t.Errorf("accepting.received = %d, want 1", accepting.received)
	}
	if fallback.calls != 2 {
		t.Errorf("fallback.calls = %d, want 2", fallback.calls)
	}
}

func TestDeploy_AddressInUse(t *testing.T) {
	c := newTestChain(t, 0)
	if err := c.Deploy(vault, &hookContract{}); err != nil {
		t.Fatalf("Deploy returned error: %v", err)
	}
	if err := c.Deploy(vault, &hookContract{}); !errors.Is(err, ErrAddressInUse) {
		t.Fatalf("expected ErrAddressInUse, got %v", err)
	}
}
