package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/AdminStatusFinance/seaport/internal/config"
	"github.com/AdminStatusFinance/seaport/internal/router"
	"github.com/AdminStatusFinance/seaport/internal/seaport"
	"github.com/AdminStatusFinance/seaport/internal/store"
)

type fakePublisher struct {
	keys   []string
	values [][]byte
	err    error
	closed bool
}

func (p *fakePublisher) Publish(ctx context.Context, key, value []byte) error {
	p.keys = append(p.keys, string(key))
	p.values = append(p.values, value)
	return p.err
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

func newTestService(t *testing.T, pub Publisher) *Service {
	t.Helper()
	st, err := store.NewSQLite(config.DatabaseConfig{InMemory: true})
	if err != nil {
		t.Fatalf("NewSQLite returned error: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	svc, err := NewService(st, pub, nil)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return svc
}

func TestService_RecordAndList(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(t, pub)
	ctx := context.Background()

	svc.RecordRefund(ctx, RefundPayload{Recipient: "0x01", Amount: "5"})
	svc.RecordError(ctx, "分发失败", errors.New("boom"), map[string]interface{}{"entry": 1})
	svc.RecordRefund(ctx, RefundPayload{Recipient: "0x02", Amount: "7"})

	all, err := svc.ListEvents(ctx, "", 10)
	if err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}
	if all[0].Type != EventRefund || all[1].Type != EventError {
		t.Errorf("events not newest first: %v, %v", all[0].Type, all[1].Type)
	}

	refunds, err := svc.ListEvents(ctx, EventRefund, 1)
	if err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}
	if len(refunds) != 1 {
		t.Fatalf("len(refunds) = %d, want 1", len(refunds))
	}
	var latest RefundPayload
	if err := json.Unmarshal(refunds[0].Payload.(json.RawMessage), &latest); err != nil {
		t.Fatalf("payload decode: %v", err)
	}
	if latest.Amount != "7" {
		t.Errorf("latest refund = %+v, want amount 7", latest)
	}

	if len(pub.keys) != 3 || pub.keys[1] != string(EventError) {
		t.Errorf("published keys = %v", pub.keys)
	}
	var message struct {
		Type    EventType     `json:"type"`
		Payload RefundPayload `json:"payload"`
	}
	if err := json.Unmarshal(pub.values[0], &message); err != nil {
		t.Fatalf("message decode: %v", err)
	}
	if message.Type != EventRefund || message.Payload.Recipient != "0x01" {
		t.Errorf("message = %+v", message)
	}

	if err := svc.Close(); err != nil || !pub.closed {
		t.Errorf("Close = %v, closed = %v", err, pub.closed)
	}
}

func TestService_PublishFailureKeepsRecord(t *testing.T) {
	svc := newTestService(t, &fakePublisher{err: errors.New("broker down")})
	ctx := context.Background()

	if err := svc.Record(ctx, Event{Type: EventRefund, Payload: RefundPayload{Amount: "1"}}); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	events, err := svc.ListEvents(ctx, EventRefund, 0)
	if err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
}

func TestNewService_RequiresStore(t *testing.T) {
	if _, err := NewService(nil, nil, nil); err == nil {
		t.Fatalf("expected error for nil store")
	}
}

func TestJournal_Flush(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	backend := common.HexToAddress("0x00000000000000ADc04C56Bf30aC9d3c0aAF14dC")
	caller := common.HexToAddress("0x1000000000000000000000000000000000000001")

	j := NewJournal()
	j.OnOutcome(0, backend, router.Outcome{Kind: router.OutcomeAborted, Reason: seaport.ErrNoSpecifiedOrdersAvailable})
	j.OnOutcome(1, backend, router.Outcome{Kind: router.OutcomeFulfilled, AvailableOrders: []bool{true, false, true}})
	j.OnValueReturned(caller, uint256.NewInt(12))
	j.Flush(ctx, svc, caller, uint256.NewInt(100), 4)

	dispatches, err := svc.ListEvents(ctx, EventDispatch, 10)
	if err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}
	if len(dispatches) != 1 {
		t.Fatalf("len(dispatches) = %d, want 1", len(dispatches))
	}
	var payload DispatchPayload
	if err := json.Unmarshal(dispatches[0].Payload.(json.RawMessage), &payload); err != nil {
		t.Fatalf("payload decode: %v", err)
	}
	if payload.TotalFulfilled != 2 || payload.MaximumFulfilled != 4 || payload.Value != "100" {
		t.Errorf("payload = %+v", payload)
	}
	if len(payload.Entries) != 2 || payload.Entries[0].Outcome != "aborted" || payload.Entries[0].Reason == "" {
		t.Errorf("entries = %+v", payload.Entries)
	}

	refunds, err := svc.ListEvents(ctx, EventRefund, 10)
	if err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}
	if len(refunds) != 1 {
		t.Fatalf("len(refunds) = %d, want 1", len(refunds))
	}
}
