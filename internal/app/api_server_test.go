package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AdminStatusFinance/seaport/internal/config"
	"github.com/AdminStatusFinance/seaport/internal/store"
)

const (
	testRouter = "0x00000000F9490004C11Cef243f5400493c00Ad63"
	testV14    = "0x00000000000001ad428e4906aE43D8F9852d0dD6"
	testV15    = "0x00000000000000ADc04C56Bf30aC9d3c0aAF14dC"
	testCaller = "0x1000000000000000000000000000000000000001"
	testSeller = "0x0ff0000000000000000000000000000000000e01"
	testBroke  = "0x2000000000000000000000000000000000000002"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	st, err := store.NewSQLite(config.DatabaseConfig{InMemory: true})
	if err != nil {
		t.Fatalf("NewSQLite returned error: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	a, err := New(&config.Config{
		Router: config.RouterConfig{
			Address: testRouter,
			Backends: []config.BackendConfig{
				{Name: "Consideration", Version: "1.4", Address: testV14},
				{Name: "Consideration", Version: "1.5", Address: testV15},
			},
		},
		Chain: config.ChainConfig{
			Genesis: []config.GenesisAccount{
				{Address: testCaller, Balance: "1000"},
				{Address: testBroke, Balance: "0"},
			},
		},
	}, nil, st)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return a
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func balanceOf(t *testing.T, h http.Handler, addr string) string {
	t.Helper()
	rec := do(t, h, http.MethodGet, "/balances/"+addr, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /balances status = %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Balance string `json:"balance"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	return out.Balance
}

func TestAPI_Backends(t *testing.T) {
	h := newAPIServer(newTestApp(t)).handler()

	rec := do(t, h, http.MethodGet, "/backends", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out []struct {
		Address string `json:"address"`
		Version string `json:"version"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 || out[0].Version != "1.4" || out[1].Version != "1.5" {
		t.Fatalf("backends = %+v", out)
	}
}

func TestAPI_FulfillSettlesAndRefunds(t *testing.T) {
	h := newAPIServer(newTestApp(t)).handler()

	body := `{
		"caller": "` + testCaller + `",
		"value": "100",
		"maximum_fulfilled": 1,
		"entries": [{
			"backend": "` + testV15 + `",
			"request": {
				"value": "100",
				"orders": [{
					"parameters": {
						"offerer": "` + testSeller + `",
						"offer": [{"item_type": 2, "identifier_or_criteria": "9", "start_amount": "1", "end_amount": "1"}],
						"consideration": [{"item_type": 0, "start_amount": "30", "end_amount": "30", "recipient": "` + testSeller + `"}],
						"start_time": 1,
						"end_time": 1099511627776,
						"salt": "1"
					},
					"numerator": 1,
					"denominator": 1
				}],
				"offer_fulfillments": [[{"order_index": 0, "item_index": 0}]],
				"consideration_fulfillments": [[{"order_index": 0, "item_index": 0}]]
			}
		}]
	}`

	rec := do(t, h, http.MethodPost, "/fulfill", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		AvailableOrders [][]bool `json:"available_orders"`
		Refunds         []struct {
			Amount string `json:"amount"`
		} `json:"refunds"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.AvailableOrders) != 1 || len(out.AvailableOrders[0]) != 1 || !out.AvailableOrders[0][0] {
		t.Fatalf("available_orders = %v", out.AvailableOrders)
	}
	if len(out.Refunds) != 1 || out.Refunds[0].Amount != "70" {
		t.Errorf("refunds = %+v, want 70", out.Refunds)
	}

	if got := balanceOf(t, h, testCaller); got != "970" {
		t.Errorf("caller balance = %s, want 970", got)
	}
	if got := balanceOf(t, h, testSeller); got != "30" {
		t.Errorf("seller balance = %s, want 30", got)
	}

	rec = do(t, h, http.MethodGet, "/events?type=dispatch", "")
	var events []json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("dispatch events = %d, want 1", len(events))
	}
}

func TestAPI_FulfillRejectsUnknownBackend(t *testing.T) {
	h := newAPIServer(newTestApp(t)).handler()

	body := `{
		"caller": "` + testCaller + `",
		"value": "10",
		"maximum_fulfilled": 1,
		"entries": [{"backend": "0x00000000000000000000000000000000000000cc", "request": {}}]
	}`
	rec := do(t, h, http.MethodPost, "/fulfill", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var out errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Class != "backend_not_allowed" {
		t.Errorf("class = %q", out.Class)
	}
	if got := balanceOf(t, h, testCaller); got != "1000" {
		t.Errorf("caller balance = %s, want 1000", got)
	}

	rec = do(t, h, http.MethodGet, "/events?type=error", "")
	var events []json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("error events = %d, want 1", len(events))
	}
}

func TestAPI_SendToRouterIsReturned(t *testing.T) {
	h := newAPIServer(newTestApp(t)).handler()

	body := `{"from": "` + testCaller + `", "to": "` + testRouter + `", "value": "25"}`
	rec := do(t, h, http.MethodPost, "/send", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := balanceOf(t, h, testCaller); got != "1000" {
		t.Errorf("caller balance = %s, want 1000", got)
	}
	if got := balanceOf(t, h, testRouter); got != "0" {
		t.Errorf("router balance = %s, want 0", got)
	}
}

func TestAPI_BadInput(t *testing.T) {
	h := newAPIServer(newTestApp(t)).handler()

	if rec := do(t, h, http.MethodGet, "/balances/nope", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad address status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/fulfill", "{"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad json status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/send", `{"from": "`+testBroke+`", "to": "`+testCaller+`", "value": "1"}`); rec.Code != http.StatusPaymentRequired {
		t.Errorf("unfunded send status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}
}

func TestAPI_RejectsNonGenesisSender(t *testing.T) {
	h := newAPIServer(newTestApp(t)).handler()

	tests := []struct {
		name string
		path string
		body string
	}{
		{name: "send from backend", path: "/send", body: `{"from": "` + testV14 + `", "to": "` + testRouter + `", "value": "1"}`},
		{name: "send from seller", path: "/send", body: `{"from": "` + testSeller + `", "to": "` + testCaller + `", "value": "1"}`},
		{name: "fulfill as seller", path: "/fulfill", body: `{"caller": "` + testSeller + `", "value": "0", "maximum_fulfilled": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.path, tt.body)
			if rec.Code != http.StatusForbidden {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			var out errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if out.Class != "forbidden_sender" {
				t.Errorf("class = %q", out.Class)
			}
		})
	}

	if got := balanceOf(t, h, testCaller); got != "1000" {
		t.Errorf("caller balance = %s, want 1000", got)
	}
}
