package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/sugawarayuuta/sonnet"
	"go.uber.org/zap"

	"github.com/AdminStatusFinance/seaport/internal/chain"
	"github.com/AdminStatusFinance/seaport/internal/monitor"
	"github.com/AdminStatusFinance/seaport/internal/router"
	"github.com/AdminStatusFinance/seaport/internal/seaport"
)

const maxBodyBytes = 4 << 20

// apiServer 驱动本地演示账本，请求不带签名。
// 为避免冒用任意账户，/fulfill 和 /send 只接受创世配置中的账户作为发起方。
type apiServer struct {
	app     *App
	senders map[common.Address]struct{}
	logger  *zap.Logger
}

func newAPIServer(a *App) *apiServer {
	senders := make(map[common.Address]struct{}, len(a.cfg.Chain.Genesis))
	for _, account := range a.cfg.Chain.Genesis {
		senders[common.HexToAddress(account.Address)] = struct{}{}
	}
	return &apiServer{app: a, senders: senders, logger: a.logger.Named("api")}
}

// allowSender 校验发起方，不在创世账户中时写入 403。
func (s *apiServer) allowSender(w http.ResponseWriter, addr common.Address) bool {
	if _, ok := s.senders[addr]; ok {
		return true
	}
	s.writeError(w, http.StatusForbidden, "forbidden_sender", fmt.Errorf("账户 %s 不可作为发起方", addr.Hex()))
	return false
}

type fulfillRequest struct {
	Caller common.Address `json:"caller"`
	Value  *uint256.Int   `json:"value"`
	router.BatchRequest
}

type fulfillResponse struct {
	AvailableOrders [][]bool                `json:"available_orders"`
	Executions      [][]seaport.Execution   `json:"executions"`
	Refunds         []monitor.RefundPayload `json:"refunds"`
}

type sendRequest struct {
	From  common.Address `json:"from"`
	To    common.Address `json:"to"`
	Value *uint256.Int   `json:"value"`
	Data  hexutil.Bytes  `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
	Class string `json:"class"`
}

func (s *apiServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /backends", s.handleBackends)
	mux.HandleFunc("POST /fulfill", s.handleFulfill)
	mux.HandleFunc("POST /send", s.handleSend)
	mux.HandleFunc("GET /balances/{address}", s.handleBalance)
	mux.HandleFunc("GET /events", s.handleEvents)
	return mux
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.app.store != nil {
		if err := s.app.store.Ping(r.Context()); err != nil {
			s.writeError(w, http.StatusServiceUnavailable, "unavailable", err)
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) handleBackends(w http.ResponseWriter, r *http.Request) {
	type backend struct {
		Address common.Address `json:"address"`
		seaport.Information
	}
	allowed := s.app.router.GetAllowedBackends()
	out := make([]backend, 0, len(allowed))
	for _, addr := range allowed {
		item := backend{Address: addr}
		for _, contract := range s.app.backends {
			if contract.Address() == addr {
				item.Information = contract.Information()
			}
		}
		out = append(out, item)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *apiServer) handleFulfill(w http.ResponseWriter, r *http.Request) {
	var req fulfillRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if req.Caller == (common.Address{}) {
		s.writeError(w, http.StatusBadRequest, "bad_request", errors.New("caller 不能为空"))
		return
	}
	if !s.allowSender(w, req.Caller) {
		return
	}

	journal := monitor.NewJournal()
	ctx := router.WithObserver(r.Context(), journal)
	availableOrders, executions, err := s.app.router.Submit(ctx, s.app.chain, req.Caller, req.Value, req.BatchRequest)
	if err != nil {
		s.recordError(r.Context(), "批量成交失败", err, map[string]interface{}{
			"caller":  req.Caller.Hex(),
			"entries": len(req.Entries),
		})
		status, class := classify(err)
		s.writeError(w, status, class, err)
		return
	}

	journal.Flush(r.Context(), s.app.events, req.Caller, req.Value, req.MaximumFulfilled)
	s.writeJSON(w, http.StatusOK, fulfillResponse{
		AvailableOrders: availableOrders,
		Executions:      executions,
		Refunds:         journal.Refunds(),
	})
}

func (s *apiServer) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !s.allowSender(w, req.From) {
		return
	}

	journal := monitor.NewJournal()
	ctx := router.WithObserver(r.Context(), journal)
	err := s.app.chain.Transact(ctx, req.From, func(ctx context.Context, tx *chain.Tx) error {
		return tx.Send(ctx, req.From, req.To, req.Value, req.Data)
	})
	if err != nil {
		s.recordError(r.Context(), "转账失败", err, map[string]interface{}{
			"from": req.From.Hex(),
			"to":   req.To.Hex(),
		})
		status, class := classify(err)
		s.writeError(w, status, class, err)
		return
	}

	journal.Flush(r.Context(), s.app.events, req.From, req.Value, 0)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"from_balance": s.app.chain.BalanceOf(req.From),
		"to_balance":   s.app.chain.BalanceOf(req.To),
		"refunds":      journal.Refunds(),
	})
}

func (s *apiServer) handleBalance(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("address")
	if !common.IsHexAddress(raw) {
		s.writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("地址非法: %q", raw))
		return
	}
	addr := common.HexToAddress(raw)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"address": addr,
		"balance": s.app.chain.BalanceOf(addr),
	})
}

func (s *apiServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.app.events == nil {
		s.writeJSON(w, http.StatusOK, []monitor.Event{})
		return
	}

	q := r.URL.Query()
	limit := 200
	if qs := q.Get("limit"); qs != "" {
		if v, err := strconv.Atoi(qs); err == nil && v > 0 {
			if v > 1000 {
				v = 1000
			}
			limit = v
		}
	}

	eventType := monitor.EventType("")
	if typ := strings.TrimSpace(q.Get("type")); typ != "" {
		eventType = monitor.EventType(strings.ToLower(typ))
	}

	events, err := s.app.events.ListEvents(r.Context(), eventType, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	s.writeJSON(w, http.StatusOK, events)
}

func (s *apiServer) decode(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("读取请求失败: %w", err)
	}
	if err := sonnet.Unmarshal(body, v); err != nil {
		return fmt.Errorf("解析请求失败: %w", err)
	}
	return nil
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := sonnet.Marshal(v)
	if err != nil {
		s.logger.Warn("序列化响应失败", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		s.logger.Warn("写入响应失败", zap.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, class string, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error(), Class: class})
}

func (s *apiServer) recordError(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	s.logger.Warn(msg, zap.Error(err))
	if s.app.events != nil {
		s.app.events.RecordError(ctx, msg, err, fields)
	}
}

// classify 将路由错误映射为 HTTP 状态码与错误类别。
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, router.ErrBackendNotAllowed):
		return http.StatusUnprocessableEntity, "backend_not_allowed"
	case errors.Is(err, router.ErrValueReturnFailed):
		return http.StatusConflict, "value_return_failed"
	case errors.Is(err, router.ErrReentrancy):
		return http.StatusConflict, "reentrancy"
	case errors.Is(err, chain.ErrInsufficientBalance):
		return http.StatusPaymentRequired, "insufficient_balance"
	case errors.Is(err, chain.ErrNoReceiver):
		return http.StatusBadRequest, "no_receiver"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout, "cancelled"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
