package monitor

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sugawarayuuta/sonnet"
	"go.uber.org/zap"

	"github.com/AdminStatusFinance/seaport/internal/store"
)

// Service 负责持久化路由事件，并可选地转发到 Publisher。
type Service struct {
	db        *sql.DB
	publisher Publisher
	logger    *zap.Logger
}

// NewService 初始化事件服务，创建所需表结构。publisher 可以为 nil。
func NewService(store *store.Store, publisher Publisher, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("monitor: store 不能为空")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		db:        store.DB(),
		publisher: publisher,
		logger:    logger,
	}

	if err := s.initSchema(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Service) initSchema() error {
	stmt := `
CREATE TABLE IF NOT EXISTS router_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	event_type TEXT NOT NULL,
	payload TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_router_events_type ON router_events(event_type);
`
	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("monitor: 初始化表失败: %w", err)
	}
	return nil
}

// Record 写入单个事件，写库成功后再转发。转发失败只记日志。
func (s *Service) Record(ctx context.Context, event Event) error {
	payload, err := sonnet.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("monitor: 序列化事件失败: %w", err)
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO router_events (event_type, payload, created_at) VALUES (?, ?, ?)`,
		string(event.Type), string(payload), event.Timestamp.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("monitor: 写入事件失败: %w", err)
	}

	if s.publisher != nil {
		message, err := sonnet.Marshal(Event{Type: event.Type, Timestamp: event.Timestamp, Payload: json.RawMessage(payload)})
		if err != nil {
			return fmt.Errorf("monitor: 序列化消息失败: %w", err)
		}
		if err := s.publisher.Publish(ctx, []byte(event.Type), message); err != nil {
			s.logger.Warn("转发事件失败", zap.String("type", string(event.Type)), zap.Error(err))
		}
	}

	return nil
}

// RecordDispatch 记录一次已提交的批量成交。
func (s *Service) RecordDispatch(ctx context.Context, payload DispatchPayload) {
	if err := s.Record(ctx, Event{
		Type:      EventDispatch,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}); err != nil {
		s.logger.Warn("记录分发事件失败", zap.Error(err))
	}
}

// RecordRefund 记录退款。
func (s *Service) RecordRefund(ctx context.Context, payload RefundPayload) {
	if err := s.Record(ctx, Event{
		Type:      EventRefund,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}); err != nil {
		s.logger.Warn("记录退款事件失败", zap.Error(err))
	}
}

// RecordError 记录异常。
func (s *Service) RecordError(ctx context.Context, msg string, err error, ctxMap map[string]interface{}) {
	payload := ErrorPayload{
		Message: msg,
		Error:   err.Error(),
		Context: ctxMap,
	}
	if recErr := s.Record(ctx, Event{
		Type:      EventError,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}); recErr != nil {
		s.logger.Warn("记录异常事件失败", zap.Error(recErr))
	}
}

// ListEvents 按类型检索最近事件。
func (s *Service) ListEvents(ctx context.Context, eventType EventType, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT event_type, payload, created_at FROM router_events`
	args := make([]interface{}, 0, 2)
	if eventType != "" {
		query += ` WHERE event_type = ?`
		args = append(args, string(eventType))
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("monitor: 查询事件失败: %w", err)
	}
	defer rows.Close()

	events := make([]Event, 0, limit)
	for rows.Next() {
		var (
			typ     string
			payload string
			created string
		)
		if scanErr := rows.Scan(&typ, &payload, &created); scanErr != nil {
			return nil, fmt.Errorf("monitor: 解析事件失败: %w", scanErr)
		}

		ts, parseErr := time.Parse(time.RFC3339Nano, created)
		if parseErr != nil {
			ts = time.Now().UTC()
		}

		events = append(events, Event{
			Type:      EventType(typ),
			Timestamp: ts,
			Payload:   json.RawMessage(payload),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("monitor: 读取事件失败: %w", err)
	}

	return events, nil
}

// Close 关闭转发端。
func (s *Service) Close() error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.Close()
}
