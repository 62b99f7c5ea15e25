package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
)

// サポートするイベント種別。
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// Outcome はイベント処理の結果。
type Outcome struct {
	EventType string
	// Handledは登録済みハンドラーが実行された場合にtrueになる。
	Handled bool
	// Skippedは冪等性チェックにより変更が不要だった場合にtrueになる。
	Skipped bool
	UserID  string
}

// HandlerFunc は1種類のイベントを処理する関数。
type HandlerFunc func(ctx context.Context, data json.RawMessage, users UserStore) (Outcome, error)

// DefaultHandlers はユーザー同期の3イベントのハンドラー表を返す。
func DefaultHandlers(sync *UserSync) map[string]HandlerFunc {
	return map[string]HandlerFunc{
		EventUserCreated: sync.HandleCreated,
		EventUserUpdated: sync.HandleUpdated,
		EventUserDeleted: sync.HandleDeleted,
	}
}

// Dispatcher はイベント種別に応じてハンドラーを呼び出す。
// ハンドラー表は生成時に複製され、以降変更されない。
type Dispatcher struct {
	handlers map[string]HandlerFunc
	logger   *slog.Logger
}

// NewDispatcher はDispatcherを生成する。
func NewDispatcher(handlers map[string]HandlerFunc, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	table := make(map[string]HandlerFunc, len(handlers))
	for k, h := range handlers {
		table[k] = h
	}
	return &Dispatcher{handlers: table, logger: logger}
}

// Supports はイベント種別にハンドラーが登録されているかを返す。
func (d *Dispatcher) Supports(eventType string) bool {
	_, ok := d.handlers[eventType]
	return ok
}

// Dispatch はエンベロープを対応するハンドラーに渡す。
// 未登録の種別は警告ログを出して成功扱いにする。
// 分類済みエラーはそのまま返し、それ以外はKindDatabaseでラップする。
func (d *Dispatcher) Dispatch(ctx context.Context, env Envelope, users UserStore) (Outcome, error) {
	if env.Type == "" {
		return Outcome{}, NewPayloadError("missing event type", nil)
	}

	log := d.logger.With(slog.String("event_type", env.Type), slog.String("event_id", env.ID))
	out := Outcome{EventType: env.Type}

	handler, ok := d.handlers[env.Type]
	if !ok {
		log.Warn("未対応のwebhookイベントを無視します")
		return out, nil
	}

	log.Info("webhookイベントを処理します")
	res, err := handler(ctx, env.Data, users)
	if err != nil {
		if _, classified := KindOf(err); !classified {
			err = NewDatabaseError(env.Type, env.ID, err)
		}
		log.Error("webhookイベントの処理に失敗しました", slog.String("error", err.Error()))
		return out, err
	}

	out.Handled = true
	out.Skipped = res.Skipped
	out.UserID = res.UserID
	log.Info("webhookイベントを処理しました", slog.Bool("skipped", res.Skipped))
	return out, nil
}
