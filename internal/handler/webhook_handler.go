package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/jobboard/internal/metrics"
	"github.com/hitoshi/jobboard/internal/repository"
	"github.com/hitoshi/jobboard/internal/webhook"
)

// WebhookVerifier はWebhookの署名とタイムスタンプを検証する。
type WebhookVerifier interface {
	Verify(payload []byte, headers http.Header) error
}

// WebhookDispatcher はイベントを種別ごとのハンドラーに振り分ける。
type WebhookDispatcher interface {
	Dispatch(ctx context.Context, env webhook.Envelope, users webhook.UserStore) (webhook.Outcome, error)
}

// WebhookHandler はClerkのWebhookを受信するHTTPハンドラー。
// 1リクエストを1トランザクションで処理し、エラー種別をHTTPステータスに変換する。
type WebhookHandler struct {
	verifier     WebhookVerifier
	dispatcher   WebhookDispatcher
	tx           repository.TxRunner
	metrics      metrics.MetricsCollector
	maxBodyBytes int64
}

// NewWebhookHandler はWebhookHandlerを生成する。
func NewWebhookHandler(
	verifier WebhookVerifier,
	dispatcher WebhookDispatcher,
	tx repository.TxRunner,
	collector metrics.MetricsCollector,
	maxBodyBytes int64,
) *WebhookHandler {
	return &WebhookHandler{
		verifier:     verifier,
		dispatcher:   dispatcher,
		tx:           tx,
		metrics:      collector,
		maxBodyBytes: maxBodyBytes,
	}
}

// webhookResponse はWebhookエンドポイントのレスポンス。
type webhookResponse struct {
	Status    string `json:"status"`
	EventType string `json:"event_type,omitempty"`
	Message   string `json:"message,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// ReceiveClerk はClerkのWebhookを処理する。
// POST /api/v1/auth/webhook/clerk
func (h *WebhookHandler) ReceiveClerk(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { h.metrics.RecordWebhookLatency(time.Since(start)) }()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		slog.Warn("Webhookのボディ読み込みに失敗しました", slog.String("error", err.Error()))
		h.metrics.RecordWebhookRejected("body")
		writeJSON(w, http.StatusBadRequest, webhookResponse{Status: "error", Detail: "Failed to read request body"})
		return
	}

	if err := h.verifier.Verify(body, r.Header); err != nil {
		status, detail := webhookErrorResponse(err)
		h.metrics.RecordWebhookRejected(rejectReason(err))
		writeJSON(w, status, webhookResponse{Status: "error", Detail: detail})
		return
	}

	env, err := webhook.ParseEnvelope(body)
	if err != nil {
		slog.Warn("WebhookのJSON解析に失敗しました", slog.String("error", err.Error()))
		h.metrics.RecordWebhookRejected("json")
		writeJSON(w, http.StatusBadRequest, webhookResponse{Status: "error", Detail: "Invalid JSON payload"})
		return
	}

	var out webhook.Outcome
	err = h.tx.WithinTx(r.Context(), func(users repository.UserRepository) error {
		var dispatchErr error
		out, dispatchErr = h.dispatcher.Dispatch(r.Context(), env, users)
		return dispatchErr
	})
	if err != nil {
		if webhook.IsKind(err, webhook.KindUserNotFound) {
			slog.Info("同期対象のユーザーが存在しないため成功として応答します",
				slog.String("event_type", env.Type),
				slog.String("event_id", env.ID),
			)
			h.metrics.RecordWebhookEvent(env.Type, metrics.OutcomeSkipped)
			writeJSON(w, http.StatusOK, webhookResponse{
				Status:    "success",
				EventType: env.Type,
				Message:   "User not found; nothing to synchronize",
			})
			return
		}

		status, detail := webhookErrorResponse(err)
		if status == http.StatusBadRequest {
			h.metrics.RecordWebhookRejected("payload")
		} else {
			h.metrics.RecordWebhookEvent(env.Type, metrics.OutcomeFailed)
		}
		writeJSON(w, status, webhookResponse{Status: "error", Detail: detail})
		return
	}

	resp := webhookResponse{Status: "success", EventType: env.Type}
	switch {
	case !out.Handled:
		h.metrics.RecordWebhookEvent(env.Type, metrics.OutcomeIgnored)
		resp.Message = "Event type not handled"
	case out.Skipped:
		h.metrics.RecordWebhookEvent(env.Type, metrics.OutcomeSkipped)
		resp.Message = "No changes applied"
	default:
		h.metrics.RecordWebhookEvent(env.Type, metrics.OutcomeProcessed)
	}
	writeJSON(w, http.StatusOK, resp)
}

// webhookErrorResponse はWebhookエラーをHTTPステータスとレスポンスのdetailに変換する。
// 5xxの場合は内部の詳細を返さない。
func webhookErrorResponse(err error) (int, string) {
	var we *webhook.Error
	if !errors.As(err, &we) {
		slog.Error("Webhook処理で予期しないエラーが発生しました", slog.String("error", err.Error()))
		return http.StatusInternalServerError, "Internal server error"
	}

	attrs := []any{slog.String("kind", string(we.Kind)), slog.String("error", err.Error())}
	for k, v := range we.Details {
		attrs = append(attrs, slog.Any(k, v))
	}

	switch we.Kind {
	case webhook.KindSignature, webhook.KindTimestamp:
		slog.Warn("Webhookの認証に失敗しました", attrs...)
		return http.StatusUnauthorized, we.Message
	case webhook.KindPayload:
		slog.Warn("Webhookのペイロードが不正です", attrs...)
		return http.StatusBadRequest, we.Message
	case webhook.KindUserCreation, webhook.KindUserUpdate, webhook.KindUserDeletion:
		slog.Error("ユーザー同期に失敗しました", attrs...)
		return http.StatusUnprocessableEntity, we.Message
	case webhook.KindConfiguration:
		slog.Error("Webhookの設定が不正です", attrs...)
		return http.StatusInternalServerError, "Webhook verification is not configured"
	default:
		slog.Error("Webhook処理でデータベースエラーが発生しました", attrs...)
		return http.StatusInternalServerError, "Internal server error"
	}
}

func rejectReason(err error) string {
	if kind, ok := webhook.KindOf(err); ok {
		return string(kind)
	}
	return "unknown"
}
