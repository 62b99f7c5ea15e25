package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hitoshi/jobboard/internal/model"
	"golang.org/x/time/rate"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralRate     rate.Limit    // 認証済みAPIのレート（req/sec）。120/60 = 2 req/sec
	GeneralBurst    int           // 認証済みAPIのバーストサイズ
	WebhookRate     rate.Limit    // Webhook受信の送信元アドレスごとのレート（req/sec）
	WebhookBurst    int           // Webhook受信のバーストサイズ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// API全般 120 req/min/user、Webhook 600 req/min/address。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(120.0 / 60.0),
		GeneralBurst:    120,
		WebhookRate:     rate.Limit(600.0 / 60.0),
		WebhookBurst:    100,
		CleanupInterval: 5 * time.Minute,
	}
}

// keyedLimiter はキー（ユーザーIDや送信元アドレス）ごとのトークンバケットを管理する。
type keyedLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*limiterEntry
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

func newKeyedLimiter(limit rate.Limit, burst int) *keyedLimiter {
	return &keyedLimiter{limit: limit, burst: burst, limiters: make(map[string]*limiterEntry)}
}

func (k *keyedLimiter) allow(key string) bool {
	k.mu.Lock()
	e, ok := k.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.limiters[key] = e
	}
	e.lastAccess = time.Now()
	k.mu.Unlock()
	return e.limiter.Allow()
}

func (k *keyedLimiter) evictOlderThan(cutoff time.Time) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for key, e := range k.limiters {
		if e.lastAccess.Before(cutoff) {
			delete(k.limiters, key)
		}
	}
}

func (k *keyedLimiter) count() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.limiters)
}

// RateLimiter は認証済みユーザーごと、およびWebhook送信元ごとのレート制限を管理する。
type RateLimiter struct {
	config  RateLimiterConfig
	general *keyedLimiter
	webhook *keyedLimiter

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:  config,
		general: newKeyedLimiter(config.GeneralRate, config.GeneralBurst),
		webhook: newKeyedLimiter(config.WebhookRate, config.WebhookBurst),
		stopCh:  make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// GeneralMiddleware は認証済みAPIのレート制限ミドルウェアを返す。
// NewAuthMiddlewareの後に配置する。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := ClerkUserIDFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			if !rl.general.allow(userID) {
				slog.Warn("レート制限を超過しました",
					slog.String("clerk_user_id", userID),
					slog.String("limit_type", "general"),
				)
				writeRateLimitResponse(w, rl.config.GeneralRate)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WebhookMiddleware はWebhook受信エンドポイントの送信元アドレスごとのレート制限ミドルウェアを返す。
// Webhookは認証トークンを持たないため、RemoteAddrをキーにする。
func (rl *RateLimiter) WebhookMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr := remoteHost(r)
			if !rl.webhook.allow(addr) {
				slog.Warn("レート制限を超過しました",
					slog.String("remote_addr", addr),
					slog.String("limit_type", "webhook"),
				)
				writeRateLimitResponse(w, rl.config.WebhookRate)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GeneralLimiterCount は管理中の認証済みAPIリミッター数を返す。
func (rl *RateLimiter) GeneralLimiterCount() int {
	return rl.general.count()
}

// WebhookLimiterCount は管理中のWebhookリミッター数を返す。
func (rl *RateLimiter) WebhookLimiterCount() int {
	return rl.webhook.count()
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がCleanupIntervalの2倍を超えたエントリを削除する。
func (rl *RateLimiter) cleanup() {
	cutoff := time.Now().Add(-2 * rl.config.CleanupInterval)
	rl.general.evictOlderThan(cutoff)
	rl.webhook.evictOlderThan(cutoff)
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーには1トークンが補充されるまでの秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	retryAfterSec := 1
	if r > 0 {
		retryAfterSec = max(int(math.Ceil(1.0/float64(r))), 1)
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	json.NewEncoder(w).Encode(ErrorResponseBody{
		Code:     "RATE_LIMIT_EXCEEDED",
		Message:  "リクエスト数が上限を超えました。",
		Category: "system",
		Action:   "Retry-Afterの秒数だけ待ってから再度お試しください。",
	})
}
