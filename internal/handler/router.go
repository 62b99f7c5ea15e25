package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/jobboard/internal/metrics"
	"github.com/hitoshi/jobboard/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// HealthChecker はDB接続の死活確認を行う。*sql.DBが実装する。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	// HSTSがtrueの場合はStrict-Transport-Securityを付与する
	HSTS              bool
	APIPrefix         string
	RateLimiter       *middleware.RateLimiter
	TokenVerifier     middleware.TokenVerifier
	Membership        middleware.MembershipChecker

	// 監視
	HealthChecker HealthChecker
	Metrics       metrics.MetricsCollector
	Gatherer      prometheus.Gatherer

	// Webhook
	WebhookHandler *WebhookHandler

	// ドメインサービス
	UserService         UserServiceInterface
	OrganizationService OrganizationServiceInterface
	JobListingService   JobListingServiceInterface
	ApplicationService  ApplicationServiceInterface
	SettingsService     SettingsServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Metrics(Status)
//	  Webhook: Logging → RateLimit(Webhook)
//	  API:     Auth → Logging → RateLimit(General)
//
// /healthと/metricsはAPI_PREFIXの外に配置し、認証を要求しない。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.HSTS))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(metrics.StatusMiddleware(deps.Metrics))

	logging := middleware.NewLoggingMiddleware(logger)

	userHandler := NewUserHandler(deps.UserService)
	orgHandler := NewOrganizationHandler(deps.OrganizationService, deps.Membership)
	listingHandler := NewJobListingHandler(deps.JobListingService, deps.Membership)
	appHandler := NewApplicationHandler(deps.ApplicationService, deps.JobListingService, deps.UserService, deps.Membership)
	settingsHandler := NewSettingsHandler(deps.SettingsService, deps.UserService)

	// --- 認証不要のルート ---
	r.Get("/health", healthHandler(deps.HealthChecker))
	r.Handle("/metrics", metrics.Handler(deps.Gatherer))

	r.Route(deps.APIPrefix, func(r chi.Router) {
		// Clerk Webhook（署名で認証する）
		r.With(logging, deps.RateLimiter.WebhookMiddleware()).
			Post("/auth/webhook/clerk", deps.WebhookHandler.ReceiveClerk)

		// --- 認証が必要なルート ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
			r.Use(logging)
			r.Use(deps.RateLimiter.GeneralMiddleware())

			// ユーザー管理
			r.Route("/users", func(r chi.Router) {
				r.Post("/", userHandler.Create)
				r.Get("/", userHandler.List)

				r.Route("/me", func(r chi.Router) {
					r.Get("/", userHandler.Me)
					r.Put("/", userHandler.UpdateMe)
					r.Delete("/", userHandler.Withdraw)

					r.Get("/notification_settings", settingsHandler.GetNotificationSettings)
					r.Put("/notification_settings", settingsHandler.SaveNotificationSettings)

					r.Get("/resume", settingsHandler.GetResume)
					r.Put("/resume", settingsHandler.SaveResume)
					r.Delete("/resume", settingsHandler.DeleteResume)
				})

				r.Get("/{id}", userHandler.Get)
			})

			// 組織管理
			r.Route("/organizations", func(r chi.Router) {
				r.Post("/", orgHandler.Create)
				r.Get("/", orgHandler.List)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", orgHandler.Get)

					// 更新系は組織のメンバーのみ
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireOrganizationMember(deps.Membership, "id"))
						r.Put("/", orgHandler.Update)
						r.Delete("/", orgHandler.Delete)
						r.Get("/user_settings", settingsHandler.GetOrganizationUserSettings)
						r.Put("/user_settings", settingsHandler.SaveOrganizationUserSettings)
					})
				})
			})

			// 求人管理
			r.Route("/job_listings", func(r chi.Router) {
				r.Post("/", listingHandler.Create)
				r.Get("/", listingHandler.List)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", listingHandler.Get)
					r.Put("/", listingHandler.Update)
					r.Delete("/", listingHandler.Delete)
				})
			})

			// 応募管理
			r.Route("/job_listing_applications", func(r chi.Router) {
				r.Post("/", appHandler.Create)
				r.Get("/", appHandler.List)

				r.Route("/{job_listing_id}/{user_id}", func(r chi.Router) {
					r.Get("/", appHandler.Get)
					r.Put("/", appHandler.Update)
					r.Delete("/", appHandler.Delete)
				})
			})
		})
	})

	return r
}

// healthResponse はヘルスチェックのレスポンス。
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// healthHandler はDB接続を確認するヘルスチェックハンドラーを返す。
// GET /health
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.PingContext(ctx); err != nil {
			slog.Error("ヘルスチェックでDB接続に失敗しました", slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Database: "down"})
			return
		}
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Database: "up"})
	}
}
