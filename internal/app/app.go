package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/jobboard/internal/application"
	"github.com/hitoshi/jobboard/internal/clerkauth"
	"github.com/hitoshi/jobboard/internal/config"
	"github.com/hitoshi/jobboard/internal/database"
	"github.com/hitoshi/jobboard/internal/handler"
	"github.com/hitoshi/jobboard/internal/joblisting"
	"github.com/hitoshi/jobboard/internal/logger"
	"github.com/hitoshi/jobboard/internal/metrics"
	"github.com/hitoshi/jobboard/internal/middleware"
	"github.com/hitoshi/jobboard/internal/organization"
	"github.com/hitoshi/jobboard/internal/repository"
	"github.com/hitoshi/jobboard/internal/security"
	"github.com/hitoshi/jobboard/internal/settings"
	"github.com/hitoshi/jobboard/internal/user"
	"github.com/hitoshi/jobboard/internal/webhook"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, *slog.Logger, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再初期化
	return cfg, logger.SetupDefault(w, cfg.LogLevel), nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, log, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	log.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("api_prefix", cfg.APIPrefix),
	)

	switch cmd {
	case CommandMigrate:
		action, err := ParseMigrateAction(args)
		if err != nil {
			return err
		}
		return runMigrate(cfg, action)
	default:
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cfg, log)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、マイグレーションを適用し、HTTPサーバーを起動する。
// ctxがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL, database.DefaultPoolOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("database connection established")

	// 2. スキーマを最新化
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// 3. ルーターの構築
	router, cleanup, err := NewHTTPHandler(cfg, db, log, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer cleanup()

	// 4. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down API server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("API server stopped gracefully")
	return nil
}

// NewHTTPHandler はリポジトリ・サービス・Webhookパイプラインを組み立て、ルーターを返す。
// 返されるcleanupはレート制限のバックグラウンド処理を停止する。
func NewHTTPHandler(cfg *config.Config, db *sql.DB, log *slog.Logger, reg *prometheus.Registry) (http.Handler, func(), error) {
	// 1. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	orgRepo := repository.NewPostgresOrganizationRepo(db)
	listingRepo := repository.NewPostgresJobListingRepo(db)
	appRepo := repository.NewPostgresApplicationRepo(db)
	notificationRepo := repository.NewPostgresNotificationSettingsRepo(db)
	resumeRepo := repository.NewPostgresResumeRepo(db)
	orgSettingsRepo := repository.NewPostgresOrganizationUserSettingsRepo(db)

	// 2. ドメインサービスの初期化
	sanitizer := security.NewContentSanitizer()
	userService := user.NewService(userRepo)
	orgService := organization.NewService(orgRepo)
	listingService := joblisting.NewService(listingRepo, sanitizer)
	appService := application.NewService(appRepo, listingRepo, sanitizer)
	settingsService := settings.NewService(notificationRepo, resumeRepo, orgSettingsRepo, sanitizer)

	// 3. Webhookパイプラインの初期化
	verifier, err := webhook.NewVerifier(webhook.VerifierConfig{
		Secret:      cfg.ClerkWebhookSecret,
		Development: cfg.IsDevelopment(),
		Tolerance:   cfg.WebhookTolerance,
		Logger:      log,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to configure webhook verifier: %w", err)
	}
	dispatcher := webhook.NewDispatcher(webhook.DefaultHandlers(webhook.NewUserSync(log)), log)

	// 4. メトリクス
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	webhookHandler := handler.NewWebhookHandler(
		verifier, dispatcher, repository.NewPostgresTxRunner(db), collector, cfg.WebhookMaxBodyBytes,
	)

	// 5. Clerkクライアントとレート制限
	clerkClient := clerkauth.New(cfg.ClerkSecretKey)

	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	// configのRateLimitGeneralはreq/min単位なのでreq/secに変換する
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	limiter := middleware.NewRateLimiter(rateLimiterCfg)

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            log,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		HSTS:              !cfg.IsDevelopment(),
		APIPrefix:         cfg.APIPrefix,
		RateLimiter:       limiter,
		TokenVerifier:     clerkClient,
		Membership:        clerkClient,

		HealthChecker: db,
		Metrics:       collector,
		Gatherer:      reg,

		WebhookHandler: webhookHandler,

		UserService:         userService,
		OrganizationService: orgService,
		JobListingService:   listingService,
		ApplicationService:  appService,
		SettingsService:     settingsService,
	})

	return router, limiter.Stop, nil
}

// runMigrate はデータベースマイグレーションを実行する。
func runMigrate(cfg *config.Config, action MigrateAction) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
		slog.String("direction", action.Direction),
	)

	switch action.Direction {
	case "down":
		if err := database.RollbackMigrations(cfg.DatabaseURL, action.Steps); err != nil {
			return fmt.Errorf("migration rollback failed: %w", err)
		}
	case "version":
		version, dirty, err := database.MigrationVersion(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to read migration version: %w", err)
		}
		slog.Info("current migration version", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
		return nil
	default:
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	endpoint := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(endpoint)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
