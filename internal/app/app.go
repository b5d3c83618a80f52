package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/linkshelf/internal/bot"
	"github.com/hitoshi/linkshelf/internal/config"
	"github.com/hitoshi/linkshelf/internal/database"
	"github.com/hitoshi/linkshelf/internal/fetch"
	"github.com/hitoshi/linkshelf/internal/handler"
	"github.com/hitoshi/linkshelf/internal/logger"
	"github.com/hitoshi/linkshelf/internal/metrics"
	"github.com/hitoshi/linkshelf/internal/middleware"
	"github.com/hitoshi/linkshelf/internal/ratelimit"
	"github.com/hitoshi/linkshelf/internal/reconcile"
	"github.com/hitoshi/linkshelf/internal/repository"
	"github.com/hitoshi/linkshelf/internal/security"
)

// シャットダウン時に処理中のリクエストを待つ最大時間
const shutdownTimeout = 30 * time.Second

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数からConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, logger.ParseLevel(os.Getenv("LOG_LEVEL")))

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
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

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("log_level", cfg.LogLevel),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case CommandBot:
		return runBot(ctx, cfg)
	case CommandMigrate:
		var migrateArgs []string
		if len(args) > 1 {
			migrateArgs = args[1:]
		}
		return runMigrate(cfg, migrateArgs)
	default:
		return runServe(ctx, cfg)
	}
}

// openDatabase はDB接続を開き、疎通を確認する。
func openDatabase(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := database.Open(databaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Ping(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established",
		slog.String("database_url", maskDatabaseURL(databaseURL)),
	)
	return db, nil
}

// newRegistry はGo runtimeとプロセスのメトリクスを登録済みのレジストリを返す。
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// newPipeline は設定値からメタデータ取得パイプラインを構築する。
func newPipeline(cfg *config.Config, recorder metrics.FetchRecorder) *fetch.Pipeline {
	return fetch.NewPipeline(
		security.NewURLGuard(),
		security.NewTextSanitizer(),
		recorder,
		slog.Default(),
		fetch.Config{
			Timeout:     cfg.FetchTimeout,
			MaxBodySize: cfg.FetchMaxSize,
			UserAgent:   cfg.FetchUserAgent,
			Excerpt:     cfg.FetchExcerpt,
		},
	)
}

// runServe はメタデータ抽出APIサーバーモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	// 1. DB接続（ヘルスチェック用）
	db, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	// 2. メトリクス
	reg := newRegistry()
	collector := metrics.NewCollector(reg)

	// 3. レート制限
	limiter := middleware.NewRateLimiter(
		middleware.RateLimiterConfigPerMinute(cfg.RateLimitHTTP),
		slog.Default(),
	)
	defer limiter.Stop()

	// 4. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
		Logger:             slog.Default(),
		Fetcher:            newPipeline(cfg, collector),
		DB:                 db,
		MetricsHandler:     metrics.Handler(reg),
	})

	// 5. HTTPサーバーの起動
	server := newHTTPServer(cfg.ServerPort, router)
	return serveUntilDone(ctx, server, "API server")
}

// runBot はTelegramボットモードで起動する。
// 更新のロングポーリングに加えて、/healthと/metricsを公開する運用サーバーを起動する。
func runBot(ctx context.Context, cfg *config.Config) error {
	if err := cfg.RequireBot(); err != nil {
		return err
	}

	// 1. DB接続とリポジトリ
	db, err := openDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	reconciler := reconcile.NewService(
		repository.NewPostgresTransactor(db),
		repository.NewPostgresChatLinkRepo(db),
		slog.Default(),
	)

	// 2. メトリクス
	reg := newRegistry()
	collector := metrics.NewCollector(reg)

	// 3. 記事保存のレート制限と定期クリーンアップ
	limiter := ratelimit.NewSlidingWindow(cfg.RateLimitArticles, cfg.RateLimitWindow)
	cleaner := ratelimit.NewCleanupScheduler(limiter, slog.Default())
	if err := cleaner.Start(cfg.RateLimitCleanupSpec); err != nil {
		return fmt.Errorf("failed to start rate limit cleanup: %w", err)
	}
	defer cleaner.Stop()

	// 4. Telegramクライアント
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return fmt.Errorf("failed to connect to telegram: %w", err)
	}
	slog.Info("telegram bot authorized", slog.String("username", api.Self.UserName))

	// 5. ハンドラとポーラー
	msgHandler := bot.NewHandler(
		bot.NewTelegramTransport(api),
		newPipeline(cfg, collector),
		reconciler,
		limiter,
		collector,
		slog.Default(),
		bot.HandlerConfig{SendImage: cfg.BotSendImage},
	)
	poller := bot.NewPoller(api, msgHandler, slog.Default(), cfg.BotMaxConcurrent)

	// 6. 運用サーバーをバックグラウンドで起動
	opsCtx, cancelOps := context.WithCancel(ctx)
	defer cancelOps()

	opsServer := newHTTPServer(cfg.ServerPort, handler.NewOpsRouter(db, metrics.Handler(reg), slog.Default()))
	opsDone := make(chan error, 1)
	go func() {
		opsDone <- serveUntilDone(opsCtx, opsServer, "ops server")
	}()

	// 7. ポーリングをメインgoroutineで実行（ブロッキング）
	runErr := poller.Run(ctx)

	cancelOps()
	if err := <-opsDone; err != nil {
		slog.Error("ops server stopped with error", slog.String("error", err.Error()))
	}

	slog.Info("bot stopped gracefully")
	return runErr
}

// newHTTPServer はタイムアウト設定済みのhttp.Serverを生成する。
func newHTTPServer(port string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// メタデータ取得のタイムアウトより長くする
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// serveUntilDone はctxがキャンセルされるまでサーバーを稼働させ、その後グレースフルシャットダウンする。
// 起動に失敗した場合はそのエラーを返す。
func serveUntilDone(ctx context.Context, server *http.Server, name string) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info(name+" starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("%s listen error: %w", name, err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down " + name + "...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s shutdown failed: %w", name, err)
	}

	slog.Info(name + " stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// 引数なしまたはupは未適用マイグレーションをすべて適用し、
// down [N]はN段階ロールバックし、versionは現在のバージョンを表示する。
func runMigrate(cfg *config.Config, args []string) error {
	action, steps, err := ParseMigrateArgs(args)
	if err != nil {
		return err
	}

	slog.Info("running database migrations",
		slog.String("action", string(action)),
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	switch action {
	case MigrateDown:
		if err := database.RollbackMigrations(cfg.DatabaseURL, steps); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		slog.Info("database rollback completed", slog.Int("steps", steps))
	case MigrateVersion:
		version, dirty, err := database.MigrationVersion(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to read migration version: %w", err)
		}
		slog.Info("current migration version",
			slog.Uint64("version", uint64(version)),
			slog.Bool("dirty", dirty),
		)
	default:
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		slog.Info("database migrations completed successfully")
	}

	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
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
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
