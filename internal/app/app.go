// Package app wires configuration into a running reply service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"gorm.io/gorm"

	"smart-mail-reply-go/internal/config"
	"smart-mail-reply-go/internal/db"
	"smart-mail-reply-go/internal/handler"
	"smart-mail-reply-go/internal/metrics"
	"smart-mail-reply-go/internal/model"
	"smart-mail-reply-go/internal/repository"
	"smart-mail-reply-go/internal/router"
	"smart-mail-reply-go/internal/service/ai"
	"smart-mail-reply-go/internal/service/audit"
	"smart-mail-reply-go/internal/service/catalog"
	"smart-mail-reply-go/internal/service/composer"
	"smart-mail-reply-go/internal/service/dispatcher"
	"smart-mail-reply-go/internal/service/googleauth"
	"smart-mail-reply-go/internal/service/mailbox"
	"smart-mail-reply-go/internal/service/pipeline"
	"smart-mail-reply-go/internal/service/rules"
	"smart-mail-reply-go/internal/service/scheduler"
	"smart-mail-reply-go/internal/service/sheets"
)

// App holds the wired components of the service.
type App struct {
	cfg       *config.Config
	db        *gorm.DB
	redis     *redis.Client
	registry  *prometheus.Registry
	Repo      *repository.Repository
	Rules     rules.Store
	Engine    *ai.Engine
	Pipeline  *pipeline.Pipeline
	Scheduler *scheduler.Scheduler
}

// SetupLogging configures the global logrus logger.
func SetupLogging(level string) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}

// New builds every component from cfg. Call Close when done.
func New(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	a := &App{cfg: cfg, registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(a.registry)

	a.db, err = db.Init(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.Repo = repository.New(a.db)

	var googleOpts []option.ClientOption
	if cfg.UsesGoogleOAuth() {
		googleOpts, err = googleauth.ClientOptions(ctx, cfg.Google)
		if err != nil {
			return nil, err
		}
	}

	gateway, err := newGateway(cfg, googleOpts)
	if err != nil {
		return nil, err
	}
	out, err := newDispatcher(ctx, cfg, googleOpts)
	if err != nil {
		return nil, err
	}
	if err := a.setupRules(ctx); err != nil {
		return nil, err
	}

	writers := audit.Multi{audit.NewRepositoryWriter(a.Repo)}
	var products catalog.Source = catalog.Empty{}
	if cfg.Sheets.Enabled {
		values, err := sheets.New(ctx, cfg.Sheets.SpreadsheetID, googleOpts...)
		if err != nil {
			return nil, err
		}
		writers = append(audit.Multi{audit.NewSheetWriter(values, cfg.Sheets.AuditSheet, cfg.Sheets.BodyLimit)}, writers...)
		products = catalog.NewSheetSource(values, cfg.Sheets.CatalogSheet)
		logrus.Infof("Using spreadsheet %s for audit log and catalog", cfg.Sheets.SpreadsheetID)
	}

	backend := ai.NewOpenAIBackend(cfg.AI.APIKey, cfg.AI.BaseURL)
	a.Engine = ai.NewEngine(backend, cfg.AI.Models, ai.WithDiscovery(cfg.AI.Discovery), ai.WithTimeout(cfg.AI.Timeout))
	a.Engine.OnFallback = func(string, error) { m.ModelFallbacks.Inc() }

	deps := pipeline.Deps{
		Gateway:    gateway,
		Rules:      a.Rules,
		Catalog:    products,
		Composer:   composer.New(cfg.Business.Name),
		Engine:     a.Engine,
		Dispatcher: out,
		Audit:      writers,
		Metrics:    m,
	}
	if cfg.Pipeline.Dedupe {
		deps.Ledger = a.Repo
	}
	a.Pipeline = pipeline.New(deps, pipeline.Options{
		Folder:       cfg.Mailbox.Folder,
		ReplyOnError: cfg.Pipeline.ReplyOnError,
	})
	a.Scheduler = scheduler.New(cfg.Scheduler.Interval, a.Pipeline)

	return a, nil
}

func newGateway(cfg *config.Config, googleOpts []option.ClientOption) (mailbox.Gateway, error) {
	switch cfg.Mailbox.Provider {
	case "imap":
		logrus.Info("Using IMAP for mailbox access")
		return mailbox.NewIMAPGateway(cfg.Mailbox), nil
	case "gmail":
		logrus.Info("Using Gmail API for mailbox access")
		return mailbox.NewGmailGateway(cfg.Google.UserEmail, googleOpts...), nil
	default:
		return nil, fmt.Errorf("unsupported mailbox provider %q", cfg.Mailbox.Provider)
	}
}

func newDispatcher(ctx context.Context, cfg *config.Config, googleOpts []option.ClientOption) (dispatcher.Dispatcher, error) {
	switch cfg.Dispatch.Provider {
	case "smtp":
		return dispatcher.NewSMTPDispatcher(cfg.SMTP), nil
	case "gmail":
		from := cfg.SMTP.From
		if from == "" {
			from = cfg.Google.UserEmail
		}
		return dispatcher.NewGmailDispatcher(ctx, from, googleOpts...)
	default:
		return nil, fmt.Errorf("unsupported dispatch provider %q", cfg.Dispatch.Provider)
	}
}

func (a *App) setupRules(ctx context.Context) error {
	switch strings.ToLower(a.cfg.Rules.Backend) {
	case "", "memory":
		a.Rules = rules.NewMemoryStore(a.cfg.Rules.Default)
	case "redis":
		store, client, err := rules.NewRedisStore(ctx, a.cfg.Rules)
		if err != nil {
			return err
		}
		a.Rules, a.redis = store, client
		logrus.Infof("Using Redis at %s for business rules", a.cfg.Rules.RedisAddr)
	default:
		return fmt.Errorf("unsupported rules backend %q", a.cfg.Rules.Backend)
	}
	return nil
}

// RunOnce processes the mailbox a single time.
func (a *App) RunOnce(ctx context.Context) model.RunSummary {
	return a.Scheduler.RunOnce(ctx)
}

// Poll runs the pipeline immediately and then on every scheduler tick until
// ctx is cancelled.
func (a *App) Poll(ctx context.Context) error {
	if err := a.Scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	a.RunOnce(ctx)

	<-ctx.Done()
	logrus.Info("Stopping poller...")
	if err := a.Scheduler.Stop(); err != nil {
		logrus.Errorf("Failed to stop scheduler: %v", err)
	}
	a.Scheduler.Wait()
	return nil
}

// Serve runs the HTTP API, and the scheduler when auto start is set, until
// ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	h := handler.NewHandlers(a.Repo, a.Rules, a.Scheduler, a.Engine, a.registry)
	srv := &http.Server{
		Addr:         ":" + a.cfg.Server.Port,
		Handler:      router.SetupRouter(h),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	if a.cfg.Scheduler.AutoStart {
		if err := a.Scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("Starting HTTP server on port %s", a.cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			a.Scheduler.Stop()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	logrus.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.Scheduler.Stop(); err != nil {
		logrus.Errorf("Failed to stop scheduler: %v", err)
	}
	a.Scheduler.Wait()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	logrus.Info("Server stopped gracefully")
	return nil
}

// Close releases the database and Redis connections.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logrus.Errorf("Failed to close Redis client: %v", err)
		}
	}
	if a.db != nil {
		if err := db.Close(a.db); err != nil {
			logrus.Errorf("Failed to close database: %v", err)
		}
	}
}
