package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-worksheets/internal/activity"
	api "github.com/mind-engage/mindengage-worksheets/internal/api/http"
	"github.com/mind-engage/mindengage-worksheets/internal/auth"
	"github.com/mind-engage/mindengage-worksheets/internal/backend"
	"github.com/mind-engage/mindengage-worksheets/internal/config"
	"github.com/mind-engage/mindengage-worksheets/internal/db"
	"github.com/mind-engage/mindengage-worksheets/internal/equation"
	"github.com/mind-engage/mindengage-worksheets/internal/export"
	"github.com/mind-engage/mindengage-worksheets/internal/logging"
	"github.com/mind-engage/mindengage-worksheets/internal/metrics"
	"github.com/mind-engage/mindengage-worksheets/internal/sanitize"
	"github.com/mind-engage/mindengage-worksheets/internal/storage"
	"github.com/mind-engage/mindengage-worksheets/internal/workspace"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web front-end",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	log, err := logging.New(logging.Config{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.close()

	go app.sweep(ctx, cfg.WorkspaceTTL)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Info("listening",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("mode", string(cfg.Mode)),
		zap.String("workspace", cfg.WorkspaceDriver),
		zap.String("backend", cfg.BackendURL),
		zap.Bool("pdf", app.exporter.CanConvert()),
	)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

type app struct {
	handler  http.Handler
	store    workspace.Store
	activity activity.Log
	exporter *export.Exporter
	log      *zap.Logger
	conn     *sql.DB
}

func (a *app) close() {
	if a.conn != nil {
		_ = a.conn.Close()
	}
}

// sweep drops workspaces idle for longer than ttl, once an hour, along with
// activity events of the same age.
func (a *app) sweep(ctx context.Context, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := a.store.Sweep(ctx, now.Add(-ttl))
			if err != nil {
				a.log.Warn("workspace sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				a.log.Info("swept idle workspaces", zap.Int("count", n))
			}
			if l, ok := a.activity.(*activity.SQLLog); ok {
				if _, err := l.Purge(ctx, now.Add(-ttl)); err != nil {
					a.log.Warn("activity purge failed", zap.Error(err))
				}
			}
		}
	}
}

func openBlobs(ctx context.Context, cfg config.Config) (storage.BlobStore, error) {
	switch cfg.BlobDriver {
	case "fs":
		return storage.NewFSStore(cfg.BlobBasePath)
	case "minio":
		return storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Secure:    cfg.MinioSecure,
		})
	}
	return nil, nil
}

func build(ctx context.Context, cfg config.Config, log *zap.Logger) (*app, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	renderer := equation.New(equation.WithLogger(log), equation.WithFailureHook(m.ObserveMathFailure))
	policy := sanitize.New()

	a := &app{log: log}

	// --- Workspace store ---
	var ready func(context.Context) error
	switch cfg.WorkspaceDriver {
	case "memory":
		a.store = workspace.NewInMemoryStore()
		a.activity = activity.NewMemoryLog(100)
	default:
		openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		conn, err := db.Open(openCtx, db.Driver(cfg.WorkspaceDriver), cfg.WorkspaceDSN)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("db open failed: %w", err)
		}
		a.conn = conn
		a.store = workspace.NewSQLStore(conn, db.Driver(cfg.WorkspaceDriver))
		a.activity = activity.NewSQLLog(conn)
		ready = conn.PingContext
	}

	// --- Exporter ---
	blobs, err := openBlobs(ctx, cfg)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("blob store: %w", err)
	}
	opts := []export.Option{
		export.WithLogger(log),
		export.WithObserver(m.ObserveExport),
		export.WithMathStylesheet(cfg.MathStylesheet),
	}
	if blobs != nil {
		opts = append(opts, export.WithImages(export.NewImageEmbedder(blobs, cfg.ImageTimeout, cfg.ImageMaxBytes, log)))
	}
	if cfg.PDFConverter != "" {
		conv, err := export.NewWKHTMLToPDF(cfg.PDFConverter, 0)
		if err != nil {
			log.Warn("PDF export disabled", zap.Error(err))
		} else {
			opts = append(opts, export.WithConverter(conv))
		}
	}
	a.exporter = export.New(renderer, policy, opts...)

	client := backend.New(
		backend.Config{BaseURL: cfg.BackendURL, Timeout: cfg.BackendTimeout},
		backend.WithLogger(log),
		backend.WithObserver(m.ObserveBackend),
	)

	a.handler = api.NewRouter(api.Deps{
		Backend:       client,
		Store:         a.store,
		Guard:         workspace.NewGuard(),
		Exporter:      a.exporter,
		Renderer:      renderer,
		Policy:        policy,
		Sessions:      auth.NewSessionService(cfg.SessionSecret, cfg.SessionTTL, cfg.SecureCookies()),
		Log:           log,
		Metrics:       m,
		Blobs:         blobs,
		Activity:      a.activity,
		Ready:         ready,
		DefaultTheme:  workspace.Theme(cfg.DefaultTheme),
		CORSOrigins:   cfg.CORSOrigins(),
		GenerateRate:  cfg.GenerateRate,
		GenerateBurst: cfg.GenerateBurst,
	})
	return a, nil
}
