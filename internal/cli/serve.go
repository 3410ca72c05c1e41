package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/vvka-141/bookshelf/internal/services"
	"github.com/vvka-141/bookshelf/pkg/bookshelf"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline on a schedule and expose metrics",
	Long: `Serve runs fetch, validate and load for the configured keywords on the cron
schedule from settings (standard five-field syntax, default "0 3 * * *").
A run that is still going when the next one is due is skipped.

HTTP endpoints:
  /metrics   Prometheus metrics
  /healthz   process status and the outcome of the last run

Examples:
  bookshelf serve
  bookshelf serve --run-now --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

type serveFlagValues struct {
	addr   string
	runNow bool
}

var serveFlags serveFlagValues

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveFlags.addr, "addr", "",
		"Listen address for /metrics and /healthz (default from settings, :9090)")
	serveCmd.Flags().BoolVar(&serveFlags.runNow, "run-now", false,
		"Start one run immediately instead of waiting for the schedule")
}

// runStatus is the outcome of the most recent scheduled run.
type runStatus struct {
	Runs       int       `json:"runs"`
	RunID      string    `json:"last_run_id,omitempty"`
	StartedAt  time.Time `json:"last_started_at,omitzero"`
	FinishedAt time.Time `json:"last_finished_at,omitzero"`
	Error      string    `json:"last_error,omitempty"`
}

// scheduledRun runs the pipeline for the cron job and remembers the outcome.
// At most one run is in flight; a run started while another is going is
// skipped. Runs are cancelled when parent is done.
type scheduledRun struct {
	pipeline *services.Pipeline
	keywords []string
	timeout  time.Duration
	logger   *zap.Logger
	parent   context.Context

	running sync.Mutex

	mu     sync.Mutex
	status runStatus
}

func (r *scheduledRun) Run() {
	if !r.running.TryLock() {
		r.logger.Warn("previous run still in progress, skipping")
		return
	}
	defer r.running.Unlock()

	parent := r.parent
	if parent == nil {
		parent = context.Background()
	}
	if parent.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()

	started := time.Now()
	r.logger.Info("scheduled run started", zap.Strings("keywords", r.keywords))
	report, err := r.pipeline.Run(ctx, r.keywords)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.Runs++
	r.status.StartedAt = started
	r.status.FinishedAt = time.Now()
	r.status.RunID = ""
	if report != nil {
		r.status.RunID = report.RunID
	}
	r.status.Error = ""
	if err != nil {
		r.status.Error = err.Error()
		r.logger.Error("scheduled run failed", zap.Error(err))
		return
	}
	r.logger.Info("scheduled run finished", zap.Duration("elapsed", r.status.FinishedAt.Sub(started)))
}

// Wait blocks until the in-flight run, if any, has finished.
func (r *scheduledRun) Wait() {
	r.running.Lock()
	defer r.running.Unlock()
}

func (r *scheduledRun) Status() runStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func newRouter(registry *prometheus.Registry, status func() runStatus) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "run": status()})
	})
	return router
}

// cronLogger routes cron's own messages to zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}

func newScheduler(schedule string, job cron.Job, logger *zap.Logger) (*cron.Cron, error) {
	cl := cronLogger{log: logger.Sugar()}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddJob(schedule, job); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w: %w", schedule, bookshelf.ErrInvalidConfig, err)
	}
	return c, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(nil, nil)
	if err != nil {
		return err
	}
	if serveFlags.addr != "" {
		settings.MetricsAddr = serveFlags.addr
	}
	a, err := newApp(settings)
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := a.openCatalog(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	loader := services.NewLoadService(st, a.fs, a.logger, a.metrics, settings.ValidatedDir)
	runner := &scheduledRun{
		pipeline: services.NewPipeline(a.fetchClient(), a.validationService(), loader, a.logger, a.metrics),
		keywords: settings.Keywords,
		timeout:  settings.Timeout,
		logger:   a.logger,
		parent:   ctx,
	}

	scheduler, err := newScheduler(settings.Schedule, runner, a.logger)
	if err != nil {
		return err
	}

	if !globalFlags.verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              settings.MetricsAddr,
		Handler:           newRouter(a.registry, runner.Status),
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("starting server", zap.String("addr", settings.MetricsAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	scheduler.Start()
	a.logger.Info("scheduler started", zap.String("schedule", settings.Schedule))
	if serveFlags.runNow {
		go runner.Run()
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
	case err = <-serveErr:
	}
	stop()

	jobsDone := scheduler.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		a.logger.Warn("server shutdown", zap.Error(shutdownErr))
	}
	runsDone := make(chan struct{})
	go func() {
		<-jobsDone.Done()
		runner.Wait()
		close(runsDone)
	}()
	select {
	case <-runsDone:
	case <-shutdownCtx.Done():
		a.logger.Warn("scheduled run still in progress at exit")
	}

	if err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
