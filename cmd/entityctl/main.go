// Command entityctl drives the entity slices against a JHipster-style REST
// backend: list, fetch and mutate records, inspect the cached state, move
// history content to and from blob storage, and watch collections.
package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hugperez/jhipster-listener/internal/app"
	"github.com/hugperez/jhipster-listener/internal/blob"
	"github.com/hugperez/jhipster-listener/internal/config"
	"github.com/hugperez/jhipster-listener/internal/logging"
	"github.com/hugperez/jhipster-listener/internal/observability"
	"github.com/hugperez/jhipster-listener/internal/persistence"
	"github.com/hugperez/jhipster-listener/internal/restapi"
	"github.com/hugperez/jhipster-listener/internal/slice"
)

var exitFunc = os.Exit

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	root, e := newRootCmd(os.Stdout, os.Stderr)
	err := execute(ctx, root, e)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		exitFunc(1)
	}
}

// globalFlags are bound to the root command's persistent flags.
type globalFlags struct {
	configPath  string
	verbose     bool
	apiURL      string
	metricsAddr string
	trace       bool
}

// env is the per-invocation runtime built in PersistentPreRunE.
type env struct {
	flags  globalFlags
	stdout io.Writer
	stderr io.Writer

	cfg     *config.Config
	logger  *zap.Logger
	store   *app.Store
	cache   persistence.Store
	metrics *http.Server
	// persist is cleared by commands that must not write the cache back.
	persist bool
}

// execute runs the command tree and releases the runtime afterwards, also when
// the command failed. Cobra skips post-run hooks on error.
func execute(ctx context.Context, root *cobra.Command, e *env) error {
	err := root.ExecuteContext(ctx)
	return errors.Join(err, e.close(ctx))
}

func newRootCmd(stdout, stderr io.Writer) (*cobra.Command, *env) {
	e := &env{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:           "entityctl",
		Short:         "Client-side entity state manager for JHipster-style REST collections",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.open(cmd.Context())
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&e.flags.configPath, "config", defaultConfigPath(), "path to the YAML config file")
	pf.BoolVarP(&e.flags.verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&e.flags.apiURL, "api-url", "", "override api.base_url")
	pf.StringVar(&e.flags.metricsAddr, "metrics-addr", "", "serve metrics on this address while the command runs")
	pf.BoolVar(&e.flags.trace, "trace", false, "write one JSON trace line per request to stderr")

	root.AddCommand(
		newListCmd(e),
		newGetCmd(e),
		newWriteCmd(e, "create", "Create a record", app.Handle.Create),
		newWriteCmd(e, "update", "Replace a record (PUT)", app.Handle.Update),
		newWriteCmd(e, "patch", "Partially update a record (PATCH merge-patch)", app.Handle.PartialUpdate),
		newDeleteCmd(e),
		newCacheCmd(e),
		newHistoryCmd(e),
		newWatchCmd(e),
	)
	root.SetErr(stderr)
	root.SetOut(stdout)
	return root, e
}

func defaultConfigPath() string {
	if v := os.Getenv("ENTITYCTL_CONFIG"); v != "" {
		return v
	}
	return ".entityctl/config.yaml"
}

func (e *env) open(ctx context.Context) error {
	cfg, err := config.Load(e.flags.configPath)
	if err != nil {
		return err
	}
	if e.flags.apiURL != "" {
		cfg.API.BaseURL = e.flags.apiURL
	}
	if e.flags.metricsAddr != "" {
		cfg.Metrics.Addr = e.flags.metricsAddr
		if cfg.Metrics.Driver == "" || cfg.Metrics.Driver == config.MetricsNone {
			cfg.Metrics.Driver = config.MetricsPrometheus
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	e.cfg = cfg

	logger, err := logging.New(cfg.Logging, e.flags.verbose)
	if err != nil {
		return err
	}
	e.logger = logger

	client, err := restapi.New(restapi.Config{
		BaseURL:   cfg.API.BaseURL,
		Token:     cfg.API.Token,
		Timeout:   cfg.GetAPITimeout(),
		RateLimit: cfg.API.RateLimit,
		Burst:     cfg.API.Burst,
	}, restapi.WithLogger(logger.Named("restapi")))
	if err != nil {
		return err
	}

	sliceOpts, err := e.observability()
	if err != nil {
		return err
	}
	opts := []app.Option{app.WithLogger(logger), app.WithSliceOptions(sliceOpts...)}

	cache, err := persistence.Open(ctx, cfg.Cache)
	if err != nil {
		logger.Warn("snapshot cache unavailable", zap.String("driver", cfg.Cache.Driver), zap.Error(err))
	} else {
		e.cache = cache
		e.persist = true
		opts = append(opts, app.WithCache(cache))
	}

	blobs, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		logger.Warn("blob store unavailable", zap.String("driver", cfg.Blob.Driver), zap.Error(err))
	} else {
		opts = append(opts, app.WithBlobStore(blobs))
	}

	e.store = app.New(client, opts...)
	if e.cache != nil {
		if _, err := e.store.Restore(ctx); err != nil {
			logger.Warn("restore snapshot", zap.Error(err))
		}
	}
	return nil
}

func (e *env) observability() ([]slice.Option, error) {
	var opts []slice.Option
	if e.flags.trace {
		opts = append(opts, slice.WithTracer(observability.NewJSONTracer(e.stderr)))
	}
	mux := http.NewServeMux()
	switch e.cfg.Metrics.Driver {
	case config.MetricsPrometheus:
		rec := observability.NewPrometheusRecorder()
		opts = append(opts, slice.WithRecorder(rec))
		mux.Handle("/metrics", rec.Handler())
	case config.MetricsExpvar:
		opts = append(opts, slice.WithRecorder(observability.NewExpvarRecorder("")))
		mux.Handle("/debug/vars", expvar.Handler())
	default:
		return opts, nil
	}
	if e.cfg.Metrics.Addr == "" {
		return opts, nil
	}
	ln, err := net.Listen("tcp", e.cfg.Metrics.Addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	e.metrics = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := e.metrics.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	e.logger.Info("serving metrics", zap.String("addr", ln.Addr().String()), zap.String("driver", e.cfg.Metrics.Driver))
	return opts, nil
}

func (e *env) close(ctx context.Context) error {
	var errs []error
	if e.store != nil {
		e.store.Settle()
		if e.persist && e.cache != nil {
			if err := e.store.Persist(context.WithoutCancel(ctx)); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if e.cache != nil {
		if err := e.cache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if e.metrics != nil {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		_ = e.metrics.Shutdown(shutdownCtx)
		cancel()
	}
	if e.logger != nil {
		_ = e.logger.Sync()
	}
	return errors.Join(errs...)
}
