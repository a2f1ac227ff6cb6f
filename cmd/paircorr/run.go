package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TrevorS/paircorr"
	"github.com/TrevorS/paircorr/internal/catalog"
	"github.com/TrevorS/paircorr/internal/config"
)

var runOutput string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Correlate the catalogs named in the config file",
	Long: `Reads cat1 (and cat2 for a cross-correlation), computes the configured
kind of correlation and writes it to the output file. Random catalogs rand1
and rand2, when given, are correlated too and used for the estimator.`,
	Args: cobra.NoArgs,
	RunE: runCorrelation,
}

func init() {
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "output file; .db, .sqlite or .sqlite3 writes SQLite")
}

func runCorrelation(cmd *cobra.Command, _ []string) error {
	v := config.New()
	if runOutput != "" {
		v.Set("output", runOutput)
	}
	cfg, err := config.Load(v, configPath)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	kind, err := paircorr.ParseKind(cfg.Kind)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	reg := prometheus.NewRegistry()
	lib := cfg.Correlation.Library()
	lib.Logger = log
	lib.Metrics = paircorr.NewMetrics(reg)
	if cfg.MetricsAddr != "" {
		shutdown := serveMetrics(cfg.MetricsAddr, reg, log)
		defer shutdown()
	}

	r := &runner{ctx: ctx, kind: kind, cfg: lib, log: log}
	cat1, err := r.field(cfg.Cat1)
	if err != nil {
		return err
	}
	cat2, err := r.field(cfg.Cat2)
	if err != nil {
		return err
	}
	rand1, err := r.field(cfg.Rand1)
	if err != nil {
		return err
	}
	rand2, err := r.field(cfg.Rand2)
	if err != nil {
		return err
	}

	data, err := r.correlate(cat1, cat2)
	if err != nil {
		return err
	}
	randoms, err := r.randoms(cat1, cat2, rand1, rand2)
	if err != nil {
		return err
	}

	if err := data.Write(cfg.Output, paircorr.WriteOptions{Precision: cfg.Precision, Randoms: randoms}); err != nil {
		return err
	}
	log.Info("wrote correlation", zap.String("kind", kind.String()), zap.String("output", cfg.Output))
	return nil
}

type runner struct {
	ctx  context.Context
	kind paircorr.Kind
	cfg  paircorr.Config
	log  *zap.Logger
}

// field loads a configured catalog. It returns nil for an absent one.
func (r *runner) field(cc config.CatalogConfig) (*paircorr.Field, error) {
	if !cc.Present() {
		return nil, nil
	}
	cat, err := catalog.Load(cc.File, cc.Spec())
	if err != nil {
		return nil, err
	}
	f, err := paircorr.NewField(cat)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cc.File, err)
	}
	r.log.Info("loaded catalog", zap.String("name", f.Name), zap.Int("n", f.Len()), zap.Float64("sumw", f.SumW))
	return f, nil
}

// correlate processes a against b, or a against itself when b is nil.
func (r *runner) correlate(a, b *paircorr.Field) (*paircorr.Correlation, error) {
	c, err := paircorr.NewCorrelation(r.kind, r.cfg)
	if err != nil {
		return nil, err
	}
	if err := c.Process(r.ctx, a, b); err != nil {
		return nil, err
	}
	return c, nil
}

// randoms computes the random-catalog results the estimator takes: RR, DR
// and RD for NN, and the random-lens result for the other kinds with a
// position-only first field.
func (r *runner) randoms(cat1, cat2, rand1, rand2 *paircorr.Field) ([]*paircorr.Correlation, error) {
	if rand1 == nil {
		return nil, nil
	}
	switch r.kind {
	case paircorr.NN:
		if cat2 == nil {
			rr, err := r.correlate(rand1, nil)
			if err != nil {
				return nil, err
			}
			dr, err := r.correlate(cat1, rand1)
			if err != nil {
				return nil, err
			}
			return []*paircorr.Correlation{rr, dr}, nil
		}
		if rand2 == nil {
			return nil, errors.New("a cross-correlation with randoms needs rand2")
		}
		rr, err := r.correlate(rand1, rand2)
		if err != nil {
			return nil, err
		}
		dr, err := r.correlate(cat1, rand2)
		if err != nil {
			return nil, err
		}
		rd, err := r.correlate(rand1, cat2)
		if err != nil {
			return nil, err
		}
		return []*paircorr.Correlation{rr, dr, rd}, nil
	case paircorr.NK, paircorr.NG, paircorr.KG:
		if cat2 == nil {
			return nil, fmt.Errorf("%s needs cat2", r.kind)
		}
		rg, err := r.correlate(rand1, cat2)
		if err != nil {
			return nil, err
		}
		return []*paircorr.Correlation{rg}, nil
	default:
		r.log.Warn("random catalogs are not used for this kind", zap.String("kind", r.kind.String()))
		return nil, nil
	}
}

// serveMetrics exposes reg at addr/metrics and returns a function that
// stops the server.
func serveMetrics(addr string, reg *prometheus.Registry, log *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("addr", addr))
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}
