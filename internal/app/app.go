package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/fundwatch/internal/config"
	"github.com/newthinker/fundwatch/internal/core"
	"github.com/newthinker/fundwatch/internal/logger"
	"github.com/newthinker/fundwatch/internal/metrics"
	"github.com/newthinker/fundwatch/internal/namecache"
	"github.com/newthinker/fundwatch/internal/orchestrator"
	"github.com/newthinker/fundwatch/internal/snapshot"
	"github.com/newthinker/fundwatch/internal/storage/archive"
	"github.com/newthinker/fundwatch/internal/valuation"
	"go.uber.org/zap"
)

// Deps are the collaborators of an App. Build fills them from config; tests
// pass fakes.
type Deps struct {
	Sources *Sources
	Mirror  *archive.Mirror
	Metrics *metrics.Registry // optional
	Now     func() time.Time  // optional, defaults to time.Now
}

// App runs snapshot jobs.
type App struct {
	cfg     *config.Config
	logger  *zap.Logger
	sources *Sources
	mirror  *archive.Mirror
	metrics *metrics.Registry
	now     func() time.Time
}

// Report summarises a finished run.
type Report struct {
	RunID     string
	Kind      string
	Policy    orchestrator.Policy
	Total     int
	Success   int
	Output    string
	Duration  time.Duration
	NameCache namecache.Stats
}

// New creates a new App instance
func New(cfg *config.Config, deps Deps, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &App{
		cfg:     cfg,
		logger:  logger,
		sources: deps.Sources,
		mirror:  deps.Mirror,
		metrics: deps.Metrics,
		now:     deps.Now,
	}
}

// Build creates an App with real providers, storage and metrics from cfg.
func Build(cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	mirror, err := NewMirror(cfg.Storage, log)
	if err != nil {
		return nil, err
	}
	deps := Deps{
		Sources: NewSources(cfg.Providers, log),
		Mirror:  mirror,
	}
	if cfg.Metrics.Enabled {
		deps.Metrics = metrics.NewRegistry()
	}
	return New(cfg, deps, log), nil
}

// RunConfig returns the configured settings of a run kind.
func (a *App) RunConfig(kind string) (config.RunConfig, error) {
	return a.cfg.Run(kind)
}

// Policy returns the configured dispatch policy of a run kind.
func (a *App) Policy(kind string) (orchestrator.Policy, error) {
	run, err := a.RunConfig(kind)
	if err != nil {
		return orchestrator.Policy{}, err
	}
	return orchestrator.ParsePolicy(run.Policy, run.Workers, run.Pace)
}

// Run resolves the watch list of kind with policy and publishes the
// snapshot. Asset failures are recorded in the snapshot; only configuration
// and storage problems are returned as errors.
func (a *App) Run(ctx context.Context, kind string, policy orchestrator.Policy) (*Report, error) {
	run, err := a.cfg.Run(kind)
	if err != nil {
		return nil, err
	}
	assets, err := a.cfg.Assets(kind)
	if err != nil {
		return nil, err
	}
	if a.sources == nil {
		return nil, core.Errorf(core.ErrConfigMissing, "no data sources configured")
	}
	if a.mirror == nil {
		return nil, core.Errorf(core.ErrConfigMissing, "no snapshot storage configured")
	}

	report := &Report{RunID: uuid.NewString(), Kind: kind, Policy: policy, Output: run.Output}
	log := logger.ForRun(a.logger, kind, report.RunID)
	started := a.now()

	log.Info("run starting",
		zap.Int("assets", len(assets)),
		zap.Stringer("policy", policy),
	)

	names := namecache.New(a.sources.Spot, a.sources.Info, log)
	orch := orchestrator.New(a.resolvers(names, log), policy, log)
	if a.metrics != nil {
		orch.OnOutcome(a.metrics.RecordOutcome)
	}

	res := snapshot.Aggregate(assets, orch.Run(ctx, assets))
	report.Total, report.Success = res.Total, res.Success
	report.NameCache = names.Stats()

	data, err := a.encode(kind, res)
	if err == nil {
		// A cancelled run still publishes what it resolved.
		err = a.mirror.Publish(context.WithoutCancel(ctx), run.Output, data)
	}

	finished := a.now()
	report.Duration = finished.Sub(started)
	a.recordMetrics(report, err, finished, log)

	if err != nil {
		log.Error("run failed", zap.Error(err))
		return report, err
	}
	log.Info("run finished",
		zap.Int("total", report.Total),
		zap.Int("success", report.Success),
		zap.Int("name_cache_size", report.NameCache.Size),
		zap.Duration("duration", report.Duration),
		zap.String("output", run.Output),
	)
	return report, nil
}

// resolvers binds every asset class to its valuation strategy.
func (a *App) resolvers(names *namecache.Cache, log *zap.Logger) *valuation.Registry {
	opts := valuation.Options{ZeroIsMissing: a.cfg.Engine.ZeroIsMissing}
	src := a.sources
	reg := valuation.NewRegistry()

	if src.Crypto != nil {
		reg.Register(valuation.NewDirect(src.Crypto, nil, opts, log), core.ClassCrypto)
	}
	if src.Quotes != nil {
		market := valuation.NewDirect(src.Quotes, src.Closes, opts, log)
		reg.Register(market, core.ClassStockUS, core.ClassIndex, core.ClassCommodity)
		reg.Register(valuation.NewIndexProxy(market, opts), core.ClassFundQDII)
	}
	if src.Spot != nil {
		reg.Register(valuation.NewHoldingsProxy(src.Spot, opts, log), core.ClassFundCN)
	}
	if src.PrimaryEstimator != nil {
		reg.Register(valuation.NewTwoTier(src.PrimaryEstimator, src.SecondaryEstimator, src.Holdings, names, log),
			core.ClassFundDirect)
	}
	return reg
}

func (a *App) encode(kind string, res snapshot.Result) ([]byte, error) {
	asm := snapshot.NewAssembler(a.now)
	var doc any
	if kind == config.RunFunds {
		doc = asm.Funds(res)
	} else {
		doc = asm.Global(res)
	}
	data, err := snapshot.Encode(doc)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("encoding %s snapshot: %w", kind, err))
	}
	return data, nil
}

func (a *App) recordMetrics(r *Report, runErr error, finished time.Time, log *zap.Logger) {
	if a.metrics == nil {
		return
	}
	status := "ok"
	if runErr != nil {
		status = "error"
	}
	a.metrics.RecordRun(r.Kind, status, r.Total, r.Success, r.Duration, finished)
	a.metrics.RecordNameCache(r.Kind, r.NameCache)

	if path := a.cfg.Metrics.Textfile; path != "" {
		if err := a.metrics.WriteTextfile(path); err != nil {
			log.Warn("failed to write metrics textfile", zap.String("path", path), zap.Error(err))
		}
	}
}
