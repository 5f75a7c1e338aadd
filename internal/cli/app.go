package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mrz1836/structure/internal/audit"
	"github.com/mrz1836/structure/internal/clarify"
	"github.com/mrz1836/structure/internal/classifier"
	"github.com/mrz1836/structure/internal/clock"
	"github.com/mrz1836/structure/internal/compliance"
	"github.com/mrz1836/structure/internal/config"
	"github.com/mrz1836/structure/internal/constants"
	structerrors "github.com/mrz1836/structure/internal/errors"
	"github.com/mrz1836/structure/internal/extract"
	"github.com/mrz1836/structure/internal/gate"
	"github.com/mrz1836/structure/internal/kernel"
	"github.com/mrz1836/structure/internal/metrics"
	"github.com/mrz1836/structure/internal/orchestrator"
	"github.com/mrz1836/structure/internal/policy"
	"github.com/mrz1836/structure/internal/service"
	"github.com/mrz1836/structure/internal/store"
	"github.com/mrz1836/structure/internal/workflow"
)

// app is the set of collaborators one command invocation works with.
type app struct {
	cfg        *config.Config
	logger     zerolog.Logger
	policy     *policy.Policy
	classifier *classifier.Classifier
	gates      *gate.Runner
	kernels    *kernel.Registry
	service    *service.Service
	metrics    *metrics.Prometheus
	closers    []io.Closer
}

// loadConfig reads the explicit --config file when given and the layered
// global/project configuration otherwise.
func loadConfig(ctx context.Context, path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(ctx, path)
	}
	return config.Load(ctx)
}

// newCatalog builds the stateless part of the app: policy, classifier,
// gates and kernels. Commands that never touch sessions stop here.
func newCatalog(cfg *config.Config, logger zerolog.Logger) (*app, error) {
	pol := policy.Default()
	if cfg.Policy.Path != "" {
		loaded, err := policy.LoadFile(cfg.Policy.Path)
		if err != nil {
			return nil, err
		}
		pol = loaded
	}

	return &app{
		cfg:        cfg,
		logger:     logger,
		policy:     pol,
		classifier: classifier.New(pol),
		gates:      gate.NewRunner(gate.NewDefaultRegistry(pol)),
		kernels:    kernel.NewDefaultRegistry(clock.RealClock{}),
	}, nil
}

// newApp wires the full service stack from cfg.
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a, err := newCatalog(cfg, logger)
	if err != nil {
		return nil, err
	}

	backend, err := newBackend(ctx, cfg.Store, cfg.Orchestrator.LockTimeout)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, backend)

	sink, err := a.newAuditSink()
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	checker := compliance.NewPolicyChecker(
		compliance.WithRateLimits(cfg.Compliance.RateLimits),
		compliance.WithBurst(cfg.Compliance.Burst),
		compliance.WithDenyRules(denyRules(cfg.Compliance.Deny)...),
	)

	sessions := store.NewSessionStore(backend)
	workflows := store.NewWorkflowStore(backend)

	orchOpts := []orchestrator.Option{
		orchestrator.WithResolver(clarify.NewResolver(a.policy)),
		orchestrator.WithWorkflowStore(workflows),
	}
	if cfg.Metrics.Enabled {
		a.metrics = metrics.NewPrometheus(cfg.Metrics.Namespace)
		orchOpts = append(orchOpts, orchestrator.WithMetrics(a.metrics))
	}

	orch := orchestrator.New(a.gates, a.kernels, checker, sink, orchestrator.Config{
		KernelTimeout:          cfg.Orchestrator.KernelTimeout,
		Determinism:            constants.Determinism(cfg.Orchestrator.Determinism),
		AuditExecutionFailures: cfg.Orchestrator.AuditExecutionFailures,
	}, logger, orchOpts...)

	svc, err := service.New(service.Deps{
		Builder:      workflow.NewBuilder(a.classifier, extract.New(a.policy), logger),
		Orchestrator: orch,
		Gates:        a.gates,
		Checker:      checker,
		Sessions:     sessions,
		Workflows:    workflows,
		Sink:         sink,
	}, logger, service.WithLocker(store.NewKeyedLocker(cfg.Orchestrator.LockTimeout)))
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.service = svc

	return a, nil
}

// newBackend opens the configured persistence backend.
func newBackend(ctx context.Context, cfg config.StoreConfig, lockTimeout time.Duration) (store.Backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return store.NewMemoryBackend(), nil
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("%w: redis at %s is unreachable: %w", structerrors.ErrConfiguration, cfg.Redis.Addr, err)
		}
		return store.NewRedisBackend(client,
			store.WithPrefix(cfg.Redis.Prefix),
			store.WithTTL(cfg.Redis.TTL),
		), nil
	default:
		return store.NewFileBackend(cfg.Dir, lockTimeout)
	}
}

// newAuditSink opens the rotating JSON-lines audit log. A disabled audit
// log still needs a sink, so an empty MultiSink stands in.
func (a *app) newAuditSink() (audit.Sink, error) {
	if !a.cfg.Audit.Enabled {
		return audit.MultiSink{}, nil
	}

	path, err := a.cfg.Audit.LogPath()
	if err != nil {
		return nil, err
	}
	w, err := rotatingFile(path, a.cfg.Audit.MaxSizeMB, a.cfg.Audit.MaxBackups, a.cfg.Audit.MaxAgeDays)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	a.closers = append(a.closers, w)
	return audit.NewJSONLSink(w, a.logger), nil
}

// Close flushes metrics and releases the backend and the audit log.
func (a *app) Close() error {
	var errs []error
	if a.metrics != nil && a.cfg.Metrics.Textfile != "" {
		if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
			errs = append(errs, err)
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return stderrors.Join(errs...)
}

// denyRules converts config rules; config does not import compliance.
func denyRules(rules []config.DenyRule) []compliance.DenyRule {
	out := make([]compliance.DenyRule, 0, len(rules))
	for _, r := range rules {
		out = append(out, compliance.DenyRule{Actor: r.Actor, Resource: r.Resource, Action: r.Action})
	}
	return out
}
