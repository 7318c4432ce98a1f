package reconciler

import (
	"context"
	"sync"
	"time"

	"github.com/hyperctl/hypervisor/pkg/log"
	"github.com/hyperctl/hypervisor/pkg/metrics"
	"github.com/hyperctl/hypervisor/pkg/storage"
	"github.com/hyperctl/hypervisor/pkg/types"
	"github.com/rs/zerolog"
)

// DefaultInterval is how often a Reconciler runs a cycle when none is
// given to New.
const DefaultInterval = 30 * time.Second

// Reconciler periodically recomputes each cluster's available capacity
// from its Running deployments and repairs drift against the Store.
type Reconciler struct {
	store    storage.Store
	interval time.Duration
	logger   zerolog.Logger
	quiet    zerolog.Logger

	mu     sync.Mutex
	stopCh chan struct{}
}

// New creates a Reconciler against store. interval <= 0 uses DefaultInterval.
func New(store storage.Store, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := log.WithComponent("reconciler")
	return &Reconciler{
		store:    store,
		interval: interval,
		logger:   logger,
		// "no drift" is the expected outcome of nearly every cycle; sample
		// it so a healthy cluster doesn't spam the log at the reconcile
		// interval forever.
		quiet: log.Sampled(logger, 1, 10*time.Minute),
	}
}

// Start begins the reconciliation loop in a background goroutine.
func (r *Reconciler) Start() {
	r.mu.Lock()
	r.stopCh = make(chan struct{})
	stopCh := r.stopCh
	r.mu.Unlock()

	go r.run(stopCh)
}

// Stop ends the reconciliation loop. It does not wait for an in-flight
// cycle to finish.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopCh != nil {
		close(r.stopCh)
		r.stopCh = nil
	}
}

func (r *Reconciler) run(stopCh chan struct{}) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info().Dur("interval", r.interval).Msg("reconciler started")

	for {
		select {
		case <-ticker.C:
			if err := r.RunOnce(context.Background()); err != nil {
				r.logger.Error().Err(err).Msg("reconciliation cycle failed")
			}
		case <-stopCh:
			r.logger.Info().Msg("reconciler stopped")
			return
		}
	}
}

// RunOnce performs a single reconciliation cycle against every cluster in
// the Store. A failure to list or repair one cluster is logged and does
// not stop the cycle from visiting the rest.
func (r *Reconciler) RunOnce(ctx context.Context) error {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.ReconciliationDuration)
		metrics.ReconciliationCyclesTotal.Inc()
	}()

	clusters, err := r.store.ListClusters(ctx)
	if err != nil {
		return err
	}

	for _, c := range clusters {
		if err := r.reconcileCluster(ctx, c); err != nil {
			r.logger.Error().Err(err).Str("cluster_id", c.ID).Msg("failed to reconcile cluster")
		}
	}

	return nil
}

// reconcileCluster recomputes c's available capacity from the deployments
// the Store considers Running and writes the corrected values back if they
// differ from what's stored.
func (r *Reconciler) reconcileCluster(ctx context.Context, c *types.Cluster) error {
	deployments, err := r.store.ListDeploymentsByCluster(ctx, c.ID)
	if err != nil {
		return err
	}

	var usedRAM, usedCPU, usedGPU int
	for _, d := range deployments {
		if d.Status != types.DeploymentRunning {
			continue
		}
		usedRAM += d.RAMRequired
		usedCPU += d.CPURequired
		usedGPU += d.GPURequired
	}

	wantRAM := c.TotalRAM - usedRAM
	wantCPU := c.TotalCPU - usedCPU
	wantGPU := c.TotalGPU - usedGPU

	drifted := false
	if wantRAM != c.AvailRAM {
		r.recordDrift(c, "ram", c.AvailRAM, wantRAM)
		c.AvailRAM = wantRAM
		drifted = true
	}
	if wantCPU != c.AvailCPU {
		r.recordDrift(c, "cpu", c.AvailCPU, wantCPU)
		c.AvailCPU = wantCPU
		drifted = true
	}
	if wantGPU != c.AvailGPU {
		r.recordDrift(c, "gpu", c.AvailGPU, wantGPU)
		c.AvailGPU = wantGPU
		drifted = true
	}

	if !drifted {
		r.quiet.Debug().Str("cluster_id", c.ID).Msg("available capacity matches recomputed value")
		return nil
	}

	return r.store.UpdateClusterAvailability(ctx, c, nil)
}

func (r *Reconciler) recordDrift(c *types.Cluster, dimension string, stored, want int) {
	metrics.ReconciliationDriftTotal.WithLabelValues(dimension).Inc()
	r.logger.Warn().
		Str("cluster_id", c.ID).
		Str("dimension", dimension).
		Int("stored", stored).
		Int("recomputed", want).
		Msg("available capacity drifted from recomputed value, repairing")
}
