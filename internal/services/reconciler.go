package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stwalsh4118/dossier/api/internal/dossier"
	"github.com/stwalsh4118/dossier/api/internal/ledger"
	"github.com/stwalsh4118/dossier/api/internal/logger"
	"github.com/stwalsh4118/dossier/api/internal/metrics"
	"github.com/stwalsh4118/dossier/api/internal/models"
	"github.com/stwalsh4118/dossier/api/internal/repository"
	"golang.org/x/sync/errgroup"
)

const defaultReconcileWorkers = 4

// SnapshotStore persists the last published snapshot across restarts.
type SnapshotStore interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	Save(ctx context.Context, snapshot *models.Snapshot) error
}

// ReconcileStatus describes the freshness of the published snapshot.
type ReconcileStatus struct {
	LastAttempt time.Time `json:"lastAttempt"`
	LastSuccess time.Time `json:"lastSuccess"`
	LastError   string    `json:"lastError,omitempty"`
	Stale       bool      `json:"stale"`
	FromCache   bool      `json:"fromCache"`
}

// Reconciler materializes member dossiers from the record store.
type Reconciler interface {
	// Reconcile runs a full pass and publishes the result atomically.
	// On failure the previous snapshot stays published and the error wraps
	// ErrUpstreamUnavailable.
	Reconcile(ctx context.Context) (*models.Snapshot, error)

	// Snapshot returns the published snapshot, or nil before the first pass.
	Snapshot() *models.Snapshot

	// Current returns the published snapshot, running a pass if none exists.
	Current(ctx context.Context) (*models.Snapshot, error)

	// CompareAndSwap publishes next only if old is still published.
	CompareAndSwap(old, next *models.Snapshot) bool

	// Status reports the outcome of the most recent pass.
	Status() ReconcileStatus

	// Warm publishes a cached snapshot when no pass has run yet.
	Warm(ctx context.Context) error
}

// ReconcilerOptions configures a Reconciler. Zero values use defaults.
type ReconcilerOptions struct {
	Workers int
	Timeout time.Duration
	Cache   SnapshotStore
	Metrics *metrics.Metrics
}

type reconciler struct {
	members      repository.MemberRepository
	transactions repository.TransactionRepository
	cache        SnapshotStore
	metrics      *metrics.Metrics
	log          *logger.Logger
	workers      int
	timeout      time.Duration
	now          func() time.Time

	passMu  sync.Mutex
	current atomic.Pointer[models.Snapshot]

	statusMu sync.RWMutex
	status   ReconcileStatus
}

// NewReconciler creates a new instance of Reconciler.
func NewReconciler(
	members repository.MemberRepository,
	transactions repository.TransactionRepository,
	log *logger.Logger,
	opts ReconcilerOptions,
) Reconciler {
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultReconcileWorkers
	}

	return &reconciler{
		members:      members,
		transactions: transactions,
		cache:        opts.Cache,
		metrics:      opts.Metrics,
		log:          log.WithComponent("reconciler"),
		workers:      workers,
		timeout:      opts.Timeout,
		now:          time.Now,
	}
}

func (r *reconciler) Reconcile(ctx context.Context) (*models.Snapshot, error) {
	r.passMu.Lock()
	defer r.passMu.Unlock()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := r.now()
	snapshot, err := r.build(ctx)
	elapsed := time.Since(start)

	if err != nil {
		r.metrics.ObserveReconcile(elapsed, 0, err)
		r.setStatus(func(s *ReconcileStatus) {
			s.LastAttempt = start
			s.LastError = err.Error()
			s.Stale = true
		})
		r.log.Error("Reconciliation pass failed", err, map[string]interface{}{
			"duration_ms": elapsed.Milliseconds(),
		})
		return nil, upstream("reconcile", err)
	}

	r.current.Store(snapshot)
	r.metrics.ObserveReconcile(elapsed, len(snapshot.Views), nil)
	r.setStatus(func(s *ReconcileStatus) {
		*s = ReconcileStatus{LastAttempt: start, LastSuccess: snapshot.ReconciledAt}
	})

	r.log.Info("Reconciliation pass completed", map[string]interface{}{
		"members":     len(snapshot.Views),
		"localidades": len(snapshot.Localidades),
		"duration_ms": elapsed.Milliseconds(),
	})

	if r.cache != nil {
		if err := r.cache.Save(ctx, snapshot); err != nil {
			r.log.Warn("Failed to cache snapshot", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return snapshot, nil
}

// build fetches the three inputs concurrently and assembles every view.
// The ledger index is built once and shared read-only by all workers.
func (r *reconciler) build(ctx context.Context) (*models.Snapshot, error) {
	var (
		members      []models.Member
		localidades  []string
		transactions []models.Transaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		members, err = r.members.FetchMembers(gctx)
		if err != nil {
			return fmt.Errorf("fetch members: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		localidades, err = r.members.FetchLocalidades(gctx)
		if err != nil {
			return fmt.Errorf("fetch localidades: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		transactions, err = r.transactions.FetchTransactions(gctx)
		if err != nil {
			return fmt.Errorf("fetch transactions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ix := ledger.NewIndex(transactions)
	views := make([]models.MemberView, len(members))

	var workers errgroup.Group
	workers.SetLimit(r.workers)
	for i := range members {
		workers.Go(func() error {
			views[i] = dossier.BuildView(members[i], ix)
			return nil
		})
	}
	_ = workers.Wait()

	if localidades == nil {
		localidades = []string{}
	}

	return &models.Snapshot{
		ReconciledAt: r.now(),
		Views:        views,
		Localidades:  localidades,
	}, nil
}

func (r *reconciler) Snapshot() *models.Snapshot {
	return r.current.Load()
}

func (r *reconciler) Current(ctx context.Context) (*models.Snapshot, error) {
	if snapshot := r.current.Load(); snapshot != nil {
		return snapshot, nil
	}
	return r.Reconcile(ctx)
}

func (r *reconciler) CompareAndSwap(old, next *models.Snapshot) bool {
	return r.current.CompareAndSwap(old, next)
}

func (r *reconciler) Status() ReconcileStatus {
	r.statusMu.RLock()
	defer r.statusMu.RUnlock()
	return r.status
}

func (r *reconciler) Warm(ctx context.Context) error {
	if r.cache == nil || r.current.Load() != nil {
		return nil
	}

	snapshot, err := r.cache.Load(ctx)
	if err != nil {
		return fmt.Errorf("load cached snapshot: %w", err)
	}
	if snapshot == nil {
		return nil
	}

	if !r.current.CompareAndSwap(nil, snapshot) {
		return nil
	}

	r.setStatus(func(s *ReconcileStatus) {
		s.LastSuccess = snapshot.ReconciledAt
		s.Stale = true
		s.FromCache = true
	})
	r.log.Info("Published cached snapshot", map[string]interface{}{
		"members":       len(snapshot.Views),
		"reconciled_at": snapshot.ReconciledAt,
	})
	return nil
}

func (r *reconciler) setStatus(update func(*ReconcileStatus)) {
	r.statusMu.Lock()
	defer r.statusMu.Unlock()
	update(&r.status)
}
