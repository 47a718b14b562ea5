// Package reconciler reclaims expired files and keeps the registry and the
// object store converged.
//
// A run resumes rows left in pending_delete, expires committed rows older
// than the retention window and, when enabled, sweeps objects that have no
// row and rows whose object is gone. Each row moves committed ->
// pending_delete -> removed, so a crash at any point is finished by the
// next run.
package reconciler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/dmitrijs2005/clipvault/internal/common"
	"github.com/dmitrijs2005/clipvault/internal/logging"
	"github.com/dmitrijs2005/clipvault/internal/server/models"
	"github.com/dmitrijs2005/clipvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/clipvault/internal/server/storage"
)

// ErrAlreadyRunning is returned by RunOnce while another run is in progress.
var ErrAlreadyRunning = fmt.Errorf("reconciler already running: %w", common.ErrBusy)

const (
	defaultRunAt        = "00:00"
	defaultStoreTimeout = 2 * time.Minute
	defaultTimezone     = "Asia/Tokyo"
)

type Options struct {
	KeyPrefix    string
	Retention    time.Duration
	OrphanSweep  bool
	OrphanGrace  time.Duration
	RunAt        string
	Location     *time.Location
	StoreTimeout time.Duration
}

// Report counts what one run did.
type Report struct {
	Resumed  int
	Expired  int
	Orphans  int
	Dangling int
	Failed   int
}

type Reconciler struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
	store storage.ObjectStore
	opts  Options
	log   logging.Logger

	running sync.Mutex

	mu     sync.Mutex
	now    func() time.Time
	sched  *gocron.Scheduler
	cancel context.CancelFunc
}

func New(db *sql.DB, repos repomanager.RepositoryManager, store storage.ObjectStore, opts Options, log logging.Logger) *Reconciler {
	if opts.RunAt == "" {
		opts.RunAt = defaultRunAt
	}
	if opts.Location == nil {
		opts.Location = defaultLocation()
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = defaultStoreTimeout
	}
	return &Reconciler{db: db, repos: repos, store: store, opts: opts, log: log, now: time.Now}
}

// defaultLocation is Asia/Tokyo, or a fixed UTC+9 zone when the host has no
// zone database.
func defaultLocation() *time.Location {
	if loc, err := time.LoadLocation(defaultTimezone); err == nil {
		return loc
	}
	return time.FixedZone("JST", 9*60*60)
}

// SetNow replaces the clock. Tests use it to move past the retention window.
func (r *Reconciler) SetNow(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *Reconciler) clock() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.now()
}

// Start schedules a daily run at RunAt in Location.
func (r *Reconciler) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sched != nil {
		return errors.New("reconciler already started")
	}

	s := gocron.NewScheduler(r.opts.Location)
	s.SingletonModeAll()

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := s.Every(1).Day().At(r.opts.RunAt).Do(r.scheduled, ctx); err != nil {
		cancel()
		return fmt.Errorf("schedule reconciler at %q: %w", r.opts.RunAt, err)
	}
	s.StartAsync()

	r.sched, r.cancel = s, cancel
	r.log.Info(ctx, "reconciler scheduled", "at", r.opts.RunAt, "tz", r.opts.Location.String())
	return nil
}

// Stop cancels an in-flight scheduled run and stops the scheduler.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	s, cancel := r.sched, r.cancel
	r.sched, r.cancel = nil, nil
	r.mu.Unlock()

	if s == nil {
		return
	}
	cancel()
	s.Stop()
}

func (r *Reconciler) scheduled(ctx context.Context) {
	rep, err := r.RunOnce(ctx)
	if errors.Is(err, ErrAlreadyRunning) {
		r.log.Debug(ctx, "scheduled reconcile skipped, run in progress")
		return
	}
	r.logReport(ctx, "scheduled", rep, err)
}

// Trigger runs the reconciler once, synchronously.
func (r *Reconciler) Trigger(ctx context.Context) (Report, error) {
	rep, err := r.RunOnce(ctx)
	if !errors.Is(err, ErrAlreadyRunning) {
		r.logReport(ctx, "manual", rep, err)
	}
	return rep, err
}

func (r *Reconciler) logReport(ctx context.Context, trigger string, rep Report, err error) {
	args := []any{"trigger", trigger, "resumed", rep.Resumed, "expired", rep.Expired,
		"orphans", rep.Orphans, "dangling", rep.Dangling, "failed", rep.Failed}
	if err != nil {
		r.log.Error(ctx, "reconcile finished with errors", append(args, "error", err)...)
		return
	}
	r.log.Info(ctx, "reconcile finished", args...)
}

// RunOnce performs one full pass. Per-row failures are counted in
// Report.Failed and do not stop the run; the returned error covers steps
// that could not run at all.
func (r *Reconciler) RunOnce(ctx context.Context) (Report, error) {
	if !r.running.TryLock() {
		return Report{}, ErrAlreadyRunning
	}
	defer r.running.Unlock()

	var rep Report
	now := r.clock()
	var errs []error

	if err := r.resume(ctx, &rep); err != nil {
		errs = append(errs, err)
	}
	if err := r.expire(ctx, now, &rep); err != nil {
		errs = append(errs, err)
	}
	if r.opts.OrphanSweep {
		if err := r.sweep(ctx, now, &rep); err != nil {
			errs = append(errs, err)
		}
	}
	return rep, errors.Join(errs...)
}

func (r *Reconciler) resume(ctx context.Context, rep *Report) error {
	recs, err := r.repos.Files(r.db).ListPendingDelete(ctx)
	if err != nil {
		return fmt.Errorf("list pending: %w", err)
	}
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.Reclaim(ctx, rec); err != nil {
			rep.Failed++
			continue
		}
		rep.Resumed++
	}
	return nil
}

func (r *Reconciler) expire(ctx context.Context, now time.Time, rep *Report) error {
	recs, err := r.repos.Files(r.db).ListExpired(ctx, now.Add(-r.opts.Retention))
	if err != nil {
		return fmt.Errorf("list expired: %w", err)
	}
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.Reclaim(ctx, rec); err != nil {
			rep.Failed++
			continue
		}
		rep.Expired++
	}
	return nil
}

// Reclaim removes one file: mark pending_delete, delete the object, delete
// the row. A missing object counts as deleted. A row that is already gone
// was reclaimed by someone else and counts as done; its key is not touched
// since a new upload may own it by now. On failure the row is left
// pending_delete for the next run.
func (r *Reconciler) Reclaim(ctx context.Context, rec *models.FileRecord) error {
	log := r.log.With("owner_id", rec.OwnerID, "key", rec.StorageKey)
	repo := r.repos.Files(r.db)

	if rec.Status != models.StatusPendingDelete {
		err := repo.MarkPendingDelete(ctx, rec.ID)
		if errors.Is(err, common.ErrorNotFound) {
			log.Info(ctx, "file already reclaimed", "name", rec.LogicalName)
			return nil
		}
		if err != nil {
			log.Warn(ctx, "mark pending_delete failed", "error", err)
			return err
		}
		rec.Status = models.StatusPendingDelete
	}

	sctx, cancel := context.WithTimeout(ctx, r.opts.StoreTimeout)
	err := r.store.Delete(sctx, rec.StorageKey)
	cancel()
	if err != nil {
		log.Warn(ctx, "object delete failed, will retry", "error", err)
		return err
	}

	if err := repo.Delete(ctx, rec.ID); err != nil && !errors.Is(err, common.ErrorNotFound) {
		log.Warn(ctx, "row delete failed, will retry", "error", err)
		return err
	}
	log.Info(ctx, "file reclaimed", "name", rec.LogicalName)
	return nil
}

func (r *Reconciler) listPrefix() string {
	p := strings.Trim(r.opts.KeyPrefix, "/")
	if p == "" {
		return ""
	}
	return p + "/"
}

// sweep deletes objects without a row and rows without an object. Both must
// be older than OrphanGrace so an upload between put and commit is never
// touched.
func (r *Reconciler) sweep(ctx context.Context, now time.Time, rep *Report) error {
	prefix := r.listPrefix()
	cutoff := now.Add(-r.opts.OrphanGrace)

	objects, err := r.store.List(ctx, prefix)
	if err != nil {
		return fmt.Errorf("list objects: %w", err)
	}
	recs, err := r.repos.Files(r.db).ListKeys(ctx)
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}

	known := make(map[string]struct{}, len(recs))
	for _, rec := range recs {
		known[rec.StorageKey] = struct{}{}
	}
	stored := make(map[string]struct{}, len(objects))

	for _, obj := range objects {
		stored[obj.Key] = struct{}{}
		if _, ok := known[obj.Key]; ok {
			continue
		}
		if !obj.LastModified.Before(cutoff) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		sctx, cancel := context.WithTimeout(ctx, r.opts.StoreTimeout)
		err := r.store.Delete(sctx, obj.Key)
		cancel()
		if err != nil {
			r.log.Warn(ctx, "orphan delete failed", "key", obj.Key, "error", err)
			rep.Failed++
			continue
		}
		r.log.Info(ctx, "orphan object deleted", "key", obj.Key, "size", obj.Size)
		rep.Orphans++
	}

	repo := r.repos.Files(r.db)
	for _, rec := range recs {
		if rec.Status != models.StatusCommitted || !strings.HasPrefix(rec.StorageKey, prefix) {
			continue
		}
		if _, ok := stored[rec.StorageKey]; ok || !rec.CreatedAt.Before(cutoff) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := repo.Delete(ctx, rec.ID); err != nil && !errors.Is(err, common.ErrorNotFound) {
			r.log.Warn(ctx, "dangling row delete failed", "owner_id", rec.OwnerID, "key", rec.StorageKey, "error", err)
			rep.Failed++
			continue
		}
		r.log.Warn(ctx, "row without object removed", "owner_id", rec.OwnerID, "key", rec.StorageKey)
		rep.Dangling++
	}
	return nil
}
