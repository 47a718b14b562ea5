// Package pipeline runs one upload end to end: validate, take the owner's
// slot, check quota, fetch, store, commit and clean up.
//
// A successful Submit leaves exactly one committed record and one stored
// object. A failed Submit leaves neither, except when the compensating
// delete after a failed commit also fails; that object is logged with
// orphan=true and removed later by the reconciler's orphan sweep.
//
// Folders can be shared between owners (admin folder overrides and custom
// paths), so the put and commit of a storage key run under a per-key slot
// and the name is checked again inside it.
package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/clipvault/internal/common"
	"github.com/dmitrijs2005/clipvault/internal/dbx"
	"github.com/dmitrijs2005/clipvault/internal/filex"
	"github.com/dmitrijs2005/clipvault/internal/logging"
	"github.com/dmitrijs2005/clipvault/internal/server/auth"
	"github.com/dmitrijs2005/clipvault/internal/server/fetch"
	"github.com/dmitrijs2005/clipvault/internal/server/models"
	"github.com/dmitrijs2005/clipvault/internal/server/naming"
	"github.com/dmitrijs2005/clipvault/internal/server/ownerlock"
	"github.com/dmitrijs2005/clipvault/internal/server/quota"
	"github.com/dmitrijs2005/clipvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/clipvault/internal/server/storage"
)

const (
	defaultSubmitTimeout = 15 * time.Minute
	defaultStoreTimeout  = 2 * time.Minute
	minBackoff           = time.Millisecond
)

// Fetcher produces a local playable artifact for a source URL.
type Fetcher interface {
	Fetch(ctx context.Context, sourceURL, format string) (*fetch.Artifact, error)
}

// Options tunes timeouts, retries and key layout.
type Options struct {
	KeyPrefix     string
	Format        string
	SubmitTimeout time.Duration
	StoreTimeout  time.Duration
	FetchRetries  uint
	PutRetries    uint
	RetryBackoff  time.Duration
}

// Request is one upload as asked for by the caller. Folder is an admin-only
// custom path; when empty the owner's profile folder is used. DisplayName is
// only logged.
type Request struct {
	OwnerID     string
	DisplayName string
	SourceURL   string
	LogicalName string
	Folder      string
}

type Pipeline struct {
	db      *sql.DB
	repos   repomanager.RepositoryManager
	quota   *quota.Tracker
	fetcher Fetcher
	store   storage.ObjectStore
	locks   *ownerlock.Set
	keys    ownerlock.Set
	opts    Options
	log     logging.Logger

	now   func() time.Time
	newID func() string
}

func New(db *sql.DB, repos repomanager.RepositoryManager, q *quota.Tracker, f Fetcher,
	store storage.ObjectStore, locks *ownerlock.Set, opts Options, log logging.Logger) *Pipeline {

	if opts.Format == "" {
		opts.Format = common.DefaultExtension
	}
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = defaultSubmitTimeout
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = defaultStoreTimeout
	}
	if opts.RetryBackoff < minBackoff {
		opts.RetryBackoff = minBackoff
	}
	if locks == nil {
		locks = &ownerlock.Set{}
	}
	return &Pipeline{
		db: db, repos: repos, quota: q, fetcher: f, store: store, locks: locks,
		opts: opts, log: log, now: time.Now, newID: uuid.NewString,
	}
}

// Submit uploads req.SourceURL as req.LogicalName and returns the public URL
// of the stored object.
func (p *Pipeline) Submit(ctx context.Context, caps auth.Capabilities, req Request) (string, error) {
	if req.OwnerID == "" {
		req.OwnerID = caps.OwnerID
		if req.DisplayName == "" {
			req.DisplayName = caps.DisplayName
		}
	}

	job := &models.UploadJob{
		ID:        p.newID(),
		OwnerID:   req.OwnerID,
		SourceURL: req.SourceURL,
		Stage:     models.StageValidate,
	}
	log := p.log.With("job_id", job.ID, "owner_id", job.OwnerID, "display_name", req.DisplayName)

	custom, err := p.validate(caps, req, job)
	if err != nil {
		log.Info(ctx, "upload rejected", "stage", job.Stage, "error", err)
		return "", err
	}

	job.Stage = models.StageAcquire
	release, ok := p.locks.TryAcquire(job.OwnerID)
	if !ok {
		log.Info(ctx, "upload rejected", "stage", job.Stage, "error", common.ErrBusy)
		return "", common.ErrBusy
	}
	defer release()

	runCtx, cancel := context.WithTimeout(ctx, p.opts.SubmitTimeout)
	defer cancel()

	defer p.cleanup(ctx, job, log)

	url, err := p.run(runCtx, job, custom, log)
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil && !errors.Is(err, common.ErrTimeout) {
			err = fmt.Errorf("%w during %s: %v", common.ErrTimeout, job.Stage, err)
		}
		log.Warn(ctx, "upload failed", "stage", job.Stage, "category", common.Category(err), "error", err)
		return "", err
	}

	job.Stage = models.StageDone
	log.Info(ctx, "upload committed", "key", job.StorageKey, "url", url)
	return url, nil
}

func (p *Pipeline) validate(caps auth.Capabilities, req Request, job *models.UploadJob) (custom bool, err error) {
	if !caps.CanUpload || !caps.CanAccess(req.OwnerID) {
		return false, common.ErrForbidden
	}

	name, err := naming.Validate(req.LogicalName)
	if err != nil {
		return false, err
	}
	job.LogicalName = name

	if strings.TrimSpace(req.Folder) == "" {
		return false, nil
	}
	if !caps.IsAdmin {
		return false, common.ErrForbidden
	}
	folder, err := naming.ValidatePath(req.Folder)
	if err != nil {
		return false, err
	}
	job.FolderName = folder
	return true, nil
}

func (p *Pipeline) run(ctx context.Context, job *models.UploadJob, custom bool, log logging.Logger) (string, error) {
	job.Stage = models.StageQuota
	profile, err := p.quota.Profile(ctx, job.OwnerID)
	if err != nil {
		return "", err
	}
	if !custom {
		job.FolderName = profile.FolderName
	}

	if err := p.checkName(ctx, job); err != nil {
		return "", err
	}

	// admin uploads into a custom path are not counted against anyone
	if !custom {
		if err := p.quota.Reserve(ctx, job.OwnerID); err != nil {
			return "", err
		}
	}

	job.Stage = models.StageFetch
	log.Info(ctx, "fetching", "stage", job.Stage, "url", job.SourceURL)
	art, err := p.fetch(ctx, job)
	if err != nil {
		return "", err
	}

	job.Stage = models.StagePut
	job.StorageKey = naming.StorageKey(p.opts.KeyPrefix, job.FolderName, job.LogicalName, p.opts.Format)
	releaseKey, ok := p.keys.TryAcquire(job.StorageKey)
	if !ok {
		return "", fmt.Errorf("%w: %s is being uploaded", common.ErrNameTaken, job.StorageKey)
	}
	defer releaseKey()

	// the name may have been committed by another owner while fetching
	if err := p.checkName(ctx, job); err != nil {
		return "", err
	}
	if err := p.put(ctx, job, art); err != nil {
		return "", err
	}

	job.Stage = models.StageCommit
	rec := &models.FileRecord{
		OwnerID:     job.OwnerID,
		FolderName:  job.FolderName,
		LogicalName: job.LogicalName,
		StorageKey:  job.StorageKey,
		Title:       art.Title,
		SizeBytes:   art.Size,
		Status:      models.StatusCommitted,
		CreatedAt:   p.now(),
	}
	err = dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return p.repos.Files(tx).Insert(ctx, rec)
	})
	if err != nil {
		if errors.Is(err, common.ErrNameTaken) {
			// the key belongs to the committed row that won
			log.Warn(ctx, "commit lost to an existing record, object kept", "key", job.StorageKey)
		} else {
			p.compensate(ctx, job, log)
		}
		return "", fmt.Errorf("commit: %w", err)
	}

	return p.store.PublicURL(job.StorageKey), nil
}

func (p *Pipeline) checkName(ctx context.Context, job *models.UploadJob) error {
	taken, err := p.repos.Files(p.db).Exists(ctx, job.FolderName, job.LogicalName)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: %s/%s", common.ErrNameTaken, job.FolderName, job.LogicalName)
	}
	return nil
}

// fetch retries transient failures only. The artifact path is recorded on
// the job as soon as it exists so cleanup can find it.
func (p *Pipeline) fetch(ctx context.Context, job *models.UploadJob) (*fetch.Artifact, error) {
	var art *fetch.Artifact
	attempt := 0
	b := retry.WithMaxRetries(uint64(p.opts.FetchRetries), retry.NewConstant(p.opts.RetryBackoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		a, err := p.fetcher.Fetch(ctx, job.SourceURL, p.opts.Format)
		if err != nil {
			if errors.Is(err, common.ErrTransientFailure) && ctx.Err() == nil {
				p.log.Warn(ctx, "fetch attempt failed", "job_id", job.ID, "attempt", attempt, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		art = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	job.LocalPath = art.Path
	return art, nil
}

func (p *Pipeline) put(ctx context.Context, job *models.UploadJob, art *fetch.Artifact) error {
	attempt := 0
	b := retry.WithMaxRetries(uint64(p.opts.PutRetries), retry.NewConstant(p.opts.RetryBackoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		err := p.putOnce(ctx, job.StorageKey, art)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		p.log.Warn(ctx, "put attempt failed", "job_id", job.ID, "key", job.StorageKey, "attempt", attempt, "error", err)
		return retry.RetryableError(err)
	})
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}
	return fmt.Errorf("%w: %v", common.ErrUploadFailed, err)
}

func (p *Pipeline) putOnce(ctx context.Context, key string, art *fetch.Artifact) error {
	f, err := os.Open(art.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, p.opts.StoreTimeout)
	defer cancel()
	return p.store.Put(ctx, key, f, art.Size, storage.ContentType(p.opts.Format))
}

// compensate removes the stored object after a failed commit. It runs on a
// context detached from the caller's cancellation.
func (p *Pipeline) compensate(ctx context.Context, job *models.UploadJob, log logging.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.opts.StoreTimeout)
	defer cancel()

	if err := p.store.Delete(ctx, job.StorageKey); err != nil {
		log.Error(ctx, "compensating delete failed", "key", job.StorageKey, "orphan", true, "error", err)
		return
	}
	log.Info(ctx, "stored object removed after failed commit", "key", job.StorageKey)
}

func (p *Pipeline) cleanup(ctx context.Context, job *models.UploadJob, log logging.Logger) {
	if err := filex.Remove(job.LocalPath); err != nil {
		log.Warn(ctx, "temp file not removed", "stage", models.StageCleanup, "path", job.LocalPath, "error", err)
		return
	}
	job.LocalPath = ""
}
