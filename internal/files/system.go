package files

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/intake/pkg/pagination"
	"github.com/JaimeStill/intake/pkg/storage"
	"github.com/JaimeStill/intake/pkg/worker"
)

// System defines the public contract for ingestion operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	// Register records the upload as REQUESTED and schedules its transfer.
	// It returns once the record is durable, never waiting on the transfer.
	Register(ctx context.Context, cmd RegisterCommand) (*Summary, error)

	Status(ctx context.Context, fileID string) (*StatusView, error)
	Results(ctx context.Context, fileID string) (*Results, error)

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Record], error)
}

type repo struct {
	store      Store
	objects    storage.System
	notifier   Notifier
	pool       *worker.Pool
	metrics    *Metrics
	logger     *slog.Logger
	pagination pagination.Config
	now        func() time.Time
}

// New creates the ingestion system. Transfers run on pool; store, objects,
// and notifier must be safe for concurrent use.
func New(
	store Store,
	objects storage.System,
	notifier Notifier,
	pool *worker.Pool,
	metrics *Metrics,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		store:      store,
		objects:    objects,
		notifier:   notifier,
		pool:       pool,
		metrics:    metrics,
		logger:     logger.With("system", "files"),
		pagination: pagination,
		now:        time.Now,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) Register(ctx context.Context, cmd RegisterCommand) (*Summary, error) {
	if err := validateRegistration(cmd); err != nil {
		r.metrics.registration(outcomeInvalid)
		return nil, err
	}

	// admission is claimed before the upsert so a saturated pool leaves no
	// REQUESTED record that would never be transferred
	res, err := r.pool.Reserve()
	if err != nil {
		r.metrics.registration(outcomeBusy)
		return nil, fmt.Errorf("%w: %w", ErrBusy, err)
	}

	fileID := strings.TrimSpace(cmd.FileID)
	if fileID == "" {
		fileID = uuid.NewString()
	}

	reg := Registration{
		FileID:          fileID,
		FileName:        cmd.FileName,
		FileType:        FileType(cmd.FileName),
		StorageLocation: StorageName(cmd.FileName, r.now()),
		ContentType:     cmd.ContentType,
		SizeBytes:       int64(len(cmd.Data)),
		PageCount:       cmd.PageCount,
	}

	rec, err := r.store.Upsert(ctx, reg)
	if err != nil {
		res.Release()
		r.metrics.registration(outcomeStoreError)
		return nil, fmt.Errorf("%w: register %s: %w", ErrStore, fileID, err)
	}

	job := transferJob{
		fileID:      rec.FileID,
		fileName:    rec.FileName,
		location:    rec.StorageLocation,
		contentType: reg.ContentType,
		data:        cmd.Data,
	}

	res.Go(context.WithoutCancel(ctx), func(ctx context.Context) {
		r.transfer(ctx, job)
	})

	r.metrics.registration(outcomeAccepted)
	r.logger.Info(
		"file registered",
		"file_id", rec.FileID,
		"file_name", rec.FileName,
		"location", rec.StorageLocation,
		"size", reg.SizeBytes,
	)

	return &Summary{FileID: rec.FileID, Status: rec.Status}, nil
}

func (r *repo) Status(ctx context.Context, fileID string) (*StatusView, error) {
	rec, err := r.store.Find(ctx, fileID)
	if err != nil {
		return nil, mapReadError(err)
	}
	return rec.statusView(), nil
}

func (r *repo) Results(ctx context.Context, fileID string) (*Results, error) {
	res, err := r.store.FindResults(ctx, fileID)
	if err != nil {
		return nil, mapReadError(err)
	}
	return res, nil
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Record], error) {
	page.Normalize(r.pagination)

	if filters.Status != nil && !filters.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *filters.Status)
	}

	result, err := r.store.List(ctx, page, filters)
	if err != nil {
		return nil, fmt.Errorf("%w: list files: %w", ErrStore, err)
	}
	return result, nil
}

func validateRegistration(cmd RegisterCommand) error {
	if len(cmd.Data) == 0 {
		return fmt.Errorf("%w: file is empty", ErrValidation)
	}
	if strings.TrimSpace(cmd.FileName) == "" {
		return fmt.Errorf("%w: file name is required", ErrValidation)
	}
	return nil
}

func mapReadError(err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrResultsNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStore, err)
}
