package files

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
)

type transferJob struct {
	fileID      string
	fileName    string
	location    string
	contentType string
	data        []byte
}

// transfer writes the payload, settles the record, and requests
// classification. It never returns an error: every outcome ends as a record
// state or a log entry.
func (r *repo) transfer(ctx context.Context, job transferJob) {
	logger := r.logger.With("file_id", job.fileID, "location", job.location)

	outcome := r.measuredSettle(ctx, logger, job)
	if outcome != outcomeUploaded {
		return
	}

	n := Notification{
		FileID:          job.fileID,
		FileName:        job.fileName,
		StorageLocation: job.location,
	}

	if err := r.notifier.Notify(ctx, n); err != nil {
		r.metrics.notification(outcomeFailed)
		logger.Error("classification request not published", "error", err)
		return
	}

	r.metrics.notification(outcomePublished)
	logger.Info("classification requested")
}

// measuredSettle records the settle outcome even when the store panics;
// the panic itself is left to the pool.
func (r *repo) measuredSettle(ctx context.Context, logger *slog.Logger, job transferJob) (outcome string) {
	start := r.metrics.transferStarted()
	outcome = outcomeSettleFailed
	defer func() { r.metrics.transferSettled(start, outcome) }()

	return r.settle(ctx, logger, job)
}

func (r *repo) settle(ctx context.Context, logger *slog.Logger, job transferJob) string {
	if err := r.put(ctx, job); err != nil {
		logger.Warn("transfer failed", "error", err)

		if err := r.store.MarkFailed(ctx, job.fileID, job.location, err.Error()); err != nil {
			return settleError(logger, err)
		}
		return outcomeFailed
	}

	if err := r.store.MarkUploaded(ctx, job.fileID, job.location, r.now().UTC()); err != nil {
		return settleError(logger, err)
	}

	logger.Info("file uploaded", "size", len(job.data))
	return outcomeUploaded
}

func (r *repo) put(ctx context.Context, job transferJob) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: panic: %v", ErrTransfer, rec)
		}
	}()

	if err := r.objects.Put(
		ctx,
		job.location,
		bytes.NewReader(job.data),
		int64(len(job.data)),
		job.contentType,
	); err != nil {
		return fmt.Errorf("%w: %w", ErrTransfer, err)
	}
	return nil
}

func settleError(logger *slog.Logger, err error) string {
	if errors.Is(err, ErrSuperseded) {
		logger.Info("transfer superseded by a newer registration")
		return outcomeSuperseded
	}
	logger.Error("record status update failed", "error", err)
	return outcomeSettleFailed
}
