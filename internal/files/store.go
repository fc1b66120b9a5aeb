package files

import (
	"context"
	"time"

	"github.com/JaimeStill/intake/pkg/pagination"
)

// Store persists ingestion records and reads classifier results.
// Implementations must make Upsert atomic per FileID and must apply
// MarkUploaded and MarkFailed only to a record that is still REQUESTED at
// the given storage location, returning ErrSuperseded otherwise.
type Store interface {
	Upsert(ctx context.Context, reg Registration) (*Record, error)
	MarkUploaded(ctx context.Context, fileID, location string, at time.Time) error
	MarkFailed(ctx context.Context, fileID, location, reason string) error
	Find(ctx context.Context, fileID string) (*Record, error)
	FindResults(ctx context.Context, fileID string) (*Results, error)
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Record], error)
}
