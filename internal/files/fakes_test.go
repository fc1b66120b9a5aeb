package files

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/intake/pkg/lifecycle"
	"github.com/JaimeStill/intake/pkg/pagination"
	"github.com/JaimeStill/intake/pkg/worker"
)

// memStore enforces the same settle guard as the real backends.
type memStore struct {
	mu        sync.Mutex
	records   map[string]Record
	results   map[string]Results
	upsertErr error
	findErr   error
	// settleErr and settlePanics apply to MarkUploaded only.
	settleErr    error
	settlePanics bool
}

func newMemStore() *memStore {
	return &memStore{
		records: make(map[string]Record),
		results: make(map[string]Results),
	}
}

func (s *memStore) Upsert(_ context.Context, reg Registration) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.upsertErr != nil {
		return nil, s.upsertErr
	}

	rec := Record{
		FileID:          reg.FileID,
		FileName:        reg.FileName,
		FileType:        reg.FileType,
		StorageLocation: reg.StorageLocation,
		ContentType:     reg.ContentType,
		SizeBytes:       reg.SizeBytes,
		PageCount:       reg.PageCount,
		Status:          StatusRequested,
		UpdatedAt:       time.Now(),
	}
	s.records[reg.FileID] = rec
	return &rec, nil
}

func (s *memStore) settle(fileID, location string, apply func(*Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[fileID]
	if !ok || rec.Status != StatusRequested || rec.StorageLocation != location {
		return ErrSuperseded
	}
	apply(&rec)
	rec.UpdatedAt = time.Now()
	s.records[fileID] = rec
	return nil
}

func (s *memStore) MarkUploaded(_ context.Context, fileID, location string, at time.Time) error {
	if s.settlePanics {
		panic("record store driver exploded")
	}
	if s.settleErr != nil {
		return s.settleErr
	}
	return s.settle(fileID, location, func(r *Record) {
		r.Status = StatusUploaded
		r.UploadedAt = &at
	})
}

func (s *memStore) MarkFailed(_ context.Context, fileID, location, reason string) error {
	return s.settle(fileID, location, func(r *Record) {
		r.Status = StatusError
		r.ErrorReason = &reason
	})
}

func (s *memStore) Find(_ context.Context, fileID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findErr != nil {
		return nil, s.findErr
	}
	rec, ok := s.records[fileID]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *memStore) FindResults(_ context.Context, fileID string) (*Results, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.results[fileID]
	if !ok {
		return nil, ErrResultsNotFound
	}
	return &res, nil
}

func (s *memStore) List(_ context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Record], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []Record
	for _, r := range s.records {
		if filters.Status != nil && r.Status != *filters.Status {
			continue
		}
		matched = append(matched, r)
	}

	result := pagination.NewPageResult(matched, len(matched), page)
	return &result, nil
}

func (s *memStore) record(t *testing.T, fileID string) Record {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[fileID]
	require.True(t, ok, "no record for %s", fileID)
	return rec
}

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	gate    chan struct{}
	entered chan string
	err     error
	panics  bool
}

func newMemObjects() *memObjects {
	return &memObjects{objects: make(map[string][]byte)}
}

func (o *memObjects) Start(*lifecycle.Coordinator) error { return nil }

func (o *memObjects) Put(_ context.Context, key string, reader io.Reader, _ int64, _ string) error {
	if o.entered != nil {
		o.entered <- key
	}
	if o.gate != nil {
		<-o.gate
	}
	if o.panics {
		panic("object store exploded")
	}
	if o.err != nil {
		return o.err
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	o.mu.Lock()
	o.objects[key] = data
	o.mu.Unlock()
	return nil
}

func (o *memObjects) has(key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.objects[key]
	return ok
}

type memNotifier struct {
	mu   sync.Mutex
	sent []Notification
	err  error
}

func (n *memNotifier) Notify(_ context.Context, req Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, req)
	return nil
}

func (n *memNotifier) notifications() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.sent...)
}

type harness struct {
	sys      System
	store    *memStore
	objects  *memObjects
	notifier *memNotifier
	pool     *worker.Pool
	metrics  *Metrics
}

func newHarness(t *testing.T, cfg worker.Config) *harness {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	h := &harness{
		store:    newMemStore(),
		objects:  newMemObjects(),
		notifier: &memNotifier{},
		pool:     worker.New(&cfg, logger),
		metrics:  NewMetrics(prometheus.NewRegistry()),
	}
	h.sys = New(
		h.store,
		h.objects,
		h.notifier,
		h.pool,
		h.metrics,
		logger,
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
	return h
}

func (h *harness) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.pool.Wait(ctx))
}

var errBoom = errors.New("boom")
