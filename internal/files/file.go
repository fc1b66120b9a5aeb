// Package files implements the ingestion pipeline for uploaded files.
//
// A registration upserts an ingestion record in the REQUESTED state and
// schedules a detached transfer. The transfer writes the payload to the object
// store, settles the record as UPLOADED or ERROR, and only after UPLOADED is
// committed asks the classifier to scan the file. Clients poll the record and
// the classifier's result record through read-only projections.
package files

import (
	"time"
)

// Status is the ingestion state of a record. The values are shared with the
// classifier and must not change.
type Status string

const (
	StatusRequested Status = "REQUESTED"
	StatusUploaded  Status = "UPLOADED"
	StatusError     Status = "ERROR"
	// StatusDone is written by the classifier, never by this package.
	StatusDone Status = "DONE"
)

// Valid reports whether s is one of the known status values.
func (s Status) Valid() bool {
	switch s {
	case StatusRequested, StatusUploaded, StatusError, StatusDone:
		return true
	}
	return false
}

// Record is the ingestion record for one logical file, keyed by FileID.
// StorageLocation is fixed for a record instance; re-registration under the
// same FileID starts a new instance with a new location.
type Record struct {
	FileID          string     `json:"fileId"`
	FileName        string     `json:"fileName"`
	FileType        string     `json:"fileType"`
	StorageLocation string     `json:"fileLocation"`
	ContentType     string     `json:"contentType"`
	SizeBytes       int64      `json:"sizeBytes"`
	PageCount       *int       `json:"pageCount"`
	Status          Status     `json:"status"`
	ErrorReason     *string    `json:"errorReason"`
	UploadedAt      *time.Time `json:"uploadedAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Registration is the set of fields a registration writes. Backends store it
// with status REQUESTED and clear ErrorReason and UploadedAt.
type Registration struct {
	FileID          string
	FileName        string
	FileType        string
	StorageLocation string
	ContentType     string
	SizeBytes       int64
	PageCount       *int
}

// RegisterCommand carries an upload into the pipeline.
// FileID is optional; a UUID is generated when it is empty.
type RegisterCommand struct {
	Data        []byte
	FileName    string
	ContentType string
	FileID      string
	PageCount   *int
}

// Summary is the synchronous answer to a registration.
type Summary struct {
	FileID string `json:"fileId"`
	Status Status `json:"status"`
}

// StatusView is the client-facing projection of a Record.
type StatusView struct {
	FileID      string  `json:"fileId"`
	FileName    string  `json:"fileName"`
	Status      Status  `json:"status"`
	ErrorReason *string `json:"errorReason"`
}

// Results is the classifier's output for a file. Findings are opaque here.
type Results struct {
	FileID  string           `json:"fileId"`
	Results []map[string]any `json:"results"`
}

// Filters narrows record listings. Nil fields are ignored.
type Filters struct {
	Status *Status `json:"status,omitempty"`
}

func (r *Record) statusView() *StatusView {
	return &StatusView{
		FileID:      r.FileID,
		FileName:    r.FileName,
		Status:      r.Status,
		ErrorReason: r.ErrorReason,
	}
}
