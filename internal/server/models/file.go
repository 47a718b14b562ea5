// Package models defines server-side data models persisted in the database.
package models

import "time"

// FileStatus is the lifecycle state of a FileRecord.
type FileStatus string

const (
	// StatusCommitted marks a record whose object was stored and whose row
	// was committed by the upload pipeline.
	StatusCommitted FileStatus = "committed"
	// StatusPendingDelete marks a record whose object is being removed.
	// Rows in this state are retried first by the next reconciler run.
	StatusPendingDelete FileStatus = "pending_delete"
)

// FileRecord describes one committed upload. The video itself lives in
// object storage under StorageKey.
type FileRecord struct {
	// ID is the database-assigned row id.
	ID int64
	// OwnerID is the stable external identity of the uploader.
	OwnerID string
	// FolderName is the owner folder in effect when the upload was committed.
	FolderName string
	// LogicalName is the user-chosen file name, unique within FolderName.
	LogicalName string
	// StorageKey is recomputed from FolderName and LogicalName on every write.
	StorageKey string
	// Title is the source video title, empty when the fetch tool did not report one.
	Title string
	// SizeBytes is the size of the stored artifact.
	SizeBytes int64
	// Status is the lifecycle state.
	Status FileStatus
	// CreatedAt is the commit timestamp in UTC.
	CreatedAt time.Time
}

// DisplayName returns the title when known, otherwise the logical name.
func (r *FileRecord) DisplayName() string {
	if r.Title != "" {
		return r.Title
	}
	return r.LogicalName
}

// ExpiresAt returns the moment the record becomes eligible for the expiry sweep.
func (r *FileRecord) ExpiresAt(retention time.Duration) time.Time {
	return r.CreatedAt.Add(retention)
}
