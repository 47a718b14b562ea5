package models

import "time"

// OwnerProfile holds per-owner upload settings.
type OwnerProfile struct {
	OwnerID    string
	FolderName string
	// UploadLimit is the committed-file ceiling. Zero means unlimited.
	UploadLimit int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Unlimited reports whether the owner has no upload ceiling.
func (p *OwnerProfile) Unlimited() bool {
	return p.UploadLimit <= 0
}
