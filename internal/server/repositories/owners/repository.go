package owners

import (
	"context"

	"github.com/dmitrijs2005/clipvault/internal/server/models"
)

// Repository stores per-owner upload settings. There is no upsert: callers
// create a profile on first use and update it in place afterwards.
type Repository interface {
	Get(ctx context.Context, ownerID string) (*models.OwnerProfile, error)
	Create(ctx context.Context, p *models.OwnerProfile) error
	UpdateLimit(ctx context.Context, ownerID string, limit int) error
	UpdateFolder(ctx context.Context, ownerID, folder string) error
}
