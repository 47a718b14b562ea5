package services

import (
	"context"

	"github.com/dmitrijs2005/clipvault/internal/common"
	"github.com/dmitrijs2005/clipvault/internal/server/auth"
	"github.com/dmitrijs2005/clipvault/internal/server/quota"
	"github.com/dmitrijs2005/clipvault/internal/server/reconciler"
)

// Trigger runs one reconciler pass on demand.
type Trigger interface {
	Trigger(ctx context.Context) (reconciler.Report, error)
}

// Usage is an owner's committed count against their limit. A zero Limit
// means unlimited.
type Usage struct {
	Count int
	Limit int
}

type AdminService struct {
	tracker *quota.Tracker
	trigger Trigger
}

func NewAdminService(tracker *quota.Tracker, trigger Trigger) *AdminService {
	return &AdminService{tracker: tracker, trigger: trigger}
}

func (s *AdminService) SetQuota(ctx context.Context, caps auth.Capabilities, ownerID string, limit uint) error {
	if !caps.IsAdmin {
		return common.ErrForbidden
	}
	return s.tracker.SetLimit(ctx, ownerID, limit)
}

func (s *AdminService) SetFolder(ctx context.Context, caps auth.Capabilities, ownerID, folder string) error {
	if !caps.IsAdmin {
		return common.ErrForbidden
	}
	return s.tracker.SetFolder(ctx, ownerID, folder)
}

// Usage is readable by the owner and by admins.
func (s *AdminService) Usage(ctx context.Context, caps auth.Capabilities, ownerID string) (Usage, error) {
	if !caps.CanAccess(ownerID) {
		return Usage{}, common.ErrForbidden
	}
	n, limit, err := s.tracker.Usage(ctx, ownerID)
	if err != nil {
		return Usage{}, err
	}
	return Usage{Count: n, Limit: limit}, nil
}

func (s *AdminService) Reconcile(ctx context.Context, caps auth.Capabilities) (reconciler.Report, error) {
	if !caps.IsAdmin {
		return reconciler.Report{}, common.ErrForbidden
	}
	return s.trigger.Trigger(ctx)
}
