package collector

import (
	"context"
	"time"
)

// MissingStore is the slice of the store the missing-device sweep uses.
type MissingStore interface {
	SweepUnseenDeployments(ctx context.Context, day time.Time, threshold int) (int64, error)
}

// MissingDeviceService flags deployments that stopped reporting. It
// runs after reconciliation so today's seen-marking has landed; the
// pipeline treats its failure as a warning.
type MissingDeviceService struct {
	store     MissingStore
	afterDays int
}

func NewMissingDeviceService(store MissingStore, afterDays int) *MissingDeviceService {
	if afterDays <= 0 {
		afterDays = 3
	}
	return &MissingDeviceService{store: store, afterDays: afterDays}
}

// Sweep bumps the missing-day counter for every active deployment that
// did not report on day and returns how many rows were touched.
func (s *MissingDeviceService) Sweep(ctx context.Context, day time.Time) (int64, error) {
	return s.store.SweepUnseenDeployments(ctx, day, s.afterDays)
}
