package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/haulworks/haulbooks-backend/internal/models"
	"github.com/haulworks/haulbooks-backend/internal/storage"
)

// LoadService handles load status transitions
type LoadService struct {
	store storage.Store
	calc  *PayCalculator
}

// NewLoadService creates a new load service
func NewLoadService(store storage.Store, calc *PayCalculator) *LoadService {
	return &LoadService{store: store, calc: calc}
}

// Dispatch moves a created load onto the road.
func (s *LoadService) Dispatch(loadID string, pickupDate time.Time) (*models.Load, error) {
	load, err := s.store.GetLoad(loadID)
	if err != nil {
		return nil, err
	}
	if load.Status != models.LoadStatusCreated {
		return nil, fmt.Errorf("load %s is %s, only created loads can be dispatched", loadID, load.Status)
	}

	load.Status = models.LoadStatusDispatched
	load.PickupDate = &pickupDate
	if err := s.store.UpdateLoad(load); err != nil {
		return nil, err
	}
	return load, nil
}

// MarkDelivered completes a load and snapshots its driver pay. The
// snapshot happens exactly once, here; it is what keeps a delivered
// load's pay stable if the driver's profile changes later.
func (s *LoadService) MarkDelivered(loadID string, deliveryDate time.Time) (*models.Load, error) {
	load, err := s.store.GetLoad(loadID)
	if err != nil {
		return nil, err
	}
	if load.Status == models.LoadStatusDelivered {
		return nil, fmt.Errorf("load %s is already delivered", loadID)
	}

	load.Status = models.LoadStatusDelivered
	load.DeliveryDate = &deliveryDate

	profile, err := s.store.GetDriver(load.DriverID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		profile = nil
	}
	SnapshotDriverPay(load, profile, s.calc)
	if load.StoredDriverPay != nil {
		log.Printf("load: %s delivered, driver pay snapshotted at %s", loadID, load.StoredDriverPay)
	}

	if err := s.store.UpdateLoad(load); err != nil {
		return nil, err
	}
	return load, nil
}
