package service

import (
	"context"
	"fmt"

	"github.com/fredcarvalho/notafiscal/internal/domain/fiscal"
	"github.com/google/uuid"
)

// Reservation is one minted fiscal number. It is never returned to the
// pool: an emission that fails after reserving leaves a gap, which is
// legal, while a repeated number is not.
type Reservation struct {
	Serial string
	Number int64
	Lot    int64
}

// SequenceService is the only mutation path to a profile's RPS counter.
type SequenceService struct {
	profileRepo fiscal.ProfileRepository
	txManager   TransactionManager
}

// NewSequenceService creates a new SequenceService.
func NewSequenceService(profileRepo fiscal.ProfileRepository, txManager TransactionManager) *SequenceService {
	return &SequenceService{
		profileRepo: profileRepo,
		txManager:   txManager,
	}
}

// Next reserves the profile's next fiscal number. The row lock spans the
// read-modify-write, so two concurrent emissions for the same seller
// serialize rather than both observing the same counter value.
func (s *SequenceService) Next(ctx context.Context, profileID uuid.UUID) (*Reservation, error) {
	var res *Reservation

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		profile, err := s.profileRepo.Lock(txCtx, profileID)
		if err != nil {
			return fmt.Errorf("lock profile: %w", err)
		}

		reserved := profile.CurrentNumber
		if err := s.profileRepo.SetCurrentNumber(txCtx, profileID, reserved+1); err != nil {
			return fmt.Errorf("advance counter: %w", err)
		}

		res = &Reservation{
			Serial: profile.SerialLabel,
			Number: reserved,
			Lot:    profile.LotNumber,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// AdvanceLot bumps the profile's lot counter and returns the new value.
func (s *SequenceService) AdvanceLot(ctx context.Context, profileID uuid.UUID) (int64, error) {
	var lot int64

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		profile, err := s.profileRepo.Lock(txCtx, profileID)
		if err != nil {
			return fmt.Errorf("lock profile: %w", err)
		}
		lot = profile.LotNumber + 1
		return s.profileRepo.SetLotNumber(txCtx, profileID, lot)
	})
	if err != nil {
		return 0, err
	}
	return lot, nil
}
