package service

import (
	"context"

	"github.com/portrush/teesheet/internal/domain/entity"
)

// SlotAction is what a booking status change does to inventory.
type SlotAction int

const (
	SlotUnchanged SlotAction = iota
	SlotReserve
	SlotRelease
)

func (a SlotAction) String() string {
	switch a {
	case SlotReserve:
		return "reserve"
	case SlotRelease:
		return "release"
	default:
		return "unchanged"
	}
}

// Transition decides the inventory effect of moving a booking from one
// status to another. Only Confirmed and Booked hold places.
func Transition(from, to entity.BookingStatus) SlotAction {
	switch {
	case !from.ReservesSlot() && to.ReservesSlot():
		return SlotReserve
	case from.ReservesSlot() && !to.ReservesSlot():
		return SlotRelease
	default:
		return SlotUnchanged
	}
}

type SlotInventory interface {
	Decrement(ctx context.Context, key entity.SlotKey, count int) (*entity.TeeTime, error)
	Release(ctx context.Context, key entity.SlotKey, count int) (*entity.TeeTime, error)
}

// BookingService keeps inventory in step with booking status changes made
// by the booking workflow.
type BookingService struct {
	inventory SlotInventory
}

func NewBookingService(inventory SlotInventory) *BookingService {
	return &BookingService{
		inventory: inventory,
	}
}

// ChangeStatus applies the inventory effect of a status change for a party
// of players. The returned tee time is nil when nothing changed.
func (s *BookingService) ChangeStatus(ctx context.Context, key entity.SlotKey, players int, from, to entity.BookingStatus) (*entity.TeeTime, SlotAction, error) {
	action := Transition(from, to)
	var (
		teeTime *entity.TeeTime
		err     error
	)
	switch action {
	case SlotReserve:
		teeTime, err = s.inventory.Decrement(ctx, key, players)
	case SlotRelease:
		teeTime, err = s.inventory.Release(ctx, key, players)
	}
	return teeTime, action, err
}
