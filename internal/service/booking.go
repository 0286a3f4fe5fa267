// Package service holds client-side flows that combine several API calls.
package service

import (
	"context"

	"github.com/and161185/ecotour/internal/api"
	"github.com/and161185/ecotour/internal/errs"
	"github.com/and161185/ecotour/internal/model"
	"github.com/and161185/ecotour/internal/validate"
)

// ReservationBackend is the subset of the reservation client used by Booking.
type ReservationBackend interface {
	CheckAvailability(ctx context.Context, q model.AvailabilityQuery) (*model.Availability, error)
	Create(ctx context.Context, in *model.Reservation) (*model.Reservation, error)
}

var _ ReservationBackend = (*api.Reservations)(nil)

// Booking submits restaurant reservations.
type Booking struct {
	backend ReservationBackend
}

// NewBooking constructs a Booking over backend.
func NewBooking(backend ReservationBackend) *Booking {
	return &Booking{backend: backend}
}

// Submit validates r, checks the slot and books it.
// Flow:
// - invalid fields: *errs.ValidationError, nothing sent
// - slot refused: *errs.UnavailableError, nothing created
// - slot free: the created reservation
// Each call re-checks availability; nothing is retried. The check and the
// create are separate requests, so a 409 from create (errs.ErrAlreadyExists)
// is still possible and is returned as is.
func (b *Booking) Submit(ctx context.Context, r model.Reservation) (*model.Reservation, error) {
	if err := validate.Struct(&r); err != nil {
		return nil, err
	}
	if r.Statut == "" {
		r.Statut = model.StatusPending
	}

	av, err := b.backend.CheckAvailability(ctx, model.AvailabilityQuery{
		Restaurant:      r.Restaurant,
		Date:            r.Date,
		Heure:           r.Heure,
		Touriste:        r.Touriste,
		NombrePersonnes: r.NombrePersonnes,
	})
	if err != nil {
		return nil, err
	}
	if !av.Available {
		return nil, &errs.UnavailableError{Reason: av.Message}
	}
	return b.backend.Create(ctx, &r)
}
