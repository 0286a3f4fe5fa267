package api

import (
	"context"
	"fmt"

	"github.com/and161185/ecotour/internal/errs"
	"github.com/and161185/ecotour/internal/httpclient"
	"github.com/and161185/ecotour/internal/model"
	"github.com/and161185/ecotour/internal/validate"
)

// Reservations is the restaurant booking client.
type Reservations struct {
	c *httpclient.Client
}

// Create books a slot. It does not check availability first.
func (r *Reservations) Create(ctx context.Context, in *model.Reservation) (*model.Reservation, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	var out model.Reservation
	if err := r.c.Post(ctx, "/reservation-restaurant", in, &out, httpclient.RequireAuth()); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListByTourist returns the reservations of the tourist identified by uri.
func (r *Reservations) ListByTourist(ctx context.Context, uri string) ([]model.Reservation, error) {
	if uri == "" {
		return nil, errs.NewValidation("touriste", "required")
	}
	var out []model.Reservation
	p := "/reservations-restaurant/touriste/" + httpclient.PathSegment(uri)
	if err := r.c.Get(ctx, p, &out, httpclient.RequireAuth()); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Reservation{}
	}
	return out, nil
}

// UpdateStatus sets the status of the reservation identified by uri.
// It does not check the transition; see Transition.
func (r *Reservations) UpdateStatus(ctx context.Context, uri string, status model.ReservationStatus) error {
	if uri == "" {
		return errs.NewValidation("uri", "required")
	}
	if !status.Valid() {
		return errs.NewValidation("statut", "oneof")
	}
	body := map[string]model.ReservationStatus{"statut": status}
	p := "/reservation-restaurant/" + httpclient.PathSegment(uri) + "/status"
	return r.c.Put(ctx, p, body, nil, httpclient.RequireAuth())
}

// Transition moves res to status if the lifecycle allows it and records the
// new status on res once the backend accepts it.
func (r *Reservations) Transition(ctx context.Context, res *model.Reservation, to model.ReservationStatus) error {
	from := res.Statut
	if from == "" {
		from = model.StatusPending
	}
	if !from.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", errs.ErrInvalidTransition, from, to)
	}
	if err := r.UpdateStatus(ctx, res.Key(), to); err != nil {
		return err
	}
	res.Statut = to
	return nil
}

// Cancel moves res to annulee. There is no way back.
func (r *Reservations) Cancel(ctx context.Context, res *model.Reservation) error {
	return r.Transition(ctx, res, model.StatusCancelled)
}

// CheckAvailability asks whether q could be booked now. It is a pure read and
// holds nothing; the answer may be stale by the time Create runs.
func (r *Reservations) CheckAvailability(ctx context.Context, q model.AvailabilityQuery) (*model.Availability, error) {
	if err := validate.Struct(&q); err != nil {
		return nil, err
	}
	var out model.Availability
	if err := r.c.Post(ctx, "/reservation-restaurant/check-availability", &q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
