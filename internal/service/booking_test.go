package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/and161185/ecotour/internal/errs"
	"github.com/and161185/ecotour/internal/model"
)

type fakeReservations struct {
	avail    []model.Availability // consumed one per check
	availErr error
	checks   []model.AvailabilityQuery

	createIn  []*model.Reservation
	createErr error
}

var _ ReservationBackend = (*fakeReservations)(nil)

func (f *fakeReservations) CheckAvailability(_ context.Context, q model.AvailabilityQuery) (*model.Availability, error) {
	f.checks = append(f.checks, q)
	if f.availErr != nil {
		return nil, f.availErr
	}
	a := f.avail[0]
	if len(f.avail) > 1 {
		f.avail = f.avail[1:]
	}
	return &a, nil
}

func (f *fakeReservations) Create(_ context.Context, in *model.Reservation) (*model.Reservation, error) {
	cp := *in
	f.createIn = append(f.createIn, &cp)
	if f.createErr != nil {
		return nil, f.createErr
	}
	cp.URI = "urn:res:1"
	return &cp, nil
}

func form() model.Reservation {
	return model.Reservation{
		Restaurant:      "http://eco.org/onto#Restaurant/3",
		Touriste:        "http://eco.org/onto#Touriste/1",
		Date:            "2024-07-14",
		Heure:           "20:00",
		NombrePersonnes: 4,
	}
}

func TestSubmit_UnavailableNeedsExplicitRetry(t *testing.T) {
	t.Parallel()

	f := &fakeReservations{avail: []model.Availability{
		{Available: false, Message: "slot taken"},
		{Available: true},
	}}
	b := NewBooking(f)
	ctx := context.Background()

	_, err := b.Submit(ctx, form())
	require.ErrorIs(t, err, errs.ErrSlotUnavailable)
	assert.Equal(t, "slot taken", errs.UserMessage(err))
	assert.Empty(t, f.createIn, "no create without a second explicit submit")
	require.Len(t, f.checks, 1)
	assert.Equal(t, 4, f.checks[0].NombrePersonnes)

	got, err := b.Submit(ctx, form())
	require.NoError(t, err)
	assert.Equal(t, "urn:res:1", got.Key())
	assert.Len(t, f.checks, 2, "second submit re-checks")
	require.Len(t, f.createIn, 1)
	assert.Equal(t, model.StatusPending, f.createIn[0].Statut)
}

func TestSubmit_ValidationBeforeNetwork(t *testing.T) {
	t.Parallel()

	f := &fakeReservations{avail: []model.Availability{{Available: true}}}
	b := NewBooking(f)

	r := form()
	r.Date = ""
	r.NombrePersonnes = 0
	_, err := b.Submit(context.Background(), r)
	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Fields, 2)
	assert.Empty(t, f.checks)
	assert.Empty(t, f.createIn)
}

func TestSubmit_PropagatesErrors(t *testing.T) {
	t.Parallel()

	f := &fakeReservations{availErr: &errs.RequestError{Status: 0}}
	_, err := NewBooking(f).Submit(context.Background(), form())
	require.ErrorIs(t, err, errs.ErrNetwork)
	assert.Empty(t, f.createIn)

	f = &fakeReservations{avail: []model.Availability{{Available: true}}, createErr: &errs.RequestError{Status: 409, Message: "Créneau déjà réservé"}}
	_, err = NewBooking(f).Submit(context.Background(), form())
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
	assert.Equal(t, "Créneau déjà réservé", errs.UserMessage(err))
}
