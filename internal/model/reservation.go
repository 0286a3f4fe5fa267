package model

import "time"

// ReservationStatus is the fixed lifecycle of a restaurant reservation.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "en_attente"
	StatusConfirmed ReservationStatus = "confirmee"
	StatusCancelled ReservationStatus = "annulee"
)

// Valid reports whether s is one of the known statuses.
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether the client may move a reservation from s to to.
// A cancelled reservation is terminal.
func (s ReservationStatus) CanTransition(to ReservationStatus) bool {
	if !to.Valid() || s == StatusCancelled {
		return false
	}
	return s != to
}

// Reservation is a restaurant booking.
type Reservation struct {
	Ref
	Restaurant      string            `json:"restaurant" validate:"required"`
	Touriste        string            `json:"touriste,omitempty"`
	Date            string            `json:"date" validate:"required,datetime=2006-01-02"`
	Heure           string            `json:"heure" validate:"required,datetime=15:04"`
	NombrePersonnes int               `json:"nombrePersonnes" validate:"required,min=1,max=50"`
	Statut          ReservationStatus `json:"statut,omitempty" validate:"omitempty,oneof=en_attente confirmee annulee"`
	Commentaire     string            `json:"commentaire,omitempty"`
	CreatedAt       *time.Time        `json:"createdAt,omitempty"`
}

// AvailabilityQuery asks whether a slot could be booked. It never holds the slot.
type AvailabilityQuery struct {
	Restaurant      string `json:"restaurant" validate:"required"`
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	Heure           string `json:"heure" validate:"required,datetime=15:04"`
	Touriste        string `json:"touriste,omitempty"`
	NombrePersonnes int    `json:"nombrePersonnes" validate:"required,min=1,max=50"`
}

// Availability is the answer to an AvailabilityQuery.
type Availability struct {
	Available bool   `json:"available"`
	Message   string `json:"message,omitempty"`
}
