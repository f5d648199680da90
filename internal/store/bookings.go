package store

import (
	"context"

	"github.com/google/uuid"

	"agenda/backend/internal/domain"
)

// BookingRepository is the persistence collaborator for booking transactions.
// InOwnerTransaction serializes the whole check-then-act sequence for one
// owner, and for the client too when clientID is set, so two concurrent
// requests touching either calendar cannot both pass their conflict check
// and commit colliding windows.
type BookingRepository interface {
	List(ctx context.Context, kind domain.BookingKind, ownerID uuid.UUID) ([]domain.Booking, error)
	FindByID(ctx context.Context, id uuid.UUID) (domain.Booking, error)
	InOwnerTransaction(ctx context.Context, ownerID uuid.UUID, clientID *uuid.UUID, fn func(ctx context.Context, tx BookingTx) error) error
}

// BookingTx exposes the reads and writes available inside a serialized
// per-owner transaction. ListActiveBookings returns the comparison set for
// conflict detection: same kind, same date, active, non-template rows owned
// by ownerID or (when clientID is set) booked for the same client; exclude
// drops the booking being updated from the set.
type BookingTx interface {
	ListActiveBookings(ctx context.Context, kind domain.BookingKind, ownerID uuid.UUID, clientID *uuid.UUID, date domain.CalendarDate, exclude uuid.UUID) ([]domain.Booking, error)
	FindBooking(ctx context.Context, id uuid.UUID) (domain.Booking, error)
	InsertBooking(ctx context.Context, b domain.Booking, productIDs []uuid.UUID) (domain.Booking, error)
	UpdateBooking(ctx context.Context, b domain.Booking, productIDs []uuid.UUID) (domain.Booking, error)
	DeleteBooking(ctx context.Context, id uuid.UUID) error

	FindOwner(ctx context.Context, id uuid.UUID) (domain.Owner, error)
	FindClient(ctx context.Context, id uuid.UUID) (domain.Client, error)
	FindProducts(ctx context.Context, ids []uuid.UUID) ([]domain.Product, error)
	FindBookingProducts(ctx context.Context, bookingID uuid.UUID) ([]domain.Product, error)
}
