package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"agenda/backend/internal/domain"
	"agenda/backend/internal/notify"
	"agenda/backend/internal/store"
)

// Service runs the booking transaction: a fixed gate sequence of presence,
// window, horizon and conflict checks, then reference resolution and the
// persistence write. No write happens until every gate has passed; the
// post-commit notification is best-effort and never fails the operation.
type Service struct {
	repo     store.BookingRepository
	notifier notify.Publisher
	log      *slog.Logger
	now      func() time.Time
}

func NewService(repo store.BookingRepository, notifier notify.Publisher, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		log:      log.With(slog.String("component", "booking.service")),
		now:      time.Now,
	}
}

type CreateInput struct {
	Kind      domain.BookingKind
	OwnerID   uuid.UUID
	ClientID  *uuid.UUID
	StartTime string
	EndTime   string
	Date      domain.CalendarDate
	Status    *bool
	// Default creates a schedule availability template: no date, no horizon
	// check, immutable afterwards. Ignored for quotes.
	Default    bool
	ProductIDs []uuid.UUID
}

func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Booking, []domain.Product, error) {
	isDefault := in.Default && in.Kind == domain.BookingKindSchedule

	if missing := missingCreateFields(in, isDefault); len(missing) > 0 {
		return domain.Booking{}, nil, &MissingFieldsError{Fields: missing}
	}
	if err := ValidateWindowOrdering(in.StartTime, in.EndTime); err != nil {
		return domain.Booking{}, nil, err
	}
	if err := ValidateWindowGranularity(in.StartTime, in.EndTime); err != nil {
		return domain.Booking{}, nil, err
	}
	if err := ValidateDateHorizon(in.Date, isDefault, s.now()); err != nil {
		return domain.Booking{}, nil, err
	}

	status := true
	if in.Status != nil {
		status = *in.Status
	}

	b := domain.Booking{
		Kind:      in.Kind,
		OwnerID:   in.OwnerID,
		ClientID:  in.ClientID,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Status:    status,
		Default:   isDefault,
	}
	if !isDefault {
		b.Day = in.Date.Day
		b.Month = in.Date.Month
		b.Year = in.Date.Year
	}

	var created domain.Booking
	var products []domain.Product
	err := s.repo.InOwnerTransaction(ctx, in.OwnerID, lockClient(b), func(ctx context.Context, tx store.BookingTx) error {
		if !isDefault {
			if err := s.ensureNoConflict(ctx, tx, b, uuid.Nil); err != nil {
				return err
			}
		}

		var err error
		products, err = resolveReferences(ctx, tx, b, in.ProductIDs)
		if err != nil {
			return err
		}

		created, err = tx.InsertBooking(ctx, b, in.ProductIDs)
		return err
	})
	if err != nil {
		return domain.Booking{}, nil, err
	}

	s.publishList(ctx, created.Kind, created.OwnerID)
	return created, products, nil
}

type UpdateInput struct {
	StartTime *string
	EndTime   *string
	Day       *int
	Month     *int
	Year      *int
	Status    *bool
	OwnerID   *uuid.UUID
	ClientID  *uuid.UUID
	// ProductIDs replaces the quote's product association; nil keeps it.
	ProductIDs []uuid.UUID
}

func (in UpdateInput) empty() bool {
	return in.StartTime == nil && in.EndTime == nil &&
		in.Day == nil && in.Month == nil && in.Year == nil &&
		in.Status == nil && in.OwnerID == nil && in.ClientID == nil &&
		in.ProductIDs == nil
}

func (s *Service) Update(ctx context.Context, kind domain.BookingKind, id uuid.UUID, in UpdateInput) (domain.Booking, []domain.Product, error) {
	if in.empty() {
		return domain.Booking{}, nil, &MissingFieldsError{
			Fields: []string{"startTime", "endTime", "day", "month", "year", "status", "ownerId", "clientId", "products"},
			AnyOf:  true,
		}
	}
	// Quotes always carry at least one product; an explicit empty list would
	// strip the association entirely.
	if kind == domain.BookingKindQuote && in.ProductIDs != nil && len(in.ProductIDs) == 0 {
		return domain.Booking{}, nil, &MissingFieldsError{Fields: []string{"products"}}
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Booking{}, nil, err
	}
	if current.Kind != kind {
		return domain.Booking{}, nil, store.ErrNotFound
	}
	if current.Default {
		return domain.Booking{}, nil, ErrImmutableDefault
	}

	merged := mergeUpdate(current, in)

	if err := ValidateWindowOrdering(merged.StartTime, merged.EndTime); err != nil {
		return domain.Booking{}, nil, err
	}
	if err := ValidateWindowGranularity(merged.StartTime, merged.EndTime); err != nil {
		return domain.Booking{}, nil, err
	}
	if err := ValidateDateHorizon(merged.Date(), false, s.now()); err != nil {
		return domain.Booking{}, nil, err
	}

	var updated domain.Booking
	var products []domain.Product
	err = s.repo.InOwnerTransaction(ctx, merged.OwnerID, lockClient(merged), func(ctx context.Context, tx store.BookingTx) error {
		// Re-read and re-merge under the owner lock; the unlocked pass above
		// is only a fast fail. A commit between the two reads can change the
		// stored window or date, so every gate runs again on the fresh merge.
		fresh, err := tx.FindBooking(ctx, id)
		if err != nil {
			return err
		}
		merged = mergeUpdate(fresh, in)

		if err := ValidateWindowOrdering(merged.StartTime, merged.EndTime); err != nil {
			return err
		}
		if err := ValidateWindowGranularity(merged.StartTime, merged.EndTime); err != nil {
			return err
		}
		if err := ValidateDateHorizon(merged.Date(), false, s.now()); err != nil {
			return err
		}

		if err := s.ensureNoConflict(ctx, tx, merged, id); err != nil {
			return err
		}

		products, err = resolveReferences(ctx, tx, merged, in.ProductIDs)
		if err != nil {
			return err
		}
		if products == nil && merged.Kind == domain.BookingKindQuote {
			products, err = tx.FindBookingProducts(ctx, id)
			if err != nil {
				return err
			}
		}

		updated, err = tx.UpdateBooking(ctx, merged, in.ProductIDs)
		return err
	})
	if err != nil {
		return domain.Booking{}, nil, err
	}

	s.publishList(ctx, updated.Kind, updated.OwnerID)
	return updated, products, nil
}

func (s *Service) Delete(ctx context.Context, kind domain.BookingKind, id uuid.UUID) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Kind != kind {
		return store.ErrNotFound
	}
	if current.Default {
		return ErrImmutableDefault
	}

	err = s.repo.InOwnerTransaction(ctx, current.OwnerID, lockClient(current), func(ctx context.Context, tx store.BookingTx) error {
		return tx.DeleteBooking(ctx, id)
	})
	if err != nil {
		return err
	}

	s.publishList(ctx, current.Kind, current.OwnerID)
	return nil
}

func (s *Service) List(ctx context.Context, kind domain.BookingKind, ownerID uuid.UUID) ([]domain.Booking, error) {
	if ownerID == uuid.Nil {
		return nil, &MissingFieldsError{Fields: []string{"ownerId"}}
	}
	return s.repo.List(ctx, kind, ownerID)
}

// lockClient picks the second serialization key: quote conflicts span the
// client's calendar too, so the client named by a quote is locked alongside
// the owner.
func lockClient(b domain.Booking) *uuid.UUID {
	if b.Kind == domain.BookingKindQuote {
		return b.ClientID
	}
	return nil
}

// ensureNoConflict fetches the comparison set for b's owner scope and date
// and rejects on the first half-open interval collision.
func (s *Service) ensureNoConflict(ctx context.Context, tx store.BookingTx, b domain.Booking, exclude uuid.UUID) error {
	var clientID *uuid.UUID
	if b.Kind == domain.BookingKindQuote {
		clientID = b.ClientID
	}

	existing, err := tx.ListActiveBookings(ctx, b.Kind, b.OwnerID, clientID, b.Date(), exclude)
	if err != nil {
		return err
	}

	candidate, err := b.Window()
	if err != nil {
		return windowError(err.Error())
	}

	windows := make([]domain.TimeWindow, 0, len(existing))
	for _, e := range existing {
		w, err := e.Window()
		if err != nil {
			return err
		}
		windows = append(windows, w)
	}

	if domain.HasConflict(candidate, windows) {
		return &ConflictError{Window: candidate, Date: b.Date()}
	}
	return nil
}

// resolveReferences looks up the owner, the client when set, and the product
// ids when given, converting any miss into a ReferenceNotFoundError. For
// quotes with productIDs it returns the resolved products.
func resolveReferences(ctx context.Context, tx store.BookingTx, b domain.Booking, productIDs []uuid.UUID) ([]domain.Product, error) {
	if _, err := tx.FindOwner(ctx, b.OwnerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &ReferenceNotFoundError{Kind: "owner", ID: b.OwnerID}
		}
		return nil, err
	}

	if b.ClientID != nil {
		if _, err := tx.FindClient(ctx, *b.ClientID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, &ReferenceNotFoundError{Kind: "client", ID: *b.ClientID}
			}
			return nil, err
		}
	}

	if productIDs == nil {
		return nil, nil
	}

	products, err := tx.FindProducts(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	if len(products) != len(productIDs) {
		found := make(map[uuid.UUID]struct{}, len(products))
		for _, p := range products {
			found[p.ID] = struct{}{}
		}
		for _, id := range productIDs {
			if _, ok := found[id]; !ok {
				return nil, &ReferenceNotFoundError{Kind: "product", ID: id}
			}
		}
	}
	return products, nil
}

func (s *Service) publishList(ctx context.Context, kind domain.BookingKind, ownerID uuid.UUID) {
	if s.notifier == nil {
		return
	}
	list, err := s.repo.List(ctx, kind, ownerID)
	if err != nil {
		s.log.Warn("booking list fetch for notification failed",
			slog.Any("err", err),
			slog.String("kind", string(kind)),
			slog.String("owner_id", ownerID.String()),
		)
		return
	}
	topic := string(kind) + "s:" + ownerID.String()
	if err := s.notifier.Publish(ctx, topic, list); err != nil {
		s.log.Warn("booking list publish failed",
			slog.Any("err", err),
			slog.String("topic", topic),
		)
	}
}

func missingCreateFields(in CreateInput, isDefault bool) []string {
	var missing []string
	if in.StartTime == "" {
		missing = append(missing, "startTime")
	}
	if in.EndTime == "" {
		missing = append(missing, "endTime")
	}
	if in.OwnerID == uuid.Nil {
		missing = append(missing, "ownerId")
	}
	if !isDefault {
		if in.Date.Day == 0 {
			missing = append(missing, "day")
		}
		if in.Date.Month == 0 {
			missing = append(missing, "month")
		}
		if in.Date.Year == 0 {
			missing = append(missing, "year")
		}
	}
	if in.Kind == domain.BookingKindQuote && len(in.ProductIDs) == 0 {
		missing = append(missing, "products")
	}
	return missing
}

func mergeUpdate(current domain.Booking, in UpdateInput) domain.Booking {
	merged := current
	if in.StartTime != nil {
		merged.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		merged.EndTime = *in.EndTime
	}
	if in.Day != nil {
		merged.Day = *in.Day
	}
	if in.Month != nil {
		merged.Month = *in.Month
	}
	if in.Year != nil {
		merged.Year = *in.Year
	}
	if in.Status != nil {
		merged.Status = *in.Status
	}
	if in.OwnerID != nil {
		merged.OwnerID = *in.OwnerID
	}
	if in.ClientID != nil {
		merged.ClientID = in.ClientID
	}
	return merged
}
