package notify

import (
	"context"

	"agenda/backend/internal/domain"
)

// Publisher fans the refreshed booking list for an owner out to subscribers
// after a commit. It is best-effort: failures are logged by the caller and
// never affect the transaction's reported outcome.
type Publisher interface {
	Publish(ctx context.Context, topic string, bookings []domain.Booking) error
}
