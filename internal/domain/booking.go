package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type BookingKind string

const (
	// BookingKindQuote is an appointment between an owner and a client for
	// one or more products.
	BookingKindQuote BookingKind = "quote"
	// BookingKindSchedule is a personal working block on a concrete date,
	// or the owner's standing availability template when Default is set.
	BookingKindSchedule BookingKind = "schedule"
)

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	ID        uuid.UUID   `bun:"id,pk,type:uuid" json:"id"`
	Kind      BookingKind `bun:"kind,notnull" json:"kind"`
	OwnerID   uuid.UUID   `bun:"owner_id,notnull,type:uuid" json:"ownerId"`
	ClientID  *uuid.UUID  `bun:"client_id,type:uuid" json:"clientId,omitempty"`
	StartTime string      `bun:"start_time,notnull" json:"startTime"`
	EndTime   string      `bun:"end_time,notnull" json:"endTime"`
	Day       int         `bun:"day,nullzero" json:"day,omitempty"`
	Month     int         `bun:"month,nullzero" json:"month,omitempty"`
	Year      int         `bun:"year,nullzero" json:"year,omitempty"`
	Status    bool        `bun:"status,notnull" json:"status"`
	Default   bool        `bun:"is_default,notnull" json:"default"`
	CreatedAt time.Time   `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt time.Time   `bun:"updated_at,notnull" json:"updatedAt"`
}

// Window rebuilds the comparison value from the stored boundary strings.
func (b *Booking) Window() (TimeWindow, error) {
	return NewTimeWindow(b.StartTime, b.EndTime)
}

func (b *Booking) Date() CalendarDate {
	return CalendarDate{Year: b.Year, Month: b.Month, Day: b.Day}
}

func (b *Booking) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if b.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			b.ID = id
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}
		if b.UpdatedAt.IsZero() {
			b.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		b.UpdatedAt = now
	}
	return nil
}

// Owner is the user a booking's conflict scope is anchored to.
type Owner struct {
	bun.BaseModel `bun:"table:owners"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Email     string    `bun:"email,notnull,unique" json:"email"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

func (o *Owner) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if o.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			o.ID = id
		}
		if o.CreatedAt.IsZero() {
			o.CreatedAt = now
		}
		if o.UpdatedAt.IsZero() {
			o.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		o.UpdatedAt = now
	}
	return nil
}

type Client struct {
	bun.BaseModel `bun:"table:clients"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Phone     string    `bun:"phone" json:"phone,omitempty"`
	Comments  string    `bun:"comments" json:"comments,omitempty"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

func (c *Client) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if c.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			c.ID = id
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		if c.UpdatedAt.IsZero() {
			c.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		c.UpdatedAt = now
	}
	return nil
}

type Product struct {
	bun.BaseModel `bun:"table:products"`

	ID              uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Name            string    `bun:"name,notnull" json:"name"`
	DurationMinutes int       `bun:"duration_minutes,notnull" json:"durationMinutes"`
	Price           int       `bun:"price,notnull" json:"price"`
}

// BookingProduct links a quote to the products it covers.
type BookingProduct struct {
	bun.BaseModel `bun:"table:booking_products"`

	BookingID uuid.UUID `bun:"booking_id,pk,type:uuid" json:"bookingId"`
	ProductID uuid.UUID `bun:"product_id,pk,type:uuid" json:"productId"`
}
