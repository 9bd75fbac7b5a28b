package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cargolink/notification-service/internal/usecases/composer"
)

// EntityReader reads the offer/booking slices the text builder enriches
// messages with. The tables are owned by the marketplace services; this repo
// only reads them.
type EntityReader struct {
	db *pgxpool.Pool
}

func NewEntityReader(db *pgxpool.Pool) *EntityReader {
	return &EntityReader{db: db}
}

// GetOfferSummary implements composer.OfferReader.
func (r *EntityReader) GetOfferSummary(ctx context.Context, offerID int64) (*composer.OfferSummary, error) {
	query := `
		SELECT o.id, COALESCE(p.company_name, 'A provider'), o.price, o.currency
		FROM offers o
		LEFT JOIN providers p ON p.id = o.provider_id
		WHERE o.id = $1
	`

	var s composer.OfferSummary
	err := r.db.QueryRow(ctx, query, offerID).Scan(&s.ID, &s.ProviderName, &s.Price, &s.Currency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading offer summary: %w", err)
	}
	return &s, nil
}

// GetBookingSummary implements composer.BookingReader.
func (r *EntityReader) GetBookingSummary(ctx context.Context, bookingID int64) (*composer.BookingSummary, error) {
	query := `
		SELECT id, pickup_address, dropoff_address, transport_kind
		FROM bookings
		WHERE id = $1
	`

	var s composer.BookingSummary
	err := r.db.QueryRow(ctx, query, bookingID).Scan(&s.ID, &s.PickupAddress, &s.DropoffAddress, &s.TransportKind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading booking summary: %w", err)
	}
	return &s, nil
}
