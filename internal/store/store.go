// Package store fetches the documents a liquidation needs: the pensioner, its
// itemized payments, and the historical and causante snapshots keyed by
// document number.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rgehrsitz/mesada/internal/domain"
	"golang.org/x/sync/errgroup"
)

// ErrNotFound is returned when the pensioner does not exist
var ErrNotFound = errors.New("pensioner not found")

// Store is the read side of the document store
type Store interface {
	Pensioner(ctx context.Context, id string) (domain.Pensioner, error)
	Payments(ctx context.Context, id string) ([]domain.PaymentRecord, error)
	HistoricalPayments(ctx context.Context, documentNumber string) ([]domain.HistoricalPayment, error)
	SharingRecords(ctx context.Context, documentNumber string) ([]domain.SharingRecord, error)
}

// Writer stores a whole case, replacing what was there
type Writer interface {
	PutCase(ctx context.Context, c *domain.Case) error
}

// LoadCase fetches the pensioner and then its three collections concurrently
func LoadCase(ctx context.Context, s Store, id string) (*domain.Case, error) {
	pensioner, err := s.Pensioner(ctx, id)
	if err != nil {
		return nil, err
	}

	c := &domain.Case{Pensioner: pensioner}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		payments, err := s.Payments(gCtx, pensioner.ID)
		if err != nil {
			return fmt.Errorf("payments fetch: %w", err)
		}
		c.Payments = payments
		return nil
	})

	g.Go(func() error {
		historical, err := s.HistoricalPayments(gCtx, pensioner.DocumentNumber)
		if err != nil {
			return fmt.Errorf("historical fetch: %w", err)
		}
		c.Historical = historical
		return nil
	})

	g.Go(func() error {
		sharing, err := s.SharingRecords(gCtx, pensioner.DocumentNumber)
		if err != nil {
			return fmt.Errorf("causantes fetch: %w", err)
		}
		c.Sharing = sharing
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return c, nil
}

// Open builds a store from "file:<dir>" or "redis:<addr>". A bare path is a
// file store.
func Open(ctx context.Context, dsn string) (Store, error) {
	kind, target, found := strings.Cut(dsn, ":")
	if !found {
		return NewFileStore(dsn), nil
	}
	switch kind {
	case "file":
		return NewFileStore(target), nil
	case "redis":
		rs, err := DialRedis(ctx, target)
		if err != nil {
			return nil, err
		}
		return rs, nil
	default:
		return nil, fmt.Errorf("unknown store kind %q", kind)
	}
}
