package rental

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"booklend/event"
	"booklend/model"
	rrepo "booklend/repository/rental"
)

// row shapes come from the repository
type (
	HistoryRow = rrepo.HistoryRow
	AdminRow   = rrepo.AdminRow
)

type Repo interface {
	Reader
	InTx(ctx context.Context, fn func(tx rrepo.Tx) error) error
	ListByUser(ctx context.Context, userID string) ([]HistoryRow, error)
	ListAll(ctx context.Context) ([]AdminRow, error)
}

type Service interface {
	// Rent: decrement availability and create a RENTED loan as one
	// transaction, then announce it.
	Rent(ctx context.Context, userID, bookID string) (*model.Rental, error)

	// Return: mark the caller's RENTED loan RETURNED and free the copy.
	Return(ctx context.Context, userID, rentalID string) (*model.Rental, error)

	MyRentals(ctx context.Context, userID string) ([]HistoryRow, error)
	AllRentals(ctx context.Context) ([]AdminRow, error)
}

// ----- Service implementation -----

type service struct {
	r   Repo
	v   *Validator
	pub event.Publisher
	log *slog.Logger
	now func() time.Time
}

func New(r Repo, pub event.Publisher, log *slog.Logger) Service {
	return &service{
		r:   r,
		v:   NewValidator(r),
		pub: pub,
		log: log,
		now: time.Now,
	}
}

func (s *service) Rent(ctx context.Context, userID, bookID string) (*model.Rental, error) {
	// advisory fast-fail; the decrement below re-checks atomically
	if _, err := s.v.CheckBookAvailable(ctx, bookID); err != nil {
		return nil, err
	}

	rental := &model.Rental{
		ID:       uuid.NewString(),
		BookID:   bookID,
		UserID:   userID,
		Status:   model.RentalRented,
		RentedAt: s.now().UTC(),
	}

	err := s.r.InTx(ctx, func(tx rrepo.Tx) error {
		ok, err := tx.DecrementIfAvailable(ctx, bookID)
		if err != nil {
			return err
		}
		if !ok {
			// lost the race to a concurrent rental: same outcome a
			// fresh availability check would have produced
			return makeErr(ErrNoStock)
		}
		return tx.InsertRental(ctx, rental)
	})
	if err != nil {
		return nil, err
	}

	// Emitted only after the transaction committed. Fire-and-forget: a
	// publish failure is an observability gap, not a rent failure.
	evt := event.BookRented{BookID: bookID, UserID: userID, RentedAt: rental.RentedAt}
	if err := s.pub.Publish(ctx, event.BookRentedName, evt); err != nil {
		s.log.Error("publish book.rented failed", "err", err, "rental_id", rental.ID)
	}

	return rental, nil
}

func (s *service) Return(ctx context.Context, userID, rentalID string) (*model.Rental, error) {
	// advisory; the locked re-read inside the transaction decides
	if _, err := s.v.CheckRentalExists(ctx, rentalID); err != nil {
		return nil, err
	}

	var out *model.Rental
	err := s.r.InTx(ctx, func(tx rrepo.Tx) error {
		rental, err := tx.RentalForUpdate(ctx, rentalID)
		if err != nil {
			return err
		}
		if rental == nil {
			return makeErr(ErrRentalNotFound)
		}
		if err := s.v.CheckOwnership(rental, userID); err != nil {
			return err
		}
		if err := s.v.CheckReturnable(rental); err != nil {
			return err
		}

		at := s.now().UTC()
		ok, err := tx.MarkReturned(ctx, rentalID, at)
		if err != nil {
			return err
		}
		if !ok {
			// a concurrent return got there first
			return makeErr(ErrAlreadyReturned)
		}
		if err := tx.IncrementAvailability(ctx, rental.BookID); err != nil {
			return err
		}

		rental.Status = model.RentalReturned
		rental.ReturnedAt = &at
		out = rental
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) MyRentals(ctx context.Context, userID string) ([]HistoryRow, error) {
	return s.r.ListByUser(ctx, userID)
}

func (s *service) AllRentals(ctx context.Context) ([]AdminRow, error) {
	return s.r.ListAll(ctx)
}
