package rental

import (
	"context"

	"booklend/model"
)

// Reader is the read-only store access the validator needs. Absent rows
// come back as nil, nil.
type Reader interface {
	BookByID(ctx context.Context, bookID string) (*model.Book, error)
	RentalByID(ctx context.Context, rentalID string) (*model.Rental, error)
}

// Validator holds the pure rent/return decision checks. None of them
// mutate anything; availability here is advisory fast-fail only. The
// authoritative guard is the conditional decrement inside the rent
// transaction, because a check-then-act sequence alone is not race-free.
type Validator struct {
	r Reader
}

func NewValidator(r Reader) *Validator { return &Validator{r: r} }

func (v *Validator) CheckBookAvailable(ctx context.Context, bookID string) (*model.Book, error) {
	book, err := v.r.BookByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, makeErr(ErrBookNotFound)
	}
	if book.AvailableQuantity <= 0 {
		return nil, makeErr(ErrNoStock)
	}
	return book, nil
}

func (v *Validator) CheckRentalExists(ctx context.Context, rentalID string) (*model.Rental, error) {
	rental, err := v.r.RentalByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if rental == nil {
		return nil, makeErr(ErrRentalNotFound)
	}
	return rental, nil
}

// CheckOwnership must run before CheckReturnable so a non-owner never
// learns whether the loan is already returned.
func (v *Validator) CheckOwnership(rental *model.Rental, callerID string) error {
	if rental.UserID != callerID {
		return makeErr(ErrNotOwner)
	}
	return nil
}

func (v *Validator) CheckReturnable(rental *model.Rental) error {
	if rental.Status == model.RentalReturned {
		return makeErr(ErrAlreadyReturned)
	}
	return nil
}
