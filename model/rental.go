package model

import "time"

type RentalStatus string

const (
	RentalRented   RentalStatus = "RENTED"
	RentalReturned RentalStatus = "RETURNED"
)

// Rental is created RENTED by a successful rent and moves exactly once
// to RETURNED; after that the row is immutable.
type Rental struct {
	ID         string       `db:"id" json:"id"`
	BookID     string       `db:"book_id" json:"book_id"`
	UserID     string       `db:"user_id" json:"user_id"`
	Status     RentalStatus `db:"status" json:"status"`
	RentedAt   time.Time    `db:"rented_at" json:"rented_at"`
	ReturnedAt *time.Time   `db:"returned_at" json:"returned_at,omitempty"`
}
