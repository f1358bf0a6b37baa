package model

import "time"

// RentalSnapshot is an append-only audit record: availability of a book
// observed right after a successful rent. Never updated or deleted.
type RentalSnapshot struct {
	ID                 int64     `db:"id" json:"id"`
	BookID             string    `db:"book_id" json:"book_id"`
	UserID             string    `db:"user_id" json:"user_id"`
	RentedAt           time.Time `db:"rented_at" json:"rented_at"`
	AvailabilityAtRent int64     `db:"availability_at_rent" json:"availability_at_rent"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}
