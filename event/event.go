// Package event carries the in-process domain event plumbing. Publishing
// is an injected capability, not a process-wide emitter: the rental engine
// holds a Publisher, consumers register on the Bus at startup.
package event

import "time"

const BookRentedName = "book.rented"

// BookRented is raised after a rent transaction has committed.
type BookRented struct {
	BookID   string    `json:"book_id"`
	UserID   string    `json:"user_id"`
	RentedAt time.Time `json:"rented_at"`
}

// Envelope is what subscribers receive. The payload stays JSON so
// consumers only couple to the event name and their own payload type.
type Envelope struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    []byte    `json:"payload"`
}
