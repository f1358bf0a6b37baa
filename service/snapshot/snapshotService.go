package snapshot

import (
	"context"
	"log/slog"

	jsoniter "github.com/json-iterator/go"

	"booklend/event"
	"booklend/model"
)

// BookReader fetches the book referenced by a rental event; nil, nil
// when the book no longer exists.
type BookReader interface {
	ByID(ctx context.Context, bookID string) (*model.Book, error)
}

type Store interface {
	Insert(ctx context.Context, s *model.RentalSnapshot) error
}

// Service consumes book.rented events and appends one availability
// snapshot per successful rent. It runs out-of-band: nothing here may
// fail or delay the rent operation, so every problem is logged and
// swallowed.
type Service struct {
	books BookReader
	store Store
	log   *slog.Logger
}

func New(books BookReader, store Store, log *slog.Logger) *Service {
	return &Service{books: books, store: store, log: log}
}

// Register subscribes the service on the bus. Call once during wiring.
func (s *Service) Register(bus *event.Bus) {
	bus.Subscribe(event.BookRentedName, s.HandleBookRented)
}

func (s *Service) HandleBookRented(ctx context.Context, env event.Envelope) {
	var evt event.BookRented
	if err := jsoniter.ConfigFastest.Unmarshal(env.Payload, &evt); err != nil {
		s.log.Error("snapshot: bad book.rented payload", "event_id", env.ID, "err", err)
		return
	}

	book, err := s.books.ByID(ctx, evt.BookID)
	if err != nil {
		s.log.Error("snapshot: fetch book failed", "event_id", env.ID, "book_id", evt.BookID, "err", err)
		return
	}
	if book == nil {
		// book deleted since the rent; audit trail is best-effort
		s.log.Info("snapshot: book gone, skipping", "event_id", env.ID, "book_id", evt.BookID)
		return
	}

	snap := &model.RentalSnapshot{
		BookID:             evt.BookID,
		UserID:             evt.UserID,
		RentedAt:           evt.RentedAt,
		AvailabilityAtRent: book.AvailableQuantity,
	}
	if err := s.store.Insert(ctx, snap); err != nil {
		s.log.Error("snapshot: insert failed", "event_id", env.ID, "book_id", evt.BookID, "err", err)
	}
}
