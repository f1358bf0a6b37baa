package rental

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"booklend/event"
	"booklend/model"
	rrepo "booklend/repository/rental"
)

// memRepo implements Repo and rrepo.Tx in memory. A coarse mutex plays
// the role of the database transaction: InTx serializes mutations and
// discards them when fn fails, which is enough to exercise the engine's
// guard logic, including true concurrent rents.
type memRepo struct {
	mu      sync.Mutex
	books   map[string]*model.Book
	rentals map[string]*model.Rental

	// failDecrement forces the conditional decrement to report "no
	// matching row", simulating a lost race after the advisory check.
	failDecrement bool
}

func newMemRepo() *memRepo {
	return &memRepo{
		books:   make(map[string]*model.Book),
		rentals: make(map[string]*model.Rental),
	}
}

var _ Repo = (*memRepo)(nil)

func (m *memRepo) BookByID(_ context.Context, id string) (*model.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (m *memRepo) RentalByID(_ context.Context, id string) (*model.Rental, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rentals[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *memRepo) InTx(_ context.Context, fn func(tx rrepo.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memTx{repo: m}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (m *memRepo) ListByUser(_ context.Context, userID string) ([]rrepo.HistoryRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []rrepo.HistoryRow
	for _, r := range m.rentals {
		if r.UserID != userID {
			continue
		}
		row := rrepo.HistoryRow{
			RentalID:   r.ID,
			BookID:     r.BookID,
			Status:     r.Status,
			RentedAt:   r.RentedAt,
			ReturnedAt: r.ReturnedAt,
		}
		if b, ok := m.books[r.BookID]; ok {
			row.BookTitle = b.Title
			row.BookAuthor = b.Author
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *memRepo) ListAll(_ context.Context) ([]rrepo.AdminRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []rrepo.AdminRow
	for _, r := range m.rentals {
		out = append(out, rrepo.AdminRow{
			HistoryRow: rrepo.HistoryRow{RentalID: r.ID, BookID: r.BookID, Status: r.Status, RentedAt: r.RentedAt, ReturnedAt: r.ReturnedAt},
			UserID:     r.UserID,
		})
	}
	return out, nil
}

// memTx records compensations so a failing fn leaves no trace, the way
// a rolled-back transaction would.
type memTx struct {
	repo *memRepo
	undo []func()
}

var _ rrepo.Tx = (*memTx)(nil)

func (t *memTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
}

func (t *memTx) DecrementIfAvailable(_ context.Context, bookID string) (bool, error) {
	if t.repo.failDecrement {
		return false, nil
	}
	b, ok := t.repo.books[bookID]
	if !ok || b.AvailableQuantity <= 0 {
		return false, nil
	}
	b.AvailableQuantity--
	t.undo = append(t.undo, func() { b.AvailableQuantity++ })
	return true, nil
}

func (t *memTx) IncrementAvailability(_ context.Context, bookID string) error {
	b, ok := t.repo.books[bookID]
	if !ok {
		return errors.New("book missing")
	}
	b.AvailableQuantity++
	t.undo = append(t.undo, func() { b.AvailableQuantity-- })
	return nil
}

func (t *memTx) InsertRental(_ context.Context, r *model.Rental) error {
	cp := *r
	t.repo.rentals[r.ID] = &cp
	t.undo = append(t.undo, func() { delete(t.repo.rentals, r.ID) })
	return nil
}

func (t *memTx) RentalForUpdate(_ context.Context, rentalID string) (*model.Rental, error) {
	r, ok := t.repo.rentals[rentalID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (t *memTx) MarkReturned(_ context.Context, rentalID string, at time.Time) (bool, error) {
	r, ok := t.repo.rentals[rentalID]
	if !ok || r.Status != model.RentalRented {
		return false, nil
	}
	prev := *r
	r.Status = model.RentalReturned
	r.ReturnedAt = &at
	t.undo = append(t.undo, func() { *r = prev })
	return true, nil
}

// pubSpy records published events.
type pubSpy struct {
	mu     sync.Mutex
	events []string
	fail   bool
}

func (p *pubSpy) Publish(_ context.Context, name string, _ any) error {
	if p.fail {
		return errors.New("bus down")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, name)
	return nil
}

func (p *pubSpy) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// ---- helpers ----

func newService(t *testing.T, repo *memRepo, pub *pubSpy) Service {
	t.Helper()
	return New(repo, pub, testLogger())
}

func seedBook(repo *memRepo, qty int64) *model.Book {
	b := &model.Book{ID: "11111111-1111-4111-8111-111111111111", Title: "Dune", Author: "Frank Herbert", AvailableQuantity: qty}
	repo.books[b.ID] = b
	return b
}

// conservation checks original == available + currently rented
func conservation(t *testing.T, repo *memRepo, bookID string, original int64) {
	t.Helper()
	repo.mu.Lock()
	defer repo.mu.Unlock()
	var rented int64
	for _, r := range repo.rentals {
		if r.BookID == bookID && r.Status == model.RentalRented {
			rented++
		}
	}
	require.Equal(t, original, repo.books[bookID].AvailableQuantity+rented)
}

// ---- tests ----

func TestRent_Success(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	book := seedBook(repo, 5)
	pub := &pubSpy{}
	svc := newService(t, repo, pub)

	rental, err := svc.Rent(ctx, "user-a", book.ID)
	require.NoError(t, err)
	require.NotEmpty(t, rental.ID)
	require.Equal(t, book.ID, rental.BookID)
	require.Equal(t, "user-a", rental.UserID)
	require.Equal(t, model.RentalRented, rental.Status)
	require.False(t, rental.RentedAt.IsZero())
	require.Nil(t, rental.ReturnedAt)

	require.Equal(t, int64(4), repo.books[book.ID].AvailableQuantity)
	require.Equal(t, []string{event.BookRentedName}, pub.events)
	conservation(t, repo, book.ID, 5)
}

func TestRent_BookNotFound(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	pub := &pubSpy{}
	svc := newService(t, repo, pub)

	_, err := svc.Rent(ctx, "user-a", "99999999-9999-4999-8999-999999999999")
	require.Error(t, err)
	require.Equal(t, ErrBookNotFound, Code(err))
	require.Empty(t, repo.rentals, "no rental row may exist")
	require.Zero(t, pub.count(), "no event may be emitted")
}

func TestRent_NoStock(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	book := seedBook(repo, 0)
	pub := &pubSpy{}
	svc := newService(t, repo, pub)

	_, err := svc.Rent(ctx, "user-a", book.ID)
	require.Error(t, err)
	require.Equal(t, ErrNoStock, Code(err))
	require.Empty(t, repo.rentals)
	require.Zero(t, pub.count())
}

func TestRent_RaceLostAfterAdvisoryCheck(t *testing.T) {
	// advisory check sees stock, the conditional decrement does not:
	// the caller must get the same NO_STOCK a fresh check would give
	ctx := context.Background()
	repo := newMemRepo()
	book := seedBook(repo, 1)
	repo.failDecrement = true
	pub := &pubSpy{}
	svc := newService(t, repo, pub)

	_, err := svc.Rent(ctx, "user-a", book.ID)
	require.Error(t, err)
	require.Equal(t, ErrNoStock, Code(err))
	require.Empty(t, repo.rentals, "rental must not be created when the decrement loses")
	require.Equal(t, int64(1), repo.books[book.ID].AvailableQuantity)
	require.Zero(t, pub.count())
}

func TestRent_PublishFailureDoesNotFailRent(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	book := seedBook(repo, 2)
	pub := &pubSpy{fail: true}
	svc := newService(t, repo, pub)

	rental, err := svc.Rent(ctx, "user-a", book.ID)
	require.NoError(t, err)
	require.NotNil(t, rental)
	require.Equal(t, int64(1), repo.books[book.ID].AvailableQuantity)
}

func TestRentReturn_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	book := seedBook(repo, 5)
	pub := &pubSpy{}
	svc := newService(t, repo, pub)

	rental, err := svc.Rent(ctx, "user-a", book.ID)
	require.NoError(t, err)
	require.Equal(t, int64(4), repo.books[book.ID].AvailableQuantity)

	returned, err := svc.Return(ctx, "user-a", rental.ID)
	require.NoError(t, err)
	require.Equal(t, model.RentalReturned, returned.Status)
	require.NotNil(t, returned.ReturnedAt)
	require.Equal(t, int64(5), repo.books[book.ID].AvailableQuantity)
	conservation(t, repo, book.ID, 5)
}

func TestReturn_RentalNotFound(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	pub := &pubSpy{}
	svc := newService(t, repo, pub)

	_, err := svc.Return(ctx, "user-a", "99999999-9999-4999-8999-999999999999")
	require.Error(t, err)
	require.Equal(t, ErrRentalNotFound, Code(err))
}

func TestReturn_NotOwner(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	book := seedBook(repo, 1)
	pub := &pubSpy{}
	svc := newService(t, repo, pub)

	rental, err := svc.Rent(ctx, "user-a", book.ID)
	require.NoError(t, err)

	_, err = svc.Return(ctx, "user-b", rental.ID)
	require.Error(t, err)
	require.Equal(t, ErrNotOwner, Code(err))

	// loan untouched, stock untouched
	require.Equal(t, model.RentalRented, repo.rentals[rental.ID].Status)
	require.Equal(t, int64(0), repo.books[book.ID].AvailableQuantity)
}

func TestReturn_Twice(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	book := seedBook(repo, 3)
	pub := &pubSpy{}
	svc := newService(t, repo, pub)

	rental, err := svc.Rent(ctx, "user-a", book.ID)
	require.NoError(t, err)

	first, err := svc.Return(ctx, "user-a", rental.ID)
	require.NoError(t, err)

	_, err = svc.Return(ctx, "user-a", rental.ID)
	require.Error(t, err)
	require.Equal(t, ErrAlreadyReturned, Code(err))

	// availability incremented exactly once, terminal state untouched
	require.Equal(t, int64(3), repo.books[book.ID].AvailableQuantity)
	require.Equal(t, model.RentalReturned, repo.rentals[rental.ID].Status)
	require.Equal(t, first.ReturnedAt.UTC(), repo.rentals[rental.ID].ReturnedAt.UTC())
}

func TestRent_ConcurrentOversellGuard(t *testing.T) {
	// N concurrent rents against stock Q < N: exactly Q succeed,
	// the rest fail NO_STOCK, availability lands on zero
	const (
		n = 12
		q = 5
	)
	ctx := context.Background()
	repo := newMemRepo()
	book := seedBook(repo, q)
	pub := &pubSpy{}
	svc := newService(t, repo, pub)

	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Rent(ctx, "user-a", book.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, noStock int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case Code(err) == ErrNoStock:
			noStock++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, q, ok)
	require.Equal(t, n-q, noStock)
	require.Equal(t, int64(0), repo.books[book.ID].AvailableQuantity)
	require.Equal(t, q, pub.count(), "one event per successful rent")
	conservation(t, repo, book.ID, q)
}

func TestReturn_ConcurrentFirstWins(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	book := seedBook(repo, 1)
	pub := &pubSpy{}
	svc := newService(t, repo, pub)

	rental, err := svc.Rent(ctx, "user-a", book.ID)
	require.NoError(t, err)

	const n = 8
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Return(ctx, "user-a", rental.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, conflict int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case Code(err) == ErrAlreadyReturned:
			conflict++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok, "exactly one return may win")
	require.Equal(t, n-1, conflict)
	require.Equal(t, int64(1), repo.books[book.ID].AvailableQuantity, "single increment overall")
}

func TestMyRentals(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	book := seedBook(repo, 5)
	pub := &pubSpy{}
	svc := newService(t, repo, pub)

	_, err := svc.Rent(ctx, "user-a", book.ID)
	require.NoError(t, err)
	_, err = svc.Rent(ctx, "user-b", book.ID)
	require.NoError(t, err)

	rows, err := svc.MyRentals(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Dune", rows[0].BookTitle)

	all, err := svc.AllRentals(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
