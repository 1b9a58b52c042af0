package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aroma-notes/api/internal/domain"
	platformfs "github.com/aroma-notes/api/internal/platform/firestore"
	"github.com/aroma-notes/api/internal/platform/jobs"
	"github.com/aroma-notes/api/internal/platform/storage"
)

func int64Ptr(v int64) *int64 { return &v }

var testTime = time.Date(2026, 8, 31, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testTime }

type stubCartRepo struct {
	mu      sync.Mutex
	carts   map[string]domain.Cart
	saveErr error
	getErr  error
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{carts: map[string]domain.Cart{}}
}

func (r *stubCartRepo) GetBySession(_ context.Context, sessionID string) (domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return domain.Cart{}, r.getErr
	}
	cart, ok := r.carts[sessionID]
	if !ok {
		return domain.Cart{}, platformfs.NotFoundError("get carts", nil)
	}
	return cart, nil
}

func (r *stubCartRepo) Save(_ context.Context, cart domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.carts[cart.SessionID] = cart
	return nil
}

func (r *stubCartRepo) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, sessionID)
	return nil
}

type stubOrderRepo struct {
	mu        sync.Mutex
	orders    map[string]domain.Order
	createErr error
	updateErr error
	created   []domain.Order
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: map[string]domain.Order{}}
}

func (r *stubOrderRepo) Create(_ context.Context, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.orders[order.ID] = order
	r.created = append(r.created, order)
	return nil
}

func (r *stubOrderRepo) Get(_ context.Context, id string) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return domain.Order{}, platformfs.NotFoundError("get orders", nil)
	}
	return order, nil
}

func (r *stubOrderRepo) GetByNumber(_ context.Context, orderNumber string) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var match *domain.Order
	for _, order := range r.orders {
		order := order
		if order.OrderNumber != orderNumber {
			continue
		}
		// Newest wins, mirroring the createdAt-descending query.
		if match == nil || order.CreatedAt.After(match.CreatedAt) {
			match = &order
		}
	}
	if match == nil {
		return domain.Order{}, platformfs.NotFoundError("get orders", nil)
	}
	return *match, nil
}

func (r *stubOrderRepo) List(_ context.Context, status *domain.OrderStatus) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var orders []domain.Order
	for _, order := range r.orders {
		if status == nil || order.Status == *status {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func (r *stubOrderRepo) UpdateStatus(_ context.Context, id string, from, to domain.OrderStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	order, ok := r.orders[id]
	if !ok {
		return platformfs.NotFoundError("update orders", nil)
	}
	if order.Status != from {
		return platformfs.ConflictError("update orders", fmt.Errorf("order is %s", order.Status))
	}
	order.Status = to
	order.UpdatedAt = at
	r.orders[id] = order
	return nil
}

func (r *stubOrderRepo) Watch(ctx context.Context, out chan<- []domain.Order) error {
	<-ctx.Done()
	close(out)
	return nil
}

type stubSettingsRepo struct {
	settings domain.StoreSettings
	missing  bool
	updated  []int64
}

func (r *stubSettingsRepo) Get(context.Context) (domain.StoreSettings, error) {
	if r.missing {
		return domain.StoreSettings{}, platformfs.NotFoundError("get settings", nil)
	}
	return r.settings, nil
}

func (r *stubSettingsRepo) UpdateDeliveryFee(_ context.Context, fee int64, at time.Time) error {
	r.updated = append(r.updated, fee)
	r.settings = domain.StoreSettings{DeliveryFee: fee, UpdatedAt: at}
	return nil
}

type seqIDGen struct {
	n int
}

func (g *seqIDGen) NewID() string {
	g.n++
	return fmt.Sprintf("01TESTID%04d", g.n)
}

type fixedOrderNumbers struct {
	number string
}

func (g fixedOrderNumbers) NewOrderNumber(time.Time) (string, error) {
	return g.number, nil
}

type captureEvents struct {
	mu     sync.Mutex
	events []jobs.OrderEvent
}

func (c *captureEvents) Publish(_ context.Context, event jobs.OrderEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

type noopSigner struct{}

func (noopSigner) SignUpload(object, _ string, _ int64, _ time.Time) (string, error) {
	return "https://signed.test/" + object, nil
}

func (noopSigner) SignDownload(object string, _ time.Time) (string, error) {
	return "https://signed.test/" + object, nil
}

func testStorageClient(t *testing.T) *storage.Client {
	t.Helper()
	client, err := storage.NewClient(storage.Deps{
		Bucket: "aroma-notes-test",
		Signer: noopSigner{},
		Clock:  fixedClock,
	})
	if err != nil {
		t.Fatalf("storage client: %v", err)
	}
	return client
}

// testSlipStorage signs tickets through the real client but answers
// existence checks from a map instead of a live bucket.
type testSlipStorage struct {
	*storage.Client
	mu        sync.Mutex
	objects   map[string]bool
	existsErr error
}

func newTestSlipStorage(t *testing.T) *testSlipStorage {
	t.Helper()
	return &testSlipStorage{Client: testStorageClient(t), objects: map[string]bool{}}
}

func (s *testSlipStorage) put(object string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[object] = true
}

func (s *testSlipStorage) ObjectExists(_ context.Context, object string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.existsErr != nil {
		return false, s.existsErr
	}
	return s.objects[object], nil
}
