package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aroma-notes/api/internal/domain"
	platformfs "github.com/aroma-notes/api/internal/platform/firestore"
	"github.com/aroma-notes/api/internal/platform/jobs"
	"github.com/aroma-notes/api/internal/platform/requestctx"
	"github.com/aroma-notes/api/internal/repositories"
)

// Order failure modes surfaced to handlers.
var (
	ErrOrderNotFound          = errors.New("order: not found")
	ErrOrderInvalidTransition = errors.New("order: invalid status transition")
	ErrOrderConflict          = errors.New("order: concurrent update")
)

// statusTransitions is the only authority on lifecycle moves. Completed
// and cancelled are terminal; nothing returns to pending.
var statusTransitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusPending:    {domain.OrderStatusProcessing, domain.OrderStatusCancelled},
	domain.OrderStatusProcessing: {domain.OrderStatusCompleted, domain.OrderStatusCancelled},
	domain.OrderStatusCompleted:  {},
	domain.OrderStatusCancelled:  {},
}

func canTransition(from, to domain.OrderStatus) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type orderService struct {
	orders repositories.OrderRepository
	events jobs.Publisher
	clock  Clock
}

// OrderServiceDeps wires NewOrderService.
type OrderServiceDeps struct {
	Orders repositories.OrderRepository
	Events jobs.Publisher
	Clock  Clock
}

// NewOrderService builds the order service.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Events == nil {
		deps.Events = jobs.NopPublisher{}
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &orderService{orders: deps.Orders, events: deps.Events, clock: deps.Clock}, nil
}

func (s *orderService) List(ctx context.Context, status *domain.OrderStatus) ([]domain.Order, error) {
	return s.orders.List(ctx, status)
}

func (s *orderService) Get(ctx context.Context, id string) (domain.Order, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		if platformfs.IsNotFound(err) {
			return domain.Order{}, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
		}
		return domain.Order{}, err
	}
	return order, nil
}

func (s *orderService) GetByNumber(ctx context.Context, orderNumber string) (domain.Order, error) {
	order, err := s.orders.GetByNumber(ctx, strings.TrimSpace(orderNumber))
	if err != nil {
		if platformfs.IsNotFound(err) {
			return domain.Order{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderNumber)
		}
		return domain.Order{}, err
	}
	return order, nil
}

// UpdateStatus moves an order through the lifecycle. The transition table
// is checked here and the stored status is re-checked inside the
// repository transaction, so a stale admin tab can never force an illegal
// move.
func (s *orderService) UpdateStatus(ctx context.Context, id string, to domain.OrderStatus) (domain.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}

	from := order.Status
	if from == to {
		return order, nil
	}
	if !canTransition(from, to) {
		return domain.Order{}, fmt.Errorf("%w: %s -> %s", ErrOrderInvalidTransition, from, to)
	}

	now := s.clock()
	if err := s.orders.UpdateStatus(ctx, id, from, to, now); err != nil {
		if platformfs.IsConflict(err) {
			return domain.Order{}, fmt.Errorf("%w: %s", ErrOrderConflict, id)
		}
		if platformfs.IsNotFound(err) {
			return domain.Order{}, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
		}
		return domain.Order{}, err
	}

	order.Status = to
	order.UpdatedAt = now

	if err := s.events.Publish(ctx, jobs.OrderEvent{
		Event:       jobs.EventOrderStatusChanged,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      string(to),
		PrevStatus:  string(from),
		Total:       order.Total,
		OccurredAt:  now,
	}); err != nil {
		requestctx.Logger(ctx).Warn("publish status change", zap.Error(err))
	}

	requestctx.Logger(ctx).Info("order status changed",
		zap.String("order_number", order.OrderNumber),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return order, nil
}

func (s *orderService) Metrics(ctx context.Context) (domain.OrderMetrics, error) {
	orders, err := s.orders.List(ctx, nil)
	if err != nil {
		return domain.OrderMetrics{}, err
	}
	return domain.ComputeOrderMetrics(orders), nil
}

// ListCustomers derives the distinct customer list from order history,
// keyed by phone number since guests have no account.
func (s *orderService) ListCustomers(ctx context.Context) ([]CustomerSummary, error) {
	orders, err := s.orders.List(ctx, nil)
	if err != nil {
		return nil, err
	}

	byPhone := make(map[string]*CustomerSummary)
	for _, order := range orders {
		key := strings.TrimSpace(order.Customer.Phone)
		if key == "" {
			key = strings.ToLower(strings.TrimSpace(order.Customer.Name))
		}
		if key == "" {
			continue
		}

		summary, ok := byPhone[key]
		if !ok {
			summary = &CustomerSummary{
				Name:  order.Customer.Name,
				Phone: order.Customer.Phone,
				Email: order.Customer.Email,
				City:  order.Customer.City,
			}
			byPhone[key] = summary
		}
		summary.OrderCount++
		if order.Status != domain.OrderStatusCancelled {
			summary.TotalSpent += order.Total
		}
		if order.CreatedAt.After(summary.LastOrder) {
			summary.LastOrder = order.CreatedAt
			summary.Name = order.Customer.Name
			if order.Customer.Email != "" {
				summary.Email = order.Customer.Email
			}
			summary.City = order.Customer.City
		}
	}

	customers := make([]CustomerSummary, 0, len(byPhone))
	for _, summary := range byPhone {
		customers = append(customers, *summary)
	}
	sort.Slice(customers, func(i, j int) bool {
		return customers[i].LastOrder.After(customers[j].LastOrder)
	})
	return customers, nil
}
