package customer

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/xenking/stall-orders/internal/domain/customer"

// DefaultNamePrefix is prepended to the arrival number of new customers.
const DefaultNamePrefix = "顾客"

// Option configures a Store.
type Option func(*Store)

// WithNamePrefix sets the prefix for generated customer names.
func WithNamePrefix(prefix string) Option {
	return func(s *Store) { s.namePrefix = prefix }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(lg *zap.Logger) Option {
	return func(s *Store) { s.lg = lg }
}

// WithMeterProvider sets the meter provider used for store metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Store) { s.meterProvider = mp }
}

// WithTracerProvider sets the tracer provider used for store spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Store) { s.tracerProvider = tp }
}

// Store holds the customer list and persists a full snapshot after every
// mutation.
//
// Every action runs under mu, snapshot write included, so actions never
// interleave. A failed write keeps the in-memory change.
type Store struct {
	mu        sync.Mutex
	repo      Repository
	customers []Customer

	namePrefix     string
	now            func() time.Time
	lg             *zap.Logger
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider

	tracer       trace.Tracer
	mutations    metric.Int64Counter
	saveDuration metric.Float64Histogram
}

// Open reads the persisted snapshot once and returns a Store seeded with it.
// A malformed snapshot is logged and replaced by an empty list; any other
// load failure is returned.
func Open(ctx context.Context, repo Repository, opts ...Option) (*Store, error) {
	s := &Store{
		repo:           repo,
		namePrefix:     DefaultNamePrefix,
		now:            time.Now,
		lg:             zap.NewNop(),
		meterProvider:  metricnoop.NewMeterProvider(),
		tracerProvider: tracenoop.NewTracerProvider(),
	}
	for _, o := range opts {
		o(s)
	}
	if err := s.initTelemetry(); err != nil {
		return nil, err
	}

	loaded, err := repo.Load(ctx)
	switch {
	case errors.Is(err, ErrMalformedSnapshot):
		s.lg.Warn("Discarding malformed snapshot", zap.Error(err))
		loaded = nil
	case err != nil:
		return nil, errors.Wrap(err, "load snapshot")
	}

	s.customers = cloneAll(loaded)
	s.lg.Info("Customers restored", zap.Int("count", len(s.customers)))
	return s, nil
}

func (s *Store) initTelemetry() error {
	s.tracer = s.tracerProvider.Tracer(instrumentationName)
	meter := s.meterProvider.Meter(instrumentationName)

	var err error
	s.mutations, err = meter.Int64Counter("stall.store.mutations",
		metric.WithDescription("Number of applied store mutations"),
	)
	if err != nil {
		return errors.Wrap(err, "mutations counter")
	}
	s.saveDuration, err = meter.Float64Histogram("stall.store.snapshot.duration",
		metric.WithDescription("Snapshot write duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return errors.Wrap(err, "snapshot duration histogram")
	}
	return nil
}

// Customers returns a deep copy of all customers in arrival order.
func (s *Store) Customers() []Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.customers)
}

// Customer returns a copy of the customer with the given ID.
func (s *Store) Customer(id string) (Customer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Customer{}, false
	}
	return s.customers[i].Clone(), true
}

// AddCustomer appends a new customer with a fresh ID, a generated name and
// empty orders.
func (s *Store) AddCustomer(ctx context.Context) (Customer, error) {
	ctx, span := s.tracer.Start(ctx, "customer.AddCustomer")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c := Customer{
		ID:        s.nextID(now),
		Name:      fmt.Sprintf("%s%d", s.namePrefix, len(s.customers)+1),
		Orders:    map[string]int{},
		Served:    map[string]bool{},
		CreatedAt: now,
	}
	s.customers = append(s.customers, c)
	span.SetAttributes(attribute.String("customer.id", c.ID))

	return c.Clone(), s.commit(ctx, span, "add_customer")
}

// RemoveCustomer deletes the customer with the given ID. Unknown IDs are
// ignored.
func (s *Store) RemoveCustomer(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "customer.RemoveCustomer",
		trace.WithAttributes(attribute.String("customer.id", id)),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	s.customers = slices.Delete(s.customers, i, i+1)
	return s.commit(ctx, span, "remove_customer")
}

// RemoveAllCustomers clears the customer list.
func (s *Store) RemoveAllCustomers(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "customer.RemoveAllCustomers")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.customers = nil
	return s.commit(ctx, span, "remove_all_customers")
}

// UpdateOrder sets the ordered quantity of an item, clamped at zero. Dropping
// the quantity to zero also clears the served flag.
func (s *Store) UpdateOrder(ctx context.Context, customerID, itemID string, quantity int) error {
	ctx, span := s.tracer.Start(ctx, "customer.UpdateOrder", trace.WithAttributes(
		attribute.String("customer.id", customerID),
		attribute.String("item.id", itemID),
		attribute.Int("quantity", quantity),
	))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.lookup(customerID)
	if c == nil {
		return nil
	}
	setQuantity(c, itemID, quantity)
	return s.commit(ctx, span, "update_order")
}

// AdjustOrder changes the ordered quantity of an item by delta, clamped at
// zero.
func (s *Store) AdjustOrder(ctx context.Context, customerID, itemID string, delta int) error {
	ctx, span := s.tracer.Start(ctx, "customer.AdjustOrder", trace.WithAttributes(
		attribute.String("customer.id", customerID),
		attribute.String("item.id", itemID),
		attribute.Int("delta", delta),
	))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.lookup(customerID)
	if c == nil {
		return nil
	}
	setQuantity(c, itemID, c.Quantity(itemID)+delta)
	return s.commit(ctx, span, "adjust_order")
}

// UpdateServedStatus sets the served flag of an item. The flag is forced to
// false while nothing of the item is ordered.
func (s *Store) UpdateServedStatus(ctx context.Context, customerID, itemID string, served bool) error {
	ctx, span := s.tracer.Start(ctx, "customer.UpdateServedStatus", trace.WithAttributes(
		attribute.String("customer.id", customerID),
		attribute.String("item.id", itemID),
		attribute.Bool("served", served),
	))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.lookup(customerID)
	if c == nil {
		return nil
	}
	if c.Served == nil {
		c.Served = map[string]bool{}
	}
	c.Served[itemID] = served && c.Quantity(itemID) > 0
	return s.commit(ctx, span, "update_served")
}

func setQuantity(c *Customer, itemID string, quantity int) {
	if c.Orders == nil {
		c.Orders = map[string]int{}
	}
	quantity = max(0, quantity)
	c.Orders[itemID] = quantity
	if quantity == 0 && c.Served[itemID] {
		c.Served[itemID] = false
	}
}

// commit writes the snapshot. Must be called with mu held.
func (s *Store) commit(ctx context.Context, span trace.Span, op string) error {
	opAttr := metric.WithAttributes(attribute.String("op", op))
	s.mutations.Add(ctx, 1, opAttr)

	start := time.Now()
	err := s.repo.Save(ctx, cloneAll(s.customers))
	s.saveDuration.Record(ctx, time.Since(start).Seconds(), opAttr)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save snapshot")
		s.lg.Error("Snapshot write failed",
			zap.String("op", op),
			zap.Int("customers", len(s.customers)),
			zap.Error(err),
		)
		return errors.Wrap(err, "save snapshot")
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.customers, func(c Customer) bool { return c.ID == id })
}

func (s *Store) lookup(id string) *Customer {
	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	return &s.customers[i]
}

// nextID derives an ID from the creation time in milliseconds, moving forward
// until it is unused.
func (s *Store) nextID(now time.Time) string {
	ms := now.UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		if s.indexOf(id) < 0 {
			return id
		}
		ms++
	}
}
