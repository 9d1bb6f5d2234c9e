package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rental-app/internal/domain/bookings"
	"rental-app/internal/domain/equipment"
	"rental-app/internal/domain/receipts"
	"rental-app/internal/payment"
	"rental-app/internal/repository"
)

// In-memory fakes mirroring the repository semantics, including the
// serialized check-then-lock in Reserve and the conditional transition
// update.

type fakeEquipmentRepo struct {
	mu    sync.Mutex
	items map[uint]*equipment.Equipment
}

func newFakeEquipmentRepo(items ...*equipment.Equipment) *fakeEquipmentRepo {
	r := &fakeEquipmentRepo{items: map[uint]*equipment.Equipment{}}
	for _, eq := range items {
		r.items[eq.ID] = eq
	}
	return r
}

func (r *fakeEquipmentRepo) Get(_ context.Context, id uint) (*equipment.Equipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	eq, ok := r.items[id]
	if !ok {
		return nil, bookings.ErrEquipmentNotFound
	}
	cp := *eq
	return &cp, nil
}

func (r *fakeEquipmentRepo) SetAvailability(_ context.Context, id uint, available bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	eq, ok := r.items[id]
	if !ok {
		return bookings.ErrEquipmentNotFound
	}
	eq.Availability = available
	return nil
}

func (r *fakeEquipmentRepo) availability(id uint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id].Availability
}

type fakeBookingRepo struct {
	mu        sync.Mutex
	equipment *fakeEquipmentRepo
	rows      map[uint]*bookings.Booking
	nextID    uint
}

func newFakeBookingRepo(equipmentRepo *fakeEquipmentRepo) *fakeBookingRepo {
	return &fakeBookingRepo{equipment: equipmentRepo, rows: map[uint]*bookings.Booking{}, nextID: 1}
}

func (r *fakeBookingRepo) Reserve(_ context.Context, b *bookings.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.equipment.mu.Lock()
	defer r.equipment.mu.Unlock()

	eq, ok := r.equipment.items[b.EquipmentID]
	if !ok {
		return bookings.ErrEquipmentNotFound
	}
	if !eq.Availability {
		return bookings.ErrEquipmentUnavailable
	}
	for _, row := range r.rows {
		if row.EquipmentID == b.EquipmentID && row.Status.Blocking() &&
			bookings.RangesOverlap(row.StartDate, row.EndDate, b.StartDate, b.EndDate) {
			return bookings.ErrEquipmentUnavailable
		}
	}

	b.ID = r.nextID
	r.nextID++
	b.Status = bookings.StatusPending
	b.LastStatusUpdate = time.Now().UTC()
	b.CreatedAt = time.Now().UTC()
	b.Equipment = *eq
	cp := *b
	r.rows[b.ID] = &cp
	eq.Availability = false
	return nil
}

func (r *fakeBookingRepo) GetByID(_ context.Context, id uint) (*bookings.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, bookings.ErrBookingNotFound
	}
	cp := *row
	return &cp, nil
}

func (r *fakeBookingRepo) GetByGatewayOrderID(_ context.Context, orderID string) (*bookings.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.GatewayOrderID != nil && *row.GatewayOrderID == orderID {
			cp := *row
			return &cp, nil
		}
	}
	return nil, bookings.ErrBookingNotFound
}

func (r *fakeBookingRepo) HasBlockingOverlap(_ context.Context, equipmentID uint, start, end time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.EquipmentID == equipmentID && row.Status.Blocking() &&
			bookings.RangesOverlap(row.StartDate, row.EndDate, start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeBookingRepo) TransitionStatus(_ context.Context, id uint, from []bookings.Status, to bookings.Status, updates map[string]interface{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return false, nil
	}

	allowed := false
	for _, s := range from {
		if row.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return false, nil
	}

	row.Status = to
	row.LastStatusUpdate = time.Now().UTC()
	for k, v := range updates {
		switch k {
		case "gateway_order_id":
			s := fmt.Sprint(v)
			row.GatewayOrderID = &s
		case "gateway_payment_id":
			s := fmt.Sprint(v)
			row.GatewayPaymentID = &s
		}
	}
	return true, nil
}

func (r *fakeBookingRepo) ListByRenter(_ context.Context, renterID uint) ([]bookings.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []bookings.Booking
	for _, row := range r.rows {
		if row.RenterID == renterID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) ListAll(_ context.Context) ([]bookings.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []bookings.Booking
	for _, row := range r.rows {
		out = append(out, *row)
	}
	return out, nil
}

type fakeReceiptRepo struct {
	mu        sync.Mutex
	byBooking map[uint]*receipts.Receipt
	nextID    uint
}

func newFakeReceiptRepo() *fakeReceiptRepo {
	return &fakeReceiptRepo{byBooking: map[uint]*receipts.Receipt{}, nextID: 1}
}

func (r *fakeReceiptRepo) Create(_ context.Context, rec *receipts.Receipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byBooking[rec.BookingID]; exists {
		return repository.ErrDuplicateReceipt
	}
	rec.ID = r.nextID
	r.nextID++
	rec.CreatedAt = time.Now().UTC()
	cp := *rec
	r.byBooking[rec.BookingID] = &cp
	return nil
}

func (r *fakeReceiptRepo) GetByBookingID(_ context.Context, bookingID uint) (*receipts.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byBooking[bookingID]
	if !ok {
		return nil, bookings.ErrReceiptNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeReceiptRepo) ListAll(_ context.Context) ([]receipts.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []receipts.Receipt
	for _, rec := range r.byBooking {
		out = append(out, *rec)
	}
	return out, nil
}

func (r *fakeReceiptRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byBooking)
}

type fakeGateway struct {
	mu             sync.Mutex
	failCreate     error
	sessions       int
	onSession      func(ctx context.Context, p payment.SessionParams)
	validSignature string
	fetchStatus    string
	fetchMethod    string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{validSignature: "valid-signature", fetchStatus: "captured", fetchMethod: "card"}
}

func (g *fakeGateway) CreateSession(ctx context.Context, p payment.SessionParams) (*payment.Session, error) {
	if p.AmountMinor <= 0 {
		return nil, payment.ErrInvalidAmount
	}
	g.mu.Lock()
	if g.failCreate != nil {
		err := g.failCreate
		g.mu.Unlock()
		return nil, err
	}
	g.sessions++
	onSession := g.onSession
	g.mu.Unlock()

	// Runs outside the lock: callbacks may re-enter the service.
	if onSession != nil {
		onSession(ctx, p)
	}
	return &payment.Session{
		OrderID:     fmt.Sprintf("order_fake_%d", p.BookingID),
		KeyID:       "rzp_test_key",
		AmountMinor: p.AmountMinor,
		Currency:    "INR",
	}, nil
}

func (g *fakeGateway) sessionCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sessions
}

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return signature == g.validSignature
}

func (g *fakeGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	return signature == g.validSignature
}

func (g *fakeGateway) FetchPayment(_ context.Context, paymentID string) (*payment.PaymentRecord, error) {
	return &payment.PaymentRecord{
		ID:          paymentID,
		OrderID:     "order_fake",
		Status:      g.fetchStatus,
		Method:      g.fetchMethod,
		AmountMinor: 150000,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
