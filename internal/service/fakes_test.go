package service

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sebestral-solio/elip-pos-sub000/internal/domain"
	"github.com/sebestral-solio/elip-pos-sub000/internal/events"
	"github.com/sebestral-solio/elip-pos-sub000/internal/provider"
)

// In-memory fakes implementing the store interfaces with the same atomic
// semantics the DynamoDB repositories provide.

type fakeProductStore struct {
	mu         sync.Mutex
	products   map[string]*domain.Product
	decrements int
}

func newFakeProductStore(products ...*domain.Product) *fakeProductStore {
	s := &fakeProductStore{products: make(map[string]*domain.Product)}
	for _, p := range products {
		cp := *p
		s.products[p.ProductID] = &cp
	}
	return s
}

func (s *fakeProductStore) Get(_ context.Context, productID string) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakeProductStore) DecrementStock(_ context.Context, productID string, qty int) (*domain.StockAdjustment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}

	s.decrements++
	before := p.Quantity
	after := before - qty
	clamped := false
	if after < 0 {
		after = 0
		clamped = true
	}
	p.Sold += before - after
	p.Quantity = after
	if after == 0 {
		p.Available = false
	}
	return &domain.StockAdjustment{ProductID: productID, Before: before, After: after, Clamped: clamped}, nil
}

func (s *fakeProductStore) quantity(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[productID].Quantity
}

type fakeOrderStore struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[string]*domain.Order)}
}

func (s *fakeOrderStore) Create(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[order.OrderID]; exists {
		return fmt.Errorf("order %s already exists", order.OrderID)
	}
	cp := *order
	s.orders[order.OrderID] = &cp
	return nil
}

func (s *fakeOrderStore) Get(_ context.Context, orderID string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *fakeOrderStore) ConditionalUpdateStatus(_ context.Context, orderID string, from, to domain.OrderStatus, paymentStatus string) (bool, *domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return false, nil, domain.ErrOrderNotFound
	}
	if o.Status != from {
		cp := *o
		return false, &cp, nil
	}
	o.Status = to
	o.PaymentStatus = paymentStatus
	o.UpdatedAt = time.Now().UTC()
	cp := *o
	return true, &cp, nil
}

func (s *fakeOrderStore) AttachPayment(_ context.Context, orderID, transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.TransactionID = transactionID
	return nil
}

func (s *fakeOrderStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

type fakePaymentStore struct {
	mu       sync.Mutex
	payments map[string]*domain.Payment
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{payments: make(map[string]*domain.Payment)}
}

func (s *fakePaymentStore) CreateIfAbsent(_ context.Context, payment *domain.Payment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.payments[payment.TransactionID]; exists {
		return false, nil
	}
	cp := *payment
	s.payments[payment.TransactionID] = &cp
	return true, nil
}

func (s *fakePaymentStore) GetByTransactionID(_ context.Context, transactionID string) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[transactionID]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakePaymentStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payments)
}

type fakeConfigStore struct {
	mu      sync.Mutex
	configs map[string]*domain.Configuration
}

func newFakeConfigStore() *fakeConfigStore {
	return &fakeConfigStore{configs: make(map[string]*domain.Configuration)}
}

func (s *fakeConfigStore) GetOrCreate(_ context.Context, tenantID string) (*domain.Configuration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateLocked(tenantID), nil
}

func (s *fakeConfigStore) getOrCreateLocked(tenantID string) *domain.Configuration {
	if cfg, ok := s.configs[tenantID]; ok {
		return cfg
	}
	cfg := &domain.Configuration{
		TenantID:  tenantID,
		Terminals: []domain.Terminal{},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	s.configs[tenantID] = cfg
	return cfg
}

func (s *fakeConfigStore) UpdateTaxRate(_ context.Context, tenantID string, rate float64) (*domain.Configuration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.getOrCreateLocked(tenantID)
	cfg.TaxRate = rate
	cp := *cfg
	return &cp, nil
}

func (s *fakeConfigStore) AssignTerminal(_ context.Context, tenantID, terminalID, stallID string) (*domain.Configuration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.getOrCreateLocked(tenantID)

	idx := -1
	for i := range cfg.Terminals {
		t := &cfg.Terminals[i]
		if t.TerminalID == terminalID {
			idx = i
			continue
		}
		if stallID != "" && t.StallID == stallID {
			return nil, domain.ErrStallTaken
		}
	}
	if idx < 0 {
		return nil, domain.ErrTerminalNotFound
	}
	if cur := cfg.Terminals[idx].StallID; cur != "" && stallID != "" && cur != stallID {
		return nil, domain.ErrTerminalTaken
	}
	cfg.Terminals[idx].StallID = stallID
	cp := *cfg
	return &cp, nil
}

func (s *fakeConfigStore) UpsertTerminal(_ context.Context, tenantID string, terminal domain.Terminal) (*domain.Configuration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.getOrCreateLocked(tenantID)

	idx := -1
	for i := range cfg.Terminals {
		t := &cfg.Terminals[i]
		if t.TerminalID == terminal.TerminalID {
			idx = i
			continue
		}
		if terminal.StallID != "" && t.StallID == terminal.StallID {
			return nil, domain.ErrStallTaken
		}
	}
	if idx >= 0 {
		if terminal.StallID == "" {
			terminal.StallID = cfg.Terminals[idx].StallID
		} else if cur := cfg.Terminals[idx].StallID; cur != "" && cur != terminal.StallID {
			return nil, domain.ErrTerminalTaken
		}
		cfg.Terminals[idx] = terminal
	} else {
		cfg.Terminals = append(cfg.Terminals, terminal)
	}
	cp := *cfg
	return &cp, nil
}

func (s *fakeConfigStore) RemoveTerminal(_ context.Context, tenantID, terminalID string) (*domain.Configuration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.getOrCreateLocked(tenantID)
	kept := cfg.Terminals[:0]
	found := false
	for _, t := range cfg.Terminals {
		if t.TerminalID == terminalID {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return nil, domain.ErrTerminalNotFound
	}
	cfg.Terminals = kept
	cp := *cfg
	return &cp, nil
}

// fakeProvider is a scriptable in-memory payment provider.
type fakeProvider struct {
	mu       sync.Mutex
	intents  map[string]*provider.Intent
	readers  map[string]*provider.Reader
	sessions map[string]*provider.CheckoutSession

	nextIntent int

	createErr   error
	dispatchErr error

	dispatched     []string
	getIntentCalls int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		intents:  make(map[string]*provider.Intent),
		readers:  make(map[string]*provider.Reader),
		sessions: make(map[string]*provider.CheckoutSession),
	}
}

func (f *fakeProvider) addReader(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readers[id] = &provider.Reader{ID: id, Status: "online"}
}

func (f *fakeProvider) setIntentStatus(id, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intents[id].Status = status
}

func (f *fakeProvider) CreateIntent(_ context.Context, params provider.CreateIntentParams) (*provider.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextIntent++
	intent := &provider.Intent{
		ID:             fmt.Sprintf("pi_%d", f.nextIntent),
		Amount:         params.Amount,
		Currency:       params.Currency,
		Status:         provider.IntentStatusRequiresPaymentMethod,
		CaptureMethod:  params.CaptureMethod,
		PaymentMethods: params.PaymentMethods,
		Metadata:       params.Metadata,
		Created:        time.Now().Unix(),
	}
	f.intents[intent.ID] = intent
	cp := *intent
	return &cp, nil
}

func (f *fakeProvider) GetIntent(_ context.Context, id string) (*provider.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getIntentCalls++
	intent, ok := f.intents[id]
	if !ok {
		return nil, &provider.Error{Op: "GET", Status: http.StatusNotFound, Message: "no such transaction"}
	}
	cp := *intent
	return &cp, nil
}

func (f *fakeProvider) CaptureIntent(_ context.Context, id string) (*provider.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	intent, ok := f.intents[id]
	if !ok {
		return nil, &provider.Error{Op: "POST", Status: http.StatusNotFound, Message: "no such transaction"}
	}
	if intent.Status == provider.IntentStatusRequiresCapture {
		intent.Status = provider.IntentStatusSucceeded
	}
	cp := *intent
	return &cp, nil
}

func (f *fakeProvider) CancelIntent(_ context.Context, id string) (*provider.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	intent, ok := f.intents[id]
	if !ok {
		return nil, &provider.Error{Op: "POST", Status: http.StatusNotFound, Message: "no such transaction"}
	}
	intent.Status = provider.IntentStatusCanceled
	cp := *intent
	return &cp, nil
}

func (f *fakeProvider) DispatchToReader(_ context.Context, readerID, intentID string) (*provider.Reader, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dispatchErr != nil {
		return nil, f.dispatchErr
	}
	reader, ok := f.readers[readerID]
	if !ok {
		return nil, &provider.Error{Op: "POST", Status: http.StatusNotFound, Message: "no such reader"}
	}
	f.dispatched = append(f.dispatched, readerID+":"+intentID)
	cp := *reader
	return &cp, nil
}

func (f *fakeProvider) GetReader(_ context.Context, id string) (*provider.Reader, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reader, ok := f.readers[id]
	if !ok {
		return nil, &provider.Error{Op: "GET", Status: http.StatusNotFound, Message: "no such reader"}
	}
	cp := *reader
	return &cp, nil
}

func (f *fakeProvider) CreateCheckoutSession(_ context.Context, params provider.CreateCheckoutParams) (*provider.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextIntent++
	intentID := fmt.Sprintf("pi_%d", f.nextIntent)
	f.intents[intentID] = &provider.Intent{
		ID:       intentID,
		Amount:   params.Amount,
		Currency: params.Currency,
		Status:   provider.IntentStatusRequiresPaymentMethod,
		Metadata: params.Metadata,
	}
	session := &provider.CheckoutSession{
		ID:            fmt.Sprintf("cs_%d", f.nextIntent),
		URL:           "https://checkout.example.com/" + intentID,
		Status:        provider.SessionStatusOpen,
		PaymentStatus: provider.SessionUnpaid,
		IntentID:      intentID,
		Amount:        params.Amount,
		Currency:      params.Currency,
		Metadata:      params.Metadata,
	}
	f.sessions[session.ID] = session
	cp := *session
	return &cp, nil
}

func (f *fakeProvider) GetCheckoutSession(_ context.Context, id string) (*provider.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return nil, &provider.Error{Op: "GET", Status: http.StatusNotFound, Message: "no such session"}
	}
	cp := *session
	return &cp, nil
}

func (f *fakeProvider) completeSession(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session := f.sessions[sessionID]
	session.Status = provider.SessionStatusComplete
	session.PaymentStatus = provider.SessionPaid
	f.intents[session.IntentID].Status = provider.IntentStatusSucceeded
}

type spyPublisher struct {
	mu     sync.Mutex
	events []events.OrderFinalizedEvent
}

func (p *spyPublisher) PublishOrderFinalized(event events.OrderFinalizedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *spyPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}
