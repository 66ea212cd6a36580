package handler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xenking/webstore-backoffice/internal/domain/client"
	"github.com/xenking/webstore-backoffice/internal/domain/discount"
	"github.com/xenking/webstore-backoffice/internal/domain/order"
	"github.com/xenking/webstore-backoffice/internal/domain/product"
	"github.com/xenking/webstore-backoffice/internal/domain/refdata"
	"github.com/xenking/webstore-backoffice/internal/domain/report"
	"github.com/xenking/webstore-backoffice/internal/domain/user"
)

// memStore is a single in-memory backing store shared by all fake
// repositories so cross-aggregate reads (orders joining clients and
// products) stay consistent.
type memStore struct {
	mu        sync.Mutex
	users     map[string]*user.User
	clients   map[string]*client.Client
	products  map[string]*product.Product
	discounts map[string]*discount.Discount
	orders    map[string]*order.Order
	refs      map[refdata.Kind]map[int]string
	nextRefID int
}

func newMemStore() *memStore {
	refs := make(map[refdata.Kind]map[int]string, len(refdata.Kinds))
	for _, k := range refdata.Kinds {
		refs[k] = make(map[int]string)
	}
	return &memStore{
		users:     make(map[string]*user.User),
		clients:   make(map[string]*client.Client),
		products:  make(map[string]*product.Product),
		discounts: make(map[string]*discount.Discount),
		orders:    make(map[string]*order.Order),
		refs:      refs,
	}
}

// refExists checks a product's dimension id; zero means unset.
func (s *memStore) refExists(kind refdata.Kind, id int) bool {
	if id == 0 {
		return true
	}
	_, ok := s.refs[kind][id]
	return ok
}

func (s *memStore) available(productID string) int {
	p, ok := s.products[productID]
	if !ok {
		return 0
	}
	held := 0
	for _, o := range s.orders {
		counting := false
		for _, st := range order.StockCountingStatuses {
			if o.Status == st {
				counting = true
				break
			}
		}
		if !counting {
			continue
		}
		for _, it := range o.Items {
			if it.ProductID == productID {
				held += it.Quantity
			}
		}
	}
	return p.Quantity - held
}

type fakeUsers struct{ s *memStore }

func (f *fakeUsers) List(_ context.Context, _, _ int) ([]user.User, int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	all := make([]user.User, 0, len(f.s.users))
	for _, u := range f.s.users {
		all = append(all, *u)
	}
	return all, len(all), nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*user.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, u := range f.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (f *fakeUsers) Create(_ context.Context, u *user.User) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, existing := range f.s.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return user.ErrExists
		}
	}
	u.CreatedAt = time.Now()
	f.s.users[u.ID] = u
	return nil
}

func (f *fakeUsers) Update(_ context.Context, id string, p user.Patch) (*user.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	if p.Role != nil && !user.ValidRole(*p.Role) {
		return nil, user.ErrInvalidRole
	}
	for otherID, existing := range f.s.users {
		if otherID == id {
			continue
		}
		if p.Email != nil && existing.Email == *p.Email {
			return nil, user.ErrExists
		}
		if p.Username != nil && existing.Username == *p.Username {
			return nil, user.ErrExists
		}
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	u.UpdatedAt = time.Now()
	return u, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id, hash string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now()
	return nil
}

func (f *fakeUsers) SetActive(_ context.Context, id string, active bool) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.Active = active
	return nil
}

type fakeClients struct{ s *memStore }

func (f *fakeClients) List(_ context.Context, _ client.ListFilter) ([]client.Client, int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []client.Client
	for _, c := range f.s.clients {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (f *fakeClients) GetByID(_ context.Context, id string) (*client.Client, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c, ok := f.s.clients[id]
	if !ok {
		return nil, client.ErrNotFound
	}
	return c, nil
}

func (f *fakeClients) Create(_ context.Context, c *client.Client) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, existing := range f.s.clients {
		if existing.Email == c.Email {
			return client.ErrEmailTaken
		}
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	f.s.clients[c.ID] = c
	return nil
}

func (f *fakeClients) Update(_ context.Context, id string, patch client.Patch) (*client.Client, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c, ok := f.s.clients[id]
	if !ok {
		return nil, client.ErrNotFound
	}
	if patch.Email != nil {
		c.Email = *patch.Email
	}
	if patch.FirstName != nil {
		c.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		c.LastName = *patch.LastName
	}
	return c, nil
}

func (f *fakeClients) Delete(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.clients[id]; !ok {
		return client.ErrNotFound
	}
	for _, o := range f.s.orders {
		if o.ClientID == id {
			return client.ErrHasOrders
		}
	}
	delete(f.s.clients, id)
	return nil
}

type fakeProducts struct{ s *memStore }

func (f *fakeProducts) view(p *product.Product) product.View {
	v := product.View{
		Product:         *p,
		Available:       f.s.available(p.ID),
		DiscountedPrice: p.Price,
	}
	var active []discount.Discount
	for _, d := range f.s.discounts {
		if d.ProductID == p.ID && d.ActiveAt(time.Now()) {
			active = append(active, *d)
		}
	}
	if rule := discount.Resolve(active, time.Now()); rule != nil {
		v.HasDiscount = true
		v.DiscountedPrice = discount.EffectiveUnitPrice(p.Price, rule)
	}
	return v
}

func (f *fakeProducts) List(_ context.Context, _ product.ListFilter) ([]product.View, int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []product.View
	for _, p := range f.s.products {
		out = append(out, f.view(p))
	}
	return out, len(out), nil
}

func (f *fakeProducts) GetByID(_ context.Context, id string) (*product.View, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	v := f.view(p)
	return &v, nil
}

func (f *fakeProducts) Create(_ context.Context, p *product.Product) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if !f.s.refExists(refdata.KindCategory, p.Refs.CategoryID) ||
		!f.s.refExists(refdata.KindBrand, p.Refs.BrandID) {
		return product.ErrUnknownReference
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	f.s.products[p.ID] = p
	return nil
}

func (f *fakeProducts) Update(_ context.Context, id string, patch product.Patch) (*product.View, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	if patch.CategoryID != nil && !f.s.refExists(refdata.KindCategory, *patch.CategoryID) {
		return nil, product.ErrUnknownReference
	}
	if patch.BrandID != nil && !f.s.refExists(refdata.KindBrand, *patch.BrandID) {
		return nil, product.ErrUnknownReference
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Quantity != nil {
		p.Quantity = *patch.Quantity
	}
	if patch.Active != nil {
		p.Active = *patch.Active
	}
	v := f.view(p)
	return &v, nil
}

func (f *fakeProducts) Delete(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.products[id]
	if !ok {
		return product.ErrNotFound
	}
	p.Active = false
	return nil
}

type fakeDiscounts struct{ s *memStore }

func (f *fakeDiscounts) List(_ context.Context, _ discount.ListFilter) ([]discount.Discount, int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []discount.Discount
	for _, d := range f.s.discounts {
		out = append(out, *d)
	}
	return out, len(out), nil
}

func (f *fakeDiscounts) GetByID(_ context.Context, id string) (*discount.Discount, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	d, ok := f.s.discounts[id]
	if !ok {
		return nil, discount.ErrNotFound
	}
	return d, nil
}

func (f *fakeDiscounts) ListByProduct(_ context.Context, productID string, _ *bool) ([]discount.Discount, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []discount.Discount
	for _, d := range f.s.discounts {
		if d.ProductID == productID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDiscounts) Create(_ context.Context, d *discount.Discount) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.products[d.ProductID]; !ok {
		return product.ErrNotFound
	}
	for _, existing := range f.s.discounts {
		if existing.ProductID == d.ProductID && existing.Active &&
			!d.StartDate.After(existing.EndDate) && !d.EndDate.Before(existing.StartDate) {
			return discount.ErrOverlap
		}
	}
	d.CreatedAt = time.Now()
	f.s.discounts[d.ID] = d
	return nil
}

func (f *fakeDiscounts) Deactivate(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	d, ok := f.s.discounts[id]
	if !ok {
		return discount.ErrNotFound
	}
	d.Active = false
	return nil
}

// fakeOrderStore implements order.Store over the shared memStore. InTx
// applies writes only when fn succeeds, mirroring transaction rollback.
type fakeOrderStore struct{ s *memStore }

type fakeOrderTx struct {
	s        *memStore
	inserted *order.Order
	items    []order.LineItem
}

func (f *fakeOrderStore) InTx(_ context.Context, fn func(order.Tx) error) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	tx := &fakeOrderTx{s: f.s}
	if err := fn(tx); err != nil {
		return err
	}
	if tx.inserted != nil {
		tx.inserted.Items = tx.items
		tx.inserted.CreatedAt = time.Now()
		tx.inserted.UpdatedAt = tx.inserted.CreatedAt
		f.s.orders[tx.inserted.ID] = tx.inserted
	}
	return nil
}

func (t *fakeOrderTx) ClientExists(_ context.Context, clientID string) (bool, error) {
	_, ok := t.s.clients[clientID]
	return ok, nil
}

func (t *fakeOrderTx) LockProduct(_ context.Context, productID string) (*order.ProductSnapshot, error) {
	p, ok := t.s.products[productID]
	if !ok {
		return nil, &order.ProductNotFoundError{ProductID: productID}
	}
	snap := &order.ProductSnapshot{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Active:    p.Active,
		Available: t.s.available(productID),
	}
	for _, d := range t.s.discounts {
		if d.ProductID == productID && d.ActiveAt(time.Now()) {
			snap.Discounts = append(snap.Discounts, *d)
		}
	}
	return snap, nil
}

func (t *fakeOrderTx) InsertOrder(_ context.Context, o *order.Order) error {
	t.inserted = o
	return nil
}

func (t *fakeOrderTx) InsertLineItems(_ context.Context, items []order.LineItem) error {
	t.items = items
	return nil
}

func (f *fakeOrderStore) GetByID(_ context.Context, id string) (*order.Order, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	o, ok := f.s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	out := *o
	if c, ok := f.s.clients[o.ClientID]; ok {
		out.Client = order.ClientInfo{FirstName: c.FirstName, LastName: c.LastName, Email: c.Email}
	}
	for i := range out.Items {
		if p, ok := f.s.products[out.Items[i].ProductID]; ok {
			out.Items[i].ProductName = p.Name
		}
	}
	return &out, nil
}

func (f *fakeOrderStore) List(_ context.Context, filter order.ListFilter) ([]order.Order, int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []order.Order
	for _, o := range f.s.orders {
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (f *fakeOrderStore) ListByClient(_ context.Context, clientID string, _, _ int) ([]order.Order, int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []order.Order
	for _, o := range f.s.orders {
		if o.ClientID == clientID {
			out = append(out, *o)
		}
	}
	return out, len(out), nil
}

func (f *fakeOrderStore) UpdateStatus(_ context.Context, id string, from, to order.Status) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	o, ok := f.s.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	if o.Status != from {
		return order.ErrStatusChanged
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	return nil
}

type fakeRefData struct{ s *memStore }

func (f *fakeRefData) List(_ context.Context, kind refdata.Kind) ([]refdata.Entry, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	entries, ok := f.s.refs[kind]
	if !ok {
		return nil, refdata.ErrUnknownKind
	}
	var out []refdata.Entry
	for id, name := range entries {
		out = append(out, refdata.Entry{ID: id, Name: name})
	}
	return out, nil
}

func (f *fakeRefData) Create(_ context.Context, kind refdata.Kind, name string) (*refdata.Entry, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	entries, ok := f.s.refs[kind]
	if !ok {
		return nil, refdata.ErrUnknownKind
	}
	for _, existing := range entries {
		if existing == name {
			return nil, refdata.ErrNameTaken
		}
	}
	f.s.nextRefID++
	entries[f.s.nextRefID] = name
	return &refdata.Entry{ID: f.s.nextRefID, Name: name}, nil
}

func (f *fakeRefData) Rename(_ context.Context, kind refdata.Kind, id int, name string) (*refdata.Entry, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	entries, ok := f.s.refs[kind]
	if !ok {
		return nil, refdata.ErrUnknownKind
	}
	if _, ok := entries[id]; !ok {
		return nil, refdata.ErrNotFound
	}
	for otherID, existing := range entries {
		if otherID != id && existing == name {
			return nil, refdata.ErrNameTaken
		}
	}
	entries[id] = name
	return &refdata.Entry{ID: id, Name: name}, nil
}

func (f *fakeRefData) Delete(_ context.Context, kind refdata.Kind, id int) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	entries, ok := f.s.refs[kind]
	if !ok {
		return refdata.ErrUnknownKind
	}
	if _, ok := entries[id]; !ok {
		return refdata.ErrNotFound
	}
	for _, p := range f.s.products {
		used := 0
		switch kind {
		case refdata.KindCategory:
			used = p.Refs.CategoryID
		case refdata.KindBrand:
			used = p.Refs.BrandID
		case refdata.KindGender:
			used = p.Refs.GenderID
		case refdata.KindColor:
			used = p.Refs.ColorID
		case refdata.KindSize:
			used = p.Refs.SizeID
		}
		if used == id {
			return refdata.ErrInUse
		}
	}
	delete(entries, id)
	return nil
}

type fakeReports struct{}

func (fakeReports) DailyEarnings(_ context.Context, day time.Time) (*report.DailyEarnings, error) {
	return &report.DailyEarnings{Date: day}, nil
}

func (fakeReports) MonthlyEarnings(_ context.Context, year int, month time.Month) (*report.MonthlyEarnings, error) {
	return &report.MonthlyEarnings{Year: year, Month: month}, nil
}

func (fakeReports) EarningsByDay(_ context.Context, start, _ time.Time) ([]report.DailyEarnings, error) {
	return []report.DailyEarnings{{Date: start, TotalOrders: 1}}, nil
}

func (fakeReports) TopProducts(_ context.Context, _ int) ([]report.TopProduct, error) {
	return nil, nil
}

func (fakeReports) SalesByCategory(_ context.Context) ([]report.DimensionSales, error) {
	return nil, nil
}

func (fakeReports) SalesByBrand(_ context.Context) ([]report.DimensionSales, error) {
	return nil, nil
}

func (fakeReports) LowStock(_ context.Context, _ int) ([]report.LowStockProduct, error) {
	return nil, nil
}

func newTestID() string {
	return uuid.New().String()
}
