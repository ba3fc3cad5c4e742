package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/01moynul/ecofinds-golang/internal/models"
	"github.com/shopspring/decimal"
)

// Memory is a Store kept in process memory. It backs STORE_DRIVER=memory
// and the service tests.
type Memory struct {
	mu    sync.Mutex
	txMu  *sync.Mutex
	inTx  bool
	state *memState
}

type memState struct {
	seq        int64
	users      map[int64]models.User
	products   map[int64]models.Product
	carts      map[int64]models.Cart // by cart id, items without product
	cartByUser map[int64]int64
	orders     map[int64]models.Order // items without product
}

func NewMemory() *Memory {
	return &Memory{
		txMu: &sync.Mutex{},
		state: &memState{
			users:      map[int64]models.User{},
			products:   map[int64]models.Product{},
			carts:      map[int64]models.Cart{},
			cartByUser: map[int64]int64{},
			orders:     map[int64]models.Order{},
		},
	}
}

func (st *memState) nextID() int64 {
	st.seq++
	return st.seq
}

func (st *memState) clone() *memState {
	c := &memState{
		seq:        st.seq,
		users:      make(map[int64]models.User, len(st.users)),
		products:   make(map[int64]models.Product, len(st.products)),
		carts:      make(map[int64]models.Cart, len(st.carts)),
		cartByUser: make(map[int64]int64, len(st.cartByUser)),
		orders:     make(map[int64]models.Order, len(st.orders)),
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.products {
		c.products[k] = copyProduct(v)
	}
	for k, v := range st.carts {
		v.Items = append([]models.CartItem(nil), v.Items...)
		c.carts[k] = v
	}
	for k, v := range st.cartByUser {
		c.cartByUser[k] = v
	}
	for k, v := range st.orders {
		c.orders[k] = copyOrder(v)
	}
	return c
}

func copyProduct(p models.Product) models.Product {
	p.Images = append([]models.ProductImage{}, p.Images...)
	if p.BuyerID != nil {
		id := *p.BuyerID
		p.BuyerID = &id
	}
	return p
}

func copyOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderLine{}, o.Items...)
	if o.TrackingNumber != nil {
		t := *o.TrackingNumber
		o.TrackingNumber = &t
	}
	if o.EstimatedDelivery != nil {
		t := *o.EstimatedDelivery
		o.EstimatedDelivery = &t
	}
	return o
}

// InTx runs fn against a private copy of the data and publishes the copy
// when fn succeeds. Transactions are serialized with each other.
func (m *Memory) InTx(ctx context.Context, fn func(tx Store) error) error {
	if m.inTx {
		return fn(m)
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	tx := &Memory{txMu: m.txMu, inTx: true, state: m.state.clone()}
	m.mu.Unlock()

	if err := fn(tx); err != nil {
		return err
	}

	m.mu.Lock()
	m.state = tx.state
	m.mu.Unlock()
	return nil
}

// lockWrite serializes a direct write with running transactions so the
// write is not lost when a transaction publishes its copy.
func (m *Memory) lockWrite() func() {
	if !m.inTx {
		m.txMu.Lock()
	}
	m.mu.Lock()
	return func() {
		m.mu.Unlock()
		if !m.inTx {
			m.txMu.Unlock()
		}
	}
}

// --- Products ---

func (m *Memory) CreateProduct(ctx context.Context, p *models.Product) error {
	defer m.lockWrite()()

	p.ID = m.state.nextID()
	m.state.products[p.ID] = copyProduct(*p)
	return nil
}

func (m *Memory) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.state.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	p = copyProduct(p)
	return &p, nil
}

// newestFirst orders products by creation time, then id, descending.
func newestFirst(products []models.Product) {
	sort.Slice(products, func(i, j int) bool {
		if !products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].CreatedAt.After(products[j].CreatedAt)
		}
		return products[i].ID > products[j].ID
	})
}

func (m *Memory) filterProducts(keep func(p *models.Product) bool) []models.Product {
	out := []models.Product{}
	for _, p := range m.state.products {
		if keep(&p) {
			out = append(out, copyProduct(p))
		}
	}
	newestFirst(out)
	return out
}

func (m *Memory) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	search := strings.ToLower(f.Search)
	matched := m.filterProducts(func(p *models.Product) bool {
		if p.Status != models.ProductAvailable {
			return false
		}
		if f.Category != "" && p.Category != f.Category {
			return false
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Title), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			return false
		}
		return true
	})

	total := len(matched)
	start := min(max(f.Offset, 0), total)
	end := total
	if f.Limit > 0 {
		end = min(start+f.Limit, total)
	}
	return matched[start:end], total, nil
}

func (m *Memory) ListProductsBySeller(ctx context.Context, sellerID int64) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterProducts(func(p *models.Product) bool { return p.SellerID == sellerID }), nil
}

func (m *Memory) ListProductsByBuyer(ctx context.Context, buyerID int64) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filterProducts(func(p *models.Product) bool { return p.BuyerID != nil && *p.BuyerID == buyerID }), nil
}

func (m *Memory) UpdateProduct(ctx context.Context, p *models.Product) error {
	defer m.lockWrite()()

	cur, ok := m.state.products[p.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Status == models.ProductSold {
		return ErrNotAvailable
	}
	cur.Title = p.Title
	cur.Description = p.Description
	cur.Category = p.Category
	cur.Price = p.Price
	cur.Image = p.Image
	cur.Images = append([]models.ProductImage{}, p.Images...)
	cur.Condition = p.Condition
	cur.Location = p.Location
	cur.UpdatedAt = p.UpdatedAt
	m.state.products[p.ID] = cur
	return nil
}

func (m *Memory) DeleteProduct(ctx context.Context, id int64) error {
	defer m.lockWrite()()

	if _, ok := m.state.products[id]; !ok {
		return ErrNotFound
	}
	delete(m.state.products, id)
	return nil
}

func (m *Memory) MarkSold(ctx context.Context, productID, buyerID int64, at time.Time) error {
	defer m.lockWrite()()

	p, ok := m.state.products[productID]
	if !ok || p.Status != models.ProductAvailable {
		return ErrNotAvailable
	}
	p.Status = models.ProductSold
	p.BuyerID = &buyerID
	p.UpdatedAt = at
	m.state.products[productID] = p
	return nil
}

func (m *Memory) summary(productID int64) *models.ProductSummary {
	p, ok := m.state.products[productID]
	if !ok {
		return nil
	}
	return p.Summary()
}

// --- Carts ---

func (m *Memory) GetCart(ctx context.Context, userID int64) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.state.cartByUser[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cart := m.state.carts[id]
	items := make([]models.CartItem, len(cart.Items))
	for i, item := range cart.Items {
		item.Product = m.summary(item.ProductID)
		items[i] = item
	}
	cart.Items = items
	return &cart, nil
}

func (m *Memory) CreateCart(ctx context.Context, cart *models.Cart) error {
	defer m.lockWrite()()

	if _, ok := m.state.cartByUser[cart.UserID]; ok {
		return ErrDuplicate
	}
	cart.ID = m.state.nextID()
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	stored := *cart
	stored.Items = []models.CartItem{}
	m.state.carts[cart.ID] = stored
	m.state.cartByUser[cart.UserID] = cart.ID
	return nil
}

func (m *Memory) AddCartItem(ctx context.Context, cartID, productID int64, quantity int, at time.Time) error {
	defer m.lockWrite()()

	cart, ok := m.state.carts[cartID]
	if !ok {
		return ErrNotFound
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity += quantity
			m.state.carts[cartID] = cart
			return nil
		}
	}
	cart.Items = append(cart.Items, models.CartItem{
		ID:        m.state.nextID(),
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
		AddedAt:   at,
	})
	m.state.carts[cartID] = cart
	return nil
}

func (m *Memory) SetCartItemQuantity(ctx context.Context, cartID, itemID int64, quantity int) error {
	defer m.lockWrite()()

	cart, ok := m.state.carts[cartID]
	if !ok {
		return ErrNotFound
	}
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			cart.Items[i].Quantity = quantity
			m.state.carts[cartID] = cart
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) DeleteCartItem(ctx context.Context, cartID, itemID int64) error {
	defer m.lockWrite()()

	cart, ok := m.state.carts[cartID]
	if !ok {
		return ErrNotFound
	}
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			cart.Items = append(cart.Items[:i:i], cart.Items[i+1:]...)
			m.state.carts[cartID] = cart
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) ClearCart(ctx context.Context, cartID int64, at time.Time) error {
	defer m.lockWrite()()

	cart, ok := m.state.carts[cartID]
	if !ok {
		return ErrNotFound
	}
	cart.Items = []models.CartItem{}
	cart.TotalAmount = decimal.Zero
	cart.ItemCount = 0
	cart.UpdatedAt = at
	m.state.carts[cartID] = cart
	return nil
}

func (m *Memory) SaveCartTotals(ctx context.Context, cartID int64, total decimal.Decimal, count int, at time.Time) error {
	defer m.lockWrite()()

	cart, ok := m.state.carts[cartID]
	if !ok {
		return ErrNotFound
	}
	cart.TotalAmount = total
	cart.ItemCount = count
	cart.UpdatedAt = at
	m.state.carts[cartID] = cart
	return nil
}

// --- Orders ---

func (m *Memory) CreateOrder(ctx context.Context, o *models.Order) error {
	defer m.lockWrite()()

	for _, existing := range m.state.orders {
		if existing.OrderNumber == o.OrderNumber {
			return ErrDuplicate
		}
	}
	o.ID = m.state.nextID()
	for i := range o.Items {
		o.Items[i].ID = m.state.nextID()
		o.Items[i].OrderID = o.ID
	}
	stored := copyOrder(*o)
	for i := range stored.Items {
		stored.Items[i].Product = nil
	}
	m.state.orders[o.ID] = stored
	return nil
}

func (m *Memory) UpdateOrder(ctx context.Context, o *models.Order) error {
	defer m.lockWrite()()

	cur, ok := m.state.orders[o.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Status = o.Status
	cur.TrackingNumber = o.TrackingNumber
	cur.EstimatedDelivery = o.EstimatedDelivery
	cur.Notes = o.Notes
	cur.UpdatedAt = o.UpdatedAt
	m.state.orders[o.ID] = copyOrder(cur)
	return nil
}

func (m *Memory) expandOrder(o models.Order) models.Order {
	o = copyOrder(o)
	for i := range o.Items {
		o.Items[i].Product = m.summary(o.Items[i].ProductID)
	}
	return o
}

func (m *Memory) GetOrder(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.state.orders[orderID]
	if !ok || o.UserID != userID {
		return nil, ErrNotFound
	}
	o = m.expandOrder(o)
	return &o, nil
}

func (m *Memory) ListOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	orders := []models.Order{}
	for _, o := range m.state.orders {
		if o.UserID == userID {
			orders = append(orders, m.expandOrder(o))
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
	return orders, nil
}

func (m *Memory) advance(from, to string, due func(o *models.Order) bool, at time.Time) int64 {
	defer m.lockWrite()()

	var n int64
	for id, o := range m.state.orders {
		if o.Status == from && due(&o) {
			o.Status = to
			o.UpdatedAt = at
			m.state.orders[id] = o
			n++
		}
	}
	return n
}

func (m *Memory) ShipOrders(ctx context.Context, cutoff, at time.Time) (int64, error) {
	return m.advance(models.OrderConfirmed, models.OrderShipped, func(o *models.Order) bool {
		return !o.CreatedAt.After(cutoff)
	}, at), nil
}

func (m *Memory) DeliverOrders(ctx context.Context, at time.Time) (int64, error) {
	return m.advance(models.OrderShipped, models.OrderDelivered, func(o *models.Order) bool {
		return o.EstimatedDelivery != nil && !o.EstimatedDelivery.After(at)
	}, at), nil
}

// --- Users ---

func (m *Memory) CreateUser(ctx context.Context, u *models.User) error {
	defer m.lockWrite()()

	for _, existing := range m.state.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicate
		}
	}
	u.ID = m.state.nextID()
	m.state.users[u.ID] = *u
	return nil
}

func (m *Memory) GetUser(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.state.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.state.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}
