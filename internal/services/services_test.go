package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"zeendr/internal/amqp"
	"zeendr/internal/bulk"
	"zeendr/internal/cache"
	"zeendr/internal/core"
	"zeendr/internal/delivery"
	"zeendr/internal/ledger/memory"
	"zeendr/internal/storage"
)

type fakePublisher struct {
	mu   sync.Mutex
	msgs []*amqp.Message
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, msg *amqp.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func (p *fakePublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.msgs))
	for i, m := range p.msgs {
		out[i] = m.Kind
	}
	return out
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate() { c.n++ }

func newRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "zeendr.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func zones(t *testing.T) *delivery.Table {
	t.Helper()
	z, err := delivery.Default()
	if err != nil {
		t.Fatalf("delivery.Default: %v", err)
	}
	return z
}

func seedProduct(t *testing.T, repo *storage.SQLiteRepository, name string, price int64, discount float64) core.ProductRef {
	t.Helper()
	id, err := repo.Queries().CreateProduct(context.Background(), core.Product{
		Name: name, Price: core.Pesos(price), Discount: discount, Stock: 10, UnitsProduced: 1,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	return core.ProductRefOf(id)
}

func manualOrder(lines ...core.OrderLine) OrderInput {
	return OrderInput{Order: core.Order{
		CustomerName: "Ana Pérez",
		Phone:        "3001234567",
		Address:      "Calle 1",
		Neighborhood: "Chapinero",
		Lines:        lines,
	}}
}

func TestOrderServiceCreatePricesOrder(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	pub := &fakePublisher{}
	inv := &countingInvalidator{}
	svc := NewOrderService(repo, zones(t), core.TransitionPolicy{}, pub, inv)

	granola := seedProduct(t, repo, "Granola", 20000, 10)
	custom := core.Pesos(5000)
	in := manualOrder(
		core.OrderLine{ProductID: granola, Quantity: 2},
		core.OrderLine{ProductID: "999", Quantity: 1, CustomPrice: &custom},
	)
	in.DiscountPercent = 10

	o, err := svc.Create(ctx, in, "ana")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if o.Status != core.StatusConfirmed {
		t.Errorf("status = %s, want Confirmed", o.Status)
	}
	// 2 x 18000 + 5000
	if !o.ProductsTotal.Equal(core.Pesos(41000)) {
		t.Errorf("products total = %s, want 41000", o.ProductsTotal)
	}
	if !o.DeliveryFee.Equal(core.Pesos(6000)) {
		t.Errorf("delivery fee = %s, want zone fee 6000", o.DeliveryFee)
	}
	if !o.DiscountedTotal.Equal(core.Pesos(36900)) || !o.Total.Equal(core.Pesos(42900)) {
		t.Errorf("discounted %s total %s, want 36900 and 42900", o.DiscountedTotal, o.Total)
	}
	if inv.n != 1 {
		t.Errorf("invalidations = %d, want 1", inv.n)
	}
	if k := pub.kinds(); len(k) != 1 || k[0] != amqp.KindLedgerSync {
		t.Errorf("published %v, want one ledger.sync", k)
	}
}

func TestOrderServiceDeliveryFeeResolution(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	svc := NewOrderService(repo, zones(t), core.TransitionPolicy{}, nil, nil)
	ref := seedProduct(t, repo, "Pan", 5000, 0)
	if err := repo.SetDeliveryPrice(ctx, core.Pesos(8000)); err != nil {
		t.Fatalf("SetDeliveryPrice: %v", err)
	}

	explicit := core.Pesos(1000)
	tests := []struct {
		name   string
		mutate func(in *OrderInput)
		want   core.Money
	}{
		{name: "zone table", mutate: func(in *OrderInput) {}, want: core.Pesos(6000)},
		{name: "request value", mutate: func(in *OrderInput) { in.DeliveryFee = &explicit }, want: explicit},
		{name: "configured price", mutate: func(in *OrderInput) { in.Neighborhood = "Desconocido" }, want: core.Pesos(8000)},
		{name: "point of sale", mutate: func(in *OrderInput) { in.PointOfSale = true }, want: core.Money{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := manualOrder(core.OrderLine{ProductID: ref, Quantity: 1})
			tt.mutate(&in)
			o, err := svc.Create(ctx, in, "")
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if !o.DeliveryFee.Equal(tt.want) {
				t.Fatalf("fee = %s, want %s", o.DeliveryFee, tt.want)
			}
		})
	}
}

func TestOrderServicePointOfSaleSkipsClient(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	svc := NewOrderService(repo, zones(t), core.TransitionPolicy{}, nil, nil)
	ref := seedProduct(t, repo, "Pan", 5000, 0)

	in := manualOrder(core.OrderLine{ProductID: ref})
	in.PointOfSale = true
	o, err := svc.Create(ctx, in, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if o.CustomerName != core.PointOfSaleName || o.Phone != core.PointOfSalePhone {
		t.Fatalf("customer = %q %q", o.CustomerName, o.Phone)
	}
	clients, _ := repo.Queries().ListClients(ctx, "")
	if len(clients) != 0 {
		t.Fatalf("clients = %+v, want none", clients)
	}
}

func TestOrderServiceRejectsInvalidOrder(t *testing.T) {
	repo := newRepo(t)
	svc := NewOrderService(repo, zones(t), core.TransitionPolicy{}, nil, nil)

	_, err := svc.Create(context.Background(), manualOrder(), "")
	if !errors.Is(err, ErrValidation) || !errors.Is(err, core.ErrNoProducts) {
		t.Fatalf("err = %v, want validation error for missing products", err)
	}
	_, err = svc.Create(context.Background(), manualOrder(core.OrderLine{ProductID: "42"}), "")
	if !errors.Is(err, core.ErrUnknownProduct) {
		t.Fatalf("err = %v, want ErrUnknownProduct", err)
	}
}

func TestOrderServiceChangeStatus(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	pub := &fakePublisher{}
	svc := NewOrderService(repo, zones(t), core.TransitionPolicy{}, pub, nil)
	ref := seedProduct(t, repo, "Pan", 5000, 0)

	in := manualOrder(core.OrderLine{ProductID: ref})
	in.Status = core.StatusReceived
	o, err := svc.Create(ctx, in, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(pub.kinds()) != 0 {
		t.Fatalf("received order published %v", pub.kinds())
	}

	if _, _, err := svc.ChangeStatus(ctx, o.ID, core.StatusConfirmed, true, "ana"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if k := pub.kinds(); len(k) != 1 || k[0] != amqp.KindLedgerSync {
		t.Fatalf("confirm published %v, want only ledger.sync", k)
	}

	_, change, err := svc.ChangeStatus(ctx, o.ID, core.StatusSent, true, "ana")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !change.Notify || change.From != core.StatusConfirmed {
		t.Fatalf("change = %+v", change)
	}
	k := pub.kinds()
	if len(k) != 3 || k[1] != amqp.KindOrderNotify {
		t.Fatalf("send published %v, want notify then ledger.sync", k)
	}

	_, _, err = svc.ChangeStatus(ctx, o.ID, core.StatusConfirmed, false, "ana")
	if !errors.Is(err, core.ErrInvalidTransition) {
		t.Fatalf("rollback err = %v, want ErrInvalidTransition", err)
	}

	_, _, err = svc.ChangeStatus(ctx, o.ID, core.StatusSent, true, "ana")
	if err != nil {
		t.Fatalf("same status: %v", err)
	}
	if len(pub.kinds()) != 3 {
		t.Fatalf("no-op change published %v", pub.kinds())
	}

	_, _, err = svc.ChangeStatus(ctx, o.ID, "Pedido Perdido", false, "ana")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown status err = %v, want ErrValidation", err)
	}
}

func TestOrderServiceNotifyWithoutPublisherIsRecordedOff(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	svc := NewOrderService(repo, zones(t), core.TransitionPolicy{}, nil, nil)
	ref := seedProduct(t, repo, "Pan", 5000, 0)

	o, err := svc.Create(ctx, manualOrder(core.OrderLine{ProductID: ref}), "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, change, err := svc.ChangeStatus(ctx, o.ID, core.StatusSent, true, "ana")
	if err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if change.Notify {
		t.Fatalf("change recorded notify without a publisher: %+v", change)
	}
	history, err := svc.History(ctx, o.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if last := history[len(history)-1]; last.To != core.StatusSent || last.Notify {
		t.Fatalf("last history entry = %+v", last)
	}
}

func TestOrderServiceRollbackPolicy(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	svc := NewOrderService(repo, zones(t), core.TransitionPolicy{AllowRollback: true}, nil, nil)
	ref := seedProduct(t, repo, "Pan", 5000, 0)

	in := manualOrder(core.OrderLine{ProductID: ref})
	in.Status = core.StatusSent
	o, err := svc.Create(ctx, in, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, _, err := svc.ChangeStatus(ctx, o.ID, core.StatusConfirmed, false, ""); err != nil {
		t.Fatalf("rollback with policy: %v", err)
	}
}

func TestOrderServiceUpdateKeepsStatus(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	svc := NewOrderService(repo, zones(t), core.TransitionPolicy{}, nil, nil)
	ref := seedProduct(t, repo, "Pan", 5000, 0)

	o, err := svc.Create(ctx, manualOrder(core.OrderLine{ProductID: ref}), "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	in := manualOrder(core.OrderLine{ProductID: ref, Quantity: 3})
	in.Status = core.StatusRejected
	updated, err := svc.Update(ctx, o.ID, in)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != core.StatusConfirmed {
		t.Errorf("status = %s, want unchanged", updated.Status)
	}
	if !updated.ProductsTotal.Equal(core.Pesos(15000)) {
		t.Errorf("products total = %s, want 15000", updated.ProductsTotal)
	}
	if !updated.CreatedAt.Equal(o.CreatedAt.Time) {
		t.Errorf("created_at changed: %v -> %v", o.CreatedAt, updated.CreatedAt)
	}
}

func TestOrderServiceImportIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	svc := NewOrderService(repo, zones(t), core.TransitionPolicy{}, nil, nil)
	ref := seedProduct(t, repo, "Pan", 5000, 0)

	good := manualOrder(core.OrderLine{ProductID: ref})
	bad := manualOrder(core.OrderLine{ProductID: ref})
	bad.CustomerName = ""

	_, err := svc.Import(ctx, []OrderInput{good, bad}, "")
	var rowErrs bulk.Errors
	if !errors.As(err, &rowErrs) || len(rowErrs) != 1 || rowErrs[0].Row != 3 {
		t.Fatalf("err = %v, want a row 3 error", err)
	}
	orders, _ := svc.List(ctx)
	if len(orders) != 0 {
		t.Fatalf("stored %d orders after failed import", len(orders))
	}

	ids, err := svc.Import(ctx, []OrderInput{good, good}, "")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("ids = %v", ids)
	}
}

func TestOrderServiceImportKeepsUploadRows(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	svc := NewOrderService(repo, zones(t), core.TransitionPolicy{}, nil, nil)
	ref := seedProduct(t, repo, "Pan", 5000, 0)

	good := manualOrder(core.OrderLine{ProductID: ref})
	good.Row = 2
	unknown := manualOrder(core.OrderLine{ProductID: "999"})
	unknown.Row = 5

	_, err := svc.Import(ctx, []OrderInput{good, unknown}, "")
	var rowErrs bulk.Errors
	if !errors.As(err, &rowErrs) {
		t.Fatalf("err = %v, want bulk.Errors", err)
	}
	if len(rowErrs) != 1 || rowErrs[0].Row != 5 {
		t.Fatalf("row errors = %+v, want row 5", rowErrs)
	}
	if strings.HasPrefix(rowErrs[0].Message, ErrValidation.Error()) {
		t.Fatalf("message %q repeats the validation prefix", rowErrs[0].Message)
	}
}

func TestExpenseService(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewExpenseService(repo, pub, nil)

	e, err := svc.Create(ctx, core.Expense{Type: "Insumos", Description: "harina", Amount: core.Pesos(12000), Date: core.NewDate(2024, 5, 2)})
	if err != nil {
		t.Fatalf("Create should not fail when publishing fails: %v", err)
	}
	if e.ID == 0 {
		t.Fatal("expected an id")
	}

	_, err = svc.Create(ctx, core.Expense{Type: "Insumos", Amount: core.Pesos(-1), Date: core.NewDate(2024, 5, 2)})
	if !errors.Is(err, ErrValidation) || !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("err = %v, want invalid amount", err)
	}

	e.Amount = core.Pesos(15000)
	if _, err := svc.Update(ctx, e); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := svc.Delete(ctx, e.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, e.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestInventoryService(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	svc := NewInventoryService(repo, nil)

	flour, err := repo.Queries().CreateSupply(ctx, core.Supply{Name: "Harina", Price: core.Pesos(10000), Quantity: 1, Unit: core.UnitKilogram})
	if err != nil {
		t.Fatalf("CreateSupply: %v", err)
	}
	p, err := svc.SaveProduct(ctx, core.Product{
		Name:   "Pan",
		Price:  core.Pesos(4000),
		Stock:  5,
		Recipe: []core.RecipeLine{{SupplyID: flour, Quantity: 500, Unit: core.UnitGram}},
	})
	if err != nil {
		t.Fatalf("SaveProduct: %v", err)
	}
	if p.UnitsProduced != 1 || !p.Cost.Equal(core.Pesos(5000)) {
		t.Fatalf("units %d cost %s, want 1 and 5000", p.UnitsProduced, p.Cost)
	}

	_, err = svc.Move(ctx, core.InventoryMovement{Kind: core.MovementOut, Changes: []core.StockChange{{ProductID: p.ID, Quantity: 6}}})
	if !errors.Is(err, storage.ErrNoStock) {
		t.Fatalf("err = %v, want ErrNoStock", err)
	}
	if _, err := svc.Move(ctx, core.InventoryMovement{Kind: "robo"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}

	got, err := svc.SetStock(ctx, p.ID, 20)
	if err != nil {
		t.Fatalf("SetStock: %v", err)
	}
	if got.Stock != 20 {
		t.Fatalf("stock = %d, want 20", got.Stock)
	}

	cost, err := svc.ProductCost(ctx, p.ID)
	if err != nil {
		t.Fatalf("ProductCost: %v", err)
	}
	if cost.Margin != -25 {
		t.Fatalf("margin = %v, want -25", cost.Margin)
	}
}

func TestAuthService(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	svc := NewAuthService(repo, time.Hour)

	if _, err := svc.CreateUser(ctx, core.User{Username: "ana"}, "short"); !errors.Is(err, ErrValidation) {
		t.Fatalf("short password err = %v, want ErrValidation", err)
	}
	if _, err := svc.CreateUser(ctx, core.User{Username: "ana", Establishment: "Zeendr", Role: core.RoleAdmin}, "secreto123"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if _, err := svc.Login(ctx, "ana", "otra-clave"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v", err)
	}
	if _, err := svc.Login(ctx, "nadie", "secreto123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user err = %v", err)
	}

	s, err := svc.Login(ctx, "ana", "secreto123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	got, err := svc.Authenticate(ctx, s.Token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.User.Establishment != "Zeendr" || RequireAdmin(got) != nil {
		t.Fatalf("session user = %+v", got.User)
	}

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := svc.Authenticate(ctx, s.Token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expired session err = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.Authenticate(ctx, "not-a-token"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("garbage token err = %v", err)
	}
	if err := RequireAdmin(core.Session{User: core.User{Role: core.RoleStaff}}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("staff err = %v, want ErrForbidden", err)
	}
}

func TestReportServiceCachesUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	reports := NewReportService(repo, zones(t), cache.NewLRUCache[any](16, time.Minute))
	expenses := NewExpenseService(repo, nil, reports)

	if _, err := expenses.Create(ctx, core.Expense{Type: "Arriendo", Amount: core.Pesos(1000), Date: core.NewDate(2024, 3, 1)}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	first, err := reports.Monthly(ctx, 2024)
	if err != nil {
		t.Fatalf("Monthly: %v", err)
	}
	if !first.TotalExpenses.Equal(core.Pesos(1000)) {
		t.Fatalf("total expenses = %s", first.TotalExpenses)
	}

	if _, err := repo.Queries().CreateExpense(ctx, core.Expense{Type: "Arriendo", Amount: core.Pesos(500), Date: core.NewDate(2024, 3, 2)}); err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	cached, _ := reports.Monthly(ctx, 2024)
	if !cached.TotalExpenses.Equal(core.Pesos(1000)) {
		t.Fatalf("expected cached result, got %s", cached.TotalExpenses)
	}

	if _, err := expenses.Create(ctx, core.Expense{Type: "Arriendo", Amount: core.Pesos(250), Date: core.NewDate(2024, 3, 3)}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	fresh, _ := reports.Monthly(ctx, 2024)
	if !fresh.TotalExpenses.Equal(core.Pesos(1750)) {
		t.Fatalf("total after invalidation = %s, want 1750", fresh.TotalExpenses)
	}
}

func TestReportServiceDropsResultComputedAcrossInvalidation(t *testing.T) {
	reports := NewReportService(newRepo(t), zones(t), cache.NewLRUCache[any](16, time.Minute))

	calls := 0
	compute := func() (int, error) {
		calls++
		if calls == 1 {
			reports.Invalidate()
		}
		return calls, nil
	}

	if v, _ := cached(reports, "k", compute); v != 1 {
		t.Fatalf("first = %d, want 1", v)
	}
	if v, _ := cached(reports, "k", compute); v != 2 {
		t.Fatalf("second = %d, want a fresh computation", v)
	}
	if v, _ := cached(reports, "k", compute); v != 2 {
		t.Fatalf("third = %d, want the cached 2", v)
	}
}

func TestLedgerProcessor(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	store := memory.New()
	proc := NewLedgerProcessor(repo, store, DefaultLedgerProcessorConfig())
	orders := NewOrderService(repo, zones(t), core.TransitionPolicy{}, nil, nil)
	ref := seedProduct(t, repo, "Pan", 5000, 0)

	received := manualOrder(core.OrderLine{ProductID: ref})
	received.Status = core.StatusReceived
	r, err := orders.Create(ctx, received, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	confirmed, err := orders.Create(ctx, manualOrder(core.OrderLine{ProductID: ref}), "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.Queries().CreateExpense(ctx, core.Expense{Type: "Insumos", Amount: core.Pesos(100), Date: core.NewDate(2024, 1, 5)}); err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	if n := proc.ProcessPending(ctx); n != 2 {
		t.Fatalf("synced %d rows, want 2", n)
	}
	if n := proc.ProcessPending(ctx); n != 0 {
		t.Fatalf("second pass synced %d rows, want 0", n)
	}

	// A status change rewrites the existing row instead of appending.
	if _, _, err := orders.ChangeStatus(ctx, confirmed.ID, core.StatusSent, false, ""); err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if n := proc.ProcessPending(ctx); n != 1 {
		t.Fatalf("synced %d rows after status change, want 1", n)
	}
	if err := proc.SyncOrder(ctx, r.ID); err != nil {
		t.Fatalf("SyncOrder on received order: %v", err)
	}
	if store.Writes() != 3 {
		t.Fatalf("ledger writes = %d, want 3", store.Writes())
	}
}

func TestLedgerProcessorStartStop(t *testing.T) {
	repo := newRepo(t)
	proc := NewLedgerProcessor(repo, memory.New(), LedgerProcessorConfig{PollInterval: 10 * time.Millisecond, BatchSize: 5})

	ctx := context.Background()
	if err := proc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := proc.Start(ctx); err == nil {
		t.Fatal("second Start should fail")
	}
	if !proc.IsRunning() {
		t.Fatal("processor should be running")
	}
	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := proc.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if proc.IsRunning() {
		t.Fatal("processor should be stopped")
	}
}

func TestCatalogService(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	inv := &countingInvalidator{}
	svc := NewCatalogService(repo, zones(t), inv)

	c, err := svc.SaveClient(ctx, core.Client{Name: "Ana", Phone: "3001234567"})
	if err != nil {
		t.Fatalf("SaveClient: %v", err)
	}
	again, err := svc.SaveClient(ctx, core.Client{Name: "Ana María", Phone: "3001234567"})
	if err != nil {
		t.Fatalf("SaveClient upsert: %v", err)
	}
	if again.ID != c.ID {
		t.Fatalf("same phone got id %d, want %d", again.ID, c.ID)
	}
	if _, err := svc.SaveClient(ctx, core.Client{Name: "Sin teléfono"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("client without phone err = %v", err)
	}
	if _, err := svc.SaveClient(ctx, core.Client{ID: 999, Name: "X", Phone: "1"}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("update missing client err = %v", err)
	}

	cat, err := svc.SaveCategory(ctx, core.Category{Kind: core.CategoryCoupon, Name: "Temporada"})
	if err != nil {
		t.Fatalf("SaveCategory: %v", err)
	}
	menu, err := svc.Categories(ctx, core.CategoryMenu, "")
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	for _, m := range menu {
		if m.ID == cat.ID {
			t.Fatalf("coupon category listed as menu category")
		}
	}

	if err := svc.SetDeliveryPrice(ctx, core.Pesos(-1)); !errors.Is(err, ErrValidation) {
		t.Fatalf("negative delivery price err = %v", err)
	}
	if err := svc.SetDeliveryPrice(ctx, core.Pesos(7000)); err != nil {
		t.Fatalf("SetDeliveryPrice: %v", err)
	}
	price, err := svc.DeliveryPrice(ctx)
	if err != nil || !price.Equal(core.Pesos(7000)) {
		t.Fatalf("DeliveryPrice = %s, %v", price, err)
	}

	if _, err := svc.SetHours(ctx, []core.BusinessHours{{Day: 9}}); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad weekday err = %v", err)
	}
	if len(svc.Neighborhoods()) == 0 {
		t.Fatal("expected embedded delivery zones")
	}
	if inv.n != 4 {
		t.Fatalf("invalidations = %d, want 4", inv.n)
	}
}
