package cart

import (
	"sync"
	"testing"
	"time"

	"github.com/surf-station/storefront/internal/catalog"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingObserver struct {
	mu          sync.Mutex
	transitions []Transition
}

func (r *recordingObserver) Observe(t Transition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, t)
}

func (r *recordingObserver) kinds() []CommandKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CommandKind, 0, len(r.transitions))
	for _, t := range r.transitions {
		out = append(out, t.Command.Kind())
	}
	return out
}

func newTestStore(observers ...Observer) *Store {
	return NewStore(Options{
		Key:       "scrole-cart:test",
		Clock:     func() time.Time { return fixedNow },
		Observers: observers,
	})
}

func TestStoreStartsEmptyAndClosed(t *testing.T) {
	store := newTestStore()
	snapshot := store.Snapshot()
	if !snapshot.IsEmpty() || snapshot.IsOpen {
		t.Fatalf("new store should be empty and closed: %+v", snapshot)
	}
	if store.Generation() != 0 {
		t.Fatalf("generation want 0 got %d", store.Generation())
	}
}

func TestStoreNotifiesObserversExceptLoad(t *testing.T) {
	observer := &recordingObserver{}
	store := newTestStore(observer)
	product, variant := productWithVariant(1, 10, "10")

	store.Load(Snapshot{Items: []LineItem{{ID: "1-10", Product: product, Variant: variant, Quantity: 1}}})
	store.AddItem(product, variant, 2)
	store.UpdateQuantity("1-10", 4)
	store.RemoveItem("missing")
	store.ToggleCart()
	store.OpenCart()
	store.CloseCart()
	store.ClearCart()

	want := []CommandKind{KindAddItem, KindUpdateQuantity, KindRemoveItem, KindToggleCart, KindOpenCart, KindCloseCart, KindClearCart}
	got := observer.kinds()
	if len(got) != len(want) {
		t.Fatalf("observer calls want %v got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("observer call %d want %s got %s", i, want[i], got[i])
		}
	}
	if store.Generation() != 8 {
		t.Fatalf("generation want 8 got %d", store.Generation())
	}
	first := observer.transitions[0]
	if first.Previous.TotalQuantity != 1 || first.Current.TotalQuantity != 3 {
		t.Fatalf("unexpected first transition: prev=%d cur=%d", first.Previous.TotalQuantity, first.Current.TotalQuantity)
	}
	if first.Generation != 2 || first.Key != "scrole-cart:test" {
		t.Fatalf("unexpected transition metadata: %+v", first)
	}
}

func TestStoreSnapshotIsolation(t *testing.T) {
	store := newTestStore()
	product, variant := productWithVariant(1, 10, "10")
	returned := store.AddItem(product, variant, 1)
	returned.Items[0].Quantity = 99

	read := store.Snapshot()
	read.Items[0].Quantity = 42
	read.IsOpen = true

	current := store.Snapshot()
	if current.Items[0].Quantity != 1 || current.IsOpen {
		t.Fatalf("store state leaked to callers: %+v", current)
	}
}

func TestStoreObserverSeesConsistentSnapshot(t *testing.T) {
	var store *Store
	var observed []Snapshot
	store = newTestStore(ObserverFunc(func(t Transition) {
		observed = append(observed, t.Current)
	}))
	product, variant := productWithVariant(1, 10, "10")
	store.AddItem(product, variant, 1)
	store.AddItem(product, variant, 1)
	if len(observed) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(observed))
	}
	if observed[0].TotalQuantity != 1 || observed[1].TotalQuantity != 2 {
		t.Fatalf("observers should see each generation in order: %+v", observed)
	}
}

func TestStoreConcurrentDispatch(t *testing.T) {
	observer := &recordingObserver{}
	store := newTestStore(observer)
	product, variant := productWithVariant(1, 10, "1.5")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.AddItem(product, variant, 2)
			_ = store.Snapshot()
		}()
	}
	wg.Wait()

	snapshot := store.Snapshot()
	if len(snapshot.Items) != 1 || snapshot.TotalQuantity != 100 {
		t.Fatalf("concurrent adds lost updates: %+v", snapshot)
	}
	if !snapshot.TotalPrice.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("total price want 150 got %s", snapshot.TotalPrice)
	}
	for i, tr := range observer.transitions {
		if tr.Generation != uint64(i+1) {
			t.Fatalf("transitions out of order at %d: %d", i, tr.Generation)
		}
	}
}

func TestStoreDispatchNilCommand(t *testing.T) {
	store := newTestStore()
	store.Dispatch(nil)
	if store.Generation() != 0 {
		t.Fatalf("nil command should not count as a transition")
	}
}

func TestStoreLogsUnparsablePrice(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	store := NewStore(Options{
		Key:    "scrole-cart:test",
		Clock:  func() time.Time { return fixedNow },
		Logger: zap.New(core),
	})
	product := catalog.Product{ID: 3, Handle: "wax", Title: "Wax"}
	broken := catalog.Variant{ID: 30, Price: "abc", Available: true}
	priced := catalog.Variant{ID: 31, Price: "4.50", Available: true}

	snapshot := store.AddItem(product, broken, 2)
	if !snapshot.TotalPrice.Equal(decimal.Zero) || snapshot.TotalQuantity != 2 {
		t.Fatalf("unparsable price should count as zero: qty=%d total=%s", snapshot.TotalQuantity, snapshot.TotalPrice)
	}
	entries := logs.FilterMessage("cart_price_unparsable").All()
	if len(entries) != 1 {
		t.Fatalf("expected one unparsable price warning, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["item_id"] != LineKey(3, 30) || fields["raw_price"] != "abc" {
		t.Fatalf("unexpected warning fields: %v", fields)
	}

	snapshot = store.AddItem(product, priced, 1)
	if snapshot.TotalPrice.StringFixed(2) != "4.50" {
		t.Fatalf("priced line should still total, got %s", snapshot.TotalPrice.StringFixed(2))
	}
	store.ToggleCart()
	if got := logs.FilterMessage("cart_price_unparsable").Len(); got != 1 {
		t.Fatalf("unchanged line should not warn again, got %d warnings", got)
	}
}
