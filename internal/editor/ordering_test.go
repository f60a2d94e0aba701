package editor

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
)

func orderOf(v int64) *int64 {
	return &v
}

// orderRecorder collects concurrent order writes behind a mutex.
type orderRecorder struct {
	mu     sync.Mutex
	orders map[string]int64
	fail   map[string]bool
}

func newOrderRecorder() *orderRecorder {
	return &orderRecorder{orders: make(map[string]int64), fail: make(map[string]bool)}
}

func (r *orderRecorder) write(ctx context.Context, id string, order int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[id] {
		return errors.New("write rejected")
	}
	r.orders[id] = order
	return nil
}

func TestReconcilerMoveAssignsDenseOrders(t *testing.T) {
	rec := newOrderRecorder()
	r := NewReconciler(rec.write, discardLogger())
	r.Reset([]OrderEntry{
		{ID: "a", Order: orderOf(1000)},
		{ID: "b", Order: orderOf(2000)},
		{ID: "c", Order: orderOf(3000)},
		{ID: "d", Order: orderOf(4000)},
	})

	updates := r.Move(context.Background(), 2, 0)

	if got, want := r.IDs(), []string{"c", "a", "b", "d"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("IDs() = %v, want %v", got, want)
	}
	if len(updates) != 4 {
		t.Fatalf("updates = %d, want 4", len(updates))
	}
	want := map[string]int64{"c": 0, "a": 1, "b": 2, "d": 3}
	if !reflect.DeepEqual(rec.orders, want) {
		t.Fatalf("persisted orders = %v, want %v", rec.orders, want)
	}
}

func TestReconcilerMoveSkipsAlreadyDenseRows(t *testing.T) {
	rec := newOrderRecorder()
	r := NewReconciler(rec.write, discardLogger())
	r.Reset([]OrderEntry{
		{ID: "a", Order: orderOf(0)},
		{ID: "b", Order: orderOf(1)},
		{ID: "c", Order: orderOf(2)},
		{ID: "d", Order: orderOf(3)},
	})

	r.Move(context.Background(), 3, 2)

	want := map[string]int64{"d": 2, "c": 3}
	if !reflect.DeepEqual(rec.orders, want) {
		t.Fatalf("persisted orders = %v, want only the changed rows %v", rec.orders, want)
	}
}

func TestReconcilerMoveSamePositionIsNoop(t *testing.T) {
	rec := newOrderRecorder()
	r := NewReconciler(rec.write, discardLogger())
	r.Reset([]OrderEntry{{ID: "a"}, {ID: "b"}})

	if updates := r.Move(context.Background(), 1, 1); updates != nil {
		t.Fatalf("same-position move returned updates: %v", updates)
	}
	if len(rec.orders) != 0 {
		t.Fatalf("same-position move wrote %v", rec.orders)
	}
}

func TestReconcilerMoveOutOfRangeIsNoop(t *testing.T) {
	r := NewReconciler(nil, discardLogger())
	r.Reset([]OrderEntry{{ID: "a"}, {ID: "b"}})

	for _, idx := range [][2]int{{-1, 0}, {0, -1}, {2, 0}, {0, 2}} {
		if updates := r.Move(context.Background(), idx[0], idx[1]); updates != nil {
			t.Fatalf("Move(%d, %d) returned updates: %v", idx[0], idx[1], updates)
		}
	}
}

func TestReconcilerMoveAppliesLocallyBeforeWrites(t *testing.T) {
	var r *Reconciler
	var mu sync.Mutex
	var seenDuringWrite []string
	write := func(ctx context.Context, id string, order int64) error {
		mu.Lock()
		defer mu.Unlock()
		if seenDuringWrite == nil {
			seenDuringWrite = r.IDs()
		}
		return nil
	}
	r = NewReconciler(write, discardLogger())
	r.Reset([]OrderEntry{
		{ID: "a", Order: orderOf(10)},
		{ID: "b", Order: orderOf(20)},
		{ID: "c", Order: orderOf(30)},
	})

	r.Move(context.Background(), 0, 2)

	if want := []string{"b", "c", "a"}; !reflect.DeepEqual(seenDuringWrite, want) {
		t.Fatalf("order seen during write = %v, want %v (optimistic apply)", seenDuringWrite, want)
	}
}

func TestReconcilerWriteFailureKeepsLocalOrder(t *testing.T) {
	rec := newOrderRecorder()
	rec.fail["b"] = true
	r := NewReconciler(rec.write, discardLogger())
	r.Reset([]OrderEntry{
		{ID: "a", Order: orderOf(100)},
		{ID: "b", Order: orderOf(200)},
		{ID: "c", Order: orderOf(300)},
	})

	r.Move(context.Background(), 2, 0)

	// No rollback: the local mirror keeps the new order even though one
	// row failed to persist. The next Reset from an authoritative read
	// reconverges.
	if got, want := r.IDs(), []string{"c", "a", "b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("IDs() = %v, want %v", got, want)
	}
	if _, ok := rec.orders["b"]; ok {
		t.Fatal("failed row should not have been recorded")
	}
	if rec.orders["c"] != 0 || rec.orders["a"] != 1 {
		t.Fatalf("surviving writes = %v", rec.orders)
	}
}

func TestReconcilerResetReplacesMirror(t *testing.T) {
	r := NewReconciler(nil, discardLogger())
	r.Reset([]OrderEntry{{ID: "a"}, {ID: "b"}})
	r.Reset([]OrderEntry{{ID: "x"}, {ID: "y"}, {ID: "z"}})

	if got, want := r.IDs(), []string{"x", "y", "z"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("IDs() = %v, want %v", got, want)
	}
}
