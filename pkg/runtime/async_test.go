package runtime

import "testing"

// Property 8 (spec §8): microtasks enqueued in order run in that order,
// including ones a running microtask itself enqueues.
func TestDrainMicrotasksFIFO(t *testing.T) {
	realm := NewRealm()
	var order []int
	realm.EnqueueMicrotask(func() { order = append(order, 1) })
	realm.EnqueueMicrotask(func() {
		order = append(order, 2)
		realm.EnqueueMicrotask(func() { order = append(order, 4) })
	})
	realm.EnqueueMicrotask(func() { order = append(order, 3) })

	realm.DrainMicrotasks()

	want := []int{1, 2, 3, 4}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("position %d: got %d, want %d (full: %v)", i, order[i], want[i], order)
		}
	}
}
