package dbridge

import "testing"

func TestRotationWatcherNotifyDedupesUnchangedValues(t *testing.T) {
	rw := NewRotationWatcher(nil, "emulator-5554")
	var seen []int
	rw.Register(func(o int) { seen = append(seen, o) })

	rw.notify(1)
	rw.notify(1)
	rw.notify(2)
	rw.notify(2)
	rw.notify(1)

	want := []int{1, 2, 1}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("seen[%d] = %d, want %d", i, seen[i], want[i])
		}
	}
}

func TestRotationWatcherObserversCalledInRegistrationOrder(t *testing.T) {
	rw := NewRotationWatcher(nil, "emulator-5554")
	var order []string
	rw.Register(func(o int) { order = append(order, "first") })
	rw.Register(func(o int) { order = append(order, "second") })

	rw.notify(3)

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("observer call order = %v", order)
	}
}
