package observable

import "testing"

func TestObservable_NotifyOrder(t *testing.T) {
	o := New[int]()
	var got []string
	o.Add(func(v int) { got = append(got, "first") })
	o.Add(func(v int) { got = append(got, "second") })

	o.Notify(1)

	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("notification order = %v", got)
	}
}

func TestObservable_Remove(t *testing.T) {
	o := New[string]()
	calls := 0
	tok := o.Add(func(string) { calls++ })

	if !o.Remove(tok) {
		t.Fatal("Remove() = false for a subscribed token")
	}
	if o.Remove(tok) {
		t.Error("second Remove() = true, want false")
	}
	o.Notify("x")
	if calls != 0 {
		t.Errorf("removed observer called %d times", calls)
	}
}

func TestObservable_RemoveDuringNotify(t *testing.T) {
	o := New[int]()
	var tok Token
	calls := 0
	tok = o.Add(func(int) {
		calls++
		o.Remove(tok)
	})
	other := 0
	o.Add(func(int) { other++ })

	o.Notify(1)
	o.Notify(2)

	if calls != 1 {
		t.Errorf("self-removing observer called %d times, want 1", calls)
	}
	if other != 2 {
		t.Errorf("other observer called %d times, want 2", other)
	}
	if o.Len() != 1 {
		t.Errorf("Len() = %d, want 1", o.Len())
	}
}
