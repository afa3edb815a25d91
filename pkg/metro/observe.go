package metro

// observers is a list of change callbacks.
type observers[T any] struct {
	seq  int
	subs []subscription[T]
}

type subscription[T any] struct {
	id int
	fn func(T)
}

// subscribe registers fn and returns a function that removes it again.
func (o *observers[T]) subscribe(fn func(T)) func() {
	o.seq++
	id := o.seq
	o.subs = append(o.subs, subscription[T]{id: id, fn: fn})
	return func() {
		for i, s := range o.subs {
			if s.id == id {
				o.subs = append(o.subs[:i:i], o.subs[i+1:]...)
				return
			}
		}
	}
}

func (o *observers[T]) notify(v T) {
	if len(o.subs) == 0 {
		return
	}
	// Callbacks may unsubscribe while we iterate.
	for _, s := range append([]subscription[T](nil), o.subs...) {
		s.fn(v)
	}
}
