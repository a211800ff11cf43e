package ecs

// Each1 iterates over entities that have component A.
func Each1[A any](w *World, ca *Component[A], fn func(Entity, *A)) {
	w.Each(func(e Entity) {
		if a := ca.Of(w, e); a != nil {
			fn(e, a)
		}
	})
}

// Each2 iterates over entities that have both component A and B.
func Each2[A, B any](w *World, ca *Component[A], cb *Component[B], fn func(Entity, *A, *B)) {
	w.Each(func(e Entity) {
		a := ca.Of(w, e)
		if a == nil {
			return
		}
		if b := cb.Of(w, e); b != nil {
			fn(e, a, b)
		}
	})
}

// Each3 iterates over entities that have components A, B, and C.
func Each3[A, B, C any](w *World, ca *Component[A], cb *Component[B], cc *Component[C], fn func(Entity, *A, *B, *C)) {
	w.Each(func(e Entity) {
		a := ca.Of(w, e)
		if a == nil {
			return
		}
		b := cb.Of(w, e)
		if b == nil {
			return
		}
		if c := cc.Of(w, e); c != nil {
			fn(e, a, b, c)
		}
	})
}
