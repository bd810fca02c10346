package resp

// AppendConverted converts each element of src and appends the results to
// dst in source order.
//
// An empty src leaves dst untouched: no conversion runs and capacity does
// not change. A non-empty src costs at most one capacity expansion, sized
// up front for len(src) additional values, so the per-element appends never
// reallocate.
func AppendConverted[E Convertible](dst *[]Value, src []E) {
	if len(src) == 0 {
		return
	}
	grow(dst, len(src))
	for _, e := range src {
		*dst = append(*dst, e.ToValue())
	}
}

// AppendWith reserves room for sizeHint additional values, then invokes
// insert once per element of src in source order. Each invocation may
// append zero or more values, so one source element can fan out to several
// protocol values.
//
// A sizeHint of zero or less falls back to len(src). A hint that
// undercounts what insert actually appends costs extra reallocations, never
// correctness. An empty src reserves nothing and never invokes insert.
func AppendWith[E any](dst *[]Value, src []E, sizeHint int, insert func(*[]Value, E)) {
	if len(src) == 0 {
		return
	}
	if sizeHint <= 0 {
		sizeHint = len(src)
	}
	grow(dst, sizeHint)
	for _, e := range src {
		insert(dst, e)
	}
}

// grow ensures dst can hold n more values without reallocating. It copies
// at most once, to a slice with capacity exactly len+n.
func grow(dst *[]Value, n int) {
	need := len(*dst) + n
	if cap(*dst) >= need {
		return
	}
	grown := make([]Value, len(*dst), need)
	copy(grown, *dst)
	*dst = grown
}
