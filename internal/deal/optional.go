package deal

// Optional holds a value that may be unknown. The zero value is unknown,
// which keeps "no data" distinct from a legitimate zero.
type Optional[T any] struct {
	v  T
	ok bool
}

// Some wraps a known value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{v: v, ok: true}
}

// None returns an unknown value.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is known.
func (o Optional[T]) Get() (T, bool) {
	return o.v, o.ok
}

// Known reports whether the value is present.
func (o Optional[T]) Known() bool {
	return o.ok
}

// Or returns the value, or fallback when unknown.
func (o Optional[T]) Or(fallback T) T {
	if !o.ok {
		return fallback
	}
	return o.v
}

// Days is a day count that may be unknown.
type Days = Optional[int]

// Fraction is a 0.0-1.0 ratio that may be unknown.
type Fraction = Optional[float64]

func knownAbove(d Days, n int) bool {
	v, ok := d.Get()
	return ok && v > n
}

func knownBelow(d Days, n int) bool {
	v, ok := d.Get()
	return ok && v < n
}

func knownWithin(d Days, lo, hi int) bool {
	v, ok := d.Get()
	return ok && v >= lo && v <= hi
}
