package merge

// Indexed is implemented by list elements that carry a stable position.
type Indexed interface {
	ChunkIndex() uint64
}

// IndexedList merges two lists of indexed elements.
//
// Each element of next is matched against the working result by index. A
// match is merged in place of the old element; an unmatched element is
// appended. Later elements of next see earlier ones, so a repeated index
// within next merges rather than duplicates. prev is never written to: the
// first change copies it.
func IndexedList[T Indexed](prev, next []T, fn func(a, b T) (T, bool)) ([]T, bool) {
	out := prev
	changed := false
	for _, n := range next {
		i := find(out, n.ChunkIndex())
		if i < 0 {
			if !changed {
				out = clone(prev, 1)
				changed = true
			}
			out = append(out, n)
			continue
		}
		m, ok := fn(out[i], n)
		if !ok {
			continue
		}
		if !changed {
			out = clone(prev, 0)
			changed = true
		}
		out[i] = m
	}
	return out, changed
}

func find[T Indexed](list []T, index uint64) int {
	for i, e := range list {
		if e.ChunkIndex() == index {
			return i
		}
	}
	return -1
}

func clone[T any](s []T, extra int) []T {
	out := make([]T, len(s), len(s)+extra)
	copy(out, s)
	return out
}

// Slice replaces a whole list when next is present and differs element-wise.
func Slice[T comparable](prev, next []T) ([]T, bool) {
	return SliceFunc(prev, next, func(a, b T) bool { return a == b })
}

// SliceFunc is Slice with a caller-supplied element equality.
func SliceFunc[T any](prev, next []T, equal func(a, b T) bool) ([]T, bool) {
	if next == nil {
		return prev, false
	}
	if prev != nil && len(prev) == len(next) {
		same := true
		for i := range prev {
			if !equal(prev[i], next[i]) {
				same = false
				break
			}
		}
		if same {
			return prev, false
		}
	}
	return next, true
}

// Concat appends every element of next to prev.
func Concat[T any](prev, next []T) ([]T, bool) {
	if len(next) == 0 {
		return prev, false
	}
	if prev == nil {
		return next, true
	}
	out := clone(prev, len(next))
	return append(out, next...), true
}
