package stream

// Collect drains s into a slice in arrival order. On a terminal error the
// chunks read so far are returned with it.
func Collect[T any](s *Stream[T]) ([]*T, error) {
	var out []*T
	for chunk, err := range s.All() {
		if err != nil {
			return out, err
		}
		out = append(out, chunk)
	}
	return out, nil
}

// MergeFunc folds chunk b into snapshot a and reports whether a changed.
type MergeFunc[T any] func(a, b *T) (*T, bool)

// Fold drains s into a single snapshot. onChange, when set, sees every new
// snapshot, including the first chunk. On a terminal error the snapshot
// built so far is returned with it.
func Fold[T any](s *Stream[T], merge MergeFunc[T], onChange func(*T)) (*T, error) {
	var acc *T
	for chunk, err := range s.All() {
		if err != nil {
			return acc, err
		}
		changed := true
		if acc == nil {
			acc = chunk
		} else {
			acc, changed = merge(acc, chunk)
		}
		if changed && onChange != nil {
			onChange(acc)
		}
	}
	return acc, nil
}
