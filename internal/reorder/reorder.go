// Package reorder implements index-based list moves shared by every ordered collection of a draft.
package reorder

// Move removes the element at from and reinserts it at to, keeping the relative
// order of the others. Equal or out-of-range indices leave the list untouched.
// The input slice is not modified.
func Move[T any](list []T, from, to int) []T {
	out := append([]T(nil), list...)
	if from == to || from < 0 || to < 0 || from >= len(list) || to >= len(list) {
		return out
	}
	item := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out, item)
	copy(out[to+1:], out[to:len(out)-1])
	out[to] = item
	return out
}

// Insert places item at index, clamped to [0, len(list)].
func Insert[T any](list []T, index int, item T) []T {
	if index < 0 {
		index = 0
	}
	if index > len(list) {
		index = len(list)
	}
	out := make([]T, 0, len(list)+1)
	out = append(out, list[:index]...)
	out = append(out, item)
	return append(out, list[index:]...)
}

// Remove returns list without the element at index and the removed element.
// ok is false when index is out of range.
func Remove[T any](list []T, index int) (out []T, removed T, ok bool) {
	if index < 0 || index >= len(list) {
		return append([]T(nil), list...), removed, false
	}
	removed = list[index]
	out = make([]T, 0, len(list)-1)
	out = append(out, list[:index]...)
	return append(out, list[index+1:]...), removed, true
}

// IndexOf returns the index of the first element matching pred, or -1.
func IndexOf[T any](list []T, pred func(T) bool) int {
	for i, v := range list {
		if pred(v) {
			return i
		}
	}
	return -1
}
