// Package sizer estimates the memory cost of cached values.
//
// Estimates are heuristics used only to compare entries against a memory
// ceiling. They do not reflect the real heap footprint of a value.
package sizer

// Fallback is the estimate used when a value cannot be measured.
const Fallback int64 = 1024

// Sizer estimates the byte cost of a key/value pair.
type Sizer interface {
	// Size returns the estimated cost. An error means the value could not be
	// measured and the caller should fall back to a conservative estimate.
	Size(key string, value any) (int64, error)
}

// Func adapts a plain function to a Sizer.
type Func func(key string, value any) (int64, error)

// Compile-time check that Func implements Sizer.
var _ Sizer = Func(nil)

// Size calls f.
func (f Func) Size(key string, value any) (int64, error) {
	return f(key, value)
}

// Estimate runs s and substitutes Fallback on error or on a non-positive result.
func Estimate(s Sizer, key string, value any) (int64, error) {
	n, err := s.Size(key, value)
	if err != nil {
		return Fallback + int64(len(key)), err
	}
	if n <= 0 {
		return Fallback + int64(len(key)), nil
	}
	return n, nil
}
