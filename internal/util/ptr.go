// Package util holds small helpers shared across ziwei packages.
package util

// Ptr returns a pointer to the given value, for optional record fields
// such as a palace id.
func Ptr[T any](v T) *T {
	return &v
}
