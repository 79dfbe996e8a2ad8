package lib

import "fmt"

// WrapError keeps both parent and child reachable via errors.Is
func WrapError(parent error, child error) error {
	return fmt.Errorf("%w: %w", parent, child)
}
