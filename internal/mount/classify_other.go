//go:build !linux && !darwin

package mount

// Classify always reports Local on platforms without mount-type introspection.
func Classify(dir string) (Kind, error) {
	return Local, nil
}
