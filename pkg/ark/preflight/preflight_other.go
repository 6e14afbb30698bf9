//go:build !linux && !darwin

package preflight

func volumeSpace(string) (Space, error) {
	return Space{}, ErrUnsupported
}
