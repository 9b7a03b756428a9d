//go:build !linux

package platform

// NewHost is only implemented for X11 on linux.
func NewHost(opts HostOptions) (Host, error) {
	return nil, ErrUnsupported
}
