//go:build !darwin

package keychain

// SystemBackend is unavailable outside macOS. Every call reports
// StatusUnimplemented; use KeyringBackend instead.
type SystemBackend struct{}

// NewSystemBackend returns a Backend that cannot store anything.
func NewSystemBackend() *SystemBackend {
	return &SystemBackend{}
}

func (b *SystemBackend) Insert(Query) Status         { return StatusUnimplemented }
func (b *SystemBackend) Update(Query, []byte) Status { return StatusUnimplemented }
func (b *SystemBackend) Delete(Query) Status         { return StatusUnimplemented }
func (b *SystemBackend) Find(Query) (Status, *Result) {
	return StatusUnimplemented, nil
}
