package dbridge

import "os"

// HostFiles is the seam between this engine and the host filesystem:
// agent binaries are read from disk for checksumming, and screenshot pulls
// land in a scratch directory that must be created and cleaned up.
// Narrower than the source's general-purpose file-ops interface: no Copy,
// Lstat, or Readlink, since nothing here follows symlinks or shells out to
// cp.
type HostFiles interface {
	MkdirAll(path string, perm os.FileMode) error
	Stat(path string) (os.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	Open(path string) (*os.File, error)
	Remove(path string) error
	RemoveAll(path string) error
	WriteFile(path string, data []byte, perm os.FileMode) error
}

type defaultHostFiles struct{}

// NewDefaultHostFiles returns the production HostFiles backed directly by
// the os package.
func NewDefaultHostFiles() HostFiles {
	return defaultHostFiles{}
}

func (defaultHostFiles) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (defaultHostFiles) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

func (defaultHostFiles) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (defaultHostFiles) Open(path string) (*os.File, error) {
	return os.Open(path)
}

func (defaultHostFiles) Remove(path string) error {
	return os.Remove(path)
}

func (defaultHostFiles) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

func (defaultHostFiles) WriteFile(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(path, data, perm)
}
