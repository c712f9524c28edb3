//go:build !unix

package fsys

import (
	"errors"
	"io/fs"
)

// ErrUnsupported is returned by every OS method on platforms without
// POSIX ownership.
var ErrUnsupported = errors.New("ownership changes are not supported on this platform")

// OS is the host filesystem. Outside Unix it refuses every call.
type OS struct{}

var _ FS = OS{}

func unsupported(op, path string) error {
	return &fs.PathError{Op: op, Path: path, Err: ErrUnsupported}
}

func (OS) Lstat(path string) (Node, error) { return Node{}, unsupported("lstat", path) }
func (OS) Stat(path string) (Node, error) { return Node{}, unsupported("stat", path) }
func (OS) ReadDir(path string) ([]string, error) { return nil, unsupported("readdir", path) }
func (OS) Readlink(path string) (string, error) { return "", unsupported("readlink", path) }
func (OS) Chown(path string, _, _ int) error { return unsupported("chown", path) }
func (OS) Lchown(path string, _, _ int) error { return unsupported("lchown", path) }
