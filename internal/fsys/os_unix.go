//go:build unix

package fsys

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

// OS is the host filesystem.
type OS struct{}

var _ FS = OS{}

func (OS) Lstat(path string) (Node, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return Node{}, &fs.PathError{Op: "lstat", Path: path, Err: err}
	}
	return nodeOf(path, &st), nil
}

func (OS) Stat(path string) (Node, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return Node{}, &fs.PathError{Op: "stat", Path: path, Err: err}
	}
	return nodeOf(path, &st), nil
}

func nodeOf(path string, st *unix.Stat_t) Node {
	mode := uint32(st.Mode) //nolint:unconvert // Mode is uint16 on some platforms.
	return Node{
		Path: path,
		Kind: kindOf(mode),
		UID:  int(st.Uid),
		GID:  int(st.Gid),
		Mode: mode,
	}
}

func kindOf(mode uint32) Kind {
	switch mode & unix.S_IFMT {
	case unix.S_IFREG:
		return KindFile
	case unix.S_IFDIR:
		return KindDir
	case unix.S_IFLNK:
		return KindSymlink
	default:
		return KindOther
	}
}

// ReadDir returns names in directory order, which is unspecified.
func (OS) ReadDir(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err //nolint:wrapcheck // already a *PathError
	}
	defer func() { _ = f.Close() }()

	names, err := f.Readdirnames(-1)
	if err != nil && !errors.Is(err, io.EOF) {
		return names, err //nolint:wrapcheck // already a *PathError
	}
	return names, nil
}

func (OS) Readlink(path string) (string, error) {
	return os.Readlink(path) //nolint:wrapcheck // already a *PathError
}

func (OS) Chown(path string, uid, gid int) error {
	if err := unix.Chown(path, uid, gid); err != nil {
		return &fs.PathError{Op: "chown", Path: path, Err: err}
	}
	return nil
}

func (OS) Lchown(path string, uid, gid int) error {
	if err := unix.Lchown(path, uid, gid); err != nil {
		return &fs.PathError{Op: "lchown", Path: path, Err: err}
	}
	return nil
}
