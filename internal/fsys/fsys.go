// Package fsys classifies filesystem nodes and abstracts the handful of
// metadata calls the walkers need, so traversal can run against the real
// filesystem or an in-memory one.
package fsys

import (
	"fmt"
)

// Kind is the type of a node as seen without following symlinks.
type Kind int

const (
	KindFile Kind = iota
	KindDir
	KindSymlink
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "directory"
	case KindSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// Node is the metadata observed for one path during one visit.
type Node struct {
	Path string
	Kind Kind
	UID  int
	GID  int
	Mode uint32
}

// FS is the set of filesystem operations used by the traversal.
//
// Lstat and Lchown never follow a final symlink; Stat and Chown do.
// ReadDir returns entry names in no particular order, without "." and "..".
type FS interface {
	Lstat(path string) (Node, error)
	Stat(path string) (Node, error)
	ReadDir(path string) ([]string, error)
	Readlink(path string) (string, error)
	Chown(path string, uid, gid int) error
	Lchown(path string, uid, gid int) error
}

// AccessError reports a node whose metadata could not be read.
type AccessError struct {
	Path string
	Err  error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("cannot access %s: %v", e.Path, e.Err)
}

func (e *AccessError) Unwrap() error { return e.Err }

// Classify reads the non-dereferencing metadata of path once.
func Classify(fsys FS, path string) (Node, error) {
	n, err := fsys.Lstat(path)
	if err != nil {
		return Node{}, &AccessError{Path: path, Err: err}
	}
	return n, nil
}
