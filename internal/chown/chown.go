package chown

import (
	"fmt"

	"github.com/yegor-usoltsev/chownmap/internal/fsys"
	"github.com/yegor-usoltsev/chownmap/internal/idmap"
)

// WriteError reports a failed ownership change. UID and GID are the
// arguments passed to the syscall, -1 meaning unchanged.
type WriteError struct {
	Path string
	UID  int
	GID  int
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("chown %d:%d %s: %v", e.UID, e.GID, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Applier issues the ownership change for one node.
type Applier struct {
	FS fsys.FS
}

// Apply writes the decided identifiers to n. No syscall is made unless at
// least one axis has a concrete target; the other axis is passed as
// unchanged. Directories and symlinks are changed in place with lchown so a
// link's target is never touched. Other kinds are never written.
func (a Applier) Apply(n fsys.Node, user, group idmap.Decision) (bool, error) {
	if !user.Changes() && !group.Changes() {
		return false, nil
	}
	uid, gid := user.Arg(), group.Arg()

	var err error
	switch n.Kind {
	case fsys.KindFile:
		err = a.FS.Chown(n.Path, uid, gid)
	case fsys.KindDir, fsys.KindSymlink:
		err = a.FS.Lchown(n.Path, uid, gid)
	default:
		return false, nil
	}
	if err != nil {
		return false, &WriteError{Path: n.Path, UID: uid, GID: gid, Err: err}
	}
	return true, nil
}
