// Package walk rewrites ownership across directory trees through an
// identity map, either depth-first on one goroutine (Serial) or with a
// fixed pool of workers draining a shared queue of directories
// (Concurrent). Both strategies share the same classify, decide and apply
// steps per node.
package walk

import (
	"context"
	"log"
	"strings"

	"github.com/yegor-usoltsev/chownmap/internal/chown"
	"github.com/yegor-usoltsev/chownmap/internal/fsys"
	"github.com/yegor-usoltsev/chownmap/internal/idmap"
)

// Config is fixed for the whole run and threaded through every call.
type Config struct {
	IgnoreUID      bool
	IgnoreGID      bool
	FollowSymlinks bool
	// Workers selects the concurrent strategy when > 0.
	Workers int
	// MaxDepth stops expanding directories this many levels below a root.
	// Zero means no limit.
	MaxDepth int
	// Verbose 1 lists visited paths, 2 also lists every ownership change.
	Verbose int
}

// DryRun reports whether no ownership change can be issued.
func (c Config) DryRun() bool {
	return c.IgnoreUID && c.IgnoreGID
}

// Status is the outcome of walking one or more roots. Per-node failures
// never change it.
type Status int

const (
	StatusOK Status = iota
	// StatusFailed means a root could not be read or is not a directory.
	StatusFailed
	// StatusSymlinkRefused means a root is a symlink and following is off.
	StatusSymlinkRefused
	// StatusCanceled means the context ended before the walk finished.
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFailed:
		return "failed"
	case StatusSymlinkRefused:
		return "symlink refused"
	case StatusCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

func worst(a, b Status) Status {
	return max(a, b)
}

// Walker remaps the ownership of every node under the given roots.
type Walker interface {
	Walk(ctx context.Context, roots ...string) Status
}

// New returns the strategy selected by cfg.Workers. A nil logger means the
// standard logger.
func New(fs fsys.FS, m *idmap.Map, cfg Config, logger *log.Logger) Walker {
	v := newVisitor(fs, m, cfg, logger)
	if cfg.Workers > 0 {
		return &Concurrent{v: v}
	}
	return &Serial{v: v}
}

// visitor holds the per-node steps shared by both strategies.
type visitor struct {
	fs     fsys.FS
	policy idmap.Policy
	apply  chown.Applier
	cfg    Config
	log    *log.Logger
}

func newVisitor(fs fsys.FS, m *idmap.Map, cfg Config, logger *log.Logger) *visitor {
	if logger == nil {
		logger = log.Default()
	}
	return &visitor{
		fs:     fs,
		policy: idmap.Policy{Map: m, IgnoreUID: cfg.IgnoreUID, IgnoreGID: cfg.IgnoreGID},
		apply:  chown.Applier{FS: fs},
		cfg:    cfg,
		log:    logger,
	}
}

func (v *visitor) classify(path string) (fsys.Node, bool) {
	n, err := fsys.Classify(v.fs, path)
	if err != nil {
		v.log.Printf("error: %v", err)
		return fsys.Node{}, false
	}
	return n, true
}

// remap decides both axes for n and applies them. Failures are logged.
func (v *visitor) remap(n fsys.Node, depth int) {
	if v.cfg.Verbose > 0 {
		v.log.Printf("%s%s", strings.Repeat(" ", depth), n.Path)
	}
	user := v.policy.Decide(idmap.User, n.UID)
	group := v.policy.Decide(idmap.Group, n.GID)
	if user.Outcome == idmap.Unmapped {
		v.log.Printf("warning: %s: uid %d has no mapping", n.Path, n.UID)
	}
	if group.Outcome == idmap.Unmapped {
		v.log.Printf("warning: %s: gid %d has no mapping", n.Path, n.GID)
	}
	applied, err := v.apply.Apply(n, user, group)
	if err != nil {
		v.log.Printf("error: %v", err)
		return
	}
	if applied && v.cfg.Verbose > 1 {
		v.log.Printf("%schanged %s %d:%d -> %d:%d", strings.Repeat(" ", depth), n.Path, n.UID, n.GID, user.Arg(), group.Arg())
	}
}

// expandable reports whether children of a directory at depth may be listed.
func (v *visitor) expandable(path string, depth int) bool {
	if v.cfg.MaxDepth > 0 && depth >= v.cfg.MaxDepth {
		v.log.Printf("warning: %s: max depth %d reached, not descending", path, v.cfg.MaxDepth)
		return false
	}
	return true
}

func (v *visitor) list(dir string) ([]string, bool) {
	names, err := v.fs.ReadDir(dir)
	if err != nil {
		v.log.Printf("error: cannot read directory %s: %v", dir, err)
		return nil, false
	}
	return names, true
}

func (v *visitor) linkTarget(path string) string {
	target, err := v.fs.Readlink(path)
	if err != nil {
		return "?"
	}
	return target
}
