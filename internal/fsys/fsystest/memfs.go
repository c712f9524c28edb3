// Package fsystest provides an in-memory fsys.FS that records ownership
// changes, for exercising traversal code without privileges.
package fsystest

import (
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/yegor-usoltsev/chownmap/internal/fsys"
)

// MaxSymlinkHops matches the Linux limit on symlinks followed in one lookup.
const MaxSymlinkHops = 40

// Call is one ownership change issued against a MemFS.
type Call struct {
	Op   string // "chown" or "lchown"
	Path string
	UID  int
	GID  int
}

type entry struct {
	kind     fsys.Kind
	uid, gid int
	target   string
	children map[string]struct{}
}

// MemFS is an in-memory tree rooted at "/". It is safe for concurrent use.
type MemFS struct {
	mu        sync.Mutex
	nodes     map[string]*entry
	calls     []Call
	failChown map[string]error
	failLstat map[string]error
}

var _ fsys.FS = (*MemFS)(nil)

func New() *MemFS {
	return &MemFS{
		nodes:     map[string]*entry{"/": {kind: fsys.KindDir, children: map[string]struct{}{}}},
		failChown: map[string]error{},
		failLstat: map[string]error{},
	}
}

// Dir adds a directory. Missing parents are created owned by root.
func (m *MemFS) Dir(p string, uid, gid int) *MemFS {
	m.add(p, &entry{kind: fsys.KindDir, uid: uid, gid: gid, children: map[string]struct{}{}})
	return m
}

func (m *MemFS) File(p string, uid, gid int) *MemFS {
	m.add(p, &entry{kind: fsys.KindFile, uid: uid, gid: gid})
	return m
}

// Symlink adds a link at p pointing to target, which may be relative.
func (m *MemFS) Symlink(p, target string, uid, gid int) *MemFS {
	m.add(p, &entry{kind: fsys.KindSymlink, uid: uid, gid: gid, target: target})
	return m
}

// Fifo adds a named pipe; any non file, directory or link kind behaves alike.
func (m *MemFS) Fifo(p string, uid, gid int) *MemFS {
	m.add(p, &entry{kind: fsys.KindOther, uid: uid, gid: gid})
	return m
}

// FailChown makes every ownership change on p return err.
func (m *MemFS) FailChown(p string, err error) *MemFS {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failChown[path.Clean(p)] = err
	return m
}

// FailLstat makes Lstat of p return err.
func (m *MemFS) FailLstat(p string, err error) *MemFS {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLstat[path.Clean(p)] = err
	return m
}

func (m *MemFS) add(p string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addLocked(path.Clean("/"+p), e)
}

func (m *MemFS) addLocked(p string, e *entry) {
	if p == "/" {
		root := m.nodes[p]
		root.uid, root.gid = e.uid, e.gid
		return
	}
	parent := path.Dir(p)
	if _, ok := m.nodes[parent]; !ok {
		m.addLocked(parent, &entry{kind: fsys.KindDir, children: map[string]struct{}{}})
	}
	if old, ok := m.nodes[p]; ok && old.kind == fsys.KindDir && e.kind == fsys.KindDir {
		// Re-declaring an implicitly created parent keeps its children.
		e.children = old.children
	}
	m.nodes[p] = e
	m.nodes[parent].children[path.Base(p)] = struct{}{}
}

// Owner returns the ownership of the node at p, not following a final link.
func (m *MemFS) Owner(p string) (uid, gid int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, e, err := m.resolve(p, false)
	if err != nil {
		return -1, -1
	}
	return e.uid, e.gid
}

// Calls returns the ownership changes issued so far, in order.
func (m *MemFS) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// Paths returns every node path under "/", sorted.
func (m *MemFS) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.nodes))
	for p := range m.nodes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func split(p string) []string {
	p = strings.Trim(path.Clean("/"+p), "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// resolve walks p component by component, following intermediate links and,
// when followLast is set, a final one.
func (m *MemFS) resolve(p string, followLast bool) (string, *entry, error) {
	parts := split(p)
	cur := "/"
	hops := 0
	for i := 0; i < len(parts); i++ {
		next := path.Join(cur, parts[i])
		e, ok := m.nodes[next]
		if !ok {
			return "", nil, syscall.ENOENT
		}
		last := i == len(parts)-1
		if e.kind == fsys.KindSymlink && (!last || followLast) {
			hops++
			if hops > MaxSymlinkHops {
				return "", nil, syscall.ELOOP
			}
			target := e.target
			if !path.IsAbs(target) {
				target = path.Join(cur, target)
			}
			rest := append(split(target), parts[i+1:]...)
			parts, cur, i = rest, "/", -1
			continue
		}
		if !last && e.kind != fsys.KindDir {
			return "", nil, syscall.ENOTDIR
		}
		cur = next
	}
	return cur, m.nodes[cur], nil
}

func (m *MemFS) stat(op, p string, follow bool) (fsys.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failLstat[path.Clean(p)]; ok && !follow {
		return fsys.Node{}, &fs.PathError{Op: op, Path: p, Err: err}
	}
	_, e, err := m.resolve(p, follow)
	if err != nil {
		return fsys.Node{}, &fs.PathError{Op: op, Path: p, Err: err}
	}
	return fsys.Node{Path: p, Kind: e.kind, UID: e.uid, GID: e.gid}, nil
}

func (m *MemFS) Lstat(p string) (fsys.Node, error) { return m.stat("lstat", p, false) }

func (m *MemFS) Stat(p string) (fsys.Node, error) { return m.stat("stat", p, true) }

func (m *MemFS) ReadDir(p string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, e, err := m.resolve(p, true)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: p, Err: err}
	}
	if e.kind != fsys.KindDir {
		return nil, &fs.PathError{Op: "readdirent", Path: p, Err: syscall.ENOTDIR}
	}
	names := make([]string, 0, len(e.children))
	for name := range e.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemFS) Readlink(p string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, e, err := m.resolve(p, false)
	if err != nil {
		return "", &fs.PathError{Op: "readlink", Path: p, Err: err}
	}
	if e.kind != fsys.KindSymlink {
		return "", &fs.PathError{Op: "readlink", Path: p, Err: syscall.EINVAL}
	}
	return e.target, nil
}

func (m *MemFS) Chown(p string, uid, gid int) error { return m.chown("chown", p, uid, gid, true) }

func (m *MemFS) Lchown(p string, uid, gid int) error { return m.chown("lchown", p, uid, gid, false) }

func (m *MemFS) chown(op, p string, uid, gid int, follow bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Op: op, Path: p, UID: uid, GID: gid})
	if err, ok := m.failChown[path.Clean(p)]; ok {
		return &fs.PathError{Op: op, Path: p, Err: err}
	}
	_, e, err := m.resolve(p, follow)
	if err != nil {
		return &fs.PathError{Op: op, Path: p, Err: err}
	}
	if uid != -1 {
		e.uid = uid
	}
	if gid != -1 {
		e.gid = gid
	}
	return nil
}
