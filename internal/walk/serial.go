package walk

import (
	"context"
	"path/filepath"

	"github.com/yegor-usoltsev/chownmap/internal/fsys"
)

// Serial walks each root depth-first on the calling goroutine.
type Serial struct {
	v *visitor
}

var _ Walker = (*Serial)(nil)

// Walk processes roots in order. A failed or refused root does not stop the
// remaining ones; the most severe status is returned.
func (s *Serial) Walk(ctx context.Context, roots ...string) Status {
	st := StatusOK
	for _, root := range roots {
		if ctx.Err() != nil {
			return worst(st, StatusCanceled)
		}
		st = worst(st, s.walkRoot(ctx, root))
	}
	return st
}

func (s *Serial) walkRoot(ctx context.Context, root string) Status {
	n, ok := s.v.classify(root)
	if !ok {
		return StatusFailed
	}
	switch n.Kind {
	case fsys.KindDir:
		s.v.remap(n, 0)
		s.expand(ctx, root, 0)
	case fsys.KindSymlink:
		if !s.v.cfg.FollowSymlinks {
			s.v.log.Printf("error: symlink traversal refused: %s -> %s", root, s.v.linkTarget(root))
			return StatusSymlinkRefused
		}
		s.v.remap(n, 0)
		s.follow(ctx, root, 0)
	default:
		s.v.log.Printf("error: not a directory: %s", root)
		return StatusFailed
	}
	if ctx.Err() != nil {
		return StatusCanceled
	}
	return StatusOK
}

// expand visits every child of dir, recursing into subdirectories before
// moving on to the next sibling.
func (s *Serial) expand(ctx context.Context, dir string, depth int) {
	if !s.v.expandable(dir, depth) {
		return
	}
	names, ok := s.v.list(dir)
	if !ok {
		return
	}
	for _, name := range names {
		if ctx.Err() != nil {
			return
		}
		path := filepath.Join(dir, name)
		n, ok := s.v.classify(path)
		if !ok {
			continue
		}
		switch n.Kind {
		case fsys.KindDir:
			s.v.remap(n, depth+1)
			s.expand(ctx, path, depth+1)
		case fsys.KindSymlink:
			s.v.remap(n, depth+1)
			if !s.v.cfg.FollowSymlinks {
				s.v.log.Printf("warning: symlink not followed: %s -> %s", path, s.v.linkTarget(path))
				continue
			}
			s.follow(ctx, path, depth+1)
		case fsys.KindFile:
			s.v.remap(n, depth+1)
		default:
			// Devices, pipes and sockets are left alone.
		}
	}
}

// follow expands the directory a symlink resolves to, under the link's own
// path. There is no cycle detection: a link to an ancestor recurses until
// MaxDepth, the context, or the kernel's link limit stops it.
func (s *Serial) follow(ctx context.Context, link string, depth int) {
	target, err := s.v.fs.Stat(link)
	if err != nil {
		s.v.log.Printf("error: cannot resolve symlink %s: %v", link, err)
		return
	}
	if target.Kind != fsys.KindDir {
		return
	}
	if s.v.cfg.Verbose > 0 {
		s.v.log.Printf("following symlink %s -> %s", link, s.v.linkTarget(link))
	}
	s.expand(ctx, link, depth)
}
