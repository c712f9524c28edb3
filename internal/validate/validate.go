package validate

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/yegor-usoltsev/chownmap/internal/mapfile"
)

type Error struct {
	Path string
	Line int
	Msg  string
}

func (e Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

type Errors []Error

func (e Errors) Error() string {
	switch len(e) {
	case 0:
		return "validation failed"
	case 1:
		return e[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more)", e[0].Error(), len(e)-1)
	}
}

// Files checks every mapping file and reports all problems at once, sorted
// by path and line. File-wide problems sort after line-specific ones.
func Files(ctx context.Context, paths []string) error {
	var errs Errors
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("validate: %w", err)
		}
		errs = append(errs, File(p)...)
	}
	if len(errs) == 0 {
		return nil
	}
	sort.SliceStable(errs, func(i, j int) bool {
		if errs[i].Path != errs[j].Path {
			return errs[i].Path < errs[j].Path
		}
		return lineKey(errs[i].Line) < lineKey(errs[j].Line)
	})
	return errs
}

func lineKey(line int) int {
	if line == 0 {
		return int(^uint(0) >> 1)
	}
	return line
}

// File returns the problems of a single mapping file.
func File(path string) []Error {
	data, err := os.ReadFile(path)
	if err != nil {
		return []Error{{Path: path, Msg: fmt.Sprintf("read mapping file: %v", err)}}
	}
	var errs []Error
	for _, p := range mapfile.Inspect(path, data) {
		errs = append(errs, Error{Path: path, Line: p.Line, Msg: p.Err.Error()})
	}
	return errs
}
