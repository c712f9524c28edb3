package mapfile

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yegor-usoltsev/chownmap/internal/idmap"
)

// MaxID is the largest identifier a table may hold. math.MaxUint32 is the
// kernel's "leave unchanged" value and cannot be assigned.
const MaxID int64 = math.MaxUint32 - 1

// Format is the on-disk syntax of a mapping file.
type Format int

const (
	INI Format = iota
	YAML
)

// FormatOf picks the syntax from the file extension.
func FormatOf(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return INI
	}
}

// document is the parsed, not yet validated, content of a mapping file.
type document struct {
	users     idmap.Table
	groups    idmap.Table
	hasUsers  bool
	hasGroups bool
	problems  []*Error
}

func (d *document) addf(line int, sentinel error, format string, args ...any) {
	d.problems = append(d.problems, &Error{Line: line, Err: fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...)})
}

func (d *document) table(axis idmap.Axis) idmap.Table {
	if axis == idmap.Group {
		if d.groups == nil {
			d.groups = idmap.Table{}
		}
		d.hasGroups = true
		return d.groups
	}
	if d.users == nil {
		d.users = idmap.Table{}
	}
	d.hasUsers = true
	return d.users
}

// put records one source=target pair, reporting malformed or repeated keys.
func (d *document) put(t idmap.Table, axis idmap.Axis, line int, rawKey, rawVal string) {
	from, err := parseID(rawKey)
	if err != nil {
		d.addf(line, ErrBadEntry, "%s key %q: %v", axis, rawKey, err)
		return
	}
	to, err := parseID(rawVal)
	if err != nil {
		d.addf(line, ErrBadEntry, "%s value for %d %q: %v", axis, from, rawVal, err)
		return
	}
	if _, ok := t[from]; ok {
		d.addf(line, ErrDuplicate, "%s key %d", axis, from)
		return
	}
	t[from] = to
}

func parseID(s string) (int, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, errNotInteger
	}
	if n < 0 || n > MaxID {
		return 0, fmt.Errorf("%w [0, %d]", errOutOfRange, MaxID)
	}
	return int(n), nil
}

func parse(name string, data []byte) *document {
	var doc *document
	if FormatOf(name) == YAML {
		doc = parseYAML(data)
	} else {
		doc = parseINI(data)
	}
	if !doc.hasUsers {
		doc.addf(0, ErrMissingTable, "uid")
	}
	if !doc.hasGroups {
		doc.addf(0, ErrMissingTable, "gid")
	}
	for _, p := range doc.problems {
		p.Path = name
	}
	return doc
}

// Inspect returns every problem found in a mapping file, in file order.
// An empty result means Parse would succeed.
func Inspect(name string, data []byte) []*Error {
	return parse(name, data).problems
}

// Parse builds the identity map from a mapping file's content. The format
// is chosen from name's extension. Any problem fails the whole load.
func Parse(name string, data []byte) (*idmap.Map, error) {
	doc := parse(name, data)
	if len(doc.problems) > 0 {
		return nil, doc.problems[0]
	}
	return idmap.New(doc.users, doc.groups), nil
}

// Load reads and parses the mapping file at path.
func Load(path string) (*idmap.Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping file: %w", err)
	}
	return Parse(path, data)
}
