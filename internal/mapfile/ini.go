package mapfile

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/yegor-usoltsev/chownmap/internal/idmap"
)

// sectionAxis resolves an INI section name to its axis.
func sectionAxis(name string) (idmap.Axis, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "uid", "user":
		return idmap.User, true
	case "gid", "group":
		return idmap.Group, true
	default:
		return 0, false
	}
}

// parseINI reads the sectioned key=value format:
//
//	[uid]
//	1000=300000
//	[gid]
//	80000=20044
func parseINI(data []byte) *document {
	doc := &document{}
	var (
		cur     idmap.Table
		curAxis idmap.Axis
		skip    bool
	)
	seen := map[idmap.Axis]bool{}

	s := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for s.Scan() {
		line++
		text := strings.TrimSpace(s.Text())
		if text == "" || strings.HasPrefix(text, "#") || strings.HasPrefix(text, ";") {
			continue
		}
		if strings.HasPrefix(text, "[") {
			if !strings.HasSuffix(text, "]") {
				doc.addf(line, ErrSyntax, "unterminated section header %q", text)
				cur, skip = nil, true
				continue
			}
			name := text[1 : len(text)-1]
			axis, ok := sectionAxis(name)
			if !ok {
				doc.addf(line, ErrUnknownTable, "[%s]", strings.TrimSpace(name))
				cur, skip = nil, true
				continue
			}
			if seen[axis] {
				doc.addf(line, ErrDuplicate, "table [%s]", axis)
				cur, skip = nil, true
				continue
			}
			seen[axis] = true
			cur, curAxis, skip = doc.table(axis), axis, false
			continue
		}
		if cur == nil {
			if !skip {
				doc.addf(line, ErrSyntax, "entry outside of a table: %q", text)
			}
			continue
		}
		i := strings.IndexAny(text, "=:")
		if i < 0 {
			doc.addf(line, ErrSyntax, "expected source=target, got %q", text)
			continue
		}
		doc.put(cur, curAxis, line, text[:i], text[i+1:])
	}
	if err := s.Err(); err != nil {
		doc.addf(line, ErrSyntax, "%v", err)
	}
	return doc
}
