package idmap

// Unchanged is the ownership-change argument that leaves an axis as is.
const Unchanged = -1

// Axis selects the user or the group identifier of a node.
type Axis int

const (
	User Axis = iota
	Group
)

func (a Axis) String() string {
	if a == Group {
		return "gid"
	}
	return "uid"
}

// Outcome is the result of remapping one identifier on one axis.
type Outcome int

const (
	// Keep leaves the identifier as is: root, or an ignored axis.
	Keep Outcome = iota
	// Unmapped means the identifier has no entry in its table.
	Unmapped
	// Target means the identifier must be rewritten to Decision.ID.
	Target
)

func (o Outcome) String() string {
	switch o {
	case Keep:
		return "keep"
	case Unmapped:
		return "unmapped"
	case Target:
		return "target"
	default:
		return "unknown"
	}
}

type Decision struct {
	Outcome Outcome
	ID      int
}

// Changes reports whether the decision carries a concrete identifier to write.
func (d Decision) Changes() bool {
	return d.Outcome == Target
}

// Arg returns the identifier to pass to chown(2) for this axis.
func (d Decision) Arg() int {
	if d.Outcome == Target {
		return d.ID
	}
	return Unchanged
}

// Table maps a source identifier to its replacement.
type Table map[int]int

// Map is the pair of user and group tables. It is read-only once built and
// may be shared between goroutines.
type Map struct {
	users  Table
	groups Table
}

func New(users, groups Table) *Map {
	return &Map{users: clone(users), groups: clone(groups)}
}

func clone(t Table) Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Lookup resolves id on the given axis. Identifier 0 is never remapped,
// whatever the table says.
func (m *Map) Lookup(axis Axis, id int) Decision {
	if id == 0 {
		return Decision{Outcome: Keep, ID: 0}
	}
	t := m.users
	if axis == Group {
		t = m.groups
	}
	to, ok := t[id]
	if !ok {
		return Decision{Outcome: Unmapped, ID: id}
	}
	return Decision{Outcome: Target, ID: to}
}

// Len returns the number of entries on an axis.
func (m *Map) Len(axis Axis) int {
	if axis == Group {
		return len(m.groups)
	}
	return len(m.users)
}

// Policy applies the run-wide ignore flags on top of a Map.
type Policy struct {
	Map       *Map
	IgnoreUID bool
	IgnoreGID bool
}

func (p Policy) Decide(axis Axis, id int) Decision {
	if (axis == User && p.IgnoreUID) || (axis == Group && p.IgnoreGID) {
		return Decision{Outcome: Keep, ID: id}
	}
	return p.Map.Lookup(axis, id)
}
