package domain

// OnDelete is the action taken on referencing rows when the referenced row
// is deleted.
type OnDelete int

const (
	// Cascade deletes the referencing rows.
	Cascade OnDelete = iota
	// SetNull clears the reference and keeps the referencing rows.
	SetNull
)

func (o OnDelete) String() string {
	switch o {
	case Cascade:
		return "CASCADE"
	case SetNull:
		return "SET NULL"
	default:
		return "UNKNOWN"
	}
}

// Relation describes a foreign key between two tables.
type Relation struct {
	Table    string
	Column   string
	Refs     string
	OnDelete OnDelete
}

// Relations lists every foreign key of the data model. The SQL migrations
// declare the same policies; the in-memory store applies them from here.
var Relations = []Relation{
	{Table: "posts", Column: "author_id", Refs: "users", OnDelete: Cascade},
	{Table: "posts", Column: "group_id", Refs: "groups", OnDelete: SetNull},
}

// RelationFor returns the relation declared on table.column.
func RelationFor(table, column string) (Relation, bool) {
	for _, r := range Relations {
		if r.Table == table && r.Column == column {
			return r, true
		}
	}
	return Relation{}, false
}
