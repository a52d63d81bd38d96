package search

// Dialect is the SQL flavor a compiled filter is rendered for.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) String() string {
	if d == SQLite {
		return "sqlite"
	}
	return "postgres"
}

// like returns the case-insensitive pattern operator. SQLite's LIKE already
// ignores ASCII case.
func (d Dialect) like() string {
	if d == SQLite {
		return "LIKE"
	}
	return "ILIKE"
}
