package vectordb

// filterKind discriminates the closed set of deletion filters.
type filterKind int

const (
	filterAll filterKind = iota
	filterByIDs
	filterByIDPrefix
)

// Filter selects records for deletion. It is a closed tagged variant:
// every shape the store supports has a constructor below, and Remove
// matches them exhaustively, so there is no unsupported-filter runtime
// fault.
type Filter struct {
	kind   filterKind
	ids    []string
	prefix string
}

// FilterAll matches every record.
func FilterAll() Filter {
	return Filter{kind: filterAll}
}

// FilterByIDs matches records by exact id.
func FilterByIDs(ids ...string) Filter {
	return Filter{kind: filterByIDs, ids: ids}
}

// FilterByIDPrefix matches every record whose id starts with prefix.
// Record ids are composed as prefix+suffix (see RecordID), so this
// selects all chunks belonging to one file.
func FilterByIDPrefix(prefix string) Filter {
	return Filter{kind: filterByIDPrefix, prefix: prefix}
}
