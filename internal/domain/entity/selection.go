package entity

// SelectionRow is the listing/CSV projection of a ledger entry.
type SelectionRow struct {
	Ordinal  int    `json:"id"`
	Timecode string `json:"timestamp"`
}

// SelectionEntry is one user-picked frame pending export. Ordinal is the
// 1-based insertion index; entries are de-duplicated by Timecode.
type SelectionEntry struct {
	Ordinal  int
	Timecode string
	PNG      []byte
}
