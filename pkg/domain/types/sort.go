package types

// CaseSortKey selects the ordering of case listings
type CaseSortKey string

const (
	// CaseSortByNumber orders by caseNumber descending. This is the canonical
	// order; backfilled cases with small manual numbers sort to the bottom
	// even though they were created last.
	CaseSortByNumber CaseSortKey = "caseNumber"

	// CaseSortByCreatedAt orders by creation time descending
	CaseSortByCreatedAt CaseSortKey = "createdAt"
)

func (k CaseSortKey) IsValid() bool {
	return k == CaseSortByNumber || k == CaseSortByCreatedAt
}

// ParseCaseSortKey returns CaseSortByNumber for empty or unknown input
func ParseCaseSortKey(s string) CaseSortKey {
	k := CaseSortKey(s)
	if !k.IsValid() {
		return CaseSortByNumber
	}
	return k
}
