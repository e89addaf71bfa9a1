package models

// SuggestedConnection is a candidate parent surfaced as a potential
// new connection
type SuggestedConnection struct {
	ID           int64
	Name         string
	City         string
	ChildSummary string
	Interests    []string
	Distance     *float64
}
