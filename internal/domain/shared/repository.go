package shared

// Filter represents list query options
type Filter struct {
	Page     int // 1-based; ignored when PageSize is zero
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
}

// DefaultFilter returns a filter listing everything by name
func DefaultFilter() Filter {
	return Filter{
		OrderBy:  "name",
		OrderDir: "asc",
	}
}

// Offset returns the row offset of the filter's page
func (f Filter) Offset() int {
	if f.PageSize <= 0 || f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}
