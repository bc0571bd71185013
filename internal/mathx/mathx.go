// Package mathx holds the pagination arithmetic shared by list endpoints.
package mathx

// TotalPages returns the number of pages needed to hold total items.
// There is always at least one page, so an empty collection still has
// page 1 (an empty one).
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 1
	}
	if total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// ClampPage forces page into [1, totalPages]. Out-of-range requests get
// the nearest valid page instead of an error.
func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Offset returns the row offset of page within a pageSize-sized slicing.
func Offset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}
