package paginate

// Cursor tracks the current page of a paginated listing.
// The zero value is not ready for use; call Reset first.
type Cursor struct {
	Page       int
	TotalPages int
}

func NewCursor() Cursor {
	return Cursor{Page: 1, TotalPages: 1}
}

func (c *Cursor) Reset() {
	*c = NewCursor()
}

// HasMore reports whether a page after the current one exists.
func (c Cursor) HasMore() bool {
	return c.Page < c.TotalPages
}

// Advance moves to the next page and returns it. It does nothing and
// returns false when there is no next page.
func (c *Cursor) Advance() (int, bool) {
	if !c.HasMore() {
		return c.Page, false
	}
	c.Page++

	return c.Page, true
}

// Rewind moves back one page, never below the first.
func (c *Cursor) Rewind() {
	if c.Page > 1 {
		c.Page--
	}
}

// Apply takes over the total page count reported by the server.
// The current page is clamped so that it never exceeds the total.
func (c *Cursor) Apply(page, totalPages int) {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	c.TotalPages = totalPages
	c.Page = min(page, totalPages)
}
