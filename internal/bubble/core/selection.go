package core

// Selection holds at most one selected bubble id. The zero value selects
// nothing.
type Selection struct {
	id  string
	set bool
}

// Toggle selects id, or clears the selection when id is already selected.
// It reports whether id is selected afterwards.
func (s *Selection) Toggle(id string) bool {
	if s.set && s.id == id {
		s.Clear()
		return false
	}
	s.id, s.set = id, true
	return true
}

// Clear drops the selection.
func (s *Selection) Clear() {
	s.id, s.set = "", false
}

// ID returns the selected id.
func (s Selection) ID() (string, bool) {
	return s.id, s.set
}

// Is reports whether id is the selected bubble.
func (s Selection) Is(id string) bool {
	return s.set && s.id == id
}
