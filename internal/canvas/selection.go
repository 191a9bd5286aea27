package canvas

import "slices"

// Selection holds the ids selected while select-mode is active, in the order
// they were selected.
type Selection struct {
	active bool
	ids    []string
}

// ToggleSelectMode enters or leaves select-mode. The selection is always
// cleared.
func (s *Selection) ToggleSelectMode(enabled bool) {
	s.active = enabled
	s.ids = nil
}

// Active reports whether select-mode is on.
func (s *Selection) Active() bool { return s.active }

// ToggleSelect adds id if absent, removes it otherwise, and reports whether id
// is selected afterwards. Outside select-mode it does nothing.
func (s *Selection) ToggleSelect(id string) bool {
	if !s.active {
		return false
	}
	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
		return false
	}
	s.ids = append(s.ids, id)
	return true
}

// Contains reports whether id is selected.
func (s *Selection) Contains(id string) bool {
	return slices.Contains(s.ids, id)
}

// IDs returns the selected ids in selection order.
func (s *Selection) IDs() []string {
	return slices.Clone(s.ids)
}

// Len returns the number of selected ids.
func (s *Selection) Len() int { return len(s.ids) }

// Clear empties the selection without leaving select-mode.
func (s *Selection) Clear() { s.ids = nil }

func (s *Selection) retain(keep func(id string) bool) {
	s.ids = slices.DeleteFunc(s.ids, func(id string) bool { return !keep(id) })
}
