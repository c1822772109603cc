package table

// Selection is an ordered set of row identifiers.
type Selection struct {
	ids   []string
	index map[string]struct{}
}

func NewSelection() *Selection {
	return &Selection{index: make(map[string]struct{})}
}

// SelectAll selects every id if checked, otherwise empties the selection.
func (s *Selection) SelectAll(ids []string, checked bool) {
	s.Clear()
	if !checked {
		return
	}
	for _, id := range ids {
		s.add(id)
	}
}

// Toggle adds id if absent and removes it if present. It reports whether id is selected
// afterwards. The order of the remaining ids is preserved.
func (s *Selection) Toggle(id string) bool {
	if _, ok := s.index[id]; ok {
		s.remove(id)
		return false
	}
	s.add(id)
	return true
}

func (s *Selection) IsSelected(id string) bool {
	_, ok := s.index[id]
	return ok
}

func (s *Selection) Clear() {
	s.ids = nil
	s.index = make(map[string]struct{})
}

func (s *Selection) Len() int { return len(s.ids) }

// IDs returns a copy of the selected ids in selection order.
func (s *Selection) IDs() []string {
	ids := make([]string, len(s.ids))
	copy(ids, s.ids)
	return ids
}

// Retain drops every selected id that is not in ids and returns how many were dropped.
func (s *Selection) Retain(ids []string) int {
	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}
	kept := s.ids[:0]
	for _, id := range s.ids {
		if _, ok := keep[id]; ok {
			kept = append(kept, id)
		} else {
			delete(s.index, id)
		}
	}
	pruned := len(s.ids) - len(kept)
	s.ids = kept
	return pruned
}

func (s *Selection) add(id string) {
	if _, ok := s.index[id]; ok {
		return
	}
	s.index[id] = struct{}{}
	s.ids = append(s.ids, id)
}

func (s *Selection) remove(id string) {
	delete(s.index, id)
	for i, sid := range s.ids {
		if sid == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			return
		}
	}
}
