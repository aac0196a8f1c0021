package model

import "encoding/json"

// IDSet is an insertion-ordered set of document ids. The zero value is an
// empty set ready to use. Copying an IDSet shares storage; use Clone.
type IDSet struct {
	ids   []string
	index map[string]struct{}
}

// NewIDSet builds a set from ids, dropping duplicates and empty strings.
func NewIDSet(ids ...string) IDSet {
	var s IDSet
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Has reports whether id is in the set.
func (s IDSet) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Add inserts id and reports whether the set changed.
func (s *IDSet) Add(id string) bool {
	if id == "" || s.Has(id) {
		return false
	}
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	s.index[id] = struct{}{}
	s.ids = append(s.ids, id)
	return true
}

// Remove deletes id and reports whether the set changed.
func (s *IDSet) Remove(id string) bool {
	if !s.Has(id) {
		return false
	}
	delete(s.index, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i:i], s.ids[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of ids.
func (s IDSet) Len() int { return len(s.ids) }

// Slice returns the ids in insertion order. The result is a copy.
func (s IDSet) Slice() []string {
	return append([]string{}, s.ids...)
}

// Clone returns an independent copy.
func (s IDSet) Clone() IDSet {
	return NewIDSet(s.ids...)
}

// MarshalJSON encodes the set as a JSON array.
func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

// UnmarshalJSON decodes a JSON array, collapsing duplicates.
func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}
