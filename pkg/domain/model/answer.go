package model

// NoMatchAnswer is returned when retrieval finds nothing; the generator is not called
const NoMatchAnswer = "There are no matches"

// Link is a citation of a source document
type Link struct {
	Link  string `json:"link"`
	Title string `json:"title"`
}

// AnswerResult is the outcome of a grounded question answering call
type AnswerResult struct {
	Answer string
	Links  []Link
}

// LinkSet collects links in first-seen order, keyed by the link value alone.
// A later entry with an already seen link is dropped even if its title differs.
type LinkSet struct {
	seen  map[string]struct{}
	links []Link
}

// NewLinkSet creates an empty LinkSet
func NewLinkSet() *LinkSet {
	return &LinkSet{seen: make(map[string]struct{})}
}

// Add records link unless its link value was already added. It reports
// whether the link was new.
func (s *LinkSet) Add(link Link) bool {
	if _, ok := s.seen[link.Link]; ok {
		return false
	}
	s.seen[link.Link] = struct{}{}
	s.links = append(s.links, link)
	return true
}

// Len returns the number of distinct links
func (s *LinkSet) Len() int {
	return len(s.links)
}

// Links returns a copy of the links in first-seen order. It never returns nil.
func (s *LinkSet) Links() []Link {
	out := make([]Link, len(s.links))
	copy(out, s.links)
	return out
}
