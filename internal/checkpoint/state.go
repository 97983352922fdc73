package checkpoint

import (
	"maps"
	"slices"
	"sync"
)

// FirstPage is the page a region starts at when it has no recorded progress.
const FirstPage = 1

// State is the resume state of a harvest: per-region page progress and the
// set of known record identities. It is safe for concurrent use.
//
// Invariants: a region's page never decreases and the known set never shrinks.
type State struct {
	mu      sync.Mutex
	regions map[string]int
	known   map[string]struct{}
}

// NewState returns an empty State.
func NewState() *State {
	return &State{
		regions: make(map[string]int),
		known:   make(map[string]struct{}),
	}
}

// ResumePage returns the page to start the region at.
//
// A region whose last completed page is k resumes at k: the page is fetched
// again so entries added to it since the last run are picked up, and the
// dedup filter suppresses the ones already written.
func (s *State) ResumePage(region string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if page := s.regions[region]; page > 0 {
		return page
	}
	return FirstPage
}

// LastPage returns the last completed page of the region, or 0.
func (s *State) LastPage(region string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regions[region]
}

// RecordProgress records page as completed for region.
// Progress is merged with max, so it can never regress.
func (s *State) RecordProgress(region string, page int) {
	if page <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if page > s.regions[region] {
		s.regions[region] = page
	}
}

// IsKnown reports whether identity has already been written.
func (s *State) IsKnown(identity string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.known[identity]
	return ok
}

// MarkKnown adds identities to the known set.
func (s *State) MarkKnown(identities ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range identities {
		if id != "" {
			s.known[id] = struct{}{}
		}
	}
}

// KnownCount returns the number of known identities.
func (s *State) KnownCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.known)
}

// Known returns the known identities in sorted order.
func (s *State) Known() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := slices.Collect(maps.Keys(s.known))
	slices.Sort(ids)
	return ids
}

// Regions returns a copy of the region progress map.
func (s *State) Regions() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.regions)
}

// Snapshot returns a deep copy that later mutations of s do not affect.
func (s *State) Snapshot() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &State{
		regions: maps.Clone(s.regions),
		known:   maps.Clone(s.known),
	}
}

// document is the JSON form of a State.
type document struct {
	Regions         map[string]int `json:"regions"`
	KnownIdentities []string       `json:"knownIdentities"`
}

// legacyDocument is the layout written by the first version of the crawler.
type legacyDocument struct {
	VisitedCities  map[string]int `json:"visited_cities"`
	VisitedDoctors []string       `json:"visited_doctors"`
}

func (s *State) toDocument() document {
	return document{
		Regions:         s.Regions(),
		KnownIdentities: s.Known(),
	}
}

// stateFromDocument builds a State, dropping entries that break the invariants.
func stateFromDocument(regions map[string]int, known []string) *State {
	st := NewState()
	for region, page := range regions {
		st.RecordProgress(region, page)
	}
	st.MarkKnown(known...)
	return st
}
