// Package fakesite serves an in-memory directory over httptest for tests.
//
// It speaks the same protocol as the real site: a JSON region list, HTML
// listing pages per region, HTML detail pages and a multipart phone
// lookup endpoint. Every request is counted so tests can assert how much
// network work a run did.
package fakesite

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// Paths served by the fake directory.
const (
	RegionsPath = "/api/public/cities"
	PhonesPath  = "/api/public/doctor/office/tells"
	DetailPath  = "/doctor/"
)

// EndStyle selects how a listing page past the last page is rendered.
type EndStyle int

const (
	// EndEmptyMarker renders the "no more results" marker.
	EndEmptyMarker EndStyle = iota
	// EndNoEntries renders a page without listing cards.
	EndNoEntries
	// EndNotFound answers 404.
	EndNotFound
)

// Office is one office of a fake profile.
type Office struct {
	ID     string
	Street string
	Waze   string
	Maps   string
	Phones []string
}

// Doctor is one fake profile.
type Doctor struct {
	Name      string
	Specialty string
	Portrait  string
	// Slug is the detail path segment. Defaults to a slug of Name.
	Slug string
	// License is omitted from the detail page when empty.
	License string
	Offices []Office
}

// Region is one fake region with its listing pages.
type Region struct {
	ID    string
	Name  string
	Pages [][]Doctor
}

// Site is a running fake directory.
type Site struct {
	server *httptest.Server

	mu        sync.Mutex
	regions   []Region
	end       EndStyle
	failures  map[string]int
	drops     map[string]bool
	hits      map[string]int
	phoneHits map[string]int
	phoneCode int
}

// New starts a fake directory serving regions. It is closed when the test
// ends.
func New(t testing.TB, regions ...Region) *Site {
	t.Helper()

	s := &Site{
		regions:   regions,
		failures:  make(map[string]int),
		drops:     make(map[string]bool),
		hits:      make(map[string]int),
		phoneHits: make(map[string]int),
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.server.Close)
	return s
}

// URL returns the base URL of the site.
func (s *Site) URL() string {
	return s.server.URL
}

// SetRegions replaces the served regions.
func (s *Site) SetRegions(regions ...Region) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regions = regions
}

// SetEndStyle sets how pages past the end are rendered.
func (s *Site) SetEndStyle(end EndStyle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.end = end
}

// FailPath makes GET requests for path answer with status.
func (s *Site) FailPath(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = status
}

// DropPath makes requests for path fail at the connection level.
func (s *Site) DropPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drops[path] = true
}

// Heal removes all injected failures.
func (s *Site) Heal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]int)
	s.drops = make(map[string]bool)
	s.phoneCode = 0
}

// FailPhones makes the phone endpoint answer with status.
func (s *Site) FailPhones(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phoneCode = status
}

// Hits returns how often path was requested.
func (s *Site) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// DetailHits returns how often the detail page of doctor was requested.
func (s *Site) DetailHits(d Doctor) int {
	return s.Hits(DetailPath + d.DetailSlug())
}

// PhoneHits returns how often the phones of officeID were looked up.
func (s *Site) PhoneHits(officeID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phoneHits[officeID]
}

// ListingPath returns the listing path of page n of region.
func ListingPath(region string, n int) string {
	if n > 1 {
		return fmt.Sprintf("%s/page-%d", region, n)
	}
	return region
}

// DetailSlug returns the detail path segment of d.
func (d Doctor) DetailSlug() string {
	if d.Slug != "" {
		return d.Slug
	}
	return strings.ToLower(strings.Join(strings.Fields(d.Name), "-"))
}

func (s *Site) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	drop := s.drops[r.URL.Path]
	status := s.failures[r.URL.Path]
	s.mu.Unlock()

	if drop {
		hj, ok := w.(http.Hijacker)
		if ok {
			if conn, _, err := hj.Hijack(); err == nil {
				_ = conn.Close()
				return
			}
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	if status != 0 {
		w.WriteHeader(status)
		return
	}

	switch {
	case r.URL.Path == RegionsPath:
		s.serveRegions(w)
	case r.URL.Path == PhonesPath:
		s.servePhones(w, r)
	case strings.HasPrefix(r.URL.Path, DetailPath):
		s.serveDetail(w, strings.TrimPrefix(r.URL.Path, DetailPath))
	default:
		s.serveListing(w, r.URL.Path)
	}
}

func (s *Site) serveRegions(w http.ResponseWriter) {
	s.mu.Lock()
	list := make([]map[string]string, 0, len(s.regions))
	for _, r := range s.regions {
		list = append(list, map[string]string{"url": r.ID, "tit": r.Name})
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

func (s *Site) servePhones(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	id := r.FormValue("office_id")

	s.mu.Lock()
	s.phoneHits[id]++
	code := s.phoneCode
	var phones []string
	for _, reg := range s.regions {
		for _, page := range reg.Pages {
			for _, d := range page {
				for _, o := range d.Offices {
					if o.ID == id {
						phones = o.Phones
					}
				}
			}
		}
	}
	s.mu.Unlock()

	if code != 0 {
		w.WriteHeader(code)
		return
	}
	out := make([]map[string]string, 0, len(phones))
	for _, p := range phones {
		out = append(out, map[string]string{"tel": p})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (s *Site) serveDetail(w http.ResponseWriter, slug string) {
	s.mu.Lock()
	var found *Doctor
	for _, reg := range s.regions {
		for _, page := range reg.Pages {
			for i := range page {
				if page[i].DetailSlug() == slug {
					d := page[i]
					found = &d
				}
			}
		}
	}
	s.mu.Unlock()

	if found == nil {
		http.NotFound(w, nil)
		return
	}

	var b strings.Builder
	b.WriteString("<html><body>\n")
	if found.License != "" {
		fmt.Fprintf(&b, "<div class=\"doctor-code\"><span>Code:</span><span>%s</span></div>\n", html.EscapeString(found.License))
	}
	b.WriteString("<div class=\"offices\">\n")
	for _, o := range found.Offices {
		if o.ID != "" {
			fmt.Fprintf(&b, "<div class=\"office\" data-officeid=\"%s\"></div>\n", html.EscapeString(o.ID))
		}
	}
	b.WriteString("</div>\n")
	for _, o := range found.Offices {
		b.WriteString("<div class=\"locations-panel-item\">\n")
		if o.Street != "" {
			fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(o.Street))
		}
		if o.Waze != "" {
			fmt.Fprintf(&b, "<a href=\"%s\">Waze</a>\n", html.EscapeString(o.Waze))
		}
		if o.Maps != "" {
			fmt.Fprintf(&b, "<a href=\"%s\">Maps</a>\n", html.EscapeString(o.Maps))
		}
		b.WriteString("</div>\n")
	}
	b.WriteString("</body></html>\n")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}

func (s *Site) serveListing(w http.ResponseWriter, path string) {
	regionID, n := splitListingPath(path)

	s.mu.Lock()
	var pages [][]Doctor
	known := false
	for _, reg := range s.regions {
		if reg.ID == regionID {
			pages = reg.Pages
			known = true
		}
	}
	end := s.end
	s.mu.Unlock()

	if !known {
		http.NotFound(w, nil)
		return
	}

	var b strings.Builder
	b.WriteString("<html><body>\n")
	if n <= len(pages) {
		for _, d := range pages[n-1] {
			fmt.Fprintf(&b, "<a class=\"doctor-ui\" href=\"%s%s\">\n", DetailPath, d.DetailSlug())
			if d.Portrait != "" {
				fmt.Fprintf(&b, "<div class=\"doctor-ui-profile\"><img data-src=\"%s\"></div>\n", html.EscapeString(d.Portrait))
			}
			fmt.Fprintf(&b, "<h2 class=\"doctor-ui-name\"><span>%s</span></h2>\n", html.EscapeString(d.Name))
			if d.Specialty != "" {
				fmt.Fprintf(&b, "<span class=\"doctor-ui-specialty\">%s</span>\n", html.EscapeString(d.Specialty))
			}
			b.WriteString("</a>\n")
		}
	} else {
		switch end {
		case EndNotFound:
			http.NotFound(w, nil)
			return
		case EndEmptyMarker:
			b.WriteString("<div class=\"empty\">No doctors found</div>\n")
		case EndNoEntries:
		}
	}
	b.WriteString("</body></html>\n")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}

// splitListingPath splits "/tehran/page-3" into "/tehran" and 3.
func splitListingPath(path string) (string, int) {
	idx := strings.LastIndex(path, "/page-")
	if idx < 0 {
		return path, 1
	}
	n, err := strconv.Atoi(path[idx+len("/page-"):])
	if err != nil || n < 1 {
		return path, 1
	}
	return path[:idx], n
}
