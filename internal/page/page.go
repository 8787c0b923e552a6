// Package page holds the build engine's content data model: pages,
// sections, cascading metadata, per-section sort strategies, and
// pagination — the types every discovery/render/orchestrator component
// operates on.
package page

import "time"

// Metadata is a page or section's frontmatter, a heterogeneous map of
// string keys to values (dates, weights, tag lists, booleans, nested maps).
type Metadata map[string]any

// GetString returns a string field, or "" if absent or the wrong type.
func (m Metadata) GetString(key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// GetBool returns a bool field, or false if absent or the wrong type.
func (m Metadata) GetBool(key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

// GetInt returns an int field, accepting int or float64 (the shape YAML
// unmarshaling into `any` produces for JSON-number-like values).
func (m Metadata) GetInt(key string) (int, bool) {
	switch v := m[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// NavKeys is the closed set of frontmatter keys that affect navigation
// structure; the change classifier (C7) escalates scope when a modified
// page's frontmatter defines any of them. It checks for the key's presence
// only and does not compare values with an earlier version of the file.
var NavKeys = map[string]bool{
	"title": true, "weight": true, "order": true,
	"draft": true, "headless": true, "cascade": true,
}

// Page is a logical unit that produces exactly one output file.
type Page struct {
	// SourcePath is the path relative to the content root. Virtual for
	// generated pages (e.g. "tags/python" for a tag listing).
	SourcePath string

	// Generated is true for pages with no backing markdown file (tag
	// listings, section archives, API reference indexes).
	Generated bool

	// GeneratedType/GeneratedID identify a generated page for the
	// generated-page cache key ("tag", "python").
	GeneratedType string
	GeneratedID   string

	Metadata Metadata
	Body     string

	Template string

	Section *Section // owning section; never nil after discovery

	OutputPath string
	URL        string

	ContentHash string
}

// Title returns the page's title, falling back to "" if unset.
func (p *Page) Title() string { return p.Metadata.GetString("title") }

// Weight returns the page's navigation weight, defaulting to 0.
func (p *Page) Weight() int {
	w, _ := p.Metadata.GetInt("weight")
	return w
}

// Date extracts a "date" frontmatter field as time.Time, the zero value
// if absent or unparseable. Accepts RFC3339 and a bare date.
func (p *Page) Date() time.Time {
	raw := p.Metadata.GetString("date")
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t
	}
	return time.Time{}
}

// Draft reports whether the page is marked draft.
func (p *Page) Draft() bool { return p.Metadata.GetBool("draft") }

// CascadeValue walks up the section chain looking for a cascade value
// for key, implementing "inherited on demand, never by copy" (spec §3).
func (p *Page) CascadeValue(key string) (any, bool) {
	if p.Section == nil {
		return nil, false
	}
	return p.Section.CascadeValue(key)
}

// Section is a node in the content tree.
type Section struct {
	Name   string
	Parent *Section // weak back-reference; Section never owns its parent

	Subsections []*Section
	Pages       []*Page // member pages, excluding the index page

	Index *Page // authored (_index.md) or synthesized archive page

	Metadata Metadata

	// Cascade holds this section's own cascade sub-map (Metadata["cascade"],
	// typed for direct access).
	Cascade Metadata
}

// CascadeValue looks up key in this section's cascade map, walking up to
// ancestors if unset, stopping at the first ancestor that defines it.
func (s *Section) CascadeValue(key string) (any, bool) {
	for sec := s; sec != nil; sec = sec.Parent {
		if sec.Cascade != nil {
			if v, ok := sec.Cascade[key]; ok {
				return v, true
			}
		}
	}
	return nil, false
}

// Path returns the section's full path by walking up to the root,
// joining names with "/".
func (s *Section) Path() string {
	if s.Parent == nil {
		return s.Name
	}
	parent := s.Parent.Path()
	if parent == "" {
		return s.Name
	}
	return parent + "/" + s.Name
}

// AllPages returns every member page plus the index page if authored
// (non-synthetic), for provenance/fingerprint computations.
func (s *Section) AllPages() []*Page {
	pages := make([]*Page, 0, len(s.Pages)+1)
	if s.Index != nil {
		pages = append(pages, s.Index)
	}
	pages = append(pages, s.Pages...)
	return pages
}

// WalkPages returns every page reachable from s: its own member pages,
// its authored index, and the same recursively for every subsection.
func (s *Section) WalkPages() []*Page {
	pages := s.AllPages()
	for _, child := range s.Subsections {
		pages = append(pages, child.WalkPages()...)
	}
	return pages
}
