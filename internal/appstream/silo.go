// Package appstream implements the AppStream Metadata Engine (spec.md
// §2 component C, §4.1): a compiled, queryable Silo built from AppStream
// XML and .desktop sources, and an Engine that creates and refines App
// objects from it. Grounded on beevik/etree as the XML/XPath-like engine
// backing the Silo abstraction spec.md §3.4 asks for, and on
// original_source/lib/gs-appstream.c for element-by-element refine
// semantics and weighted search.
package appstream

import (
	"fmt"
	"os"
	"sync"

	"github.com/beevik/etree"
)

// Silo is an immutable compiled index over zero or more AppStream
// <components> documents (spec.md §3.4). Once compiled, a Silo is never
// mutated; the Engine swaps in a freshly compiled Silo and lets readers of
// the old one finish naturally (spec.md §5 "re-compilation produces a new
// silo; the loader swaps the pointer atomically").
type Silo struct {
	mu       sync.Mutex // guards nothing after Seal; held only by AddXMLBytes/AddDocument/Seal
	docs     []*etree.Document
	locales  []string
	sealed   bool
}

// NewSilo returns an empty, unsealed Silo ready to accept sources.
func NewSilo() *Silo {
	return &Silo{locales: []string{"C"}}
}

// SetLocales records the caller's preferred locale list, most specific
// first; component text lookups fall back to "C" (spec.md §3.4, §6).
func (s *Silo) SetLocales(locales []string) {
	if len(locales) == 0 {
		s.locales = []string{"C"}
		return
	}
	s.locales = append(append([]string(nil), locales...), "C")
}

func (s *Silo) Locales() []string { return s.locales }

// AddXMLBytes parses AppStream XML bytes and adds its <component> children
// to the silo.
func (s *Silo) AddXMLBytes(data []byte) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return fmt.Errorf("appstream: parse xml: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return fmt.Errorf("appstream: silo is sealed")
	}
	s.docs = append(s.docs, doc)
	return nil
}

// AddXMLFile loads and parses an AppStream XML file.
func (s *Silo) AddXMLFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("appstream: read %s: %w", path, err)
	}
	return s.AddXMLBytes(data)
}

// AddDocument inserts an already-built document (used by the desktop-file
// adapter and the test helpers to inject a synthetic <components> tree).
func (s *Silo) AddDocument(doc *etree.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return
	}
	s.docs = append(s.docs, doc)
}

// Seal marks the silo immutable. Subsequent AddDocument calls are no-ops;
// AddXMLBytes (and so AddXMLFile) return an error instead.
func (s *Silo) Seal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sealed = true
}

// Components returns every <component> element across all documents in
// the silo, lock-free (the silo is immutable once sealed; callers must not
// invoke this before Seal from a concurrent goroutine).
func (s *Silo) Components() []*etree.Element {
	var out []*etree.Element
	for _, doc := range s.docs {
		root := doc.Root()
		if root == nil {
			continue
		}
		if root.Tag == "component" {
			out = append(out, root)
			continue
		}
		out = append(out, root.SelectElements("component")...)
	}
	return out
}

// ComponentsOrigin returns the origin attribute of the <components> parent
// of comp, or "" if comp has no parent components element.
func ComponentsOrigin(comp *etree.Element) string {
	if comp.Parent() == nil {
		return ""
	}
	return comp.Parent().SelectAttrValue("origin", "")
}
