package appstream

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
)

// desktopEntry holds the handful of .desktop [Desktop Entry] keys the
// engine cares about (spec.md §4.1 supplement, grounded on
// gs-appstream.c's load_desktop_files adapter, which synthesizes an
// AppStream <component> from a .desktop file's keys).
type desktopEntry struct {
	id          string
	name        string
	genericName string
	comment     string
	icon        string
	categories  []string
	keywords    []string
	noDisplay   bool
	hidden      bool
}

// parseDesktopFile reads the [Desktop Entry] group of a .desktop file. Only
// the default (unlocalized) key is read; localized Name[xx] variants are
// out of scope here since the silo's own xml:lang handling covers locale
// fallback for every other field.
func parseDesktopFile(path string) (*desktopEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	e := &desktopEntry{id: strings.TrimSuffix(filepath.Base(path), ".desktop")}
	inGroup := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			inGroup = line == "[Desktop Entry]"
			continue
		}
		if !inGroup {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		switch key {
		case "Name":
			e.name = value
		case "GenericName":
			e.genericName = value
		case "Comment":
			e.comment = value
		case "Icon":
			e.icon = value
		case "Categories":
			e.categories = splitSemicolons(value)
		case "Keywords":
			e.keywords = splitSemicolons(value)
		case "NoDisplay":
			e.noDisplay = value == "true"
		case "Hidden":
			e.hidden = value == "true"
		}
	}
	return e, scanner.Err()
}

func splitSemicolons(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// toComponent synthesizes an AppStream <component> node equivalent to what
// the original's desktop-file adapter builds, so the rest of the refine/
// search pipeline treats it identically to an XML-sourced component.
func (e *desktopEntry) toComponent() *etree.Element {
	comp := etree.NewElement("component")
	comp.CreateAttr("type", "desktop-application")
	comp.CreateElement("id").SetText(e.id)
	comp.CreateElement("name").SetText(e.name)
	summary := e.comment
	if summary == "" {
		summary = e.genericName
	}
	comp.CreateElement("summary").SetText(summary)

	launchable := comp.CreateElement("launchable")
	launchable.CreateAttr("type", "desktop-id")
	launchable.SetText(e.id + ".desktop")

	if len(e.categories) > 0 {
		catsEl := comp.CreateElement("categories")
		for _, c := range e.categories {
			catsEl.CreateElement("category").SetText(c)
		}
	}
	if len(e.keywords) > 0 {
		kwEl := comp.CreateElement("keywords")
		for _, k := range e.keywords {
			kwEl.CreateElement("keyword").SetText(k)
		}
	}
	if e.icon != "" {
		icon := comp.CreateElement("icon")
		icon.CreateAttr("type", "stock")
		icon.SetText(e.icon)
	}
	return comp
}

// LoadDesktopFiles scans dir for *.desktop files (skipping mimeinfo.cache
// and any entry marked NoDisplay/Hidden) and adds a synthetic component for
// each to the silo (spec.md §4.1 "load .desktop file" source, grounded on
// gs_appstream_load_desktop_files). Returns the count of files loaded; a
// missing directory is not an error, matching the original's tolerant
// "does not exist" skip.
func (s *Silo) LoadDesktopFiles(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	doc := etree.NewDocument()
	root := doc.CreateElement("components")
	root.CreateAttr("origin", "desktop-files")
	loaded := 0

	for _, de := range entries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, ".desktop") || name == "mimeinfo.cache" {
			continue
		}
		entry, err := parseDesktopFile(filepath.Join(dir, name))
		if err != nil || entry.noDisplay || entry.hidden {
			continue
		}
		root.AddChild(entry.toComponent())
		loaded++
	}
	if loaded > 0 {
		s.AddDocument(doc)
	}
	return loaded, nil
}
