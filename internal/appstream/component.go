package appstream

import (
	"strings"

	"github.com/beevik/etree"
)

// childText returns the text of the first child of comp with the given tag,
// preferring an xml:lang matching one of locales (most specific first),
// falling back to an untagged element, and finally to "C" (spec.md §3.4,
// §6 "tolerant of missing locales").
func childText(comp *etree.Element, tag string, locales []string) string {
	var fallback, cMatch string
	for _, child := range comp.SelectElements(tag) {
		lang := child.SelectAttrValue("xml:lang", "")
		text := strings.TrimSpace(child.Text())
		if lang == "" {
			if fallback == "" {
				fallback = text
			}
			continue
		}
		if lang == "C" {
			cMatch = text
		}
		for _, want := range locales {
			if want != "C" && lang == want {
				return text
			}
		}
	}
	if fallback != "" {
		return fallback
	}
	return cMatch
}

// firstChild returns the first direct child element with tag, or nil.
func firstChild(comp *etree.Element, tag string) *etree.Element {
	return comp.SelectElement(tag)
}

// allText collects the trimmed text of every direct child with tag.
func allText(comp *etree.Element, tag string) []string {
	var out []string
	for _, c := range comp.SelectElements(tag) {
		if t := strings.TrimSpace(c.Text()); t != "" {
			out = append(out, t)
		}
	}
	return out
}
