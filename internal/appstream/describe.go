package appstream

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// formatInline renders <em>/<code> markup inside a <p> or <li> as
// <i>/<tt>, recursing for nested markup (spec.md §4.1 "description
// formatter"; grounded on gs-appstream.c's
// gs_appstream_format_description_text).
func formatInline(n *etree.Element) string {
	var b strings.Builder
	if text := strings.TrimSpace(n.Text()); text != "" {
		b.WriteString(text)
	}
	for _, child := range n.ChildElements() {
		startTag, endTag := "", ""
		switch child.Tag {
		case "em":
			startTag, endTag = "<i>", "</i>"
		case "code":
			startTag, endTag = "<tt>", "</tt>"
		}
		inner := formatInline(child)
		if inner != "" {
			b.WriteString(startTag)
			b.WriteString(inner)
			b.WriteString(endTag)
		}
		if tail := strings.TrimSpace(child.Tail()); tail != "" {
			b.WriteString(tail)
		}
	}
	return b.String()
}

// FormatDescription renders a <description> element's <p>/<ul>/<ol>/<li>
// structure into a plain-text-with-markup blob the UI can display
// (spec.md §4.1). Any other element is ignored, matching the original
// renderer's "support p/em/code/ul/ol/li, ignore all else."
func FormatDescription(descEl *etree.Element) string {
	var b strings.Builder
	for _, n := range descEl.ChildElements() {
		switch n.Tag {
		case "p":
			if text := formatInline(n); text != "" {
				b.WriteString(text)
				b.WriteString("\n\n")
			}
		case "ul":
			for _, li := range n.SelectElements("li") {
				fmt.Fprintf(&b, " • %s\n", formatInline(li))
			}
			b.WriteString("\n")
		case "ol":
			for i, li := range n.SelectElements("li") {
				fmt.Fprintf(&b, " %d. %s\n", i+1, formatInline(li))
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// issueURL resolves the link target for an <issue> entry: an explicit url
// attribute wins, otherwise a CVE-kind issue gets a synthesized MITRE
// link (spec.md §4.1 supplement grounded on gs-appstream.c's
// format_issue_link).
func issueURL(kind, content, url string) string {
	if url != "" {
		return url
	}
	if kind == "cve" {
		return "https://cve.mitre.org/cgi-bin/cvename.cgi?name=" + content
	}
	return ""
}

// FormatIssues renders an <issues> element as a bullet list appended after
// a description, one line per <issue>, linked where possible.
func FormatIssues(issuesEl *etree.Element) string {
	if issuesEl == nil {
		return ""
	}
	var b strings.Builder
	for _, issue := range issuesEl.SelectElements("issue") {
		content := strings.TrimSpace(issue.Text())
		if content == "" {
			continue
		}
		kind := issue.SelectAttrValue("type", "generic")
		url := issueURL(kind, content, issue.SelectAttrValue("url", ""))
		b.WriteString(" • ")
		if url != "" {
			fmt.Fprintf(&b, "<a href=\"%s\">%s</a>\n", url, content)
		} else {
			b.WriteString(content)
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
