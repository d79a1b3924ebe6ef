package appstream

import (
	"sort"
	"strings"

	"github.com/beevik/etree"
	"github.com/software-center/catalog/internal/app"
)

// Search-term weights, grounded on gs-appstream.c's AS_SEARCH_TOKEN_MATCH_*
// constants (as_utils_get_tag_search_weight). Each is its own bit, not an
// arbitrary magnitude: the match value for a token is the bitwise OR of
// every field that matched (spec.md §4.1), so a higher bit position must
// mean "more user-meaningful field" for ranking by raw integer value to
// hold regardless of which other, lower-order fields also matched.
const (
	weightMediaType     = 1 << 0
	weightOrigin        = 1 << 1
	weightPkgnameHalf   = 1 << 2
	weightKeyword       = 1 << 3
	weightPkgname       = 1 << 4
	weightSummary       = 1 << 5
	weightNameHalf      = 1 << 6
	weightName          = 1 << 7
	weightID            = 1 << 8
)

// searchField is one weighted (field, contains-vs-exact) probe against a
// component. The engine evaluates every field for every search token and
// ORs the weights of whichever fields matched (spec.md §4.1 "full text
// search with per-field weighting"). Exact matches are tried before the
// half-weight substring variant so mediatype/summary/keyword/id/launchable/
// origin don't need a substring fallback at all, matching the original's
// query table.
type searchField struct {
	weight int
	match  func(comp *etree.Element, token string) bool
}

func textEquals(tag string) func(*etree.Element, string) bool {
	return func(comp *etree.Element, token string) bool {
		for _, el := range comp.SelectElements(tag) {
			if strings.EqualFold(strings.TrimSpace(el.Text()), token) {
				return true
			}
		}
		return false
	}
}

func textContains(tag string) func(*etree.Element, string) bool {
	return func(comp *etree.Element, token string) bool {
		for _, el := range comp.SelectElements(tag) {
			if strings.Contains(strings.ToLower(el.Text()), strings.ToLower(token)) {
				return true
			}
		}
		return false
	}
}

func nestedTextEquals(parent, child string) func(*etree.Element, string) bool {
	return func(comp *etree.Element, token string) bool {
		p := comp.SelectElement(parent)
		if p == nil {
			return false
		}
		return textEquals(child)(p, token)
	}
}

var searchQueries = []searchField{
	{weightMediaType, nestedTextEquals("provides", "mediatype")},
	{weightPkgname, textEquals("pkgname")},
	{weightPkgnameHalf, textContains("pkgname")},
	{weightSummary, textEquals("summary")},
	{weightName, textEquals("name")},
	{weightNameHalf, textContains("name")},
	{weightKeyword, nestedTextEquals("keywords", "keyword")},
	{weightID, textEquals("id")},
	{weightID, func(comp *etree.Element, token string) bool {
		l := firstChild(comp, "launchable")
		return l != nil && strings.EqualFold(strings.TrimSpace(l.Text()), token)
	}},
	{weightOrigin, func(comp *etree.Element, token string) bool {
		return strings.EqualFold(ComponentsOrigin(comp), token)
	}},
}

var developerSearchQueries = []searchField{
	{weightPkgname, nestedTextEquals("developer", "name")},
	{weightSummary, textEquals("project_group")},
	{weightPkgname, textEquals("developer_name")},
}

// matchValue ORs together the weight of every field that matched any token (all
// tokens must match at least one field each, spec.md §4.1 "AND across
// terms, OR across fields").
func matchValue(comp *etree.Element, tokens []string, queries []searchField) int {
	total := 0
	for _, tok := range tokens {
		tokenValue := 0
		for _, q := range queries {
			if q.match(comp, tok) {
				tokenValue |= q.weight
			}
		}
		if tokenValue == 0 {
			return 0
		}
		total |= tokenValue
	}
	return total
}

// Result pairs a matched App with its search rank.
type Result struct {
	App        *app.App
	MatchValue int
}

func tokenize(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Search runs a weighted full-text search across every component in the
// active silo (spec.md §4.1). The id token's weight is excluded from the
// reported match value since it isn't user-visible and otherwise dominates
// ordering, matching the original's "drop the id weight" comment.
func (e *Engine) Search(values []string) []Result {
	return e.doSearch(tokenize(values), searchQueries)
}

// SearchDeveloperApps searches by developer name / project group instead
// of the default field set (spec.md §4.1 supplement, "apps by this
// developer").
func (e *Engine) SearchDeveloperApps(values []string) []Result {
	return e.doSearch(tokenize(values), developerSearchQueries)
}

func (e *Engine) doSearch(tokens []string, queries []searchField) []Result {
	if len(tokens) == 0 {
		return nil
	}
	var out []Result
	for _, comp := range e.Silo().Components() {
		mv := matchValue(comp, tokens, queries)
		if mv == 0 {
			continue
		}
		a := e.newAppFromComponent(comp)
		if a.HasQuirk(app.QuirkIsWildcard) {
			continue
		}
		// An addon's own component isn't what the user browses to; the
		// extended parent's id is synthesized as an is-wildcard
		// placeholder instead, to be materialized by a later refine pass
		// (spec.md §4.1 "For addons, the extended parent's id is
		// synthesized into the list as an is-wildcard placeholder").
		if a.Kind() == app.KindAddon {
			if extendsEl := firstChild(comp, "extends"); extendsEl != nil {
				parentID := strings.TrimSpace(extendsEl.Text())
				if parentID != "" {
					parent := app.New(parentID)
					parent.AddQuirk(app.QuirkIsWildcard)
					out = append(out, Result{App: parent, MatchValue: mv &^ weightID})
					continue
				}
			}
		}
		out = append(out, Result{App: a, MatchValue: mv &^ weightID})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchValue > out[j].MatchValue })
	return out
}

// AddCategoryApps returns every App whose <categories> list contains
// categoryID (spec.md §4.1 "browse by category").
func (e *Engine) AddCategoryApps(categoryID string) []*app.App {
	var out []*app.App
	for _, comp := range e.Silo().Components() {
		catsEl := comp.SelectElement("categories")
		if catsEl == nil {
			continue
		}
		for _, cat := range catsEl.SelectElements("category") {
			if strings.EqualFold(strings.TrimSpace(cat.Text()), categoryID) {
				out = append(out, e.newAppFromComponent(comp))
				break
			}
		}
	}
	return out
}

// AddFeatured returns every component tagged Featured (spec.md §4.1
// "featured carousel"; grounded on gs-appstream.c's Featured category
// special-case inside its categories dispatch).
func (e *Engine) AddFeatured() []*app.App {
	var out []*app.App
	for _, comp := range e.Silo().Components() {
		catsEl := comp.SelectElement("categories")
		if catsEl == nil {
			continue
		}
		for _, cat := range catsEl.SelectElements("category") {
			if strings.TrimSpace(cat.Text()) == "Featured" {
				out = append(out, e.newAppFromComponent(comp))
				break
			}
		}
	}
	return out
}

// AddRecent returns every component whose most recent release falls within
// sinceSeconds of nowUnix (spec.md §4.1 "recently released" kudo/list).
func (e *Engine) AddRecent(nowUnix, sinceSeconds int64) []*app.App {
	var out []*app.App
	for _, comp := range e.Silo().Components() {
		rels := comp.SelectElement("releases")
		if rels == nil {
			continue
		}
		first := rels.SelectElement("release")
		if first == nil {
			continue
		}
		ts := releaseTimestamp(first)
		if ts > 0 && nowUnix-ts <= sinceSeconds {
			out = append(out, e.newAppFromComponent(comp))
		}
	}
	return out
}

// URLToApp resolves a URL naming an AppStream id, desktop-id launchable, or
// bundle reference to its owning component (spec.md §4.1 "url_to_app").
// It is deliberately permissive: an exact id match wins, then a launchable
// match, mirroring the precedence gs-appstream.c's scheme handlers use.
//
// The appstream: scheme is handled directly here (spec.md §4.5 "UrlToApp":
// "appstream: scheme is handled by the AppStream Engine directly via
// /component/id[text()=PATH]/.."), so "appstream:org.ex.A" resolves by id
// without the trailing-path-segment heuristic applied to file:// URLs.
func (e *Engine) URLToApp(url string) (*app.App, bool) {
	if rest, ok := strings.CutPrefix(url, "appstream:"); ok {
		if comp := e.findComponent(rest); comp != nil {
			return e.newAppFromComponent(comp), true
		}
		return nil, false
	}

	last := url
	if i := strings.LastIndexByte(url, '/'); i >= 0 {
		last = url[i+1:]
	}
	last = strings.TrimSuffix(last, ".desktop")
	for _, comp := range e.Silo().Components() {
		if idEl := firstChild(comp, "id"); idEl != nil && idEl.Text() == last {
			return e.newAppFromComponent(comp), true
		}
	}
	for _, comp := range e.Silo().Components() {
		if l := firstChild(comp, "launchable"); l != nil && strings.TrimSuffix(strings.TrimSpace(l.Text()), ".desktop") == last {
			return e.newAppFromComponent(comp), true
		}
	}
	return nil, false
}
