package appstream

import (
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/software-center/catalog/internal/app"
	"github.com/software-center/catalog/internal/plugin"
)

// RefineApp populates a from comp according to flags, following the
// element-by-element dispatch gs-appstream.c's gs_appstream_refine_app
// performs. The expensive branches are gated by their require flag; name,
// summary, the flatpak bundle ref and pkgname are applied on every call.
func (e *Engine) RefineApp(a *app.App, comp *etree.Element, flags plugin.RefineFlag) error {
	if comp == nil {
		comp = e.findComponent(a.ID())
	}
	if comp == nil {
		return nil
	}
	locales := e.Silo().Locales()

	if flags.Has(plugin.RequireID) && a.ID() == "" {
		if idEl := firstChild(comp, "id"); idEl != nil {
			a.SetID(idEl.Text())
		}
	}

	// name/summary always refined cheaply; they're near-free once the
	// component node is already in hand.
	if name := childText(comp, "name", locales); name != "" {
		a.SetName(app.QualityHighest, name)
	}
	if summary := childText(comp, "summary", locales); summary != "" {
		a.SetSummary(app.QualityHighest, summary)
	}

	if flags.Has(plugin.RequireDescription) {
		if descEl := comp.SelectElement("description"); descEl != nil {
			a.SetDescription(app.QualityHighest, FormatDescription(descEl))
		}
	}

	if flags.Has(plugin.RequireLicense) {
		if lic := firstChild(comp, "project_license"); lic != nil {
			a.SetLicense(strings.TrimSpace(lic.Text()))
		}
	}

	if flags.Has(plugin.RequireProjectGroup) {
		if pg := firstChild(comp, "project_group"); pg != nil {
			name := strings.TrimSpace(pg.Text())
			a.SetProjectGroup(name)
			// gs-plugin-loader.c's compatible-projects gate: a
			// project_group outside the configured allowlist hides the
			// app everywhere rather than being rejected outright
			// (SPEC_FULL.md §5.1).
			if !e.Settings().IsCompatibleProject(name) {
				a.AddQuirk(app.QuirkHideEverywhere)
			}
		}
	}

	if flags.Has(plugin.RequireDeveloperName) {
		if dev := comp.SelectElement("developer"); dev != nil {
			if name := childText(dev, "name", locales); name != "" {
				a.SetDeveloperName(name)
			} else if n := dev.SelectAttrValue("name", ""); n != "" {
				a.SetDeveloperName(n)
			}
		}
	}

	if flags.Has(plugin.RequireVersion) || flags.Has(plugin.RequireHistory) {
		refineReleases(a, comp, flags)
	}

	if flags.Has(plugin.RequireIcon) {
		refineIcons(a, comp)
	}

	if flags.Has(plugin.RequireScreenshots) {
		refineScreenshots(a, comp)
	}

	if flags.Has(plugin.RequireCategories) {
		refineCategories(a, comp)
	}

	if flags.Has(plugin.RequireRating) {
		refineContentRating(a, comp)
	}

	if flags.Has(plugin.RequireKudos) {
		refineKudos(a, comp, locales)
	}

	if flags.Has(plugin.RequireRuntime) || flags.Has(plugin.RequirePermissions) {
		refineRequiresRecommends(a, comp)
		refineProvides(a, comp)
	}

	if flags.Has(plugin.RequireURL) {
		if launch := firstChild(comp, "launchable"); launch != nil &&
			launch.SelectAttrValue("type", "") == "desktop-id" {
			a.SetMetadata("DesktopID", strings.TrimSpace(launch.Text()))
		}
	}

	if bundleEl := firstChild(comp, "bundle"); bundleEl != nil &&
		bundleEl.SelectAttrValue("type", "") == "flatpak" {
		if ref, err := ParseBundleRef(bundleEl.Text()); err == nil {
			a.SetBundleKind(app.BundleFlatpak)
			a.SetBranch(ref.Branch)
		} else {
			return err
		}
	}

	if pkgname := firstChild(comp, "pkgname"); pkgname != nil && len(a.Sources()) == 0 {
		a.AddSource(strings.TrimSpace(pkgname.Text()))
	}

	return nil
}

func refineReleases(a *app.App, comp *etree.Element, flags plugin.RefineFlag) {
	releasesEl := comp.SelectElement("releases")
	if releasesEl == nil {
		return
	}
	var releases []app.Release
	for _, rel := range releasesEl.SelectElements("release") {
		version := rel.SelectAttrValue("version", "")
		ts := releaseTimestamp(rel)
		desc := ""
		if d := rel.SelectElement("description"); d != nil {
			desc = FormatDescription(d)
		}
		releases = append(releases, app.Release{Version: version, Timestamp: ts, Description: desc})
	}
	if len(releases) == 0 {
		return
	}
	if flags.Has(plugin.RequireVersion) {
		a.SetVersion(releases[0].Version)
		a.SetReleaseDate(releases[0].Timestamp)
	}
	if flags.Has(plugin.RequireHistory) {
		// "three versions backwards": the update-details dialog never
		// needs more than the latest plus its three predecessors.
		if len(releases) > 4 {
			releases = releases[:4]
		}
		a.SetVersionHistory(releases)
	}
}

// releaseTimestamp prefers a numeric "timestamp" attribute over "date",
// mirroring gs-appstream.c's as_release_get_timestamp precedence.
func releaseTimestamp(rel *etree.Element) int64 {
	if ts := rel.SelectAttrValue("timestamp", ""); ts != "" {
		if v, err := strconv.ParseInt(ts, 10, 64); err == nil {
			return v
		}
	}
	if date := rel.SelectAttrValue("date", ""); date != "" {
		return parseISODate(date)
	}
	return 0
}

// parseISODate converts an ISO-8601 date ("YYYY-MM-DD", or a full
// RFC 3339 timestamp) into unix seconds, returning 0 when it cannot be
// parsed.
func parseISODate(date string) int64 {
	if t, err := time.Parse(time.RFC3339, date); err == nil {
		return t.Unix()
	}
	if t, err := time.Parse("2006-01-02", date); err == nil {
		return t.Unix()
	}
	return 0
}

func refineIcons(a *app.App, comp *etree.Element) {
	if a.HasIcons() {
		return
	}
	for _, icon := range comp.SelectElements("icon") {
		kind := icon.SelectAttrValue("type", "")
		width, _ := strconv.Atoi(icon.SelectAttrValue("width", "0"))
		var ik app.IconKind
		var name string
		switch kind {
		case "stock":
			ik, name = app.IconStock, strings.TrimSpace(icon.Text())
		case "cached":
			ik, name = app.IconThemed, strings.TrimSpace(icon.Text())
		case "local":
			ik, name = app.IconLocalFile, strings.TrimSpace(icon.Text())
		case "remote":
			ik, name = app.IconRemoteURL, strings.TrimSpace(icon.Text())
		default:
			continue
		}
		a.AddIcon(app.Icon{Kind: ik, Name: name, Size: width, Scale: 1})
	}
}

func refineScreenshots(a *app.App, comp *etree.Element) {
	if len(a.Screenshots()) > 0 {
		return
	}
	scrsEl := comp.SelectElement("screenshots")
	if scrsEl == nil {
		return
	}
	for _, scr := range scrsEl.SelectElements("screenshot") {
		var s app.Screenshot
		if caption := firstChild(scr, "caption"); caption != nil {
			s.Caption = strings.TrimSpace(caption.Text())
		}
		for _, img := range scr.SelectElements("image") {
			w, _ := strconv.Atoi(img.SelectAttrValue("width", "0"))
			h, _ := strconv.Atoi(img.SelectAttrValue("height", "0"))
			s.Images = append(s.Images, app.ScreenshotImage{
				Width: w, Height: h, URL: strings.TrimSpace(img.Text()),
			})
		}
		for _, vid := range scr.SelectElements("video") {
			s.Videos = append(s.Videos, app.ScreenshotVideo{
				Codec:     vid.SelectAttrValue("codec", ""),
				Container: vid.SelectAttrValue("container", ""),
				URL:       strings.TrimSpace(vid.Text()),
			})
		}
		a.AddScreenshot(s)
	}
}

func refineCategories(a *app.App, comp *etree.Element) {
	catsEl := comp.SelectElement("categories")
	if catsEl == nil {
		return
	}
	for _, cat := range catsEl.SelectElements("category") {
		name := strings.TrimSpace(cat.Text())
		switch name {
		case "Blacklisted":
			a.AddQuirk(app.QuirkHideEverywhere)
		case "Featured":
			a.AddKudo(app.KudoFeaturedRecommended)
		default:
			if name != "" {
				a.AddCategory(name)
			}
		}
	}
}

func refineContentRating(a *app.App, comp *etree.Element) {
	cr := comp.SelectElement("content_rating")
	if cr == nil {
		return
	}
	for _, attr := range cr.SelectElements("content_attribute") {
		id := attr.SelectAttrValue("id", "")
		if id == "" {
			continue
		}
		a.AddContentRating(app.OARSRating(id + ":" + strings.TrimSpace(attr.Text())))
	}
}

func refineKudos(a *app.App, comp *etree.Element, locales []string) {
	if kwEl := comp.SelectElement("keywords"); kwEl != nil && len(kwEl.SelectElements("keyword")) > 0 {
		a.AddKudo(app.KudoHasKeywords)
	}
	if kudosEl := comp.SelectElement("kudos"); kudosEl != nil {
		for _, k := range kudosEl.ChildElements() {
			if k.Tag == "GnomeSoftware::popular" {
				a.AddKudo(app.KudoFeaturedRecommended)
			}
		}
	}
	if langsEl := comp.SelectElement("languages"); langsEl != nil {
		for _, lang := range langsEl.SelectElements("lang") {
			code := lang.SelectAttrValue("xml:lang", "")
			for _, want := range locales {
				if want != "C" && localeMatches(code, want) {
					a.AddKudo(app.KudoMyLanguage)
				}
			}
		}
	}
}

// localeMatches allows a bare language code ("de") to satisfy a
// territory-qualified locale preference ("de_DE"), per gs-appstream.c's
// variant handling.
func localeMatches(code, want string) bool {
	if code == want {
		return true
	}
	return strings.HasPrefix(want, code+"_")
}

func refineRequiresRecommends(a *app.App, comp *etree.Element) {
	for _, tag := range []struct {
		el   string
		kind app.RelationKind
	}{
		{"requires", app.RelationRequires},
		{"recommends", app.RelationRecommends},
		{"supports", app.RelationSupports},
	} {
		rel := comp.SelectElement(tag.el)
		if rel == nil {
			continue
		}
		for _, item := range rel.ChildElements() {
			a.AddRelation(app.Relation{Kind: tag.kind, Item: strings.TrimSpace(item.Text())})
		}
	}
}

func refineProvides(a *app.App, comp *etree.Element) {
	provEl := comp.SelectElement("provides")
	if provEl == nil {
		return
	}
	for _, item := range provEl.ChildElements() {
		value := strings.TrimSpace(item.Text())
		switch item.Tag {
		case "library":
			a.AddProvidedItem(app.ProvidedItem{Kind: app.ProvidedLibrary, Value: value})
		case "binary":
			a.AddProvidedItem(app.ProvidedItem{Kind: app.ProvidedBinary, Value: value})
		case "firmware":
			switch item.SelectAttrValue("type", "") {
			case "runtime":
				a.AddProvidedItem(app.ProvidedItem{Kind: app.ProvidedFirmwareRuntime, Value: value})
			case "flashed":
				a.AddProvidedItem(app.ProvidedItem{Kind: app.ProvidedFirmwareFlashed, Value: value})
			}
		case "python3":
			a.AddProvidedItem(app.ProvidedItem{Kind: app.ProvidedPython, Value: value})
		case "dbus":
			switch item.SelectAttrValue("type", "") {
			case "system":
				a.AddProvidedItem(app.ProvidedItem{Kind: app.ProvidedDBusSystem, Value: value})
			case "user", "session":
				a.AddProvidedItem(app.ProvidedItem{Kind: app.ProvidedDBusUser, Value: value})
			}
		case "id":
			a.AddProvidedItem(app.ProvidedItem{Kind: app.ProvidedID, Value: value})
		case "mediatype":
			a.AddProvidedItem(app.ProvidedItem{Kind: app.ProvidedMediaType, Value: value})
		}
	}
}
