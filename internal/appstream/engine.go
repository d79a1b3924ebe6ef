package appstream

import (
	"fmt"
	"strings"
	"sync"

	"github.com/beevik/etree"
	"github.com/software-center/catalog/internal/app"
	"github.com/software-center/catalog/internal/config"
	"github.com/software-center/catalog/internal/plugin"
)

// Engine is the AppStream Metadata Engine (spec.md §2 component C): it
// holds the current compiled Silo and creates/refines App objects from it.
// A fresh Silo is swapped in atomically by SetSilo; in-flight readers keep
// using the old one (spec.md §5).
type Engine struct {
	mu       sync.RWMutex
	silo     *Silo
	settings config.Settings
}

// NewEngine returns an Engine over an empty, sealed silo. Its settings
// start at config.Default() (no compatible-projects allowlist); call
// SetSettings once the process config is loaded.
func NewEngine() *Engine {
	s := NewSilo()
	s.Seal()
	return &Engine{silo: s, settings: config.Default()}
}

// SetSettings replaces the settings RefineApp consults (e.g. for the
// compatible-projects gate), letting the engine pick up a reloaded config.
func (e *Engine) SetSettings(s config.Settings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings = s
}

func (e *Engine) Settings() config.Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings
}

// SetSilo atomically swaps in a newly compiled silo.
func (e *Engine) SetSilo(s *Silo) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.silo = s
}

// Silo returns the currently active silo.
func (e *Engine) Silo() *Silo {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.silo
}

// findComponent locates the <component> whose <id> text equals id. When
// more than one origin ships the same id, the first encountered wins,
// mirroring silo iteration order (spec.md §4.1 leaves tie-break to the
// engine's compile order).
func (e *Engine) findComponent(id string) *etree.Element {
	for _, comp := range e.Silo().Components() {
		idEl := firstChild(comp, "id")
		if idEl == nil {
			continue
		}
		if idEl.Text() == id {
			return comp
		}
	}
	return nil
}

// CreateApp builds an App for id and, unless it is a wildcard placeholder,
// routes it through p's cache (spec.md §4.1 "create_app"). A cache hit
// (by unique_id first, then by desktop-id, per SPEC_FULL.md §5.1's two-key
// probe) returns the already-cached object; a miss stamps
// metadata["Creator"]=p.Name, inserts, and returns the new App. Passing a
// nil p (e.g. a plugin-less metainfo synthesizer) skips the cache
// entirely, as does a wildcard result (scenario S2: "plugin cache is not
// touched"). Returns an error if no component matches id in the current
// silo.
func (e *Engine) CreateApp(p *plugin.Plugin, id string) (*app.App, error) {
	comp := e.findComponent(id)
	if comp == nil {
		return nil, fmt.Errorf("appstream: no component for id %q", id)
	}
	a := e.newAppFromComponent(comp)
	if p == nil || a.HasQuirk(app.QuirkIsWildcard) {
		return a, nil
	}

	desktopID := componentDesktopID(comp)
	if uid := a.UniqueID(); uid != "" {
		if cached, ok := p.Cache.Lookup(uid); ok {
			return cached, nil
		}
	}
	if cached, ok := p.Cache.LookupByDesktopID(desktopID); ok {
		return cached, nil
	}

	a.SetMetadata("Creator", p.Name)
	p.Cache.AddWithDesktopID(a, desktopID)
	return a, nil
}

// componentDesktopID returns the desktop-id launchable text for comp, or
// "" if it has none, used as CreateApp's secondary cache key before a
// unique_id is available.
func componentDesktopID(comp *etree.Element) string {
	launch := firstChild(comp, "launchable")
	if launch == nil || launch.SelectAttrValue("type", "") != "desktop-id" {
		return ""
	}
	return strings.TrimSpace(launch.Text())
}

func (e *Engine) newAppFromComponent(comp *etree.Element) *app.App {
	id := ""
	if idEl := firstChild(comp, "id"); idEl != nil {
		id = idEl.Text()
	}
	a := app.New(id)
	a.SetScope(app.ScopeSystem)
	a.SetBundleKind(componentBundleKind(comp))
	a.SetOrigin(ComponentsOrigin(comp))
	a.SetKind(componentKind(comp))
	if isWildcardComponent(comp) {
		a.AddQuirk(app.QuirkIsWildcard)
	}
	a.BuildUniqueID()
	return a
}

// isWildcardComponent detects pre-AppStream "override" files (spec.md
// §4.1 "Detect pre-AppStream override files: if component has no <name>
// and no <metadata_license>, mark is-wildcard").
func isWildcardComponent(comp *etree.Element) bool {
	return comp.SelectElement("name") == nil && comp.SelectElement("metadata_license") == nil
}

// componentKind maps an AppStream <component type="..."> attribute to an
// app.Kind (spec.md §4.1, grounded on gs-appstream.c's `kinds[]` table).
func componentKind(comp *etree.Element) app.Kind {
	switch comp.SelectAttrValue("type", "desktop-application") {
	case "desktop-application", "desktop":
		return app.KindDesktopApp
	case "web-application":
		return app.KindWebApp
	case "console-application":
		return app.KindConsoleApp
	case "addon":
		return app.KindAddon
	case "font":
		return app.KindFont
	case "codec":
		return app.KindCodec
	case "driver":
		return app.KindDriver
	case "firmware":
		return app.KindFirmware
	case "input-method":
		return app.KindInputMethod
	case "localization":
		return app.KindLocalization
	case "repository":
		return app.KindRepository
	case "operating-system":
		return app.KindOperatingSys
	case "runtime":
		return app.KindRuntime
	case "generic":
		return app.KindGeneric
	default:
		return app.KindUnknown
	}
}

// componentBundleKind inspects the <bundle type="..."> child to determine
// packaging technology; absent a bundle element it assumes a distro
// package (spec.md §4.1).
func componentBundleKind(comp *etree.Element) app.BundleKind {
	bundle := firstChild(comp, "bundle")
	if bundle == nil {
		return app.BundlePackage
	}
	switch bundle.SelectAttrValue("type", "") {
	case "flatpak":
		return app.BundleFlatpak
	case "snap":
		return app.BundleSnap
	default:
		return app.BundlePackage
	}
}
