package loader

import (
	"fmt"
	goplugin "plugin"
	"path/filepath"
	"strings"

	"github.com/software-center/catalog/internal/logging"
	"github.com/software-center/catalog/internal/plugin"
)

// Factory builds a fresh *plugin.Plugin instance. Built-in catalog
// backends self-register one of these at init() time, the way the
// teacher's builtinPlugins registry works (internal/plugins/discovery.go).
type Factory func() *plugin.Plugin

// builtinFactories is the process-wide registry of in-binary plugin
// factories (spec.md §4.4 "scans configured directories for
// dynamically-loadable plugin modules" — built-ins are the in-process
// equivalent of that scan).
var builtinFactories = make(map[string]Factory)

// RegisterBuiltin registers a built-in plugin factory under name. Called
// from a backend package's init().
func RegisterBuiltin(name string, f Factory) {
	builtinFactories[name] = f
}

// Discovery loads the configured plugin set: every registered built-in,
// plus any dynamically-loadable .so module found under Dirs exporting a
// "NewPlugin func() *plugin.Plugin" symbol (spec.md §4.4 "scans configured
// directories for dynamically-loadable plugin modules").
type Discovery struct {
	Dirs      []string
	Allowlist map[string]bool // nil means "allow all"
	Blocklist map[string]bool
}

// Load instantiates every built-in and dynamically discoverable plugin,
// applying the allowlist/blocklist filter (spec.md §4.4 "applies the
// optional allowlist/blocklist").
func (d *Discovery) Load() []*plugin.Plugin {
	log := logging.GetLogger("loader.discovery")
	var out []*plugin.Plugin

	for name, factory := range builtinFactories {
		if !d.allowed(name) {
			continue
		}
		out = append(out, factory())
	}

	for _, dir := range d.Dirs {
		matches, err := filepath.Glob(filepath.Join(dir, "*.so"))
		if err != nil {
			continue
		}
		for _, path := range matches {
			name := strings.TrimSuffix(filepath.Base(path), ".so")
			if !d.allowed(name) {
				continue
			}
			p, err := loadDynamic(path)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("failed to load dynamic plugin")
				continue
			}
			out = append(out, p)
		}
	}
	return out
}

func (d *Discovery) allowed(name string) bool {
	if d.Blocklist != nil && d.Blocklist[name] {
		return false
	}
	if d.Allowlist != nil && !d.Allowlist[name] {
		return false
	}
	return true
}

// loadDynamic opens a .so module and calls its exported NewPlugin factory,
// mirroring the teacher's plugin.Open/Lookup("NewPlugin") dance
// (internal/plugins/discovery.go's loadDynamicPlugin/getPluginHandler).
func loadDynamic(path string) (*plugin.Plugin, error) {
	p, err := goplugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	sym, err := p.Lookup("NewPlugin")
	if err != nil {
		return nil, fmt.Errorf("%s missing NewPlugin: %w", path, err)
	}
	factory, ok := sym.(func() *plugin.Plugin)
	if !ok {
		return nil, fmt.Errorf("%s: NewPlugin has wrong signature, want func() *plugin.Plugin", path)
	}
	return factory(), nil
}
