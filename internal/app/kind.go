package app

// Kind classifies what an App represents, per spec.md §3.1.
type Kind string

const (
	KindUnknown       Kind = "unknown"
	KindDesktopApp    Kind = "desktop-app"
	KindWebApp        Kind = "web-app"
	KindFont          Kind = "font"
	KindCodec         Kind = "codec"
	KindDriver        Kind = "driver"
	KindFirmware      Kind = "firmware"
	KindInputMethod   Kind = "input-method"
	KindLocalization  Kind = "localization"
	KindAddon         Kind = "addon"
	KindGeneric       Kind = "generic"
	KindRepository    Kind = "repository"
	KindOperatingSys  Kind = "operating-system"
	KindRuntime       Kind = "runtime"
	KindConsoleApp    Kind = "console-app"
)

// SpecialKind tags auxiliary roles an App can play, e.g. the OS-update shell.
type SpecialKind string

const (
	SpecialKindNone       SpecialKind = ""
	SpecialKindOSUpdate   SpecialKind = "os-update"
	SpecialKindUpgrade    SpecialKind = "upgrade"
)

// Scope is where an App is (or would be) installed.
type Scope string

const (
	ScopeUnknown Scope = "unknown"
	ScopeSystem  Scope = "system"
	ScopeUser    Scope = "user"
)

// BundleKind is the packaging technology backing an App.
type BundleKind string

const (
	BundleUnknown BundleKind = "unknown"
	BundlePackage BundleKind = "package"
	BundleFlatpak BundleKind = "flatpak"
	BundleSnap    BundleKind = "snap"
)
