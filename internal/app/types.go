package app

// IconKind is the source kind of an icon descriptor (spec.md §3.1).
type IconKind string

const (
	IconStock       IconKind = "stock"
	IconLocalFile   IconKind = "local-file"
	IconRemoteURL   IconKind = "remote-url"
	IconThemed      IconKind = "themed"
	IconFallbackRaw IconKind = "fallback-bytes"
)

// Icon is a single icon descriptor. No disk or network I/O happens when an
// Icon is constructed (spec.md §4.1 invariant); resolving it is deferred to
// the UI layer.
type Icon struct {
	Kind  IconKind
	Name  string // stock/themed name, or local path, or remote URL
	Size  int
	Scale int
}

// sameAs reports whether two icons are duplicates by size+kind+source, used
// by App.AddIcon to dedupe (spec.md §4.2).
func (i Icon) sameAs(o Icon) bool {
	return i.Kind == o.Kind && i.Name == o.Name && i.Size == o.Size && i.Scale == o.Scale
}

// ScreenshotImage is one rendition of a screenshot.
type ScreenshotImage struct {
	Width, Height int
	URL           string
}

// ScreenshotVideo is one video rendition of a screenshot.
type ScreenshotVideo struct {
	Codec     string
	Container string
	URL       string
}

// Screenshot is an ordered caption + image/video set (spec.md §3.1).
type Screenshot struct {
	Caption string
	Images  []ScreenshotImage
	Videos  []ScreenshotVideo
}

// Release is one entry of an App's version history (spec.md §3.1).
type Release struct {
	Version     string
	Timestamp   int64 // unix seconds
	Description string
}

// RelationKind classifies a Relation entry.
type RelationKind string

const (
	RelationRequires   RelationKind = "requires"
	RelationRecommends RelationKind = "recommends"
	RelationSupports   RelationKind = "supports"
)

// Relation is one (kind, item) requirement/recommendation/support entry.
type Relation struct {
	Kind RelationKind
	Item string // id, control, display-length, etc.
}

// ProvidedKind classifies a ProvidedItem.
type ProvidedKind string

const (
	ProvidedBinary          ProvidedKind = "binary"
	ProvidedLibrary         ProvidedKind = "library"
	ProvidedFirmwareRuntime ProvidedKind = "firmware-runtime"
	ProvidedFirmwareFlashed ProvidedKind = "firmware-flashed"
	ProvidedDBusSystem      ProvidedKind = "dbus-system"
	ProvidedDBusUser        ProvidedKind = "dbus-user"
	ProvidedMediaType       ProvidedKind = "media-type"
	ProvidedPython          ProvidedKind = "python"
	ProvidedID              ProvidedKind = "id"
)

// ProvidedItem is one (kind, value) capability the App provides.
type ProvidedItem struct {
	Kind  ProvidedKind
	Value string
}

// SizeState is the tri-state of a size measurement (spec.md §3.1).
type SizeState int

const (
	SizeUnknown SizeState = iota
	SizeUnknowable
	SizeKnown
)

// Size is a tri-state size measurement.
type Size struct {
	State SizeState
	Bytes uint64
}

// Sizes bundles the five size measurements an App tracks.
type Sizes struct {
	Installed Size
	Download  Size
	Data      Size
	Cache     Size
	UserData  Size
}

// Permission is a sandbox-permission flag.
type Permission string

// OARSRating is one content-rating tag from the OARS vocabulary.
type OARSRating string
