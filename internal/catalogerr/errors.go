// Package catalogerr provides the typed error vocabulary shared by the
// AppStream engine, the plugin loader, and the job pipeline.
//
// Unlike an HTTP-facing error package, catalog errors carry no status code:
// the core has no HTTP boundary of its own (the GUI and D-Bus facade live
// outside it, per spec.md). Instead every error carries a Kind and a Fatal
// bit so the loader can apply the fatal/maskable split from spec.md §7
// without string-matching error messages.
package catalogerr

import "fmt"

// Kind enumerates the opaque error kinds a Job can surface to its caller.
type Kind string

const (
	Cancelled          Kind = "cancelled"
	NotSupported       Kind = "not-supported"
	NotFound           Kind = "not-found"
	Failed             Kind = "failed"
	AuthRequired       Kind = "auth-required"
	AuthInvalid        Kind = "auth-invalid"
	TimedOut           Kind = "timed-out"
	DownloadFailed     Kind = "download-failed"
	WriteFailed        Kind = "write-failed"
	DeleteFailed       Kind = "delete-failed"
	PluginDepsolveFail Kind = "plugin-depsolve-failed"
	RestartRequired    Kind = "restart-required"
	NoSpace            Kind = "no-space"
	NoNetwork          Kind = "no-network"
)

// fatalKinds are always surfaced as the job's overall failure, per spec.md §7.
var fatalKinds = map[Kind]bool{
	TimedOut:     true,
	AuthRequired: true,
	AuthInvalid:  true,
}

// Error is the standardized error type threaded through the core.
//
// Kind is the machine-readable classification clients (the loader, the job
// pipeline, the event bus) switch on. Message is human-readable and never
// localized here — localization of error text is an explicit Non-goal.
// Plugin and App/Origin are non-owning weak identifiers (unique_id strings)
// used to fold an error into an Event (spec.md §3.5) without the error
// package importing the app package.
type Error struct {
	Kind    Kind
	Message string
	Plugin  string // originating plugin name, if any
	App     string // unique_id of the affected App, if any
	Origin  string // unique_id of a secondary App (e.g. a failing repo), if any
	Details string
	cause   error
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Fatal reports whether this error kind must abort the job outright rather
// than being folded into the job's event stream (spec.md §7).
func (e *Error) Fatal() bool { return fatalKinds[e.Kind] }

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error of the given kind carrying an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &Error{Kind: kind, Message: message, Details: details, cause: cause}
}

// WithApp attaches the affected App's unique_id, used when folding the
// error into an Event (spec.md §3.5).
func (e *Error) WithApp(uniqueID string) *Error {
	e.App = uniqueID
	return e
}

// WithOrigin attaches a secondary App's unique_id (e.g. the repository an
// update depends on).
func (e *Error) WithOrigin(uniqueID string) *Error {
	e.Origin = uniqueID
	return e
}

// WithPlugin attaches the originating plugin's name.
func (e *Error) WithPlugin(name string) *Error {
	e.Plugin = name
	return e
}

// Common constructors, mirroring the teacher's convenience-constructor style.

func Cancel(message string) *Error           { return New(Cancelled, message) }
func Unsupported(message string) *Error      { return New(NotSupported, message) }
func MissingValue(resource string) *Error    { return New(NotFound, fmt.Sprintf("%s not found", resource)) }
func GenericFailure(message string) *Error   { return New(Failed, message) }
func DepsolveFailed(message string) *Error   { return New(PluginDepsolveFail, message) }
func Timeout(message string) *Error          { return New(TimedOut, message) }

// IsKind reports whether err (or something it wraps) is a *Error of kind k.
func IsKind(err error, k Kind) bool {
	var ce *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			ce = e
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return ce != nil && ce.Kind == k
}

// AsCatalogError extracts the *Error from err if present.
func AsCatalogError(err error) (*Error, bool) {
	e, ok := err.(*Error)
	return e, ok
}

// Normalize implements the "domain != core" normalization rule from
// spec.md §4.7: an error that isn't already a *Error becomes (core, failed).
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := AsCatalogError(err); ok {
		return e
	}
	return Wrap(Failed, "plugin operation failed", err)
}
