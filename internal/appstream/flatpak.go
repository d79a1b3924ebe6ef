package appstream

import (
	"fmt"
	"strings"

	"github.com/software-center/catalog/internal/catalogerr"
)

// BundleRef is a parsed flatpak bundle reference of the form
// "kind/id/arch/branch" (spec.md §4.1 scenario S3).
type BundleRef struct {
	Kind   string // "app" or "runtime"
	ID     string
	Arch   string
	Branch string
}

// ParseBundleRef parses a flatpak <bundle type="flatpak"> text value. A ref
// that doesn't split into exactly four slash-separated segments is rejected
// as not-supported (spec.md §4.1 "malformed flatpak refs (must be 4-part)").
func ParseBundleRef(ref string) (BundleRef, error) {
	parts := strings.Split(strings.TrimSpace(ref), "/")
	if len(parts) != 4 {
		return BundleRef{}, catalogerr.Unsupported(fmt.Sprintf("malformed flatpak bundle ref %q: want 4 segments", ref))
	}
	return BundleRef{Kind: parts[0], ID: parts[1], Arch: parts[2], Branch: parts[3]}, nil
}
