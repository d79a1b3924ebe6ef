package app

// Quality tags a localized text field so a higher-quality source can
// overwrite a lower one but never the reverse (spec.md §3.1).
type Quality int

const (
	QualityUnknown Quality = iota
	QualityLowest
	QualityNormal
	QualityHighest
)

// QualityText is a localized string bundled with the quality of the source
// that produced it.
type QualityText struct {
	Quality Quality
	Text    string
}

// set updates dst in place only if the incoming quality is at least as good
// as what's already there, implementing "never overwrite stronger quality"
// from spec.md §4.1.
func (t *QualityText) set(quality Quality, text string) bool {
	if quality < t.Quality {
		return false
	}
	t.Quality = quality
	t.Text = text
	return true
}
