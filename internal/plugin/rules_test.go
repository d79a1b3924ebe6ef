package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRulesAddIsSetLike(t *testing.T) {
	var r Rules
	r.AddRunAfter("appstream")
	r.AddRunAfter("appstream")
	r.AddRunAfter("flatpak")

	assert.Equal(t, []string{"appstream", "flatpak"}, r.RunAfter())
}

func TestRulesFourIndependentSets(t *testing.T) {
	var r Rules
	r.AddRunAfter("a")
	r.AddRunBefore("b")
	r.AddBetterThan("c")
	r.AddConflicts("d")

	assert.Equal(t, []string{"a"}, r.RunAfter())
	assert.Equal(t, []string{"b"}, r.RunBefore())
	assert.Equal(t, []string{"c"}, r.BetterThan())
	assert.Equal(t, []string{"d"}, r.Conflicts())
}

func TestRulesAccessorsReturnCopies(t *testing.T) {
	var r Rules
	r.AddRunAfter("a")
	got := r.RunAfter()
	got[0] = "mutated"
	assert.Equal(t, []string{"a"}, r.RunAfter())
}

func TestRefineFlagHasAndAdd(t *testing.T) {
	var f RefineFlag
	f = f.Add(RequireIcon).Add(RequireLicense)
	assert.True(t, f.Has(RequireIcon))
	assert.True(t, f.Has(RequireLicense))
	assert.False(t, f.Has(RequireScreenshots))
}
