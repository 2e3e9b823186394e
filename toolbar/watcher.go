package toolbar

import (
	"slices"

	"prosekit/selection"
)

// NeedsUpdate reports whether controllers depending on selection must
// re-evaluate: when there is no previous selection, when it differs from
// the current one or when any secondary predicate changed its value.
func NeedsUpdate(prev, cur selection.Selection, secondaryPrev, secondaryCur []bool) bool {
	if prev == nil || cur == nil || !prev.Equal(cur) {
		return true
	}
	return !slices.Equal(secondaryPrev, secondaryCur)
}

// Watcher remembers secondary predicate values between evaluations.
type Watcher struct {
	last  []bool
	stale bool
}

// Observe records secondary values of current evaluation and reports
// whether it needs update compared to the previous one.
func (w *Watcher) Observe(prev, cur selection.Selection, secondary []bool) bool {
	last, stale := w.last, w.stale
	w.last, w.stale = slices.Clone(secondary), false
	return stale || NeedsUpdate(prev, cur, last, secondary)
}

// Reset forgets recorded values, next observation always needs update.
func (w *Watcher) Reset() {
	w.last, w.stale = nil, true
}
