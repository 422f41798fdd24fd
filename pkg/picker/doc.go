// Package picker selects glyph variants without repeating them too soon.
//
// # Overview
//
// A [Picker] keeps a recency window per character: the identifiers of the
// last [DefaultWindowSize] variants it returned for that character, oldest
// first. [Picker.Pick] chooses uniformly at random among the catalog's
// candidates that are not in the window, then appends the choice and evicts
// the oldest entry once the window is over its size.
//
// # Missing and Exhausted Characters
//
// A character without catalog variants is not an error. Pick reports no
// variant and the caller draws [Fallback] instead: a full-width blank for
// CJK ideographs and a half-width blank for everything else.
//
// When every candidate is inside the window the behavior depends on the
// [Policy]. [FallbackBlank], the default, reports no variant and leaves the
// window unchanged. Note that a character with no more candidates than the
// window size therefore renders blank once all of its variants have been
// used. [ReuseOldest] instead returns the least recently used candidate and
// moves it to the back of the window.
//
// # Randomness
//
// Choices come from an injected [Source] so runs are reproducible:
//
//	p := picker.New(cat, picker.NewSource(42), picker.WithPolicy(picker.ReuseOldest))
//	id, ok := p.Pick('永')
//	if !ok {
//	    draw(picker.Fallback('永'))
//	}
//
// # Concurrency
//
// A Picker is not safe for concurrent use. Callers that run render passes
// concurrently give each pass its own Picker, carrying state across passes
// with [Picker.Snapshot] and [Picker.Restore].
package picker
