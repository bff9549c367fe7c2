// Package scrape implements the scraping pipeline: a per-job Deduplicator,
// the Orchestrator that drives a review stream into storage while tracking
// job state, and an in-process worker Queue that executes jobs with
// wall-clock limits.
package scrape

// Deduplicator decides, for one (ASIN, marketplace) pair, whether a review
// identifier has been seen before. It is seeded from storage so reruns skip
// records persisted by earlier jobs, and it accumulates the identifiers of
// the current run so overlapping pages within one job are skipped too.
//
// It is not safe for concurrent use; each job owns its own instance. The
// storage layer's uniqueness constraint remains the backstop for identifiers
// that race past the in-memory set across concurrent jobs.
type Deduplicator struct {
	seen map[string]struct{}
}

// NewDeduplicator builds a Deduplicator pre-seeded with the given set of
// already stored identifiers. The map is taken over by the Deduplicator and
// must not be mutated by the caller afterwards; nil means an empty seed.
func NewDeduplicator(existing map[string]struct{}) *Deduplicator {
	if existing == nil {
		existing = make(map[string]struct{})
	}
	return &Deduplicator{seen: existing}
}

// Keep reports whether id is novel. A novel identifier is recorded as seen,
// so asking twice about the same id returns true at most once.
func (d *Deduplicator) Keep(id string) bool {
	if _, dup := d.seen[id]; dup {
		return false
	}
	d.seen[id] = struct{}{}
	return true
}

// Size returns the number of identifiers known to the set, seeded and
// accumulated combined.
func (d *Deduplicator) Size() int { return len(d.seen) }
