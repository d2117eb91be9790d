// Package highlight computes minimal transitions between successive
// active-entity sets. It is the sole gate for per-frame visual work:
// callers short-circuit when a patch reports Unchanged
package highlight

// Patch is the per-cycle delta between the previously applied active set
// and the newly queried one. Ephemeral; computed fresh each cycle and never
// persisted
type Patch struct {
	Added     []string
	Removed   []string
	Unchanged bool
}

// Compute returns the minimal diff between prev (the applied set) and cur
// (the freshly queried list). O(|prev| + |cur|). Neither input is mutated
func Compute(prev map[string]struct{}, cur []string) Patch {
	var p Patch

	seen := make(map[string]struct{}, len(cur))
	for _, id := range cur {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := prev[id]; !ok {
			p.Added = append(p.Added, id)
		}
	}
	for id := range prev {
		if _, ok := seen[id]; !ok {
			p.Removed = append(p.Removed, id)
		}
	}

	p.Unchanged = len(p.Added) == 0 && len(p.Removed) == 0
	return p
}

// ToSet converts an id list into the set representation Compute consumes
func ToSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
