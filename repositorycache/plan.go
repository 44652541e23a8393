package repositorycache

// Plan is the invalidation set computed for one mutation: the exact keys the
// changed data is cached under, plus the prefixes of every list or aggregate
// whose contents could have changed. It must cover every key whose
// underlying data changed, and should not cover more; over-invalidation
// only costs cache warmth, under-invalidation costs correctness.
type Plan struct {
	Keys     []string
	Prefixes []string
}

// WithKeys returns a copy of the plan with extra exact keys.
func (p Plan) WithKeys(keys ...string) Plan {
	p.Keys = append(append([]string(nil), p.Keys...), keys...)
	return p
}

// WithPrefixes returns a copy of the plan with extra prefixes.
func (p Plan) WithPrefixes(prefixes ...string) Plan {
	p.Prefixes = append(append([]string(nil), p.Prefixes...), prefixes...)
	return p
}

// Merge combines two plans, dropping duplicates.
func (p Plan) Merge(other Plan) Plan {
	return Plan{
		Keys:     dedupeStrings(append(append([]string(nil), p.Keys...), other.Keys...)),
		Prefixes: dedupeStrings(append(append([]string(nil), p.Prefixes...), other.Prefixes...)),
	}
}

// IsEmpty reports whether the plan would invalidate nothing.
func (p Plan) IsEmpty() bool {
	return len(p.Keys) == 0 && len(p.Prefixes) == 0
}

func dedupeStrings(values []string) []string {
	if len(values) < 2 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
