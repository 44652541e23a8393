package cache

import "strings"

// KeySeparator delimits cache key segments.
const KeySeparator = ":"

// Scope carries the isolation dimensions a key may encode. Zero values mean
// the dimension does not apply to the underlying query; a scoped query MUST
// pass the dimension it filters by, or two tenants could share an entry.
type Scope struct {
	TenantID       string
	AcademicYearID string
}

// Global is the scope for tenant-agnostic lookups (rare).
var Global = Scope{}

// KeyBuilder produces deterministic, collision-free cache keys of the form
//
//	t:<tenant>:y:<year>:<entity>:<identifier>:<value...>
//
// Absent dimensions are encoded as "-" so that a scoped and an unscoped key
// for the same entity can never collide. Segment values are escaped, which
// makes the mapping injective: different inputs always yield different keys.
type KeyBuilder struct {
	namespace string
}

// NewKeyBuilder creates a key builder. The namespace, when non-empty, is
// prepended to every key; use it to share one backend across deployments.
func NewKeyBuilder(namespace string) *KeyBuilder {
	return &KeyBuilder{namespace: namespace}
}

// Entity builds the exact key for one entity lookup.
func (b *KeyBuilder) Entity(scope Scope, entityKind, identifierKind string, values ...string) string {
	var sb strings.Builder
	b.writeBase(&sb, scope, entityKind, identifierKind)
	for _, v := range values {
		sb.WriteString(KeySeparator)
		sb.WriteString(escapeSegment(v))
	}
	return sb.String()
}

// Prefix builds an invalidation prefix covering every key that Entity would
// produce for the same leading segments. The trailing separator keeps
// "note:student:1" from matching "note:student:10".
func (b *KeyBuilder) Prefix(scope Scope, entityKind, identifierKind string, values ...string) string {
	return b.Entity(scope, entityKind, identifierKind, values...) + KeySeparator
}

// EntityPrefix covers every identifier kind cached for an entity kind within
// a scope, e.g. all course keys for one tenant.
func (b *KeyBuilder) EntityPrefix(scope Scope, entityKind string) string {
	var sb strings.Builder
	b.writeScope(&sb, scope)
	sb.WriteString(escapeSegment(entityKind))
	sb.WriteString(KeySeparator)
	return sb.String()
}

func (b *KeyBuilder) writeBase(sb *strings.Builder, scope Scope, entityKind, identifierKind string) {
	b.writeScope(sb, scope)
	sb.WriteString(escapeSegment(entityKind))
	sb.WriteString(KeySeparator)
	sb.WriteString(escapeSegment(identifierKind))
}

func (b *KeyBuilder) writeScope(sb *strings.Builder, scope Scope) {
	if b.namespace != "" {
		sb.WriteString(escapeSegment(b.namespace))
		sb.WriteString(KeySeparator)
	}
	sb.WriteString("t")
	sb.WriteString(KeySeparator)
	sb.WriteString(segmentOrDash(scope.TenantID))
	sb.WriteString(KeySeparator)
	sb.WriteString("y")
	sb.WriteString(KeySeparator)
	sb.WriteString(segmentOrDash(scope.AcademicYearID))
	sb.WriteString(KeySeparator)
}

func segmentOrDash(v string) string {
	if v == "" {
		return "-"
	}
	return escapeSegment(v)
}

// escapeSegment percent-encodes the characters that carry meaning inside a
// key. Escaping keeps the builder injective: a value containing ":" cannot
// fabricate another key's segments, and a literal "-" cannot impersonate an
// absent dimension.
func escapeSegment(v string) string {
	if v == "-" {
		return "%2d"
	}
	if !strings.ContainsAny(v, ":%*") {
		return v
	}
	var sb strings.Builder
	sb.Grow(len(v) + 4)
	for i := 0; i < len(v); i++ {
		switch v[i] {
		case ':':
			sb.WriteString("%3a")
		case '%':
			sb.WriteString("%25")
		case '*':
			sb.WriteString("%2a")
		default:
			sb.WriteByte(v[i])
		}
	}
	return sb.String()
}
