// Package capability defines the fixed catalog of garden-bed capabilities
// and the set type used by permission resolution.
//
// The catalog is closed: new capabilities require a schema change, so the
// type is an enum rather than free-form strings.
package capability

// Capability names a single delegable action class on a bed.
type Capability string

// The full capability catalog. FullControl implies every other capability.
const (
	FullControl   Capability = "full-control"
	ManageMembers Capability = "manage-members"
	ManageRoles   Capability = "manage-roles"
	ManageEvents  Capability = "manage-events"
	ManageTags    Capability = "manage-tags"
	ManagePosts   Capability = "manage-posts"
	InteractPosts Capability = "interact-with-posts"
)

// TargetKind distinguishes the two kinds of grant targets in a bed's ledger.
type TargetKind string

// Grant target kinds.
const (
	TargetMember TargetKind = "member"
	TargetRole   TargetKind = "role"
)

// catalog is the canonical ordering used everywhere capabilities are listed.
var catalog = []Capability{
	FullControl,
	ManageMembers,
	ManageRoles,
	ManageEvents,
	ManageTags,
	ManagePosts,
	InteractPosts,
}

// Catalog returns every capability in canonical order.
func Catalog() []Capability {
	out := make([]Capability, len(catalog))
	copy(out, catalog)
	return out
}

// Baseline returns the capabilities granted to a member on invite acceptance.
func Baseline() []Capability {
	return []Capability{ManagePosts, InteractPosts}
}

// IsValid reports whether c names a catalog capability.
func (c Capability) IsValid() bool {
	for _, known := range catalog {
		if c == known {
			return true
		}
	}
	return false
}

// IsValid reports whether k is a known target kind.
func (k TargetKind) IsValid() bool {
	return k == TargetMember || k == TargetRole
}

// Set is an unordered collection of capabilities.
type Set map[Capability]struct{}

// NewSet builds a Set from the given capabilities.
func NewSet(caps ...Capability) Set {
	s := make(Set, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

// Full returns a Set containing the whole catalog.
func Full() Set {
	return NewSet(catalog...)
}

// Has reports whether the set grants c, honoring the FullControl implication.
func (s Set) Has(c Capability) bool {
	if _, ok := s[FullControl]; ok {
		return true
	}
	_, ok := s[c]
	return ok
}

// Add inserts c into the set.
func (s Set) Add(c Capability) {
	s[c] = struct{}{}
}

// Union merges other into s and returns s.
func (s Set) Union(other Set) Set {
	for c := range other {
		s[c] = struct{}{}
	}
	return s
}

// Slice returns the set's capabilities in canonical catalog order.
// If FullControl is present the whole catalog is returned, since it
// implies everything.
func (s Set) Slice() []Capability {
	if _, ok := s[FullControl]; ok {
		return Catalog()
	}
	out := make([]Capability, 0, len(s))
	for _, c := range catalog {
		if _, ok := s[c]; ok {
			out = append(out, c)
		}
	}
	return out
}
