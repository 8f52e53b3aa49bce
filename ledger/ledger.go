// Package ledger defines the per-bed permission ledger.
//
// A bed has exactly one ledger row, and only while the bed has at least one
// member or one role. Grants are a typed two-dimensional map: capability
// crossed with target kind (member or role) yields a set of identifiers.
// The engine keeps the ledger consistent with the membership and role
// stores; the ledger itself is pure data plus set arithmetic.
package ledger

import (
	"time"

	"github.com/xraph/trellis/capability"
	"github.com/xraph/trellis/id"
)

// IDSet is an ordered set of identifier strings. Order is insertion order,
// which keeps storage round-trips deterministic.
type IDSet []string

// Contains reports whether v is in the set.
func (s IDSet) Contains(v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// add returns the set with v appended if absent.
func (s IDSet) add(v string) IDSet {
	if s.Contains(v) {
		return s
	}
	return append(s, v)
}

// remove returns the set with v filtered out.
func (s IDSet) remove(v string) IDSet {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// Targets holds the grant targets of a single capability.
type Targets struct {
	Members IDSet `json:"members,omitempty"`
	Roles   IDSet `json:"roles,omitempty"`
}

// Grants maps every capability to its grant targets.
type Grants map[capability.Capability]Targets

// Ledger is a bed's permission ledger. CreatorID and CreatorName record the
// identity of the bed owner at creation time.
type Ledger struct {
	BedID       id.BedID  `json:"bed_id" db:"bed_id"`
	CreatorID   string    `json:"creator_id" db:"creator_id"`
	CreatorName string    `json:"creator_name" db:"creator_name"`
	Grants      Grants    `json:"grants" db:"grants"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// New creates an empty ledger for a bed, seeded with the creator's identity.
// Every catalog capability gets an entry so lookups never miss.
func New(bedID id.BedID, creatorID, creatorName string) *Ledger {
	grants := make(Grants, 7)
	for _, c := range capability.Catalog() {
		grants[c] = Targets{}
	}
	return &Ledger{
		BedID:       bedID,
		CreatorID:   creatorID,
		CreatorName: creatorName,
		Grants:      grants,
	}
}

// Has reports whether the ledger directly grants cap to the given target.
// The full-control implication is resolution-time behavior and is not
// applied here.
func (l *Ledger) Has(cap capability.Capability, kind capability.TargetKind, targetID string) bool {
	t := l.Grants[cap]
	switch kind {
	case capability.TargetMember:
		return t.Members.Contains(targetID)
	case capability.TargetRole:
		return t.Roles.Contains(targetID)
	}
	return false
}

// Grant adds targetID to the grant set for cap. Granting twice is a no-op.
func (l *Ledger) Grant(cap capability.Capability, kind capability.TargetKind, targetID string) {
	t := l.Grants[cap]
	switch kind {
	case capability.TargetMember:
		t.Members = t.Members.add(targetID)
	case capability.TargetRole:
		t.Roles = t.Roles.add(targetID)
	}
	l.ensure()
	l.Grants[cap] = t
}

// Revoke removes targetID from the grant set for cap.
func (l *Ledger) Revoke(cap capability.Capability, kind capability.TargetKind, targetID string) {
	t := l.Grants[cap]
	switch kind {
	case capability.TargetMember:
		t.Members = t.Members.remove(targetID)
	case capability.TargetRole:
		t.Roles = t.Roles.remove(targetID)
	}
	l.ensure()
	l.Grants[cap] = t
}

// Toggle flips the grant of cap for the given target and reports whether
// the target holds the grant afterwards. Toggle is its own inverse.
func (l *Ledger) Toggle(cap capability.Capability, kind capability.TargetKind, targetID string) bool {
	if l.Has(cap, kind, targetID) {
		l.Revoke(cap, kind, targetID)
		return false
	}
	l.Grant(cap, kind, targetID)
	return true
}

// PruneMember removes every direct grant held by memberID, across all
// capabilities.
func (l *Ledger) PruneMember(memberID string) {
	for cap, t := range l.Grants {
		t.Members = t.Members.remove(memberID)
		l.Grants[cap] = t
	}
}

// PruneRole removes every grant held by roleID, across all capabilities.
func (l *Ledger) PruneRole(roleID id.RoleID) {
	key := roleID.String()
	for cap, t := range l.Grants {
		t.Roles = t.Roles.remove(key)
		l.Grants[cap] = t
	}
}

// CapabilitiesFor returns the union of memberID's direct grants and the
// grants of roleID. Pass the nil RoleID for members without a role.
func (l *Ledger) CapabilitiesFor(memberID string, roleID id.RoleID) capability.Set {
	set := capability.NewSet()
	roleKey := roleID.String()
	for cap, t := range l.Grants {
		if t.Members.Contains(memberID) {
			set.Add(cap)
			continue
		}
		if roleKey != "" && t.Roles.Contains(roleKey) {
			set.Add(cap)
		}
	}
	return set
}

// References reports whether targetID appears in any grant set of the
// given kind. Used by invariant checks.
func (l *Ledger) References(kind capability.TargetKind, targetID string) bool {
	for _, t := range l.Grants {
		switch kind {
		case capability.TargetMember:
			if t.Members.Contains(targetID) {
				return true
			}
		case capability.TargetRole:
			if t.Roles.Contains(targetID) {
				return true
			}
		}
	}
	return false
}

// Clone returns a deep copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	c := *l
	c.Grants = make(Grants, len(l.Grants))
	for cap, t := range l.Grants {
		ct := Targets{}
		if t.Members != nil {
			ct.Members = make(IDSet, len(t.Members))
			copy(ct.Members, t.Members)
		}
		if t.Roles != nil {
			ct.Roles = make(IDSet, len(t.Roles))
			copy(ct.Roles, t.Roles)
		}
		c.Grants[cap] = ct
	}
	return &c
}

// ensure lazily initializes the grants map so a zero-value Ledger loaded
// from storage is safe to mutate.
func (l *Ledger) ensure() {
	if l.Grants == nil {
		l.Grants = make(Grants, 7)
	}
}
