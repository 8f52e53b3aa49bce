// Package memory provides an in-memory implementation of the Trellis
// composite store. It is intended for testing and development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/xraph/trellis/bed"
	"github.com/xraph/trellis/id"
	"github.com/xraph/trellis/ledger"
	"github.com/xraph/trellis/member"
	"github.com/xraph/trellis/notification"
	"github.com/xraph/trellis/role"
	"github.com/xraph/trellis/store"
)

// Compile-time interface checks.
var (
	_ bed.Store          = (*Store)(nil)
	_ member.Store       = (*Store)(nil)
	_ role.Store         = (*Store)(nil)
	_ ledger.Store       = (*Store)(nil)
	_ notification.Store = (*Store)(nil)
	_ store.Store        = (*Store)(nil)
)

// errNotFound is the sentinel for missing entities.
var errNotFound = store.ErrNotFound

// Store is a thread-safe in-memory store for all Trellis entities.
type Store struct {
	mu sync.RWMutex

	beds          map[string]*bed.Bed
	members       map[string]*member.Member // key: bedID + "/" + userID
	roles         map[string]*role.Role
	ledgers       map[string]*ledger.Ledger // key: bedID
	notifications map[string]*notification.Entry
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		beds:          make(map[string]*bed.Bed),
		members:       make(map[string]*member.Member),
		roles:         make(map[string]*role.Role),
		ledgers:       make(map[string]*ledger.Ledger),
		notifications: make(map[string]*notification.Entry),
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// WithinTx runs fn against the store, restoring a snapshot if fn fails.
// Good enough for an in-process fake: mutations are not isolated from
// concurrent readers, but failed "transactions" leave no trace.
func (s *Store) WithinTx(_ context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.restoreLocked(snap)
		s.mu.Unlock()
		return err
	}
	return nil
}

type snapshot struct {
	beds          map[string]*bed.Bed
	members       map[string]*member.Member
	roles         map[string]*role.Role
	ledgers       map[string]*ledger.Ledger
	notifications map[string]*notification.Entry
}

func (s *Store) snapshotLocked() snapshot {
	snap := snapshot{
		beds:          make(map[string]*bed.Bed, len(s.beds)),
		members:       make(map[string]*member.Member, len(s.members)),
		roles:         make(map[string]*role.Role, len(s.roles)),
		ledgers:       make(map[string]*ledger.Ledger, len(s.ledgers)),
		notifications: make(map[string]*notification.Entry, len(s.notifications)),
	}
	for k, v := range s.beds {
		snap.beds[k] = copyBed(v)
	}
	for k, v := range s.members {
		snap.members[k] = copyMember(v)
	}
	for k, v := range s.roles {
		snap.roles[k] = copyRole(v)
	}
	for k, v := range s.ledgers {
		snap.ledgers[k] = v.Clone()
	}
	for k, v := range s.notifications {
		snap.notifications[k] = copyNotification(v)
	}
	return snap
}

func (s *Store) restoreLocked(snap snapshot) {
	s.beds = snap.beds
	s.members = snap.members
	s.roles = snap.roles
	s.ledgers = snap.ledgers
	s.notifications = snap.notifications
}

// ──────────────────────────────────────────────────
// Bed Store
// ──────────────────────────────────────────────────

func (s *Store) CreateBed(_ context.Context, b *bed.Bed) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beds[b.ID.String()] = copyBed(b)
	return nil
}

func (s *Store) GetBed(_ context.Context, bedID id.BedID) (*bed.Bed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.beds[bedID.String()]
	if !ok {
		return nil, fmt.Errorf("bed %s: %w", bedID, errNotFound)
	}
	return copyBed(b), nil
}

func (s *Store) UpdateBed(_ context.Context, b *bed.Bed) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.beds[b.ID.String()]; !ok {
		return fmt.Errorf("bed %s: %w", b.ID, errNotFound)
	}
	s.beds[b.ID.String()] = copyBed(b)
	return nil
}

func (s *Store) DeleteBed(_ context.Context, bedID id.BedID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.beds, bedID.String())
	return nil
}

func (s *Store) ListBedsByOwner(_ context.Context, ownerID string) ([]*bed.Bed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*bed.Bed
	for _, b := range s.beds {
		if b.OwnerID == ownerID {
			result = append(result, copyBed(b))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// ──────────────────────────────────────────────────
// Member Store
// ──────────────────────────────────────────────────

func memberKey(bedID id.BedID, userID string) string {
	return bedID.String() + "/" + userID
}

func (s *Store) CreateMember(_ context.Context, m *member.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[memberKey(m.BedID, m.UserID)] = copyMember(m)
	return nil
}

func (s *Store) GetMember(_ context.Context, bedID id.BedID, userID string) (*member.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[memberKey(bedID, userID)]
	if !ok {
		return nil, fmt.Errorf("member %s on bed %s: %w", userID, bedID, errNotFound)
	}
	return copyMember(m), nil
}

func (s *Store) UpdateMember(_ context.Context, m *member.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memberKey(m.BedID, m.UserID)
	if _, ok := s.members[key]; !ok {
		return fmt.Errorf("member %s on bed %s: %w", m.UserID, m.BedID, errNotFound)
	}
	s.members[key] = copyMember(m)
	return nil
}

func (s *Store) DeleteMember(_ context.Context, bedID id.BedID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, memberKey(bedID, userID))
	return nil
}

func (s *Store) ListMembers(_ context.Context, bedID id.BedID) ([]*member.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bk := bedID.String()
	var result []*member.Member
	for _, m := range s.members {
		if m.BedID.String() == bk {
			result = append(result, copyMember(m))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].InvitedAt.Before(result[j].InvitedAt)
	})
	return result, nil
}

func (s *Store) CountMembers(ctx context.Context, bedID id.BedID) (int64, error) {
	list, err := s.ListMembers(ctx, bedID)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) ListMembershipsForUser(_ context.Context, userID string) ([]*member.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*member.Member
	for _, m := range s.members {
		if m.UserID == userID {
			result = append(result, copyMember(m))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].InvitedAt.Before(result[j].InvitedAt)
	})
	return result, nil
}

func (s *Store) ClearRoleRefs(_ context.Context, bedID id.BedID, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bk := bedID.String()
	rk := roleID.String()
	for _, m := range s.members {
		if m.BedID.String() == bk && m.RoleID != nil && m.RoleID.String() == rk {
			m.RoleID = nil
		}
	}
	return nil
}

func (s *Store) DeleteMembersByBed(_ context.Context, bedID id.BedID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bk := bedID.String()
	for k, m := range s.members {
		if m.BedID.String() == bk {
			delete(s.members, k)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Role Store
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(_ context.Context, r *role.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[r.ID.String()] = copyRole(r)
	return nil
}

func (s *Store) GetRole(_ context.Context, roleID id.RoleID) (*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[roleID.String()]
	if !ok {
		return nil, fmt.Errorf("role %s: %w", roleID, errNotFound)
	}
	return copyRole(r), nil
}

func (s *Store) GetRoleByTitle(_ context.Context, bedID id.BedID, title string) (*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bk := bedID.String()
	for _, r := range s.roles {
		if r.BedID.String() == bk && role.TitleEquals(r.Title, title) {
			return copyRole(r), nil
		}
	}
	return nil, fmt.Errorf("role %q on bed %s: %w", title, bedID, errNotFound)
}

func (s *Store) UpdateRole(_ context.Context, r *role.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[r.ID.String()]; !ok {
		return fmt.Errorf("role %s: %w", r.ID, errNotFound)
	}
	s.roles[r.ID.String()] = copyRole(r)
	return nil
}

func (s *Store) DeleteRole(_ context.Context, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roles, roleID.String())
	return nil
}

func (s *Store) ListRoles(_ context.Context, bedID id.BedID) ([]*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bk := bedID.String()
	var result []*role.Role
	for _, r := range s.roles {
		if r.BedID.String() == bk {
			result = append(result, copyRole(r))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Store) CountRoles(ctx context.Context, bedID id.BedID) (int64, error) {
	list, err := s.ListRoles(ctx, bedID)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) DeleteRolesByBed(_ context.Context, bedID id.BedID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bk := bedID.String()
	for k, r := range s.roles {
		if r.BedID.String() == bk {
			delete(s.roles, k)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Ledger Store
// ──────────────────────────────────────────────────

func (s *Store) CreateLedger(_ context.Context, l *ledger.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgers[l.BedID.String()] = l.Clone()
	return nil
}

func (s *Store) GetLedger(_ context.Context, bedID id.BedID) (*ledger.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.ledgers[bedID.String()]
	if !ok {
		return nil, fmt.Errorf("ledger for bed %s: %w", bedID, errNotFound)
	}
	return l.Clone(), nil
}

func (s *Store) UpdateLedger(_ context.Context, l *ledger.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ledgers[l.BedID.String()]; !ok {
		return fmt.Errorf("ledger for bed %s: %w", l.BedID, errNotFound)
	}
	s.ledgers[l.BedID.String()] = l.Clone()
	return nil
}

func (s *Store) DeleteLedger(_ context.Context, bedID id.BedID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ledgers, bedID.String())
	return nil
}

// ──────────────────────────────────────────────────
// Notification Store
// ──────────────────────────────────────────────────

func (s *Store) CreateNotification(_ context.Context, e *notification.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications[e.ID.String()] = copyNotification(e)
	return nil
}

func (s *Store) GetNotification(_ context.Context, notifID id.NotificationID) (*notification.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.notifications[notifID.String()]
	if !ok {
		return nil, fmt.Errorf("notification %s: %w", notifID, errNotFound)
	}
	return copyNotification(e), nil
}

func (s *Store) ListNotifications(_ context.Context, filter *notification.ListFilter) ([]*notification.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*notification.Entry, 0, len(s.notifications))
	for _, e := range s.notifications {
		if filter != nil {
			if filter.RecipientID != "" && e.RecipientID != filter.RecipientID {
				continue
			}
			if filter.Kind != "" && e.Kind != filter.Kind {
				continue
			}
			if filter.Unread != nil && e.Read == *filter.Unread {
				continue
			}
		}
		result = append(result, copyNotification(e))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return applyPagination(result, paginationOpts(filter)), nil
}

func (s *Store) MarkNotificationRead(_ context.Context, notifID id.NotificationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.notifications[notifID.String()]
	if !ok {
		return fmt.Errorf("notification %s: %w", notifID, errNotFound)
	}
	e.Read = true
	return nil
}

func (s *Store) DeleteNotification(_ context.Context, notifID id.NotificationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.notifications, notifID.String())
	return nil
}

func (s *Store) DeleteNotificationsByBed(_ context.Context, bedID id.BedID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bk := bedID.String()
	for k, e := range s.notifications {
		if e.BedID.String() == bk {
			delete(s.notifications, k)
		}
	}
	return nil
}

func (s *Store) PurgeNotifications(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for k, e := range s.notifications {
		if e.CreatedAt.Before(before) {
			delete(s.notifications, k)
			count++
		}
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func copyBed(b *bed.Bed) *bed.Bed {
	c := *b
	if b.Hearts != nil {
		c.Hearts = make([]string, len(b.Hearts))
		copy(c.Hearts, b.Hearts)
	}
	return &c
}

func copyMember(m *member.Member) *member.Member {
	c := *m
	if m.RoleID != nil {
		rid := *m.RoleID
		c.RoleID = &rid
	}
	if m.AcceptedAt != nil {
		at := *m.AcceptedAt
		c.AcceptedAt = &at
	}
	return &c
}

func copyRole(r *role.Role) *role.Role {
	c := *r
	if r.Duties != nil {
		c.Duties = make([]role.Duty, len(r.Duties))
		copy(c.Duties, r.Duties)
	}
	return &c
}

func copyNotification(e *notification.Entry) *notification.Entry {
	c := *e
	return &c
}

type pagOpts struct{ limit, offset int }

func paginationOpts(f *notification.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func applyPagination[T any](items []*T, p pagOpts) []*T {
	if p.offset > 0 && p.offset < len(items) {
		items = items[p.offset:]
	} else if p.offset >= len(items) && p.offset > 0 {
		return nil
	}
	if p.limit > 0 && p.limit < len(items) {
		items = items[:p.limit]
	}
	return items
}
