// Package mongo provides a MongoDB implementation of the Trellis store
// backed by the Grove ORM mongo driver.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/trellis/bed"
	"github.com/xraph/trellis/id"
	"github.com/xraph/trellis/ledger"
	"github.com/xraph/trellis/member"
	"github.com/xraph/trellis/notification"
	"github.com/xraph/trellis/role"
	"github.com/xraph/trellis/store"
)

// Collection name constants.
const (
	colBeds          = "trellis_beds"
	colMembers       = "trellis_members"
	colRoles         = "trellis_roles"
	colLedgers       = "trellis_ledgers"
	colNotifications = "trellis_notifications"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// errNotFound is the sentinel for missing entities.
var errNotFound = store.ErrNotFound

// Store is a MongoDB implementation of the composite Trellis store.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// WithinTx executes fn against the live store. Multi-document
// transactions require a replica set deployment; this backend applies
// the writes in order and relies on the engine serializing consistency
// updates per bed.
func (s *Store) WithinTx(_ context.Context, fn func(tx store.Tx) error) error {
	return fn(s)
}

// Migrate creates indexes for all trellis collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()
	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("trellis/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// titleFold normalizes a role title for case-insensitive matching.
func titleFold(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// migrationIndexes returns the index definitions for all trellis collections.
func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colBeds: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		},
		colMembers: {
			{
				Keys:    bson.D{{Key: "bed_id", Value: 1}, {Key: "user_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "bed_id", Value: 1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "role_id", Value: 1}}},
		},
		colRoles: {
			{
				Keys:    bson.D{{Key: "bed_id", Value: 1}, {Key: "title_fold", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "bed_id", Value: 1}}},
		},
		colLedgers: {},
		colNotifications: {
			{Keys: bson.D{{Key: "recipient_id", Value: 1}}},
			{Keys: bson.D{{Key: "bed_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
	}
}

// ──────────────────────────────────────────────────
// Bed operations
// ──────────────────────────────────────────────────

func (s *Store) CreateBed(ctx context.Context, b *bed.Bed) error {
	t := now()
	b.CreatedAt = t
	b.UpdatedAt = t
	m := bedToModel(b)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("trellis: create bed: %w", err)
	}
	return nil
}

func (s *Store) GetBed(ctx context.Context, bedID id.BedID) (*bed.Bed, error) {
	var m bedModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": bedID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("bed %s: %w", bedID, errNotFound)
		}
		return nil, fmt.Errorf("trellis: get bed: %w", err)
	}
	return bedFromModel(&m), nil
}

func (s *Store) UpdateBed(ctx context.Context, b *bed.Bed) error {
	b.UpdatedAt = now()
	m := bedToModel(b)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("trellis: update bed: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("bed %s: %w", b.ID, errNotFound)
	}
	return nil
}

func (s *Store) DeleteBed(ctx context.Context, bedID id.BedID) error {
	_, err := s.mdb.NewDelete((*bedModel)(nil)).
		Filter(bson.M{"_id": bedID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("trellis: delete bed: %w", err)
	}
	return nil
}

func (s *Store) ListBedsByOwner(ctx context.Context, ownerID string) ([]*bed.Bed, error) {
	var models []bedModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"owner_id": ownerID}).
		Sort(bson.D{{Key: "created_at", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("trellis: list beds by owner: %w", err)
	}
	result := make([]*bed.Bed, len(models))
	for i := range models {
		result[i] = bedFromModel(&models[i])
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Member operations
// ──────────────────────────────────────────────────

func (s *Store) CreateMember(ctx context.Context, m *member.Member) error {
	model := memberToModel(m)
	if _, err := s.mdb.NewInsert(model).Exec(ctx); err != nil {
		return fmt.Errorf("trellis: create member: %w", err)
	}
	return nil
}

func (s *Store) GetMember(ctx context.Context, bedID id.BedID, userID string) (*member.Member, error) {
	var m memberModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": memberDocID(bedID, userID)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("member %s on bed %s: %w", userID, bedID, errNotFound)
		}
		return nil, fmt.Errorf("trellis: get member: %w", err)
	}
	return memberFromModel(&m), nil
}

func (s *Store) UpdateMember(ctx context.Context, m *member.Member) error {
	model := memberToModel(m)
	res, err := s.mdb.NewUpdate(model).
		Filter(bson.M{"_id": model.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("trellis: update member: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("member %s on bed %s: %w", m.UserID, m.BedID, errNotFound)
	}
	return nil
}

func (s *Store) DeleteMember(ctx context.Context, bedID id.BedID, userID string) error {
	_, err := s.mdb.NewDelete((*memberModel)(nil)).
		Filter(bson.M{"_id": memberDocID(bedID, userID)}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("trellis: delete member: %w", err)
	}
	return nil
}

func (s *Store) ListMembers(ctx context.Context, bedID id.BedID) ([]*member.Member, error) {
	var models []memberModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"bed_id": bedID.String()}).
		Sort(bson.D{{Key: "invited_at", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("trellis: list members: %w", err)
	}
	result := make([]*member.Member, len(models))
	for i := range models {
		result[i] = memberFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountMembers(ctx context.Context, bedID id.BedID) (int64, error) {
	count, err := s.mdb.NewFind((*memberModel)(nil)).
		Filter(bson.M{"bed_id": bedID.String()}).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("trellis: count members: %w", err)
	}
	return count, nil
}

func (s *Store) ListMembershipsForUser(ctx context.Context, userID string) ([]*member.Member, error) {
	var models []memberModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"user_id": userID}).
		Sort(bson.D{{Key: "invited_at", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("trellis: list memberships for user: %w", err)
	}
	result := make([]*member.Member, len(models))
	for i := range models {
		result[i] = memberFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) ClearRoleRefs(ctx context.Context, bedID id.BedID, roleID id.RoleID) error {
	_, err := s.mdb.Collection(colMembers).UpdateMany(ctx,
		bson.M{"bed_id": bedID.String(), "role_id": roleID.String()},
		bson.M{"$unset": bson.M{"role_id": ""}},
	)
	if err != nil {
		return fmt.Errorf("trellis: clear role refs: %w", err)
	}
	return nil
}

func (s *Store) DeleteMembersByBed(ctx context.Context, bedID id.BedID) error {
	_, err := s.mdb.NewDelete((*memberModel)(nil)).
		Many().
		Filter(bson.M{"bed_id": bedID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("trellis: delete members by bed: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Role operations
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(ctx context.Context, r *role.Role) error {
	t := now()
	r.CreatedAt = t
	r.UpdatedAt = t
	m := roleToModel(r)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("trellis: create role: %w", err)
	}
	return nil
}

func (s *Store) GetRole(ctx context.Context, roleID id.RoleID) (*role.Role, error) {
	var m roleModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": roleID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("role %s: %w", roleID, errNotFound)
		}
		return nil, fmt.Errorf("trellis: get role: %w", err)
	}
	return roleFromModel(&m), nil
}

func (s *Store) GetRoleByTitle(ctx context.Context, bedID id.BedID, title string) (*role.Role, error) {
	var m roleModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"bed_id": bedID.String(), "title_fold": titleFold(title)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("role title %q: %w", title, errNotFound)
		}
		return nil, fmt.Errorf("trellis: get role by title: %w", err)
	}
	return roleFromModel(&m), nil
}

func (s *Store) UpdateRole(ctx context.Context, r *role.Role) error {
	r.UpdatedAt = now()
	m := roleToModel(r)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("trellis: update role: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("role %s: %w", r.ID, errNotFound)
	}
	return nil
}

func (s *Store) DeleteRole(ctx context.Context, roleID id.RoleID) error {
	_, err := s.mdb.NewDelete((*roleModel)(nil)).
		Filter(bson.M{"_id": roleID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("trellis: delete role: %w", err)
	}
	return nil
}

func (s *Store) ListRoles(ctx context.Context, bedID id.BedID) ([]*role.Role, error) {
	var models []roleModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"bed_id": bedID.String()}).
		Sort(bson.D{{Key: "created_at", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("trellis: list roles: %w", err)
	}
	result := make([]*role.Role, len(models))
	for i := range models {
		result[i] = roleFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountRoles(ctx context.Context, bedID id.BedID) (int64, error) {
	count, err := s.mdb.NewFind((*roleModel)(nil)).
		Filter(bson.M{"bed_id": bedID.String()}).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("trellis: count roles: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteRolesByBed(ctx context.Context, bedID id.BedID) error {
	_, err := s.mdb.NewDelete((*roleModel)(nil)).
		Many().
		Filter(bson.M{"bed_id": bedID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("trellis: delete roles by bed: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Ledger operations
// ──────────────────────────────────────────────────

func (s *Store) CreateLedger(ctx context.Context, l *ledger.Ledger) error {
	t := now()
	l.CreatedAt = t
	l.UpdatedAt = t
	m := ledgerToModel(l)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("trellis: create ledger: %w", err)
	}
	return nil
}

func (s *Store) GetLedger(ctx context.Context, bedID id.BedID) (*ledger.Ledger, error) {
	var m ledgerModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": bedID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("ledger for bed %s: %w", bedID, errNotFound)
		}
		return nil, fmt.Errorf("trellis: get ledger: %w", err)
	}
	return ledgerFromModel(&m), nil
}

func (s *Store) UpdateLedger(ctx context.Context, l *ledger.Ledger) error {
	l.UpdatedAt = now()
	m := ledgerToModel(l)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.BedID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("trellis: update ledger: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("ledger for bed %s: %w", l.BedID, errNotFound)
	}
	return nil
}

func (s *Store) DeleteLedger(ctx context.Context, bedID id.BedID) error {
	_, err := s.mdb.NewDelete((*ledgerModel)(nil)).
		Filter(bson.M{"_id": bedID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("trellis: delete ledger: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Notification operations
// ──────────────────────────────────────────────────

func (s *Store) CreateNotification(ctx context.Context, e *notification.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now()
	}
	m := notificationToModel(e)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("trellis: create notification: %w", err)
	}
	return nil
}

func (s *Store) GetNotification(ctx context.Context, notifID id.NotificationID) (*notification.Entry, error) {
	var m notificationModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": notifID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("notification %s: %w", notifID, errNotFound)
		}
		return nil, fmt.Errorf("trellis: get notification: %w", err)
	}
	return notificationFromModel(&m), nil
}

func (s *Store) ListNotifications(ctx context.Context, filter *notification.ListFilter) ([]*notification.Entry, error) {
	var models []notificationModel
	f := bson.M{}
	if filter != nil {
		if filter.RecipientID != "" {
			f["recipient_id"] = filter.RecipientID
		}
		if filter.Kind != "" {
			f["kind"] = string(filter.Kind)
		}
		if filter.Unread != nil {
			f["read"] = !*filter.Unread
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "created_at", Value: -1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("trellis: list notifications: %w", err)
	}
	result := make([]*notification.Entry, len(models))
	for i := range models {
		result[i] = notificationFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, notifID id.NotificationID) error {
	_, err := s.mdb.Collection(colNotifications).UpdateOne(ctx,
		bson.M{"_id": notifID.String()},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return fmt.Errorf("trellis: mark notification read: %w", err)
	}
	return nil
}

func (s *Store) DeleteNotification(ctx context.Context, notifID id.NotificationID) error {
	_, err := s.mdb.NewDelete((*notificationModel)(nil)).
		Filter(bson.M{"_id": notifID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("trellis: delete notification: %w", err)
	}
	return nil
}

func (s *Store) DeleteNotificationsByBed(ctx context.Context, bedID id.BedID) error {
	_, err := s.mdb.NewDelete((*notificationModel)(nil)).
		Many().
		Filter(bson.M{"bed_id": bedID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("trellis: delete notifications by bed: %w", err)
	}
	return nil
}

func (s *Store) PurgeNotifications(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*notificationModel)(nil)).
		Many().
		Filter(bson.M{"created_at": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("trellis: purge notifications: %w", err)
	}
	return res.DeletedCount(), nil
}
