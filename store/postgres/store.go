// Package postgres provides a PostgreSQL implementation of the Trellis
// composite store using grove ORM with Go-based migrations.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/trellis/bed"
	"github.com/xraph/trellis/id"
	"github.com/xraph/trellis/ledger"
	"github.com/xraph/trellis/member"
	"github.com/xraph/trellis/notification"
	"github.com/xraph/trellis/role"
	"github.com/xraph/trellis/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// errNotFound is the sentinel for missing entities.
var errNotFound = store.ErrNotFound

// querier is the query surface shared by the unwrapped database handle and
// an open transaction, so every store method can run in either.
type querier interface {
	NewSelect(model ...any) *pgdriver.SelectQuery
	NewInsert(model any) *pgdriver.InsertQuery
	NewUpdate(model any) *pgdriver.UpdateQuery
	NewDelete(model any) *pgdriver.DeleteQuery
}

// Store is a PostgreSQL implementation of the composite Trellis store.
type Store struct {
	db   *grove.DB
	pgdb *pgdriver.PgDB
	q    querier
}

// New creates a new PostgreSQL store.
func New(db *grove.DB) *Store {
	pgdb := pgdriver.Unwrap(db)
	return &Store{
		db:   db,
		pgdb: pgdb,
		q:    pgdb,
	}
}

// WithinTx runs fn against a transaction-scoped copy of the store. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Tx) error) error {
	txq, err := s.pgdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("trellis: begin tx: %w", err)
	}
	txStore := &Store{db: s.db, pgdb: s.pgdb, q: txq}
	if err := fn(txStore); err != nil {
		_ = txq.Rollback() //nolint:errcheck // rollback on error is intentional
		return err
	}
	if err := txq.Commit(); err != nil {
		return fmt.Errorf("trellis: commit tx: %w", err)
	}
	return nil
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pgdb)
	if err != nil {
		return fmt.Errorf("trellis: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("trellis: migration failed: %w", err)
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

// ──────────────────────────────────────────────────
// Bed operations
// ──────────────────────────────────────────────────

func (s *Store) CreateBed(ctx context.Context, b *bed.Bed) error {
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	m := bedToModel(b)
	_, err := s.q.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("trellis: create bed: %w", err)
	}
	return nil
}

func (s *Store) GetBed(ctx context.Context, bedID id.BedID) (*bed.Bed, error) {
	m := new(bedModel)
	err := s.q.NewSelect(m).Where("id = ?", bedID.String()).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("bed %s: %w", bedID, errNotFound)
		}
		return nil, fmt.Errorf("trellis: get bed: %w", err)
	}
	return bedFromModel(m), nil
}

func (s *Store) UpdateBed(ctx context.Context, b *bed.Bed) error {
	b.UpdatedAt = time.Now().UTC()
	m := bedToModel(b)
	_, err := s.q.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("trellis: update bed: %w", err)
	}
	return nil
}

func (s *Store) DeleteBed(ctx context.Context, bedID id.BedID) error {
	_, err := s.q.NewDelete((*bedModel)(nil)).
		Where("id = ?", bedID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("trellis: delete bed: %w", err)
	}
	return nil
}

func (s *Store) ListBedsByOwner(ctx context.Context, ownerID string) ([]*bed.Bed, error) {
	var models []bedModel
	err := s.q.NewSelect(&models).
		Where("owner_id = ?", ownerID).
		OrderExpr("created_at ASC").
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
	_, err := s.q.NewInsert(model).Exec(ctx)
	if err != nil {
		return fmt.Errorf("trellis: create member: %w", err)
	}
	return nil
}

func (s *Store) GetMember(ctx context.Context, bedID id.BedID, userID string) (*member.Member, error) {
	m := new(memberModel)
	err := s.q.NewSelect(m).
		Where("bed_id = ?", bedID.String()).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("member %s on bed %s: %w", userID, bedID, errNotFound)
		}
		return nil, fmt.Errorf("trellis: get member: %w", err)
	}
	return memberFromModel(m), nil
}

func (s *Store) UpdateMember(ctx context.Context, m *member.Member) error {
	model := memberToModel(m)
	_, err := s.q.NewUpdate(model).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("trellis: update member: %w", err)
	}
	return nil
}

func (s *Store) DeleteMember(ctx context.Context, bedID id.BedID, userID string) error {
	_, err := s.q.NewDelete((*memberModel)(nil)).
		Where("bed_id = ?", bedID.String()).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("trellis: delete member: %w", err)
	}
	return nil
}

func (s *Store) ListMembers(ctx context.Context, bedID id.BedID) ([]*member.Member, error) {
	var models []memberModel
	err := s.q.NewSelect(&models).
		Where("bed_id = ?", bedID.String()).
		OrderExpr("invited_at ASC").
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
	count, err := s.q.NewSelect((*memberModel)(nil)).
		Where("bed_id = ?", bedID.String()).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("trellis: count members: %w", err)
	}
	return count, nil
}

func (s *Store) ListMembershipsForUser(ctx context.Context, userID string) ([]*member.Member, error) {
	var models []memberModel
	err := s.q.NewSelect(&models).
		Where("user_id = ?", userID).
		OrderExpr("invited_at ASC").
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
	_, err := s.q.NewUpdate((*memberModel)(nil)).
		Set("role_id = NULL").
		Where("bed_id = ?", bedID.String()).
		Where("role_id = ?", roleID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("trellis: clear role refs: %w", err)
	}
	return nil
}

func (s *Store) DeleteMembersByBed(ctx context.Context, bedID id.BedID) error {
	_, err := s.q.NewDelete((*memberModel)(nil)).
		Where("bed_id = ?", bedID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("trellis: delete members by bed: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Role operations
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(ctx context.Context, r *role.Role) error {
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	m := roleToModel(r)
	_, err := s.q.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("trellis: create role: %w", err)
	}
	return nil
}

func (s *Store) GetRole(ctx context.Context, roleID id.RoleID) (*role.Role, error) {
	m := new(roleModel)
	err := s.q.NewSelect(m).Where("id = ?", roleID.String()).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("role %s: %w", roleID, errNotFound)
		}
		return nil, fmt.Errorf("trellis: get role: %w", err)
	}
	return roleFromModel(m), nil
}

func (s *Store) GetRoleByTitle(ctx context.Context, bedID id.BedID, title string) (*role.Role, error) {
	m := new(roleModel)
	err := s.q.NewSelect(m).
		Where("bed_id = ?", bedID.String()).
		Where("LOWER(TRIM(title)) = LOWER(TRIM(?))", title).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("role title %q: %w", title, errNotFound)
		}
		return nil, fmt.Errorf("trellis: get role by title: %w", err)
	}
	return roleFromModel(m), nil
}

func (s *Store) UpdateRole(ctx context.Context, r *role.Role) error {
	r.UpdatedAt = time.Now().UTC()
	m := roleToModel(r)
	_, err := s.q.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("trellis: update role: %w", err)
	}
	return nil
}

func (s *Store) DeleteRole(ctx context.Context, roleID id.RoleID) error {
	_, err := s.q.NewDelete((*roleModel)(nil)).
		Where("id = ?", roleID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("trellis: delete role: %w", err)
	}
	return nil
}

func (s *Store) ListRoles(ctx context.Context, bedID id.BedID) ([]*role.Role, error) {
	var models []roleModel
	err := s.q.NewSelect(&models).
		Where("bed_id = ?", bedID.String()).
		OrderExpr("created_at ASC").
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
	count, err := s.q.NewSelect((*roleModel)(nil)).
		Where("bed_id = ?", bedID.String()).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("trellis: count roles: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteRolesByBed(ctx context.Context, bedID id.BedID) error {
	_, err := s.q.NewDelete((*roleModel)(nil)).
		Where("bed_id = ?", bedID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("trellis: delete roles by bed: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Ledger operations
// ──────────────────────────────────────────────────

func (s *Store) CreateLedger(ctx context.Context, l *ledger.Ledger) error {
	now := time.Now().UTC()
	l.CreatedAt = now
	l.UpdatedAt = now
	m := ledgerToModel(l)
	_, err := s.q.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("trellis: create ledger: %w", err)
	}
	return nil
}

func (s *Store) GetLedger(ctx context.Context, bedID id.BedID) (*ledger.Ledger, error) {
	m := new(ledgerModel)
	err := s.q.NewSelect(m).Where("bed_id = ?", bedID.String()).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("ledger for bed %s: %w", bedID, errNotFound)
		}
		return nil, fmt.Errorf("trellis: get ledger: %w", err)
	}
	return ledgerFromModel(m), nil
}

func (s *Store) UpdateLedger(ctx context.Context, l *ledger.Ledger) error {
	l.UpdatedAt = time.Now().UTC()
	m := ledgerToModel(l)
	_, err := s.q.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("trellis: update ledger: %w", err)
	}
	return nil
}

func (s *Store) DeleteLedger(ctx context.Context, bedID id.BedID) error {
	_, err := s.q.NewDelete((*ledgerModel)(nil)).
		Where("bed_id = ?", bedID.String()).Exec(ctx)
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
		e.CreatedAt = time.Now().UTC()
	}
	m := notificationToModel(e)
	_, err := s.q.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("trellis: create notification: %w", err)
	}
	return nil
}

func (s *Store) GetNotification(ctx context.Context, notifID id.NotificationID) (*notification.Entry, error) {
	m := new(notificationModel)
	err := s.q.NewSelect(m).Where("id = ?", notifID.String()).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("notification %s: %w", notifID, errNotFound)
		}
		return nil, fmt.Errorf("trellis: get notification: %w", err)
	}
	return notificationFromModel(m), nil
}

func (s *Store) ListNotifications(ctx context.Context, filter *notification.ListFilter) ([]*notification.Entry, error) {
	var models []notificationModel
	q := s.q.NewSelect(&models).OrderExpr("created_at DESC")
	if filter != nil {
		if filter.RecipientID != "" {
			q = q.Where("recipient_id = ?", filter.RecipientID)
		}
		if filter.Kind != "" {
			q = q.Where("kind = ?", string(filter.Kind))
		}
		if filter.Unread != nil {
			q = q.Where("read = ?", !*filter.Unread)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
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
	_, err := s.q.NewUpdate((*notificationModel)(nil)).
		Set("read = ?", true).
		Where("id = ?", notifID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("trellis: mark notification read: %w", err)
	}
	return nil
}

func (s *Store) DeleteNotification(ctx context.Context, notifID id.NotificationID) error {
	_, err := s.q.NewDelete((*notificationModel)(nil)).
		Where("id = ?", notifID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("trellis: delete notification: %w", err)
	}
	return nil
}

func (s *Store) DeleteNotificationsByBed(ctx context.Context, bedID id.BedID) error {
	_, err := s.q.NewDelete((*notificationModel)(nil)).
		Where("bed_id = ?", bedID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("trellis: delete notifications by bed: %w", err)
	}
	return nil
}

func (s *Store) PurgeNotifications(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.q.NewDelete((*notificationModel)(nil)).
		Where("created_at < ?", before).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("trellis: purge notifications: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("trellis: purge notifications rows: %w", err)
	}
	return n, nil
}
