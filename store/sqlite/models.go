package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/trellis/bed"
	"github.com/xraph/trellis/id"
	"github.com/xraph/trellis/ledger"
	"github.com/xraph/trellis/member"
	"github.com/xraph/trellis/notification"
	"github.com/xraph/trellis/role"
)

// ──────────────────────────────────────────────────
// Bed model
// ──────────────────────────────────────────────────

type bedModel struct {
	grove.BaseModel `grove:"table:trellis_beds"`
	ID              string    `grove:"id,pk"`
	OwnerID         string    `grove:"owner_id,notnull"`
	OwnerName       string    `grove:"owner_name,notnull"`
	Name            string    `grove:"name,notnull"`
	Length          int       `grove:"length,notnull"`
	Width           int       `grove:"width,notnull"`
	Public          bool      `grove:"public,notnull"`
	Hearts          string    `grove:"hearts"` // JSON text
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func bedToModel(b *bed.Bed) (*bedModel, error) {
	hearts, err := json.Marshal(b.Hearts)
	if err != nil {
		return nil, fmt.Errorf("marshal bed hearts: %w", err)
	}
	return &bedModel{
		ID:        b.ID.String(),
		OwnerID:   b.OwnerID,
		OwnerName: b.OwnerName,
		Name:      b.Name,
		Length:    b.Length,
		Width:     b.Width,
		Public:    b.Public,
		Hearts:    string(hearts),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}, nil
}

func bedFromModel(m *bedModel) (*bed.Bed, error) {
	bid, _ := id.ParseBedID(m.ID) //nolint:errcheck // stored IDs are always valid
	var hearts []string
	if m.Hearts != "" {
		if err := json.Unmarshal([]byte(m.Hearts), &hearts); err != nil {
			return nil, fmt.Errorf("unmarshal bed hearts: %w", err)
		}
	}
	return &bed.Bed{
		ID:        bid,
		OwnerID:   m.OwnerID,
		OwnerName: m.OwnerName,
		Name:      m.Name,
		Length:    m.Length,
		Width:     m.Width,
		Public:    m.Public,
		Hearts:    hearts,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

// ──────────────────────────────────────────────────
// Member model
// ──────────────────────────────────────────────────

type memberModel struct {
	grove.BaseModel `grove:"table:trellis_members"`
	BedID           string     `grove:"bed_id,pk"`
	UserID          string     `grove:"user_id,pk"`
	Username        string     `grove:"username,notnull"`
	RoleID          *string    `grove:"role_id"`
	Status          string     `grove:"status,notnull"`
	InvitedAt       time.Time  `grove:"invited_at,notnull"`
	AcceptedAt      *time.Time `grove:"accepted_at"`
}

func memberToModel(m *member.Member) *memberModel {
	out := &memberModel{
		BedID:      m.BedID.String(),
		UserID:     m.UserID,
		Username:   m.Username,
		Status:     string(m.Status),
		InvitedAt:  m.InvitedAt,
		AcceptedAt: m.AcceptedAt,
	}
	if m.RoleID != nil {
		s := m.RoleID.String()
		out.RoleID = &s
	}
	return out
}

func memberFromModel(m *memberModel) *member.Member {
	bid, _ := id.ParseBedID(m.BedID) //nolint:errcheck // stored IDs are always valid
	out := &member.Member{
		BedID:      bid,
		UserID:     m.UserID,
		Username:   m.Username,
		Status:     member.Status(m.Status),
		InvitedAt:  m.InvitedAt,
		AcceptedAt: m.AcceptedAt,
	}
	if m.RoleID != nil {
		rid, err := id.ParseRoleID(*m.RoleID)
		if err == nil {
			out.RoleID = &rid
		}
	}
	return out
}

// ──────────────────────────────────────────────────
// Role model
// ──────────────────────────────────────────────────

type roleModel struct {
	grove.BaseModel `grove:"table:trellis_roles"`
	ID              string    `grove:"id,pk"`
	BedID           string    `grove:"bed_id,notnull"`
	Title           string    `grove:"title,notnull"`
	Duties          string    `grove:"duties"` // JSON text
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func roleToModel(r *role.Role) (*roleModel, error) {
	duties, err := json.Marshal(r.Duties)
	if err != nil {
		return nil, fmt.Errorf("marshal role duties: %w", err)
	}
	return &roleModel{
		ID:        r.ID.String(),
		BedID:     r.BedID.String(),
		Title:     r.Title,
		Duties:    string(duties),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

func roleFromModel(m *roleModel) (*role.Role, error) {
	rid, _ := id.ParseRoleID(m.ID)   //nolint:errcheck // stored IDs are always valid
	bid, _ := id.ParseBedID(m.BedID) //nolint:errcheck // stored IDs are always valid
	var duties []role.Duty
	if m.Duties != "" {
		if err := json.Unmarshal([]byte(m.Duties), &duties); err != nil {
			return nil, fmt.Errorf("unmarshal role duties: %w", err)
		}
	}
	return &role.Role{
		ID:        rid,
		BedID:     bid,
		Title:     m.Title,
		Duties:    duties,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

// ──────────────────────────────────────────────────
// Ledger model
// ──────────────────────────────────────────────────

type ledgerModel struct {
	grove.BaseModel `grove:"table:trellis_ledgers"`
	BedID           string    `grove:"bed_id,pk"`
	CreatorID       string    `grove:"creator_id,notnull"`
	CreatorName     string    `grove:"creator_name,notnull"`
	Grants          string    `grove:"grants"` // JSON text
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func ledgerToModel(l *ledger.Ledger) (*ledgerModel, error) {
	grants, err := json.Marshal(l.Grants)
	if err != nil {
		return nil, fmt.Errorf("marshal ledger grants: %w", err)
	}
	return &ledgerModel{
		BedID:       l.BedID.String(),
		CreatorID:   l.CreatorID,
		CreatorName: l.CreatorName,
		Grants:      string(grants),
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}, nil
}

func ledgerFromModel(m *ledgerModel) (*ledger.Ledger, error) {
	bid, _ := id.ParseBedID(m.BedID) //nolint:errcheck // stored IDs are always valid
	var grants ledger.Grants
	if m.Grants != "" {
		if err := json.Unmarshal([]byte(m.Grants), &grants); err != nil {
			return nil, fmt.Errorf("unmarshal ledger grants: %w", err)
		}
	}
	return &ledger.Ledger{
		BedID:       bid,
		CreatorID:   m.CreatorID,
		CreatorName: m.CreatorName,
		Grants:      grants,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}, nil
}

// ──────────────────────────────────────────────────
// Notification model
// ──────────────────────────────────────────────────

type notificationModel struct {
	grove.BaseModel `grove:"table:trellis_notifications"`
	ID              string    `grove:"id,pk"`
	BedID           string    `grove:"bed_id,notnull"`
	BedName         string    `grove:"bed_name"`
	RecipientID     string    `grove:"recipient_id,notnull"`
	SenderID        string    `grove:"sender_id"`
	SenderName      string    `grove:"sender_name"`
	Kind            string    `grove:"kind,notnull"`
	Read            bool      `grove:"read,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func notificationToModel(e *notification.Entry) *notificationModel {
	return &notificationModel{
		ID:          e.ID.String(),
		BedID:       e.BedID.String(),
		BedName:     e.BedName,
		RecipientID: e.RecipientID,
		SenderID:    e.SenderID,
		SenderName:  e.SenderName,
		Kind:        string(e.Kind),
		Read:        e.Read,
		CreatedAt:   e.CreatedAt,
	}
}

func notificationFromModel(m *notificationModel) *notification.Entry {
	nid, _ := id.ParseNotificationID(m.ID) //nolint:errcheck // stored IDs are always valid
	bid, _ := id.ParseBedID(m.BedID)       //nolint:errcheck // stored IDs are always valid
	return &notification.Entry{
		ID:          nid,
		BedID:       bid,
		BedName:     m.BedName,
		RecipientID: m.RecipientID,
		SenderID:    m.SenderID,
		SenderName:  m.SenderName,
		Kind:        notification.Kind(m.Kind),
		Read:        m.Read,
		CreatedAt:   m.CreatedAt,
	}
}
