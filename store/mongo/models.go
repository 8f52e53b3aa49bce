package mongo

import (
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
	ID              string    `grove:"id,pk"      bson:"_id"`
	OwnerID         string    `grove:"owner_id"   bson:"owner_id"`
	OwnerName       string    `grove:"owner_name" bson:"owner_name"`
	Name            string    `grove:"name"       bson:"name"`
	Length          int       `grove:"length"     bson:"length"`
	Width           int       `grove:"width"      bson:"width"`
	Public          bool      `grove:"public"     bson:"public"`
	Hearts          []string  `grove:"hearts"     bson:"hearts,omitempty"`
	CreatedAt       time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at" bson:"updated_at"`
}

func bedToModel(b *bed.Bed) *bedModel {
	return &bedModel{
		ID:        b.ID.String(),
		OwnerID:   b.OwnerID,
		OwnerName: b.OwnerName,
		Name:      b.Name,
		Length:    b.Length,
		Width:     b.Width,
		Public:    b.Public,
		Hearts:    b.Hearts,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func bedFromModel(m *bedModel) *bed.Bed {
	bid, _ := id.ParseBedID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &bed.Bed{
		ID:        bid,
		OwnerID:   m.OwnerID,
		OwnerName: m.OwnerName,
		Name:      m.Name,
		Length:    m.Length,
		Width:     m.Width,
		Public:    m.Public,
		Hearts:    m.Hearts,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Member model
// ──────────────────────────────────────────────────

// memberModel uses a synthetic "<bedID>/<userID>" document ID since the
// membership key is composite.
type memberModel struct {
	grove.BaseModel `grove:"table:trellis_members"`
	ID              string     `grove:"id,pk"       bson:"_id"`
	BedID           string     `grove:"bed_id"      bson:"bed_id"`
	UserID          string     `grove:"user_id"     bson:"user_id"`
	Username        string     `grove:"username"    bson:"username"`
	RoleID          *string    `grove:"role_id"     bson:"role_id,omitempty"`
	Status          string     `grove:"status"      bson:"status"`
	InvitedAt       time.Time  `grove:"invited_at"  bson:"invited_at"`
	AcceptedAt      *time.Time `grove:"accepted_at" bson:"accepted_at,omitempty"`
}

func memberDocID(bedID id.BedID, userID string) string {
	return bedID.String() + "/" + userID
}

func memberToModel(m *member.Member) *memberModel {
	out := &memberModel{
		ID:         memberDocID(m.BedID, m.UserID),
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

// roleModel stores a case-folded copy of the title so the unique
// per-bed title index matches the case-insensitive duplicate rule.
type roleModel struct {
	grove.BaseModel `grove:"table:trellis_roles"`
	ID              string      `grove:"id,pk"      bson:"_id"`
	BedID           string      `grove:"bed_id"     bson:"bed_id"`
	Title           string      `grove:"title"      bson:"title"`
	TitleFold       string      `grove:"title_fold" bson:"title_fold"`
	Duties          []role.Duty `grove:"duties"     bson:"duties,omitempty"`
	CreatedAt       time.Time   `grove:"created_at" bson:"created_at"`
	UpdatedAt       time.Time   `grove:"updated_at" bson:"updated_at"`
}

func roleToModel(r *role.Role) *roleModel {
	return &roleModel{
		ID:        r.ID.String(),
		BedID:     r.BedID.String(),
		Title:     r.Title,
		TitleFold: titleFold(r.Title),
		Duties:    r.Duties,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func roleFromModel(m *roleModel) *role.Role {
	rid, _ := id.ParseRoleID(m.ID)   //nolint:errcheck // stored IDs are always valid
	bid, _ := id.ParseBedID(m.BedID) //nolint:errcheck // stored IDs are always valid
	return &role.Role{
		ID:        rid,
		BedID:     bid,
		Title:     m.Title,
		Duties:    m.Duties,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Ledger model
// ──────────────────────────────────────────────────

type ledgerModel struct {
	grove.BaseModel `grove:"table:trellis_ledgers"`
	BedID           string        `grove:"bed_id,pk"    bson:"_id"`
	CreatorID       string        `grove:"creator_id"   bson:"creator_id"`
	CreatorName     string        `grove:"creator_name" bson:"creator_name"`
	Grants          ledger.Grants `grove:"grants"       bson:"grants,omitempty"`
	CreatedAt       time.Time     `grove:"created_at"   bson:"created_at"`
	UpdatedAt       time.Time     `grove:"updated_at"   bson:"updated_at"`
}

func ledgerToModel(l *ledger.Ledger) *ledgerModel {
	return &ledgerModel{
		BedID:       l.BedID.String(),
		CreatorID:   l.CreatorID,
		CreatorName: l.CreatorName,
		Grants:      l.Grants,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func ledgerFromModel(m *ledgerModel) *ledger.Ledger {
	bid, _ := id.ParseBedID(m.BedID) //nolint:errcheck // stored IDs are always valid
	return &ledger.Ledger{
		BedID:       bid,
		CreatorID:   m.CreatorID,
		CreatorName: m.CreatorName,
		Grants:      m.Grants,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Notification model
// ──────────────────────────────────────────────────

type notificationModel struct {
	grove.BaseModel `grove:"table:trellis_notifications"`
	ID              string    `grove:"id,pk"        bson:"_id"`
	BedID           string    `grove:"bed_id"       bson:"bed_id"`
	BedName         string    `grove:"bed_name"     bson:"bed_name"`
	RecipientID     string    `grove:"recipient_id" bson:"recipient_id"`
	SenderID        string    `grove:"sender_id"    bson:"sender_id"`
	SenderName      string    `grove:"sender_name"  bson:"sender_name"`
	Kind            string    `grove:"kind"         bson:"kind"`
	Read            bool      `grove:"read"         bson:"read"`
	CreatedAt       time.Time `grove:"created_at"   bson:"created_at"`
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
