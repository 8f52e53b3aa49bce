package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/trellis/bed"
	"github.com/xraph/trellis/capability"
	"github.com/xraph/trellis/id"
	"github.com/xraph/trellis/ledger"
	"github.com/xraph/trellis/member"
	"github.com/xraph/trellis/role"
	"github.com/xraph/trellis/store"
)

func TestBedCRUD(t *testing.T) {
	s := New()
	ctx := context.Background()

	b := &bed.Bed{ID: id.NewBedID(), OwnerID: "owner-1", Name: "herbs", CreatedAt: time.Now()}
	if err := s.CreateBed(ctx, b); err != nil {
		t.Fatalf("CreateBed: %v", err)
	}

	got, err := s.GetBed(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetBed: %v", err)
	}
	if got.Name != "herbs" {
		t.Errorf("Name = %q", got.Name)
	}

	got.Name = "herbs & greens"
	if err := s.UpdateBed(ctx, got); err != nil {
		t.Fatalf("UpdateBed: %v", err)
	}

	if err := s.DeleteBed(ctx, b.ID); err != nil {
		t.Fatalf("DeleteBed: %v", err)
	}
	if _, err := s.GetBed(ctx, b.ID); err == nil {
		t.Error("GetBed succeeded after delete")
	}
}

func TestGetBedReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()

	b := &bed.Bed{ID: id.NewBedID(), OwnerID: "owner-1", Hearts: []string{"u1"}}
	_ = s.CreateBed(ctx, b)

	got, _ := s.GetBed(ctx, b.ID)
	got.Hearts[0] = "mutated"

	again, _ := s.GetBed(ctx, b.ID)
	if again.Hearts[0] != "u1" {
		t.Error("mutating a returned bed changed the stored copy")
	}
}

func TestClearRoleRefs(t *testing.T) {
	s := New()
	ctx := context.Background()
	bedID := id.NewBedID()
	roleID := id.NewRoleID()
	otherRole := id.NewRoleID()

	_ = s.CreateMember(ctx, &member.Member{BedID: bedID, UserID: "u1", RoleID: &roleID})
	_ = s.CreateMember(ctx, &member.Member{BedID: bedID, UserID: "u2", RoleID: &otherRole})

	if err := s.ClearRoleRefs(ctx, bedID, roleID); err != nil {
		t.Fatalf("ClearRoleRefs: %v", err)
	}

	m1, _ := s.GetMember(ctx, bedID, "u1")
	if m1.RoleID != nil {
		t.Error("role reference not cleared")
	}
	m2, _ := s.GetMember(ctx, bedID, "u2")
	if m2.RoleID == nil {
		t.Error("unrelated role reference cleared")
	}
}

func TestGetRoleByTitleIsCaseInsensitive(t *testing.T) {
	s := New()
	ctx := context.Background()
	bedID := id.NewBedID()

	_ = s.CreateRole(ctx, &role.Role{ID: id.NewRoleID(), BedID: bedID, Title: "Waterer"})

	if _, err := s.GetRoleByTitle(ctx, bedID, "waterer"); err != nil {
		t.Errorf("case-insensitive lookup failed: %v", err)
	}
	if _, err := s.GetRoleByTitle(ctx, id.NewBedID(), "Waterer"); err == nil {
		t.Error("title lookup crossed bed boundary")
	}
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	bedID := id.NewBedID()

	l := ledger.New(bedID, "owner-1", "fern")
	if err := s.CreateLedger(ctx, l); err != nil {
		t.Fatalf("CreateLedger: %v", err)
	}

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(tx store.Tx) error {
		got, err := tx.GetLedger(ctx, bedID)
		if err != nil {
			return err
		}
		got.Grant(capability.ManagePosts, capability.TargetMember, "u1")
		if err := tx.UpdateLedger(ctx, got); err != nil {
			return err
		}
		if err := tx.CreateMember(ctx, &member.Member{BedID: bedID, UserID: "u1"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithinTx error = %v, want boom", err)
	}

	got, err := s.GetLedger(ctx, bedID)
	if err != nil {
		t.Fatalf("GetLedger after rollback: %v", err)
	}
	if got.Has(capability.ManagePosts, capability.TargetMember, "u1") {
		t.Error("ledger mutation survived rollback")
	}
	if _, err := s.GetMember(ctx, bedID, "u1"); err == nil {
		t.Error("member insert survived rollback")
	}
}

func TestWithinTxCommitsOnSuccess(t *testing.T) {
	s := New()
	ctx := context.Background()
	bedID := id.NewBedID()

	err := s.WithinTx(ctx, func(tx store.Tx) error {
		return tx.CreateMember(ctx, &member.Member{BedID: bedID, UserID: "u1", Status: member.StatusPending})
	})
	if err != nil {
		t.Fatalf("WithinTx: %v", err)
	}
	if _, err := s.GetMember(ctx, bedID, "u1"); err != nil {
		t.Errorf("committed member missing: %v", err)
	}
}
