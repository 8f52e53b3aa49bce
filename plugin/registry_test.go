package plugin

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/xraph/trellis/id"
	"github.com/xraph/trellis/member"
)

type recordingPlugin struct {
	invited int
	removed int
	failing bool
}

func (p *recordingPlugin) Name() string { return "recording" }

func (p *recordingPlugin) OnMemberInvited(_ context.Context, _ *member.Member) error {
	p.invited++
	if p.failing {
		return errors.New("hook failure")
	}
	return nil
}

func (p *recordingPlugin) OnMemberRemoved(_ context.Context, _ id.BedID, _ string) error {
	p.removed++
	return nil
}

func TestRegistryDispatchesOnlyImplementedHooks(t *testing.T) {
	r := NewRegistry(slog.Default())
	p := &recordingPlugin{}
	r.Register(p)

	ctx := context.Background()
	r.EmitMemberInvited(ctx, &member.Member{UserID: "u1"})
	r.EmitMemberRemoved(ctx, id.NewBedID(), "u1")
	// The plugin does not implement RoleDeleted; this must not panic.
	r.EmitRoleDeleted(ctx, id.NewRoleID())

	if p.invited != 1 {
		t.Errorf("invited hook fired %d times, want 1", p.invited)
	}
	if p.removed != 1 {
		t.Errorf("removed hook fired %d times, want 1", p.removed)
	}
}

func TestHookErrorsAreSwallowed(t *testing.T) {
	r := NewRegistry(slog.Default())
	p := &recordingPlugin{failing: true}
	r.Register(p)

	// A failing hook must not panic or propagate.
	r.EmitMemberInvited(context.Background(), &member.Member{UserID: "u1"})
	if p.invited != 1 {
		t.Errorf("failing hook fired %d times, want 1", p.invited)
	}
}

func TestRegisterOrderPreserved(t *testing.T) {
	r := NewRegistry(slog.Default())
	first := &recordingPlugin{}
	second := &recordingPlugin{}
	r.Register(first)
	r.Register(second)

	if got := len(r.Plugins()); got != 2 {
		t.Fatalf("Plugins() = %d entries, want 2", got)
	}
	if r.Plugins()[0] != Plugin(first) {
		t.Error("registration order not preserved")
	}
}
