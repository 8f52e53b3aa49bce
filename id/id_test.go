package id

import (
	"encoding/json"
	"testing"
)

func TestNewGeneratesUniqueIDs(t *testing.T) {
	seen := make(map[string]struct{})
	for range 100 {
		generated := New(PrefixBed)
		if generated.IsNil() {
			t.Fatal("New returned a nil ID")
		}
		key := generated.String()
		if _, dup := seen[key]; dup {
			t.Fatalf("duplicate ID generated: %s", key)
		}
		seen[key] = struct{}{}
	}
}

func TestNewSetsPrefix(t *testing.T) {
	tests := []struct {
		prefix Prefix
	}{
		{PrefixBed},
		{PrefixRole},
		{PrefixDuty},
		{PrefixNotification},
	}
	for _, tt := range tests {
		generated := New(tt.prefix)
		if generated.Prefix() != tt.prefix {
			t.Errorf("New(%q).Prefix() = %q", tt.prefix, generated.Prefix())
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	original := NewRoleID()
	parsed, err := Parse(original.String())
	if err != nil {
		t.Fatalf("Parse(%q): %v", original, err)
	}
	if parsed.String() != original.String() {
		t.Errorf("round trip mismatch: %s != %s", parsed, original)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []string{
		"",
		"not a typeid",
		"UPPER_01h2xcejqtf2nbrexx3vqjhp41",
	}
	for _, input := range tests {
		if _, err := Parse(input); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", input)
		}
	}
}

func TestParseWithPrefixMismatch(t *testing.T) {
	roleID := NewRoleID()
	if _, err := ParseBedID(roleID.String()); err == nil {
		t.Errorf("ParseBedID(%q) succeeded, want prefix mismatch error", roleID)
	}
}

func TestNilID(t *testing.T) {
	if !Nil.IsNil() {
		t.Error("Nil.IsNil() = false")
	}
	if Nil.String() != "" {
		t.Errorf("Nil.String() = %q, want empty", Nil.String())
	}
	if Nil.Prefix() != "" {
		t.Errorf("Nil.Prefix() = %q, want empty", Nil.Prefix())
	}
}

func TestJSONRoundTrip(t *testing.T) {
	original := NewNotificationID()
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded ID
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.String() != original.String() {
		t.Errorf("JSON round trip mismatch: %s != %s", decoded, original)
	}
}

func TestSQLValueAndScan(t *testing.T) {
	original := NewBedID()

	v, err := original.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	s, ok := v.(string)
	if !ok {
		t.Fatalf("Value returned %T, want string", v)
	}

	var scanned ID
	if err := scanned.Scan(s); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if scanned.String() != original.String() {
		t.Errorf("SQL round trip mismatch: %s != %s", scanned, original)
	}
}

func TestNilValueIsNull(t *testing.T) {
	v, err := Nil.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v != nil {
		t.Errorf("Nil.Value() = %v, want nil", v)
	}

	var scanned ID
	if err := scanned.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if !scanned.IsNil() {
		t.Error("Scan(nil) produced a non-nil ID")
	}
}
