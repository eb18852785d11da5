package role

import "testing"

func TestCanCreateRole(t *testing.T) {
	tests := []struct {
		actor  Role
		target Role
		want   bool
	}{
		{SuperAdmin, SuperAdmin, true},
		{SuperAdmin, Admin, true},
		{SuperAdmin, SuperUser, true},
		{SuperAdmin, User, true},
		{Admin, SuperAdmin, false},
		{Admin, Admin, false},
		{Admin, SuperUser, true},
		{Admin, User, true},
		{SuperUser, User, false},
		{SuperUser, SuperUser, false},
		{User, User, false},
		{User, SuperAdmin, false},
	}

	for _, tt := range tests {
		if got := CanCreateRole(tt.actor, tt.target); got != tt.want {
			t.Errorf("CanCreateRole(%s, %s) = %v, want %v", tt.actor, tt.target, got, tt.want)
		}
	}
}

func TestBypassesModeration(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{SuperAdmin, true},
		{Admin, true},
		{SuperUser, true},
		{User, false},
	}

	for _, tt := range tests {
		if got := BypassesModeration(tt.role); got != tt.want {
			t.Errorf("BypassesModeration(%s) = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestCapabilities(t *testing.T) {
	if !HasCapability(SuperAdmin, PlatformManage) {
		t.Error("SuperAdmin should hold platform_manage")
	}
	if !HasCapability(Admin, ContentManage) {
		t.Error("Admin should hold content_manage")
	}
	if !HasCapability(Admin, UserManage) {
		t.Error("Admin should hold user_manage")
	}
	if HasCapability(User, UserManage) {
		t.Error("User should not hold user_manage")
	}
	if HasCapability(User, PageCreate) {
		t.Error("User should not hold page_create")
	}
	if !HasCapability(SuperUser, PageCreate) {
		t.Error("SuperUser should hold page_create")
	}
	if !HasCapability(User, ContentCreate) {
		t.Error("User should hold content_create")
	}
}

func TestCapabilitiesOfCopies(t *testing.T) {
	caps := CapabilitiesOf(User)
	if len(caps) == 0 {
		t.Fatal("expected capabilities for User")
	}
	caps[0] = Capability("mutated")
	if CapabilitiesOf(User)[0] == "mutated" {
		t.Error("CapabilitiesOf must return a copy of the reference table")
	}
}

func TestParse(t *testing.T) {
	if r, ok := Parse("Admin"); !ok || r != Admin {
		t.Errorf("Parse(Admin) = %v, %v", r, ok)
	}
	if _, ok := Parse("admin"); ok {
		t.Error("Parse should be case sensitive")
	}
	if _, ok := Parse("Moderator"); ok {
		t.Error("Parse should reject unknown roles")
	}
}

func TestValid(t *testing.T) {
	for _, r := range []Role{SuperAdmin, Admin, SuperUser, User} {
		if !r.Valid() {
			t.Errorf("%s should be valid", r)
		}
	}
	if Role("Unknown").Valid() {
		t.Error("unknown role should be invalid")
	}
}
