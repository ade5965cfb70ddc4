package auth

import (
	"testing"
	"time"
)

func TestSession_Identity(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	s := Session{ID: "s1", UserID: "u", Email: "e@example.com", EmailConfirmed: true, ExpiresAt: exp}
	id := s.Identity()
	if id.UserID != "u" || id.Email != "e@example.com" || !id.EmailConfirmed || !id.ExpiresAt.Equal(exp) {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	if (Session{ExpiresAt: now.Add(time.Minute)}).Expired(now) {
		t.Fatalf("did not expect expired")
	}
	if !(Session{ExpiresAt: now.Add(-time.Minute)}).Expired(now) {
		t.Fatalf("expected expired")
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{in: "admin", want: RoleAdmin},
		{in: " Landlord ", want: RoleLandlord},
		{in: "MANAGER", want: RoleManager},
		{in: "staff", want: RoleStaff},
		{in: "tenant", want: RoleTenant},
		{in: "", want: RoleNone},
		{in: "owner", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseRole(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("ParseRole(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestRole_IsAdminFamily(t *testing.T) {
	for _, r := range AdminFamily() {
		if !r.IsAdminFamily() {
			t.Fatalf("%s should be admin family", r)
		}
	}
	if RoleTenant.IsAdminFamily() || RoleNone.IsAdminFamily() {
		t.Fatalf("tenant and none must not be admin family")
	}
}

func TestRole_In(t *testing.T) {
	if !RoleManager.In([]Role{RoleAdmin, RoleManager}) {
		t.Fatalf("expected manager in set")
	}
	if RoleTenant.In([]Role{RoleAdmin}) {
		t.Fatalf("did not expect tenant in set")
	}
	if RoleNone.In([]Role{RoleNone}) {
		t.Fatalf("none is never a member")
	}
}

func TestProfile_Constructors(t *testing.T) {
	p := AdminProfileOf(AdminProfile{UserID: "u1", Role: RoleStaff, IsActive: true})
	if p.Role != RoleStaff || p.Admin == nil || p.Tenant != nil || !p.Provisioned() {
		t.Fatalf("unexpected admin profile: %+v", p)
	}
	tp := TenantProfileOf(TenantProfile{UserID: "u2", PropertyID: "p", UnitID: "u"})
	if tp.Role != RoleTenant || tp.Tenant == nil || tp.Admin != nil {
		t.Fatalf("unexpected tenant profile: %+v", tp)
	}
	if (Profile{}).Provisioned() {
		t.Fatalf("zero profile must be unprovisioned")
	}
}

func TestAdminProfile_Validate(t *testing.T) {
	if err := (AdminProfile{UserID: "u", Role: RoleTenant}).Validate(); err == nil {
		t.Fatalf("tenant role must be rejected for admin profile")
	}
	if err := (AdminProfile{Role: RoleAdmin}).Validate(); err == nil {
		t.Fatalf("missing user ID must be rejected")
	}
	if err := (AdminProfile{UserID: "u", Role: RoleLandlord}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
