package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/rentdesk/internal/adapters/memory"
	"github.com/target/rentdesk/internal/data"
	domainauth "github.com/target/rentdesk/internal/domain/auth"
	mocks "github.com/target/rentdesk/internal/mocks/auth"
	"github.com/target/rentdesk/internal/migrate"
)

// unitProfileStore adds EnsureUnit to the in-memory profile store.
type unitProfileStore struct {
	*mocks.MemoryProfileStore
	units map[string]data.UnitRef
}

func (s *unitProfileStore) EnsureUnit(_ context.Context, propertyName, unitLabel string) (data.UnitRef, error) {
	key := propertyName + "/" + unitLabel
	if ref, ok := s.units[key]; ok {
		return ref, nil
	}
	ref := data.UnitRef{PropertyID: "prop-" + propertyName, UnitID: "unit-" + unitLabel}
	s.units[key] = ref
	return ref, nil
}

type opsFixture struct {
	ops      *profileOps
	store    *unitProfileStore
	sessions *mocks.MemorySessionStore
	bus      *memory.EventBus
	out      *bytes.Buffer
}

func newOpsFixture() *opsFixture {
	f := &opsFixture{
		store:    &unitProfileStore{MemoryProfileStore: mocks.NewMemoryProfileStore(), units: map[string]data.UnitRef{}},
		sessions: mocks.NewMemorySessionStore(),
		bus:      memory.NewEventBus(),
		out:      &bytes.Buffer{},
	}
	f.ops = &profileOps{Profiles: f.store, Sessions: f.sessions, Events: f.bus, Out: f.out}
	return f
}

func (f *opsFixture) subscribe(t *testing.T, userID string) <-chan domainauth.Event {
	t.Helper()
	sub, err := f.bus.Subscribe(context.Background(), userID)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })
	return sub.Events()
}

func nextEvent(t *testing.T, events <-chan domainauth.Event) domainauth.Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no auth event published")
		return domainauth.Event{}
	}
}

func TestCreateAdmin_ProvisionsAndNotifies(t *testing.T) {
	f := newOpsFixture()
	events := f.subscribe(t, "u-1")

	err := f.ops.createAdmin(context.Background(), createAdminOptions{UserID: "u-1", Role: domainauth.RoleLandlord, Name: "Lee Landlord"})
	require.NoError(t, err)

	ev := nextEvent(t, events)
	assert.Equal(t, domainauth.EventUserUpdated, ev.Kind)
	assert.Contains(t, f.out.String(), "landlord")
	assert.Contains(t, f.out.String(), "Lee Landlord")

	p, err := f.store.FindAdminProfile(context.Background(), "u-1")
	require.NoError(t, err)
	assert.True(t, p.IsActive)

	err = f.ops.createAdmin(context.Background(), createAdminOptions{UserID: "u-1", Role: domainauth.RoleAdmin})
	assert.Error(t, err)
}

func TestCreateTenant_EnsuresUnit(t *testing.T) {
	f := newOpsFixture()
	err := f.ops.createTenant(context.Background(), createTenantOptions{
		UserID: "u-2", Name: "Pat Renter", Property: "Maple Court", Unit: "4B",
	})
	require.NoError(t, err)

	p, err := f.store.FindTenantProfile(context.Background(), "u-2")
	require.NoError(t, err)
	assert.Equal(t, "prop-Maple Court", p.PropertyID)
	assert.Equal(t, "unit-4B", p.UnitID)
	assert.Contains(t, f.out.String(), "Maple Court (prop-Maple Court)")
}

func TestShowProfile_ResolvesLikeTheGuard(t *testing.T) {
	f := newOpsFixture()
	ctx := context.Background()
	require.NoError(t, f.ops.createAdmin(ctx, createAdminOptions{UserID: "u-staff", Role: domainauth.RoleStaff}))
	require.NoError(t, f.ops.createTenant(ctx, createTenantOptions{UserID: "u-tenant", Property: "Maple Court", Unit: "1A"}))

	f.out.Reset()
	require.NoError(t, f.ops.showProfile(ctx, "u-staff"))
	assert.Regexp(t, `Role\s+staff`, f.out.String())

	f.out.Reset()
	require.NoError(t, f.ops.showProfile(ctx, "u-tenant"))
	assert.Regexp(t, `Role\s+tenant`, f.out.String())
	assert.Regexp(t, `Unit\s+1A \(unit-1A\)`, f.out.String())

	require.NoError(t, f.ops.deactivateAdmin(ctx, "u-staff"))
	f.out.Reset()
	require.NoError(t, f.ops.showProfile(ctx, "u-staff"))
	assert.Regexp(t, `Role\s+none`, f.out.String())
	assert.Contains(t, f.out.String(), "no profile")
}

func TestCreateTenant_RejectsExistingAdmin(t *testing.T) {
	f := newOpsFixture()
	ctx := context.Background()
	require.NoError(t, f.ops.createAdmin(ctx, createAdminOptions{UserID: "u-7", Role: domainauth.RoleManager}))

	err := f.ops.createTenant(ctx, createTenantOptions{UserID: "u-7", Property: "Maple Court", Unit: "2A"})
	require.ErrorIs(t, err, mocks.ErrDuplicate)
	_, err = f.store.FindTenantProfile(ctx, "u-7")
	assert.ErrorIs(t, err, domainauth.ErrProfileNotFound)
}

func TestDeactivateAdmin_Unknown(t *testing.T) {
	f := newOpsFixture()
	err := f.ops.deactivateAdmin(context.Background(), "ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, domainauth.ErrProfileNotFound)
}

func TestRevokeSessions(t *testing.T) {
	f := newOpsFixture()
	ctx := context.Background()
	for _, id := range []string{"s-1", "s-2"} {
		require.NoError(t, f.sessions.Save(ctx, domainauth.Session{ID: id, UserID: "u-4", ExpiresAt: time.Now().Add(time.Hour)}))
	}
	require.NoError(t, f.sessions.Save(ctx, domainauth.Session{ID: "s-other", UserID: "u-5", ExpiresAt: time.Now().Add(time.Hour)}))
	events := f.subscribe(t, "u-4")

	require.NoError(t, f.ops.revokeSessions(ctx, "u-4"))
	assert.Equal(t, domainauth.EventSignedOut, nextEvent(t, events).Kind)
	assert.Equal(t, 1, f.sessions.Len())
	assert.Contains(t, f.out.String(), "revoked 2 session(s) for u-4")

	f.ops.Sessions = nil
	assert.Error(t, f.ops.revokeSessions(ctx, "u-4"))
}

func TestParseCreateAdminFlags(t *testing.T) {
	opts, err := parseCreateAdminFlags([]string{"--user-id", " u-1 ", "--role", "Staff", "--name", "Sam"})
	require.NoError(t, err)
	assert.Equal(t, createAdminOptions{UserID: "u-1", Role: domainauth.RoleStaff, Name: "Sam"}, opts)

	opts, err = parseCreateAdminFlags([]string{"--user-id", "u-1"})
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleManager, opts.Role)

	_, err = parseCreateAdminFlags([]string{"--user-id", "u-1", "--role", "tenant"})
	assert.Error(t, err)
	_, err = parseCreateAdminFlags([]string{"--role", "admin"})
	assert.Error(t, err)
}

func TestParseCreateTenantFlags(t *testing.T) {
	opts, err := parseCreateTenantFlags([]string{"--user-id", "u-2", "--property", "Maple Court", "--unit", "4B"})
	require.NoError(t, err)
	assert.Equal(t, "Maple Court", opts.Property)

	_, err = parseCreateTenantFlags([]string{"--user-id", "u-2"})
	require.Error(t, err)
	assert.Equal(t, "missing required flags: --property, --unit", err.Error())
}

func TestParseMigrateFlags(t *testing.T) {
	opts, err := parseMigrateFlags("migrate", nil)
	require.NoError(t, err)
	assert.Equal(t, defaultMigrationTimeout, opts.Timeout)

	_, err = parseMigrateFlags("migrate", []string{"--timeout", "0s"})
	assert.Error(t, err)

	reset, err := parseDBResetFlags([]string{"--yes", "--allow-remote"})
	require.NoError(t, err)
	assert.True(t, reset.Yes)
	assert.True(t, reset.AllowRemote)
}

func TestIsLikelyRemoteHost(t *testing.T) {
	tests := map[string]bool{
		"":                false,
		"localhost":       false,
		"127.0.0.1":       false,
		"::1":             false,
		"db.local":        false,
		"10.0.0.5":        true,
		"db.example.com":  true,
		" LOCALHOST ":     false,
		"127.0.0.2":       false,
		"postgres.prod":   true,
		"192.168.1.20":    true,
		"rentdesk-db-svc": true,
	}
	for host, want := range tests {
		assert.Equal(t, want, isLikelyRemoteHost(host), host)
	}
}

func TestRequireConfirmation(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, requireConfirmation(strings.NewReader("rentdesk\n"), &out, "rentdesk", "drop every table"))
	assert.Contains(t, out.String(), `Type "rentdesk"`)

	assert.Error(t, requireConfirmation(strings.NewReader("\n"), &out, "rentdesk", "drop every table"))
	assert.Error(t, requireConfirmation(strings.NewReader(""), &out, "rentdesk", "drop every table"))
}

func TestResetStatements(t *testing.T) {
	stmts := resetStatements(`rent"desk`)
	require.Len(t, stmts, 4)
	assert.Equal(t, `GRANT ALL ON SCHEMA public TO "rent""desk"`, stmts[3])
	assert.Len(t, resetStatements("public"), 3)
}

func TestPrintMigrations(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printMigrations(&out, []migrate.Status{
		{Version: "0001_accounts", Applied: true},
		{Version: "0002_profiles"},
	}))
	assert.Regexp(t, `0001_accounts\s+applied`, out.String())
	assert.Regexp(t, `0002_profiles\s+pending`, out.String())
}

func TestCommandsHaveDescriptions(t *testing.T) {
	for name, c := range commands() {
		assert.Equal(t, name, c.name)
		assert.NotEmpty(t, c.description, name)
		assert.NotNil(t, c.run, name)
	}
}
