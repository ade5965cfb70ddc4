package devseed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/rentdesk/internal/data"
	domainauth "github.com/target/rentdesk/internal/domain/auth"
)

type fakeProvisioner struct {
	admins   map[string]domainauth.AdminProfile
	tenants  map[string]domainauth.TenantProfile
	units    []string
	unitErr  error
	adminErr error
}

func newFakeProvisioner() *fakeProvisioner {
	return &fakeProvisioner{
		admins:  map[string]domainauth.AdminProfile{},
		tenants: map[string]domainauth.TenantProfile{},
	}
}

func (f *fakeProvisioner) CreateAdminProfile(_ context.Context, p domainauth.AdminProfile) (domainauth.AdminProfile, error) {
	if f.adminErr != nil {
		return domainauth.AdminProfile{}, f.adminErr
	}
	if _, ok := f.admins[p.UserID]; ok {
		return domainauth.AdminProfile{}, data.ErrProfileExists
	}
	f.admins[p.UserID] = p
	return p, nil
}

func (f *fakeProvisioner) CreateTenantProfile(_ context.Context, p domainauth.TenantProfile) (domainauth.TenantProfile, error) {
	if _, ok := f.tenants[p.UserID]; ok {
		return domainauth.TenantProfile{}, data.ErrProfileExists
	}
	f.tenants[p.UserID] = p
	return p, nil
}

func (f *fakeProvisioner) EnsureUnit(_ context.Context, propertyName, unitLabel string) (data.UnitRef, error) {
	if f.unitErr != nil {
		return data.UnitRef{}, f.unitErr
	}
	f.units = append(f.units, propertyName+"/"+unitLabel)
	return data.UnitRef{PropertyID: "prop-1", UnitID: "unit-1"}, nil
}

func TestRun_SeedsAdminOnce(t *testing.T) {
	p := newFakeProvisioner()
	id := Identity{UserID: "dev-user", FirstName: "Dev", LastName: "User", Role: domainauth.RoleManager}

	res, err := Run(context.Background(), p, id, nil)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, domainauth.RoleManager, res.Role)

	got := p.admins["dev-user"]
	assert.True(t, got.IsActive)
	assert.Equal(t, "Dev User", got.FullName)
	assert.Equal(t, domainauth.RoleManager, got.Role)

	res, err = Run(context.Background(), p, id, nil)
	require.NoError(t, err)
	assert.False(t, res.Created)
}

func TestRun_SeedsTenantIntoDemoUnit(t *testing.T) {
	p := newFakeProvisioner()
	res, err := Run(context.Background(), p, Identity{UserID: "dev-tenant", Role: domainauth.RoleTenant}, nil)
	require.NoError(t, err)
	assert.True(t, res.Created)

	assert.Equal(t, []string{DemoProperty + "/" + DemoUnit}, p.units)
	got := p.tenants["dev-tenant"]
	assert.Equal(t, "unit-1", got.UnitID)
	assert.Equal(t, "prop-1", got.PropertyID)
	assert.Equal(t, "dev-tenant", got.FullName)
	assert.Empty(t, p.admins)
}

func TestRun_NoRoleSeedsNothing(t *testing.T) {
	p := newFakeProvisioner()
	res, err := Run(context.Background(), p, Identity{UserID: "dev-user"}, nil)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Empty(t, p.admins)
	assert.Empty(t, p.tenants)
}

func TestRun_Errors(t *testing.T) {
	t.Run("missing user", func(t *testing.T) {
		_, err := Run(context.Background(), newFakeProvisioner(), Identity{Role: domainauth.RoleAdmin}, nil)
		assert.Error(t, err)
	})

	t.Run("store failure", func(t *testing.T) {
		p := newFakeProvisioner()
		p.adminErr = errors.New("connection reset")
		_, err := Run(context.Background(), p, Identity{UserID: "u", Role: domainauth.RoleAdmin}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "create admin profile")
	})

	t.Run("unit failure", func(t *testing.T) {
		p := newFakeProvisioner()
		p.unitErr = errors.New("constraint")
		_, err := Run(context.Background(), p, Identity{UserID: "u", Role: domainauth.RoleTenant}, nil)
		require.Error(t, err)
		assert.Empty(t, p.tenants)
	})
}
