// Package mocks provides gomock implementations of the ports used by the guard and auth services.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockProfileStore(ctrl)
//	store.EXPECT().FindAdminProfile(gomock.Any(), "u1").Return(profile, nil)
package mocks

// Generate mock for ProfileStore interface from internal/ports package.
// This creates MockProfileStore with methods: FindAdminProfile, FindTenantProfile
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=profile_store_mock.go github.com/target/rentdesk/internal/ports ProfileStore

// Generate mocks for AuthEventBus and Subscription interfaces from internal/ports package.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=auth_event_bus_mock.go github.com/target/rentdesk/internal/ports AuthEventBus,Subscription
