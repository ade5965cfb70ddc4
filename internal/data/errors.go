package data

import (
	"errors"

	domainauth "github.com/target/rentdesk/internal/domain/auth"
)

// Shared sentinel errors for data-layer repositories. Account errors alias the
// domain sentinels so services can match them without importing this package.
var (
	ErrAccountNotFound    = domainauth.ErrAccountNotFound
	ErrAccountEmailExists = domainauth.ErrEmailExists
	ErrProfileExists      = errors.New("profile already exists")
)
