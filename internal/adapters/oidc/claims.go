package oidc

import (
	"fmt"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// ClaimPaths are JMESPath expressions locating identity fields in ID token or
// UserInfo claims. Empty fields fall back to the standard OIDC claim names.
type ClaimPaths struct {
	UserID        string
	Email         string
	EmailVerified string
	GivenName     string
	FamilyName    string
}

// DefaultClaimPaths returns the standard OIDC claim locations.
func DefaultClaimPaths() ClaimPaths {
	return ClaimPaths{
		UserID:        "sub",
		Email:         "email",
		EmailVerified: "email_verified",
		GivenName:     "given_name",
		FamilyName:    "family_name",
	}
}

func (c ClaimPaths) withDefaults() ClaimPaths {
	d := DefaultClaimPaths()
	if strings.TrimSpace(c.UserID) == "" {
		c.UserID = d.UserID
	}
	if strings.TrimSpace(c.Email) == "" {
		c.Email = d.Email
	}
	if strings.TrimSpace(c.EmailVerified) == "" {
		c.EmailVerified = d.EmailVerified
	}
	if strings.TrimSpace(c.GivenName) == "" {
		c.GivenName = d.GivenName
	}
	if strings.TrimSpace(c.FamilyName) == "" {
		c.FamilyName = d.FamilyName
	}
	return c
}

// Validate compiles every expression.
func (c ClaimPaths) Validate() error {
	c = c.withDefaults()
	for name, expr := range map[string]string{
		"user_id":        c.UserID,
		"email":          c.Email,
		"email_verified": c.EmailVerified,
		"given_name":     c.GivenName,
		"family_name":    c.FamilyName,
	} {
		if _, err := jmespath.Compile(expr); err != nil {
			return fmt.Errorf("invalid %s claim path %q: %w", name, expr, err)
		}
	}
	return nil
}

type idFields struct {
	userID        string
	email         string
	emailVerified bool
	// verifiedKnown is false when the claim was absent, so a later source may fill it.
	verifiedKnown bool
	givenName     string
	familyName    string
}

// extract maps a raw claims document into idFields.
func (c ClaimPaths) extract(claims map[string]any) idFields {
	c = c.withDefaults()
	var f idFields
	f.userID = searchString(c.UserID, claims)
	f.email = searchString(c.Email, claims)
	f.givenName = searchString(c.GivenName, claims)
	f.familyName = searchString(c.FamilyName, claims)
	f.emailVerified, f.verifiedKnown = searchBool(c.EmailVerified, claims)
	return f
}

// fill copies fields from other that are missing in f.
func (f *idFields) fill(other idFields) {
	if f.userID == "" {
		f.userID = other.userID
	}
	if f.email == "" {
		f.email = other.email
	}
	if f.givenName == "" {
		f.givenName = other.givenName
	}
	if f.familyName == "" {
		f.familyName = other.familyName
	}
	if !f.verifiedKnown && other.verifiedKnown {
		f.emailVerified, f.verifiedKnown = other.emailVerified, true
	}
}

func (f idFields) complete() bool {
	return f.userID != "" && f.email != "" && f.verifiedKnown
}

func searchString(expr string, data map[string]any) string {
	v, err := jmespath.Search(expr, data)
	if err != nil || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return fmt.Sprintf("%.0f", s)
	default:
		return ""
	}
}

// searchBool accepts JSON booleans and the "true"/"false" strings some IdPs emit.
func searchBool(expr string, data map[string]any) (value, found bool) {
	v, err := jmespath.Search(expr, data)
	if err != nil || v == nil {
		return false, false
	}
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}
