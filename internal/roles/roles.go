// Package roles maps a role to its static permission profile. The table
// is closed: resolving anything outside it fails, it never defaults.
package roles

import (
	"errors"
	"fmt"

	"catatuang/api/internal/models"
)

var ErrUnknownRole = errors.New("unknown role")

type Capability string

const (
	CapManageUsers        Capability = "manage_users"
	CapViewReports        Capability = "view_reports"
	CapSystemSettings     Capability = "system_settings"
	CapManageContent      Capability = "manage_content"
	CapViewAnalytics      Capability = "view_analytics"
	CapExportData         Capability = "export_data"
	CapViewTransactions   Capability = "view_transactions"
	CapSubmitTransactions Capability = "submit_transactions"
	CapViewSummary        Capability = "view_summary"
	CapUpdateProfile      Capability = "update_profile"
)

type Profile struct {
	Role        models.Role
	DisplayName string
	Permissions map[Capability]struct{}
	LandingPage string
}

var profiles = map[models.Role]Profile{
	models.RoleAdmin: {
		Role:        models.RoleAdmin,
		DisplayName: "Administrator",
		Permissions: capSet(
			CapManageUsers,
			CapViewReports,
			CapSystemSettings,
			CapManageContent,
			CapViewAnalytics,
			CapExportData,
			CapViewTransactions,
			CapSubmitTransactions,
			CapViewSummary,
			CapUpdateProfile,
		),
		LandingPage: "/admin/dashboard",
	},
	models.RoleUser: {
		Role:        models.RoleUser,
		DisplayName: "User",
		Permissions: capSet(
			CapViewTransactions,
			CapSubmitTransactions,
			CapViewSummary,
			CapUpdateProfile,
		),
		LandingPage: "/dashboard",
	},
}

func capSet(caps ...Capability) map[Capability]struct{} {
	set := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// Resolve returns the profile for role. Unknown roles, including the
// empty string or padded variants, are an error.
func Resolve(role models.Role) (Profile, error) {
	profile, ok := profiles[role]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	return profile, nil
}

// Can reports whether role holds capability. Unresolvable roles hold
// nothing.
func Can(role models.Role, capability Capability) bool {
	profile, err := Resolve(role)
	if err != nil {
		return false
	}
	_, ok := profile.Permissions[capability]
	return ok
}

// LandingPageFor returns the post-login destination for role.
func LandingPageFor(role models.Role) (string, error) {
	profile, err := Resolve(role)
	if err != nil {
		return "", err
	}
	return profile.LandingPage, nil
}
