// Package page holds the per-route presentation metadata of the web app.
package page

import (
	"fmt"
	"strings"
)

type Route string

const (
	SignIn         Route = "sign-in"
	SignUp         Route = "sign-up"
	ResetPassword  Route = "reset-password"
	Dashboard      Route = "dashboard"
	Resources      Route = "resources"
	ResourceDetail Route = "resource-detail"
	Profile        Route = "profile"
	Users          Route = "users"
	NotFound       Route = "not-found"
)

// ColorGroup is the theme palette a page is drawn with.
type ColorGroup string

const (
	ColorPrimary   ColorGroup = "primary"
	ColorSecondary ColorGroup = "secondary"
	ColorNeutral   ColorGroup = "neutral"
	ColorDanger    ColorGroup = "danger"
)

type Descriptor struct {
	Route           Route      `json:"route"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Icon            string     `json:"icon"`
	ThemeColorGroup ColorGroup `json:"theme_color_group"`
}

const appName = "TutorCraft"

var descriptors = map[Route]Descriptor{
	SignIn: {
		Title:           "Sign in",
		Description:     "Sign in to your tutor account.",
		Icon:            "/static/icons/lock.svg",
		ThemeColorGroup: ColorNeutral,
	},
	SignUp: {
		Title:           "Create an account",
		Description:     "Join TutorCraft and start sharing teaching resources.",
		Icon:            "/static/icons/user-plus.svg",
		ThemeColorGroup: ColorNeutral,
	},
	ResetPassword: {
		Title:           "Reset password",
		Description:     "Choose a new password for your account.",
		Icon:            "/static/icons/key.svg",
		ThemeColorGroup: ColorNeutral,
	},
	Dashboard: {
		Title:           "Dashboard",
		Description:     "Overview of your tutoring activity.",
		Icon:            "/static/icons/home.svg",
		ThemeColorGroup: ColorPrimary,
	},
	Resources: {
		Title:           "ResourceHub",
		Description:     "Browse, upload and share teaching resources.",
		Icon:            "/static/icons/folder.svg",
		ThemeColorGroup: ColorSecondary,
	},
	ResourceDetail: {
		Title:           "Resource",
		Description:     "Details of a teaching resource.",
		Icon:            "/static/icons/file.svg",
		ThemeColorGroup: ColorSecondary,
	},
	Profile: {
		Title:           "Profile",
		Description:     "Edit your personal details and subjects.",
		Icon:            "/static/icons/user.svg",
		ThemeColorGroup: ColorPrimary,
	},
	Users: {
		Title:           "Users",
		Description:     "Manage tutor and admin accounts.",
		Icon:            "/static/icons/users.svg",
		ThemeColorGroup: ColorPrimary,
	},
	NotFound: {
		Title:           "Page not found",
		Description:     "The page you are looking for does not exist.",
		Icon:            "/static/icons/alert.svg",
		ThemeColorGroup: ColorDanger,
	},
}

// Metadata returns the descriptor of route; unknown routes get the not-found page.
func Metadata(route Route) Descriptor {
	d, ok := descriptors[route]
	if !ok {
		route = NotFound
		d = descriptors[NotFound]
	}
	d.Route = route
	return d
}

// FullTitle is the document title: "<page title> | TutorCraft".
func (d Descriptor) FullTitle() string {
	return fmt.Sprintf("%s | %s", d.Title, appName)
}

// Routes lists every known route.
func Routes() []Route {
	return []Route{SignIn, SignUp, ResetPassword, Dashboard, Resources, ResourceDetail, Profile, Users, NotFound}
}

// Resolve maps a path of the web app (e.g. "/resources/42") to its route.
func Resolve(path string) Route {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case parts[0] == "":
		return Dashboard
	case parts[0] == string(Resources) && len(parts) == 2 && parts[1] != "":
		return ResourceDetail
	case len(parts) > 1:
		return NotFound
	}
	if _, ok := descriptors[Route(parts[0])]; ok && Route(parts[0]) != ResourceDetail {
		return Route(parts[0])
	}
	return NotFound
}
