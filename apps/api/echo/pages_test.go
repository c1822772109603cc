package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorcraft/tutorcraft/core/page"
)

func TestPageMetadata(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		wantRoute page.Route
		wantTitle string
	}{
		{name: "resources", path: "/api/pages/resources", wantRoute: page.Resources, wantTitle: "ResourceHub"},
		{name: "sign in", path: "/api/pages/sign-in", wantRoute: page.SignIn, wantTitle: "Sign in"},
		{name: "unknown", path: "/api/pages/settings", wantRoute: page.NotFound, wantTitle: "Page not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, httpTest{method: http.MethodGet, path: tt.path, wantCode: http.StatusOK})
			var got page.Descriptor
			decode(t, rec, &got)
			assert.Equal(t, tt.wantRoute, got.Route)
			assert.Equal(t, tt.wantTitle, got.Title)
			assert.NotEmpty(t, got.Description)
			assert.NotEmpty(t, got.ThemeColorGroup)
		})
	}

	rec := do(t, httpTest{method: http.MethodGet, path: "/api/pages", wantCode: http.StatusOK})
	var all []page.Descriptor
	decode(t, rec, &all)
	require.Len(t, all, len(page.Routes()))
	for i, route := range page.Routes() {
		assert.Equal(t, route, all[i].Route)
	}
}

func TestAppShell(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantCode   int
		wantTitle  string
		wantRoute  page.Route
		wantColors page.ColorGroup
	}{
		{name: "root", path: "/app", wantCode: http.StatusOK, wantTitle: "Dashboard | TutorCraft", wantRoute: page.Dashboard, wantColors: page.ColorPrimary},
		{name: "trailing slash", path: "/app/", wantCode: http.StatusOK, wantTitle: "Dashboard | TutorCraft", wantRoute: page.Dashboard, wantColors: page.ColorPrimary},
		{name: "library", path: "/app/resources", wantCode: http.StatusOK, wantTitle: "ResourceHub | TutorCraft", wantRoute: page.Resources, wantColors: page.ColorSecondary},
		{name: "detail", path: "/app/resources/42", wantCode: http.StatusOK, wantTitle: "Resource | TutorCraft", wantRoute: page.ResourceDetail, wantColors: page.ColorSecondary},
		{name: "detail route is not addressable", path: "/app/resource-detail", wantCode: http.StatusNotFound, wantTitle: "Page not found | TutorCraft", wantRoute: page.NotFound, wantColors: page.ColorDanger},
		{name: "unknown", path: "/app/users/1/edit", wantCode: http.StatusNotFound, wantTitle: "Page not found | TutorCraft", wantRoute: page.NotFound, wantColors: page.ColorDanger},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, tt.path)
			app.ServeHTTP(rec, req)
			require.Equal(t, tt.wantCode, rec.Code)

			body := rec.Body.String()
			assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
			assert.Contains(t, body, "<title>"+tt.wantTitle+"</title>")
			assert.Contains(t, body, `data-route="`+string(tt.wantRoute)+`"`)
			assert.Contains(t, body, `<meta name="theme-color-group" content="`+string(tt.wantColors)+`">`)
		})
	}
}
