package echoapi_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/tutorcraft/tutorcraft/apps/api/echo"
	"github.com/tutorcraft/tutorcraft/core/table"
	"github.com/tutorcraft/tutorcraft/core/user"
	"github.com/tutorcraft/tutorcraft/internal/testutil"
)

type usersFixture struct {
	ada, ann, bob, cid user.User
	adminToken         string
	tutorToken         string
}

func setupUsers(t *testing.T) usersFixture {
	reset(t)
	now := time.Now().UTC()
	f := usersFixture{
		ada: testutil.CreateUser(t, usrRepo, "Ada Admin", "ada@tutorcraft.test", goodPwd, []string{user.RoleAdmin}, true, now.Add(-4*time.Hour)),
		ann: testutil.CreateUser(t, usrRepo, "Ann Tutor", "ann@tutorcraft.test", goodPwd, []string{user.RoleTutor}, true, now.Add(-3*time.Hour)),
		bob: testutil.CreateUser(t, usrRepo, "Bob Tutor", "bob@tutorcraft.test", goodPwd, []string{user.RoleTutor}, false, now.Add(-2*time.Hour)),
		cid: testutil.CreateUser(t, usrRepo, "Cid Owner", "cid@tutorcraft.test", goodPwd, []string{user.RoleAdminOwner}, true, now.Add(-time.Hour)),
	}
	f.adminToken = getToken(t, f.ada)
	f.tutorToken = getToken(t, f.ann)
	return f
}

func rowNames(v echoapi.TableResponse) []string {
	names := make([]string, 0, len(v.Rows))
	for _, row := range v.Rows {
		names = append(names, row.Cells["name"])
	}
	return names
}

func TestUsersTable(t *testing.T) {
	f := setupUsers(t)

	tests := []struct {
		name      string
		query     string
		wantNames []string
		check     func(t *testing.T, v echoapi.TableResponse)
	}{
		{
			name:      "default",
			wantNames: []string{"Ada Admin", "Ann Tutor", "Bob Tutor", "Cid Owner"},
			check: func(t *testing.T, v echoapi.TableResponse) {
				assert.Equal(t, table.StateReady, v.State)
				assert.True(t, v.Selectable)
				assert.False(t, v.Exportable)
				require.NotNil(t, v.Pagination)
				assert.Equal(t, 4, v.Pagination.Total)
				assert.False(t, v.Pagination.Visible)
				require.Len(t, v.Filters, 2)
				assert.Nil(t, v.Filters[0].Value)
				assert.Equal(t, "Admin", v.Rows[0].Cells["roles"])
				assert.Equal(t, "No", v.Rows[2].Cells["is_active"])
				assert.Equal(t, "Never", v.Rows[0].Cells["last_login"])
			},
		},
		{
			name:      "search",
			query:     "search=CID",
			wantNames: []string{"Cid Owner"},
			check: func(t *testing.T, v echoapi.TableResponse) {
				assert.Equal(t, "CID", v.Search)
			},
		},
		{
			name:      "role filter",
			query:     "role=" + user.RoleAdminOwner,
			wantNames: []string{"Cid Owner"},
			check: func(t *testing.T, v echoapi.TableResponse) {
				require.NotNil(t, v.Filters[0].Value)
				assert.Equal(t, user.RoleAdminOwner, *v.Filters[0].Value)
			},
		},
		{
			name:      "status filter",
			query:     "is_active=false",
			wantNames: []string{"Bob Tutor"},
		},
		{
			name:      "status filter and search",
			query:     "is_active=false&search=ann",
			wantNames: []string{},
		},
		{
			name:      "empty filter is ignored",
			query:     "role=",
			wantNames: []string{"Ada Admin", "Ann Tutor", "Bob Tutor", "Cid Owner"},
		},
		{
			name:      "order by name desc",
			query:     "order_by=name&direction=desc",
			wantNames: []string{"Cid Owner", "Bob Tutor", "Ann Tutor", "Ada Admin"},
			check: func(t *testing.T, v echoapi.TableResponse) {
				for _, h := range v.Headers {
					if h.Key == "name" {
						assert.True(t, h.Active)
						assert.Equal(t, "desc", h.Direction)
					} else {
						assert.False(t, h.Active)
					}
				}
			},
		},
		{
			name:      "ordering param",
			query:     "ordering=-roles",
			wantNames: []string{"Cid Owner", "Ada Admin", "Ann Tutor", "Bob Tutor"},
		},
		{
			name:      "paging",
			query:     "page_size=3&page=1",
			wantNames: []string{"Cid Owner"},
			check: func(t *testing.T, v echoapi.TableResponse) {
				require.NotNil(t, v.Pagination)
				assert.Equal(t, 1, v.Pagination.Page)
				assert.Equal(t, 2, v.Pagination.PageCount)
				assert.Equal(t, 4, v.Pagination.From)
				assert.True(t, v.Pagination.HasPrev)
				assert.False(t, v.Pagination.HasNext)
			},
		},
		{
			name:      "no results",
			query:     "search=zzz",
			wantNames: []string{},
			check: func(t *testing.T, v echoapi.TableResponse) {
				assert.Equal(t, table.StateEmpty, v.State)
				require.NotNil(t, v.Empty)
				assert.Equal(t, "No results", v.Empty.Title)
			},
		},
		{
			name:      "selection",
			query:     "selected=" + f.ann.ID + "," + f.bob.ID + ",unknown&search=ann",
			wantNames: []string{"Ann Tutor"},
			check: func(t *testing.T, v echoapi.TableResponse) {
				require.NotNil(t, v.Selection)
				assert.Equal(t, []string{f.ann.ID}, v.Selection.IDs)
				assert.True(t, v.Selection.AllSelected)
				assert.True(t, v.Rows[0].Selected)
			},
		},
		{
			name:      "select all",
			query:     "select_all=true&page_size=2",
			wantNames: []string{"Ada Admin", "Ann Tutor"},
			check: func(t *testing.T, v echoapi.TableResponse) {
				require.NotNil(t, v.Selection)
				assert.Equal(t, 4, v.Selection.Count)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, httpTest{method: http.MethodGet, path: "/api/users?" + tt.query, token: f.adminToken, wantCode: http.StatusOK})
			var got echoapi.TableResponse
			decode(t, rec, &got)
			assert.Equal(t, tt.wantNames, rowNames(got))
			if tt.check != nil {
				tt.check(t, got)
			}
		})
	}
}

func TestUsersTableErrors(t *testing.T) {
	f := setupUsers(t)

	tests := []struct {
		httpTest
		wantBody map[string]string
	}{
		{
			httpTest: httpTest{name: "no token", path: "/api/users", wantCode: http.StatusUnauthorized},
			wantBody: map[string]string{"error": errMissingToken.Error},
		},
		{
			httpTest: httpTest{name: "not admin", path: "/api/users", token: f.tutorToken, wantCode: http.StatusForbidden},
			wantBody: map[string]string{"error": "permission denied"},
		},
		{
			httpTest: httpTest{name: "unknown column", path: "/api/users?order_by=password", token: f.adminToken, wantCode: http.StatusBadRequest},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodGet
			rec := do(t, tt.httpTest)
			var got map[string]string
			decode(t, rec, &got)
			if tt.wantBody != nil {
				assert.Equal(t, tt.wantBody, got)
			} else {
				assert.Contains(t, got, "order_by")
			}
		})
	}
}

func TestUserRoles(t *testing.T) {
	f := setupUsers(t)

	rec := do(t, httpTest{method: http.MethodGet, path: "/api/users/roles", token: f.adminToken, wantCode: http.StatusOK})
	var got []user.Role
	decode(t, rec, &got)
	assert.Equal(t, user.Roles, got)
}

func TestUserCreate(t *testing.T) {
	f := setupUsers(t)

	tests := []struct {
		httpTest
		wantField string
	}{
		{
			httpTest: httpTest{
				name:     "role above own",
				body:     map[string]interface{}{"name": "Dan", "email": "dan@tutorcraft.test", "password": goodPwd, "password_confirm": goodPwd, "roles": []string{user.RoleAdminOwner}},
				wantCode: http.StatusBadRequest,
			},
			wantField: "roles",
		},
		{
			httpTest: httpTest{
				name:     "unknown role",
				body:     map[string]interface{}{"name": "Dan", "email": "dan@tutorcraft.test", "password": goodPwd, "password_confirm": goodPwd, "roles": []string{"wizard:"}},
				wantCode: http.StatusBadRequest,
			},
			wantField: "roles",
		},
		{
			httpTest: httpTest{
				name:     "success",
				body:     map[string]interface{}{"name": "Dan Tutor", "email": "dan@tutorcraft.test", "password": goodPwd, "password_confirm": goodPwd, "roles": []string{user.RoleTutor}},
				wantCode: http.StatusCreated,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodPost
			tt.path = "/api/users"
			tt.token = f.adminToken
			rec := do(t, tt.httpTest)

			if tt.wantField != "" {
				var fields map[string]string
				decode(t, rec, &fields)
				assert.Contains(t, fields, tt.wantField)
				return
			}
			var got user.User
			decode(t, rec, &got)
			assert.Equal(t, "dan@tutorcraft.test", got.Email)
			assert.True(t, got.IsTutor())
		})
	}
}

func TestUserDetail(t *testing.T) {
	f := setupUsers(t)

	tests := []httpTest{
		{name: "own account", method: http.MethodGet, path: "/api/users/" + f.ann.ID, token: f.tutorToken, wantCode: http.StatusOK},
		{name: "someone else", method: http.MethodGet, path: "/api/users/" + f.bob.ID, token: f.tutorToken, wantCode: http.StatusNotFound},
		{name: "admin", method: http.MethodGet, path: "/api/users/" + f.bob.ID, token: f.adminToken, wantCode: http.StatusOK},
		{name: "unknown", method: http.MethodGet, path: "/api/users/not-an-id", token: f.adminToken, wantCode: http.StatusNotFound},
		{name: "admin deactivates", method: http.MethodPut, path: "/api/users/" + f.ann.ID, token: f.adminToken, body: map[string]interface{}{"is_active": false}, wantCode: http.StatusOK},
		{name: "admin cannot grant owner", method: http.MethodPut, path: "/api/users/" + f.bob.ID, token: f.adminToken, body: map[string]interface{}{"roles": []string{user.RoleAdminOwner}}, wantCode: http.StatusBadRequest},
		{name: "email taken", method: http.MethodPut, path: "/api/users/" + f.bob.ID, token: f.adminToken, body: map[string]interface{}{"email": f.cid.Email}, wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			do(t, tt)
		})
	}

	ann, err := usrRepo.GetUserByID(context.Background(), f.ann.ID)
	require.NoError(t, err)
	assert.False(t, ann.IsActive)
	// the deactivated user is locked out with their old token
	do(t, httpTest{method: http.MethodGet, path: "/api/users/" + f.ann.ID, token: f.tutorToken, wantCode: http.StatusForbidden})
}

func TestUserDelete(t *testing.T) {
	f := setupUsers(t)

	tests := []httpTest{
		{name: "not admin", method: http.MethodDelete, path: "/api/users/" + f.ann.ID, token: f.tutorToken, wantCode: http.StatusForbidden},
		{name: "self", method: http.MethodDelete, path: "/api/users/" + f.ada.ID, token: f.adminToken, wantCode: http.StatusForbidden},
		{name: "higher role", method: http.MethodDelete, path: "/api/users/" + f.cid.ID, token: f.adminToken, wantCode: http.StatusForbidden},
		{name: "multiple with self", method: http.MethodDelete, path: "/api/users?id=" + f.bob.ID + "&id=" + f.ada.ID, token: f.adminToken, wantCode: http.StatusForbidden},
		{name: "success", method: http.MethodDelete, path: "/api/users/" + f.ann.ID, token: f.adminToken, wantCode: http.StatusNoContent},
		{name: "multiple", method: http.MethodDelete, path: "/api/users?id=" + f.bob.ID, token: f.adminToken, wantCode: http.StatusNoContent},
		{name: "nothing", method: http.MethodDelete, path: "/api/users", token: f.adminToken, wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			do(t, tt)
		})
	}

	users, err := usrRepo.QueryAllUsers(context.Background())
	require.NoError(t, err)
	emails := make([]string, 0, len(users))
	for _, usr := range users {
		emails = append(emails, usr.Email)
	}
	assert.ElementsMatch(t, []string{f.ada.Email, f.cid.Email}, emails)
}
