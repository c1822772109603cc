package echoapi_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/tutorcraft/tutorcraft/apps/api/echo"
	"github.com/tutorcraft/tutorcraft/core"
	"github.com/tutorcraft/tutorcraft/core/resource"
	"github.com/tutorcraft/tutorcraft/core/search"
	"github.com/tutorcraft/tutorcraft/core/user"
	"github.com/tutorcraft/tutorcraft/internal/testutil"
	emailsvc "github.com/tutorcraft/tutorcraft/services/email"
	"github.com/tutorcraft/tutorcraft/services/filestore"
	logsvc "github.com/tutorcraft/tutorcraft/services/logger"
	inmemdb "github.com/tutorcraft/tutorcraft/storage/database/inmem"
)

const goodPwd = "Tr1cky-Owl!"

var (
	conf     *core.Config
	app      *echoapi.Server
	auth     *echoapi.Auth
	db       *inmemdb.DB
	usrRepo  user.Repository
	resSvc   resource.Service
	mailSvc  *emailsvc.ConsoleServiceMock
	validate *validator.Validate

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func TestMain(m *testing.M) {
	root, err := os.MkdirTemp("", "tutorcraft-api-")
	if err != nil {
		fmt.Printf("os.MkdirTemp(): %v", err)
		os.Exit(1)
	}
	conf = core.NewTestConfig(root)
	logger := logsvc.NewDiscardLogger()

	// set up DB & repos
	db = inmemdb.Open()
	usrRepo = inmemdb.NewUserRepository(db)
	resRepo := inmemdb.NewResourceRepository(db)

	// set up services
	store, err := filestore.NewLocalStore(conf)
	if err != nil {
		fmt.Printf("filestore.NewLocalStore(): %v", err)
		os.Exit(1)
	}
	mailSvc = emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewService(conf, usrRepo, mailSvc, logger)
	resSvc = resource.NewService(conf, resRepo, store, logger)

	v, translator := testutil.NewValidator()
	validate = v

	// set up server
	app, err = echoapi.NewServer(conf, echoapi.Deps{
		Logger:      logger,
		UserSvc:     usrSvc,
		ResourceSvc: resSvc,
		Store:       store,
		Recent:      search.NewRecentStore(),
		Validate:    validate,
		Translator:  translator,
	})
	if err != nil {
		fmt.Printf("echoapi.NewServer(): %v", err)
		os.Exit(1)
	}
	auth = echoapi.NewAuth(conf)

	// run tests
	code := m.Run()

	// clean up
	if err = os.RemoveAll(root); err != nil {
		fmt.Printf("os.RemoveAll(): %v", err)
		os.Exit(1)
	}
	os.Exit(code)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     interface{}
	token    string
	wantCode int
}

// reset empties the database and the outbox between tests.
func reset(t *testing.T) {
	t.Helper()
	db.Reset()
	mailSvc.Reset()
}

func newAuthRequest(method, path, token string, data ...interface{}) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 && data[0] != nil {
		switch d := data[0].(type) {
		case []byte:
			body.Write(d)
		case string:
			body.WriteString(d)
		default:
			_ = json.NewEncoder(&body).Encode(d)
		}
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func newRequest(method, path string, data ...interface{}) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// do serves tt and checks its status code.
func do(t *testing.T, tt httpTest) *httptest.ResponseRecorder {
	t.Helper()
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	app.ServeHTTP(rec, req)
	require.Equal(t, tt.wantCode, rec.Code, "body: %s", rec.Body.String())
	return rec
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := auth.GenerateToken(auth.UserClaims(usr))
	require.NoError(t, err)
	return token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), "body: %s", rec.Body.String())
}

func createAdmin(t *testing.T) user.User {
	return testutil.CreateUser(t, usrRepo, "Ada Admin", "ada@tutorcraft.test", goodPwd, []string{user.RoleAdmin}, true)
}

func createTutor(t *testing.T, name, email string) user.User {
	return testutil.CreateUser(t, usrRepo, name, email, goodPwd, []string{user.RoleTutor}, true)
}

func TestHome(t *testing.T) {
	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to TutorCraft API!", rec.Body.String())
}

func TestUnknownRoute(t *testing.T) {
	req, rec := newRequest(http.MethodGet, "/api/nowhere")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var got httpErr
	decode(t, rec, &got)
	assert.NotEmpty(t, got.Error)
}
