package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/accounts/internal/database"
	"github.com/example/accounts/internal/middleware"
	"github.com/example/accounts/internal/models"
	"github.com/example/accounts/internal/otp"
	"github.com/example/accounts/internal/services"
	"github.com/example/accounts/internal/store"
	"github.com/example/accounts/internal/token"
)

type smsRecorder struct {
	codes   []string
	mobiles []string
	fail    bool
}

func (s *smsRecorder) Send(ctx context.Context, mobile, text, code string) error {
	if s.fail {
		return errors.New("gateway down")
	}
	s.mobiles = append(s.mobiles, mobile)
	s.codes = append(s.codes, code)
	return nil
}

type emailRecorder struct {
	sent []services.Email
}

func (e *emailRecorder) Send(ctx context.Context, email services.Email) error {
	e.sent = append(e.sent, email)
	return nil
}

type testEnv struct {
	app    *fiber.App
	db     *gorm.DB
	store  *store.UserStore
	tokens *token.Service
	otp    *otp.Service
	sms    *smsRecorder
	email  *emailRecorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	env := &testEnv{
		db:     db,
		store:  store.NewUserStore(db),
		tokens: token.NewService("test-secret", time.Hour, 15*time.Minute),
		otp:    otp.NewService("otp-secret", 5*time.Minute),
		sms:    &smsRecorder{},
		email:  &emailRecorder{},
	}

	account := NewAccountHandler(env.store, env.tokens, env.otp, env.sms)
	password := NewPasswordHandler(env.store, env.tokens, env.email)
	users := NewUserHandler(env.store)

	app := fiber.New()
	app.Post("/user", account.Register)
	app.Post("/user/login", account.Login)
	app.Get("/user/forget/:mobile", password.ForgetPassword)
	app.Post("/user/forget", password.SetNewPassword)
	app.Get("/user/count", users.Count)
	app.Get("/user", users.Find)
	app.Patch("/user", users.UpdateAll)
	app.Get("/user/:id", users.FindByID)
	app.Patch("/user/:id", users.UpdateByID)
	app.Put("/user/:id", users.ReplaceByID)
	app.Delete("/user/:id", users.DeleteByID)
	app.Get("/user/:id/profile", users.GetProfile)
	app.Get("/user/:id/sessions", users.ListSessions)
	app.Get("/user/:id/roles", users.ListRoles)
	app.Get("/user/:id/tracks", users.ListTracks)
	app.Get("/user/:id/journals", users.ListJournals)

	protected := app.Group("", middleware.AuthMiddleware(env.tokens))
	protected.Get("/me", account.Me)
	protected.Post("/user/verify", account.VerifyOTP)
	protected.Post("/user/otp/refresh", account.RefreshOTP)

	env.app = app
	return env
}

func (env *testEnv) request(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (env *testEnv) postForm(t *testing.T, path, bearer string, form url.Values) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return env.request(t, req)
}

func (env *testEnv) get(t *testing.T, path, bearer string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return env.request(t, req)
}

func decodeJSON(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, out), "body: %s", body)
}

// register creates an account through the endpoint and returns the
// persisted user.
func (env *testEnv) register(t *testing.T, mobile, password string) models.User {
	t.Helper()
	resp := env.postForm(t, "/user", "", url.Values{
		"mobile":   {mobile},
		"email":    {mobile + "@example.com"},
		"name":     {"user-" + mobile},
		"password": {password},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var user models.User
	decodeJSON(t, resp, &user)
	return user
}

// login returns a session token for the registered account.
func (env *testEnv) login(t *testing.T, mobile, password string) string {
	t.Helper()
	resp := env.postForm(t, "/user/login", "", url.Values{
		"mobile":   {mobile},
		"password": {password},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Token string `json:"token"`
	}
	decodeJSON(t, resp, &body)
	require.NotEmpty(t, body.Token)
	return body.Token
}

func (env *testEnv) credential(t *testing.T, user models.User) *models.Credential {
	t.Helper()
	credential, err := env.store.FindCredentialByUserID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, credential)
	return credential
}
