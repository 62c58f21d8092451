package handlers

import (
	"net/url"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/accounts/internal/models"
	"github.com/example/accounts/internal/utils"
)

func TestRegisterCreatesUserAndCredential(t *testing.T) {
	env := newTestEnv(t)

	user := env.register(t, "0123456789", "secret-pass")
	assert.Equal(t, "0123456789", user.Mobile)
	assert.False(t, user.Verified)

	var credentials []models.Credential
	require.NoError(t, env.db.Where("user_id = ?", user.ID).Find(&credentials).Error)
	require.Len(t, credentials, 1, "exactly one credential per user")
	assert.True(t, utils.CheckPassword(credentials[0].Password, "secret-pass"))
	require.NotNil(t, credentials[0].TokenCreatedAt, "OTP issuance instant must be recorded")

	require.Len(t, env.sms.codes, 1)
	assert.Equal(t, []string{"0123456789"}, env.sms.mobiles)
	assert.Equal(t, env.otp.Code(*credentials[0].TokenCreatedAt), env.sms.codes[0])
}

func TestRegisterDuplicateMobile(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "0123456789", "secret-pass")

	resp := env.postForm(t, "/user", "", url.Values{
		"mobile":   {"0123456789"},
		"email":    {"other@example.com"},
		"name":     {"other"},
		"password": {"other-pass"},
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	count, err := env.store.Count(nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count, "no second user row")
}

func TestRegisterSurvivesSMSFailure(t *testing.T) {
	env := newTestEnv(t)
	env.sms.fail = true

	user := env.register(t, "0123456789", "secret-pass")
	assert.NotNil(t, env.credential(t, user), "credential committed despite delivery failure")
}

func TestRegisterMissingFields(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postForm(t, "/user", "", url.Values{"mobile": {"0123456789"}})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestLoginIssuesTokenForOwner(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "0123456789", "secret-pass")

	sessionToken := env.login(t, "0123456789", "secret-pass")

	profile, err := env.tokens.Parse(sessionToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, profile.ID)
	assert.Equal(t, "0123456789", profile.Mobile)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "0123456789", "secret-pass")

	resp := env.postForm(t, "/user/login", "", url.Values{
		"mobile":   {"0123456789"},
		"password": {"wrong"},
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = env.postForm(t, "/user/login", "", url.Values{
		"mobile":   {"9999999999"},
		"password": {"secret-pass"},
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestLoginRecordsSession(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "0123456789", "secret-pass")
	env.login(t, "0123456789", "secret-pass")

	sessions, err := env.store.FindSessionsByUserID(user.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "0123456789", "secret-pass")
	sessionToken := env.login(t, "0123456789", "secret-pass")

	resp := env.get(t, "/me", sessionToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var profile struct {
		ID     string `json:"id"`
		Mobile string `json:"mobile"`
	}
	decodeJSON(t, resp, &profile)
	assert.Equal(t, user.ID.String(), profile.ID)
	assert.Equal(t, "0123456789", profile.Mobile)
}

func TestMeRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/me", "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = env.get(t, "/me", "garbage")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestVerifyOTPSuccess(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "0123456789", "secret-pass")
	sessionToken := env.login(t, "0123456789", "secret-pass")

	credential := env.credential(t, user)
	code := env.otp.Code(*credential.TokenCreatedAt)

	resp := env.postForm(t, "/user/verify", sessionToken, url.Values{"otp": {code}})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var returned models.User
	decodeJSON(t, resp, &returned)
	assert.Equal(t, user.ID, returned.ID)

	reloaded, err := env.store.FindByID(user.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Verified)

	assert.Nil(t, env.credential(t, user).TokenCreatedAt, "pending code consumed")
}

func TestVerifyOTPExpired(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "0123456789", "secret-pass")
	sessionToken := env.login(t, "0123456789", "secret-pass")

	stale := time.Now().UTC().Add(-10 * time.Minute)
	require.NoError(t, env.db.Model(&models.Credential{}).
		Where("user_id = ?", user.ID).
		Update("token_created_at", stale).Error)

	// The code value is correct for the stale instant; expiry must win.
	resp := env.postForm(t, "/user/verify", sessionToken, url.Values{"otp": {env.otp.Code(stale)}})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestVerifyOTPWrongCode(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "0123456789", "secret-pass")
	sessionToken := env.login(t, "0123456789", "secret-pass")

	resp := env.postForm(t, "/user/verify", sessionToken, url.Values{"otp": {"000000"}})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestVerifyOTPWithoutPendingCode(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "0123456789", "secret-pass")
	sessionToken := env.login(t, "0123456789", "secret-pass")

	credential := env.credential(t, user)
	code := env.otp.Code(*credential.TokenCreatedAt)
	resp := env.postForm(t, "/user/verify", sessionToken, url.Values{"otp": {code}})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Replay after consumption: no issuance instant left to verify against.
	resp = env.postForm(t, "/user/verify", sessionToken, url.Values{"otp": {code}})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRefreshOTP(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "0123456789", "secret-pass")
	sessionToken := env.login(t, "0123456789", "secret-pass")

	before := *env.credential(t, user).TokenCreatedAt

	time.Sleep(2 * time.Millisecond)
	resp := env.postForm(t, "/user/otp/refresh", sessionToken, url.Values{})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Refresh bool `json:"refresh"`
	}
	decodeJSON(t, resp, &body)
	assert.True(t, body.Refresh)

	after := env.credential(t, user).TokenCreatedAt
	require.NotNil(t, after)
	assert.True(t, after.After(before), "fresh issuance instant replaces the old one")
	require.Len(t, env.sms.codes, 2)
	assert.Equal(t, env.otp.Code(*after), env.sms.codes[1])
}
