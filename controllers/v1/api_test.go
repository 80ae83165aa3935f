package apiv1

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"superset-embed-gateway/config"
	"superset-embed-gateway/lib/credentials"
	supersethandler "superset-embed-gateway/lib/superset"
	authutils "superset-embed-gateway/lib/utils/auth-utils"
	"superset-embed-gateway/models"
	supersetapimodels "superset-embed-gateway/models/api/superset"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeBroker struct {
	token            string
	err              error
	lastUserID       string
	lastManufacturer string
}

func (f *fakeBroker) GetAdminSession(ctx context.Context) (supersethandler.Session, error) {
	return supersethandler.Session{}, nil
}

func (f *fakeBroker) IssueGuestToken(ctx context.Context, req supersetapimodels.SupersetGuestTokenReq) (string, error) {
	return f.token, f.err
}

func (f *fakeBroker) GuestTokenFull(ctx context.Context, userID string) (string, error) {
	f.lastUserID = userID
	return f.token, f.err
}

func (f *fakeBroker) GuestTokenRLS(ctx context.Context, manufacturer string) (string, error) {
	f.lastManufacturer = manufacturer
	return f.token, f.err
}

type fakeProbe struct {
	err error
}

func (f fakeProbe) Ping(ctx context.Context) error {
	return f.err
}

func authConf(sessionEnabled bool) config.AuthConfig {
	return config.AuthConfig{
		SessionEnabled: &sessionEnabled,
		JWTSecret:      "session-secret",
		JWTExpireInSec: 600,
	}
}

func newTestApp(t *testing.T, broker *fakeBroker, sessionEnabled bool) *fiber.App {
	conf := &config.Configuration{}
	conf.Auth = authConf(sessionEnabled)
	config.Conf = conf
	credentials.Instance = credentials.NewInstance(
		config.AdminCredential{Username: "admin", Password: "admin"},
		map[string]string{"Cipla Ltd": "cipla", "Lupin Ltd": "lupin"},
	)
	supersethandler.Instance = broker
	t.Cleanup(func() {
		config.Conf = nil
		credentials.Instance = nil
		supersethandler.Instance = nil
	})

	app := fiber.New()
	InitAuthApiRouters(app, conf.Auth)
	InitGuestTokenApiRouters(app, conf.Auth)
	return app
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]interface{}) {
	resp, err := app.Test(req)
	require.Nil(t, err)
	body, err := io.ReadAll(resp.Body)
	require.Nil(t, err)
	payload := map[string]interface{}{}
	if len(body) > 0 {
		require.Nil(t, json.Unmarshal(body, &payload), string(body))
	}
	return resp.StatusCode, payload
}

func loginRequest(username, password string) *http.Request {
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req := httptest.NewRequest(fiber.MethodPost, "/login", strings.NewReader(string(body)))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func sessionToken(t *testing.T, identifier string, userType models.UserType) string {
	token, err := authutils.GetToken(identifier, userType)
	require.Nil(t, err)
	return token
}

func TestLogin(t *testing.T) {
	t.Run(`admin`, func(t *testing.T) {
		app := newTestApp(t, &fakeBroker{}, false)
		status, body := doRequest(t, app, loginRequest("admin", "admin"))
		require.Equal(t, fiber.StatusOK, status)
		require.Equal(t, map[string]interface{}{
			"message":         "Login successful",
			"user_type":       "admin",
			"user_identifier": "admin",
		}, body)
	})

	t.Run(`manufacturer`, func(t *testing.T) {
		app := newTestApp(t, &fakeBroker{}, false)
		status, body := doRequest(t, app, loginRequest("Cipla Ltd", "cipla"))
		require.Equal(t, fiber.StatusOK, status)
		require.Equal(t, "manufacturer", body["user_type"])
		require.Equal(t, "Cipla Ltd", body["user_identifier"])
	})

	t.Run(`wrong password and unknown user look the same`, func(t *testing.T) {
		app := newTestApp(t, &fakeBroker{}, false)
		status, wrongPassword := doRequest(t, app, loginRequest("Cipla Ltd", "nope"))
		require.Equal(t, fiber.StatusUnauthorized, status)
		status, unknownUser := doRequest(t, app, loginRequest("Nobody", "cipla"))
		require.Equal(t, fiber.StatusUnauthorized, status)
		require.Equal(t, wrongPassword, unknownUser)
		require.Equal(t, "Invalid Username or Password", wrongPassword["detail"])
	})

	t.Run(`malformed body`, func(t *testing.T) {
		app := newTestApp(t, &fakeBroker{}, false)
		req := httptest.NewRequest(fiber.MethodPost, "/login", strings.NewReader("{"))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		status, body := doRequest(t, app, req)
		require.Equal(t, fiber.StatusBadRequest, status)
		require.NotEmpty(t, body["detail"])
	})

	t.Run(`session token issued when enabled`, func(t *testing.T) {
		app := newTestApp(t, &fakeBroker{}, true)
		status, body := doRequest(t, app, loginRequest("Lupin Ltd", "lupin"))
		require.Equal(t, fiber.StatusOK, status)
		require.NotEmpty(t, body["access_token"])
	})
}

func TestGuestTokenRLS(t *testing.T) {
	t.Run(`manufacturer required`, func(t *testing.T) {
		broker := &fakeBroker{token: "t"}
		app := newTestApp(t, broker, false)
		status, body := doRequest(t, app, httptest.NewRequest(fiber.MethodGet, "/get-guest-token-rls", nil))
		require.Equal(t, fiber.StatusBadRequest, status)
		require.Equal(t, "Manufacturer name is required for RLS token", body["detail"])
		require.Equal(t, "", broker.lastManufacturer)
	})

	t.Run(`token returned`, func(t *testing.T) {
		broker := &fakeBroker{token: "guest-token"}
		app := newTestApp(t, broker, false)
		status, body := doRequest(t, app, httptest.NewRequest(fiber.MethodGet,
			"/get-guest-token-rls?manufacturer=Sun%20Pharmaceutical%20Industries%20Ltd", nil))
		require.Equal(t, fiber.StatusOK, status)
		require.Equal(t, map[string]interface{}{"token": "guest-token"}, body)
		require.Equal(t, "Sun Pharmaceutical Industries Ltd", broker.lastManufacturer)
	})

	t.Run(`broker status passes through`, func(t *testing.T) {
		broker := &fakeBroker{err: &supersethandler.Error{
			Kind:       supersethandler.KindUpstreamUnavailable,
			StatusCode: fiber.StatusGatewayTimeout,
			Message:    "Timeout connecting to Superset API guest token.",
		}}
		app := newTestApp(t, broker, false)
		status, body := doRequest(t, app, httptest.NewRequest(fiber.MethodGet, "/get-guest-token-rls?manufacturer=Cipla%20Ltd", nil))
		require.Equal(t, fiber.StatusGatewayTimeout, status)
		require.Equal(t, "Timeout connecting to Superset API guest token.", body["detail"])
	})

	t.Run(`unexpected error is a generic 500`, func(t *testing.T) {
		broker := &fakeBroker{err: errors.New("boom")}
		app := newTestApp(t, broker, false)
		status, body := doRequest(t, app, httptest.NewRequest(fiber.MethodGet, "/get-guest-token-rls?manufacturer=Cipla%20Ltd", nil))
		require.Equal(t, fiber.StatusInternalServerError, status)
		require.Equal(t, "Internal server error generating RLS token", body["detail"])
	})

	t.Run(`session required when enabled`, func(t *testing.T) {
		app := newTestApp(t, &fakeBroker{token: "t"}, true)
		status, body := doRequest(t, app, httptest.NewRequest(fiber.MethodGet, "/get-guest-token-rls?manufacturer=Cipla%20Ltd", nil))
		require.Equal(t, fiber.StatusUnauthorized, status)
		require.NotEmpty(t, body["detail"])
	})

	t.Run(`manufacturer session limited to itself`, func(t *testing.T) {
		app := newTestApp(t, &fakeBroker{token: "t"}, true)
		token := sessionToken(t, "Cipla Ltd", models.UserTypeManufacturer)

		req := httptest.NewRequest(fiber.MethodGet, "/get-guest-token-rls?manufacturer=Lupin%20Ltd", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		status, _ := doRequest(t, app, req)
		require.Equal(t, fiber.StatusForbidden, status)

		req = httptest.NewRequest(fiber.MethodGet, "/get-guest-token-rls?manufacturer=Cipla%20Ltd", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		status, _ = doRequest(t, app, req)
		require.Equal(t, fiber.StatusOK, status)
	})
}

func TestGuestTokenFull(t *testing.T) {
	t.Run(`default user id`, func(t *testing.T) {
		broker := &fakeBroker{token: "full-token"}
		app := newTestApp(t, broker, false)
		status, body := doRequest(t, app, httptest.NewRequest(fiber.MethodGet, "/get-guest-token-full", nil))
		require.Equal(t, fiber.StatusOK, status)
		require.Equal(t, "full-token", body["token"])
		require.Equal(t, "default_full_user", broker.lastUserID)
	})

	t.Run(`explicit user id`, func(t *testing.T) {
		broker := &fakeBroker{token: "full-token"}
		app := newTestApp(t, broker, false)
		status, _ := doRequest(t, app, httptest.NewRequest(fiber.MethodGet, "/get-guest-token-full?user_id=admin", nil))
		require.Equal(t, fiber.StatusOK, status)
		require.Equal(t, "admin", broker.lastUserID)
	})

	t.Run(`empty user id is not replaced`, func(t *testing.T) {
		broker := &fakeBroker{token: "full-token"}
		app := newTestApp(t, broker, false)
		status, _ := doRequest(t, app, httptest.NewRequest(fiber.MethodGet, "/get-guest-token-full?user_id=", nil))
		require.Equal(t, fiber.StatusOK, status)
		require.Equal(t, "", broker.lastUserID)
	})

	t.Run(`upstream field errors pass through`, func(t *testing.T) {
		broker := &fakeBroker{err: &supersethandler.Error{
			Kind:       supersethandler.KindUpstreamRequest,
			StatusCode: fiber.StatusBadRequest,
			Message:    "Superset API guest token request failed (400): rls: bad clause",
		}}
		app := newTestApp(t, broker, false)
		status, body := doRequest(t, app, httptest.NewRequest(fiber.MethodGet, "/get-guest-token-full", nil))
		require.Equal(t, fiber.StatusBadRequest, status)
		require.Equal(t, "Superset API guest token request failed (400): rls: bad clause", body["detail"])
	})

	t.Run(`admin session required when enabled`, func(t *testing.T) {
		app := newTestApp(t, &fakeBroker{token: "t"}, true)

		req := httptest.NewRequest(fiber.MethodGet, "/get-guest-token-full", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+sessionToken(t, "Cipla Ltd", models.UserTypeManufacturer))
		status, _ := doRequest(t, app, req)
		require.Equal(t, fiber.StatusForbidden, status)

		req = httptest.NewRequest(fiber.MethodGet, "/get-guest-token-full", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+sessionToken(t, "admin", models.UserTypeAdmin))
		status, _ = doRequest(t, app, req)
		require.Equal(t, fiber.StatusOK, status)
	})
}

func TestHealth(t *testing.T) {
	t.Run(`without probe`, func(t *testing.T) {
		app := fiber.New()
		InitHealthApiRouters(app, nil)
		status, body := doRequest(t, app, httptest.NewRequest(fiber.MethodGet, "/healthz", nil))
		require.Equal(t, fiber.StatusOK, status)
		require.Equal(t, "ok", body["status"])
	})

	t.Run(`failing probe`, func(t *testing.T) {
		app := fiber.New()
		InitHealthApiRouters(app, fakeProbe{err: errors.New("refused")})
		status, body := doRequest(t, app, httptest.NewRequest(fiber.MethodGet, "/healthz", nil))
		require.Equal(t, fiber.StatusServiceUnavailable, status)
		require.Equal(t, "Metadata database unavailable", body["detail"])
	})
}
