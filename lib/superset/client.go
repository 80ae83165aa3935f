package supersethandler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"superset-embed-gateway/lib/metrics"
	supersetapimodels "superset-embed-gateway/models/api/superset"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	loginPath      string = "%v/api/v1/security/login"
	guestTokenPath string = "%v/api/v1/security/guest_token/"

	provider string = "db"

	csrfHeader string = "X-CSRFToken"
	csrfClaim  string = "csrf"
)

// one client for all broker calls
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          10,
			IdleConnTimeout:       300 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

type client struct {
	host              string
	httpClient        *http.Client
	loginTimeout      time.Duration
	guestTokenTimeout time.Duration
}

// login authenticates as the configured admin and returns the access token with
// the CSRF claim read from its (unverified) payload.
func (c client) login(ctx context.Context, username, password string) (Session, error) {
	url := fmt.Sprintf(loginPath, c.host)
	logger := log.WithField("url", url)
	logger.Info("superset api login for admin session")

	ctx, cancel := context.WithTimeout(ctx, c.loginTimeout)
	defer cancel()

	started := time.Now()
	status, body, err := c.postJSON(ctx, url, nil, supersetapimodels.SupersetLoginReq{
		Username: username,
		Password: password,
		Provider: provider,
	})
	if err != nil {
		brokerErr := transportError(err, "login")
		recordOutcome(metrics.EndpointLogin, brokerErr, started)
		logger.WithError(err).Error(brokerErr.Message)
		return Session{}, brokerErr
	}
	logger = logger.WithField("status", status)
	logger.WithField("body", string(body)).Debug("superset login response")

	if !isSuccess(status) {
		brokerErr := newError(KindUpstreamAuth, status, nil,
			"Superset API login failed (%d): %s", status, upstreamDetail(body))
		recordOutcome(metrics.EndpointLogin, brokerErr, started)
		logger.Error(brokerErr.Message)
		return Session{}, brokerErr
	}

	var resp supersetapimodels.SupersetLoginResp
	if err := json.Unmarshal(body, &resp); err != nil {
		brokerErr := protocolError(errors.Wrap(err, "decoding login response"),
			"Failed to authenticate with Superset API (invalid response body)")
		recordOutcome(metrics.EndpointLogin, brokerErr, started)
		logger.WithError(err).Error(brokerErr.Message)
		return Session{}, brokerErr
	}
	if resp.AccessToken == "" {
		brokerErr := protocolError(nil, "Failed to authenticate with Superset API (access_token missing)")
		recordOutcome(metrics.EndpointLogin, brokerErr, started)
		logger.Error(brokerErr.Message)
		return Session{}, brokerErr
	}

	csrfToken, err := extractCSRF(resp.AccessToken)
	if err != nil {
		recordOutcome(metrics.EndpointLogin, err, started)
		logger.WithError(err).Error("csrf extraction failed")
		return Session{}, err
	}

	recordOutcome(metrics.EndpointLogin, nil, started)
	logger.Info("obtained superset access token and csrf claim")
	return Session{
		AccessToken: resp.AccessToken,
		CSRFToken:   csrfToken,
	}, nil
}

// extractCSRF reads the csrf claim without verifying the signature.
func extractCSRF(accessToken string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return "", protocolError(errors.Wrap(err, "parsing access token"), "Failed to decode access token")
	}
	csrf, _ := claims[csrfClaim].(string)
	if csrf == "" {
		return "", protocolError(nil, "CSRF claim missing in access token")
	}
	return csrf, nil
}

func (c client) guestToken(ctx context.Context, session Session, payload supersetapimodels.SupersetGuestTokenReq) (string, error) {
	url := fmt.Sprintf(guestTokenPath, c.host)
	logger := log.
		WithField("url", url).
		WithField("guest_username", payload.User.Username)
	logger.
		WithField("access_token", prefix(session.AccessToken)).
		WithField("csrf_token", prefix(session.CSRFToken)).
		Debug("using admin session for guest token")
	logger.WithField("payload", payload).Info("requesting superset guest token")

	ctx, cancel := context.WithTimeout(ctx, c.guestTokenTimeout)
	defer cancel()

	headers := map[string]string{
		"Authorization": "Bearer " + session.AccessToken,
		csrfHeader:      session.CSRFToken,
	}
	started := time.Now()
	status, body, err := c.postJSON(ctx, url, headers, payload)
	if err != nil {
		brokerErr := transportError(err, "guest token")
		recordOutcome(metrics.EndpointGuestToken, brokerErr, started)
		logger.WithError(err).Error(brokerErr.Message)
		return "", brokerErr
	}
	logger = logger.WithField("status", status)
	logger.WithField("body", truncate(string(body), 500)).Debug("superset guest token response")

	if !isSuccess(status) {
		brokerErr := newError(KindUpstreamRequest, status, nil,
			"Superset API guest token request failed (%d): %s", status, upstreamDetail(body))
		recordOutcome(metrics.EndpointGuestToken, brokerErr, started)
		logger.Error(brokerErr.Message)
		return "", brokerErr
	}

	var resp supersetapimodels.SupersetGuestTokenResp
	if err := json.Unmarshal(body, &resp); err != nil || resp.Token == "" {
		brokerErr := protocolError(err, "Guest token missing in Superset response body")
		recordOutcome(metrics.EndpointGuestToken, brokerErr, started)
		logger.Error(brokerErr.Message)
		return "", brokerErr
	}

	recordOutcome(metrics.EndpointGuestToken, nil, started)
	logger.Info("obtained superset guest token")
	return resp.Token, nil
}

func (c client) postJSON(ctx context.Context, url string, headers map[string]string, payload interface{}) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, errors.Wrap(err, "marshalling payload")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, errors.Wrap(err, "creating request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, respBody, nil
}

// upstreamDetail renders the Superset error envelope. Field errors
// ({"message": {"rls": ["..."]}}) are flattened to "rls: a, b; user: c".
func upstreamDetail(body []byte) string {
	var envelope supersetapimodels.SupersetErrorResp
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Message == nil {
		return string(body)
	}
	switch m := envelope.Message.(type) {
	case string:
		return m
	case map[string]interface{}:
		fields := make([]string, 0, len(m))
		for field := range m {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		parts := make([]string, 0, len(fields))
		for _, field := range fields {
			parts = append(parts, fmt.Sprintf("%s: %s", field, joinMessages(m[field])))
		}
		return strings.Join(parts, "; ")
	default:
		return fmt.Sprint(m)
	}
}

func joinMessages(value interface{}) string {
	list, ok := value.([]interface{})
	if !ok {
		return fmt.Sprint(value)
	}
	msgs := make([]string, 0, len(list))
	for _, item := range list {
		msgs = append(msgs, fmt.Sprint(item))
	}
	return strings.Join(msgs, ", ")
}

func recordOutcome(endpoint string, err error, started time.Time) {
	outcome := metrics.OutcomeSuccess
	if brokerErr, ok := AsError(err); ok {
		switch {
		case brokerErr.Kind == KindUpstreamProtocol:
			outcome = metrics.OutcomeProtocol
		case brokerErr.StatusCode == http.StatusGatewayTimeout && brokerErr.Kind == KindUpstreamUnavailable:
			outcome = metrics.OutcomeTimeout
		case brokerErr.Kind == KindUpstreamUnavailable:
			outcome = metrics.OutcomeUnavailable
		default:
			outcome = metrics.OutcomeHTTPError
		}
	}
	metrics.RecordSupersetRequest(endpoint, outcome, time.Since(started))
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func prefix(token string) string {
	return truncate(token, 10) + "..."
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
