package supersethandler

import (
	"context"
	"net/http"
	"time"

	"superset-embed-gateway/config"
	"superset-embed-gateway/lib/metrics"
	supersetapimodels "superset-embed-gateway/models/api/superset"

	log "github.com/sirupsen/logrus"
)

const (
	ScopeFull string = "full"
	ScopeRLS  string = "rls"
)

type Provider interface {
	// GetAdminSession returns a cached admin session or logs in to obtain a new one.
	GetAdminSession(ctx context.Context) (Session, error)
	// IssueGuestToken mints one guest token for an already built request. Never cached.
	IssueGuestToken(ctx context.Context, req supersetapimodels.SupersetGuestTokenReq) (string, error)
	GuestTokenFull(ctx context.Context, userID string) (string, error)
	GuestTokenRLS(ctx context.Context, manufacturer string) (string, error)
}

var Instance Provider

func NewHandler(supersetConf config.SupersetConfig, rlsConf config.RLSConfig) {
	Instance = NewInstance(supersetConf, rlsConf)
}

func NewInstance(supersetConf config.SupersetConfig, rlsConf config.RLSConfig) Provider {
	return newImpl(supersetConf, rlsConf)
}

func newImpl(supersetConf config.SupersetConfig, rlsConf config.RLSConfig) *impl {
	escapeQuotes := rlsConf.EscapeQuotes != nil && *rlsConf.EscapeQuotes
	return &impl{
		username: supersetConf.Username,
		password: supersetConf.Password,
		client: client{
			host:              supersetConf.Host,
			httpClient:        newHTTPClient(),
			loginTimeout:      seconds(supersetConf.LoginTimeoutSec, 10),
			guestTokenTimeout: seconds(supersetConf.GuestTokenTimeoutSec, 15),
		},
		sessions: NewSessionCache(
			seconds(supersetConf.SessionTTLSec, 3300),
			seconds(supersetConf.SessionMarginSec, 60),
		),
		builder: requestBuilder{
			dashboardID:   supersetConf.DashboardID,
			resourcesType: supersetConf.ResourcesType,
			rlsColumn:     rlsConf.ColumnName,
			datasetID:     rlsConf.DatasetID,
			escapeQuotes:  escapeQuotes,
			now:           time.Now,
		},
	}
}

type impl struct {
	username string
	password string
	client   client
	sessions *SessionCache
	builder  requestBuilder
}

func (i *impl) GetAdminSession(ctx context.Context) (Session, error) {
	return i.sessions.Get(ctx, func(ctx context.Context) (Session, error) {
		return i.client.login(ctx, i.username, i.password)
	})
}

func (i *impl) IssueGuestToken(ctx context.Context, req supersetapimodels.SupersetGuestTokenReq) (string, error) {
	session, err := i.GetAdminSession(ctx)
	if err != nil {
		return "", err
	}
	token, err := i.client.guestToken(ctx, session, req)
	if err != nil {
		if brokerErr, ok := AsError(err); ok && brokerErr.StatusCode == http.StatusUnauthorized {
			// the cached admin session was rejected, the next call logs in again
			log.Warn("superset rejected the cached admin session, invalidating it")
			i.sessions.Invalidate()
		}
		return "", err
	}
	return token, nil
}

func (i *impl) GuestTokenFull(ctx context.Context, userID string) (string, error) {
	token, err := i.IssueGuestToken(ctx, i.builder.full(userID))
	if err != nil {
		return "", err
	}
	metrics.RecordGuestTokenIssued(ScopeFull)
	log.WithField("user_id", userID).Info("issued full access guest token")
	return token, nil
}

func (i *impl) GuestTokenRLS(ctx context.Context, manufacturer string) (string, error) {
	token, err := i.IssueGuestToken(ctx, i.builder.rls(manufacturer))
	if err != nil {
		return "", err
	}
	metrics.RecordGuestTokenIssued(ScopeRLS)
	log.WithField("manufacturer", manufacturer).Info("issued rls guest token")
	return token, nil
}

func seconds(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}
