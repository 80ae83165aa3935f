package credentials

import (
	"superset-embed-gateway/config"
	"superset-embed-gateway/lib/metrics"
	"superset-embed-gateway/models"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrUnauthorized is returned for every failed login, whichever half of the
// credential pair was wrong.
var ErrUnauthorized = errors.New("Invalid Username or Password")

type Identity struct {
	UserType       models.UserType
	UserIdentifier string
}

type Provider interface {
	Authenticate(username, password string) (*Identity, error)
	IsManufacturer(name string) bool
}

var Instance Provider

func NewHandler(admin config.AdminCredential, manufacturers map[string]string) {
	Instance = NewInstance(admin, manufacturers)
}

func NewInstance(admin config.AdminCredential, manufacturers map[string]string) Provider {
	table := make(map[string]string, len(manufacturers))
	for name, password := range manufacturers {
		table[name] = password
	}
	return impl{
		admin:         admin,
		manufacturers: table,
	}
}

type impl struct {
	admin         config.AdminCredential
	manufacturers map[string]string // manufacturer name -> password
}

func (i impl) Authenticate(username, password string) (*Identity, error) {
	logger := log.WithField("username", username)

	if username == i.admin.Username {
		if password != i.admin.Password {
			logger.Warn("login failed for admin user: invalid password")
			metrics.RecordLoginAttempt(string(models.UserTypeAdmin), "unauthorized")
			return nil, ErrUnauthorized
		}
		logger.Info("login successful for admin user")
		metrics.RecordLoginAttempt(string(models.UserTypeAdmin), "success")
		return &Identity{
			UserType:       models.UserTypeAdmin,
			UserIdentifier: username,
		}, nil
	}

	expected, ok := i.manufacturers[username]
	if !ok {
		logger.Warn("login failed: user is neither admin nor manufacturer")
		metrics.RecordLoginAttempt("", "unauthorized")
		return nil, ErrUnauthorized
	}
	if password != expected {
		logger.Warn("login failed for manufacturer: invalid password")
		metrics.RecordLoginAttempt(string(models.UserTypeManufacturer), "unauthorized")
		return nil, ErrUnauthorized
	}

	logger.Info("login successful for manufacturer")
	metrics.RecordLoginAttempt(string(models.UserTypeManufacturer), "success")
	return &Identity{
		UserType:       models.UserTypeManufacturer,
		UserIdentifier: username,
	}, nil
}

func (i impl) IsManufacturer(name string) bool {
	_, ok := i.manufacturers[name]
	return ok
}
