package config

import (
	"strings"

	"github.com/gotify/configor"
	"github.com/pkg/errors"
)

var Conf *Configuration

type Configuration struct {
	App struct {
		ListenAddr  string `default:"0.0.0.0" env:"APP_HOST"`
		Port        int    `default:"8000" env:"APP_PORT"`
		LogLevel    string `default:"info" env:"LOG_LEVEL"`
		FrontendURL string `default:"http://localhost:5173" env:"FRONTEND_URL"` // origin allowed by CORS
	}
	Superset    SupersetConfig
	RLS         RLSConfig
	Credentials CredentialsConfig
	Platform    PlatformConfig
	Auth        AuthConfig
}

// SupersetConfig describes the BI platform the broker talks to. Username and
// Password are used only by the broker for its own admin session.
type SupersetConfig struct {
	Host                 string `default:"http://localhost:8088" env:"SUPERSET_URL"`
	Username             string `default:"admin" env:"SUPERSET_ADMIN_USER"`
	Password             string `default:"admin" env:"SUPERSET_ADMIN_PASSWORD"`
	DashboardID          string `default:"" env:"SUPERSET_DASHBOARD_ID"`
	GuestRoleName        string `default:"Gamma" env:"SUPERSET_RLS_ROLE_NAME"`
	ResourcesType        string `default:"dashboard" env:"SUPERSET_RESOURCES_TYPE"`
	LoginTimeoutSec      int    `default:"10" env:"SUPERSET_LOGIN_TIMEOUT"`
	GuestTokenTimeoutSec int    `default:"15" env:"SUPERSET_GUEST_TOKEN_TIMEOUT"`
	SessionTTLSec        int    `default:"3300" env:"SUPERSET_SESSION_TTL"`
	SessionMarginSec     int    `default:"60" env:"SUPERSET_SESSION_MARGIN"`
}

type RLSConfig struct {
	ColumnName   string `default:"Manufacturer" env:"RLS_COLUMN_NAME"`
	DatasetID    *int   `env:"RLS_DATASET_ID"` // nil: clause applies to every dataset of the guest
	EscapeQuotes *bool  `default:"false" env:"RLS_ESCAPE_QUOTES"`
}

type AdminCredential struct {
	Username string `default:"admin" env:"ADMIN_USERNAME"`
	Password string `default:"admin" env:"ADMIN_PASSWORD"`
}

type CredentialsConfig struct {
	Admin AdminCredential
	// manufacturer name -> password; the name doubles as the RLS filter value
	Manufacturers map[string]string `yaml:"manufacturers"`
}

// PlatformConfig holds the Superset-side settings this deployment relies on.
type PlatformConfig struct {
	SecretKey              string `default:"a-very-secure-secret-key" env:"SUPERSET_SECRET_KEY"`
	GuestTokenSecret       string `default:"" env:"SUPERSET_GUEST_TOKEN_JWT_SECRET"`
	MetadataDBURI          string `default:"postgresql+psycopg2://superset:superset@db:5432/superset" env:"METADATA_DB_URI"`
	AllowedEmbeddedDomains string `default:"" env:"ALLOWED_EMBEDDED_DOMAINS"` // comma separated
	MetadataProbe          *bool  `default:"false" env:"METADATA_DB_PROBE"`
	MetadataDebug          *bool  `default:"false" env:"METADATA_DB_DEBUG"`
}

type AuthConfig struct {
	SessionEnabled *bool  `default:"false" env:"AUTH_SESSION_ENABLED"`
	JWTSecret      string `default:"" env:"AUTH_JWT_SECRET"`
	JWTExpireInSec int    `default:"3600" env:"AUTH_JWT_EXPIRE_IN_SEC"`
}

var defaultManufacturers = map[string]string{
	"Cipla Ltd":                         "cipla",
	"Torrent Pharmaceuticals Ltd":       "torrent",
	"Sun Pharmaceutical Industries Ltd": "sun",
	"Intas Pharmaceuticals Ltd":         "intas",
	"Lupin Ltd":                         "lupin",
}

func configFiles() []string {
	return []string{"config.yml"}
}

func InitConfig() {
	if Conf != nil {
		return
	}
	conf, err := Load(configFiles()...)
	if err != nil {
		panic(err)
	}
	Conf = conf
}

// Load reads the given yaml files (missing ones are skipped) and the environment.
func Load(files ...string) (*Configuration, error) {
	conf := new(Configuration)
	if err := configor.New(&configor.Config{}).Load(conf, files...); err != nil {
		return nil, errors.Wrap(err, "loading configuration")
	}
	conf.applyDefaults()
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Configuration) applyDefaults() {
	c.Superset.Host = strings.TrimRight(c.Superset.Host, "/")
	if len(c.Credentials.Manufacturers) == 0 {
		c.Credentials.Manufacturers = make(map[string]string, len(defaultManufacturers))
		for name, password := range defaultManufacturers {
			c.Credentials.Manufacturers[name] = password
		}
	}
	if c.RLS.EscapeQuotes == nil {
		c.RLS.EscapeQuotes = new(bool)
	}
	if c.Platform.MetadataProbe == nil {
		c.Platform.MetadataProbe = new(bool)
	}
	if c.Platform.MetadataDebug == nil {
		c.Platform.MetadataDebug = new(bool)
	}
	if c.Auth.SessionEnabled == nil {
		c.Auth.SessionEnabled = new(bool)
	}
}

func (c *Configuration) Validate() error {
	var missing []string
	if c.Superset.Host == "" {
		missing = append(missing, "SUPERSET_URL")
	}
	if c.Superset.Username == "" {
		missing = append(missing, "SUPERSET_ADMIN_USER")
	}
	if c.Superset.Password == "" {
		missing = append(missing, "SUPERSET_ADMIN_PASSWORD")
	}
	if c.Superset.DashboardID == "" {
		missing = append(missing, "SUPERSET_DASHBOARD_ID")
	}
	if len(missing) > 0 {
		return errors.Errorf("missing essential Superset configuration: %s", strings.Join(missing, ", "))
	}
	if c.Credentials.Admin.Username == "" {
		return errors.New("admin username must not be empty")
	}
	if c.Auth.SessionEnabled != nil && *c.Auth.SessionEnabled && c.Auth.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is required when AUTH_SESSION_ENABLED is set")
	}
	return nil
}
