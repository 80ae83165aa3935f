package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validConf() *Configuration {
	conf := new(Configuration)
	conf.Superset.Host = "http://superset:8088/"
	conf.Superset.Username = "admin"
	conf.Superset.Password = "admin"
	conf.Superset.DashboardID = "3f1c"
	conf.Credentials.Admin.Username = "admin"
	conf.Credentials.Admin.Password = "admin"
	return conf
}

func TestConfig(t *testing.T) {
	t.Run(`applyDefaults fills manufacturers and flags`, func(t *testing.T) {
		conf := validConf()
		conf.applyDefaults()
		require.Equal(t, "http://superset:8088", conf.Superset.Host)
		require.Len(t, conf.Credentials.Manufacturers, 5)
		require.Equal(t, "cipla", conf.Credentials.Manufacturers["Cipla Ltd"])
		require.NotNil(t, conf.RLS.EscapeQuotes)
		require.False(t, *conf.RLS.EscapeQuotes)
		require.False(t, *conf.Auth.SessionEnabled)
		require.Nil(t, conf.Validate())
	})

	t.Run(`applyDefaults keeps configured manufacturers`, func(t *testing.T) {
		conf := validConf()
		conf.Credentials.Manufacturers = map[string]string{"Acme": "acme"}
		conf.applyDefaults()
		require.Equal(t, map[string]string{"Acme": "acme"}, conf.Credentials.Manufacturers)
	})

	t.Run(`Validate reports every missing Superset option`, func(t *testing.T) {
		conf := validConf()
		conf.Superset.Host = ""
		conf.Superset.DashboardID = ""
		err := conf.Validate()
		require.NotNil(t, err)
		require.Equal(t, "missing essential Superset configuration: SUPERSET_URL, SUPERSET_DASHBOARD_ID", err.Error())
	})

	t.Run(`Validate requires a jwt secret for session tokens`, func(t *testing.T) {
		conf := validConf()
		conf.applyDefaults()
		*conf.Auth.SessionEnabled = true
		require.NotNil(t, conf.Validate())
		conf.Auth.JWTSecret = "s3cr3t"
		require.Nil(t, conf.Validate())
	})
}
