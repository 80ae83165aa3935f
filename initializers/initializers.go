package initializers

import (
	"superset-embed-gateway/config"
	"superset-embed-gateway/fiberlog"
	"superset-embed-gateway/lib/credentials"
	metadatadb "superset-embed-gateway/lib/metadata-db"
	"superset-embed-gateway/lib/metrics"
	platformsettings "superset-embed-gateway/lib/platform-settings"
	supersethandler "superset-embed-gateway/lib/superset"

	log "github.com/sirupsen/logrus"
)

var (
	LoggerConfig  *fiberlog.Config
	MetadataProbe metadatadb.Provider
)

func InitAllServices() {
	config.InitConfig()
	LoggerConfig = InitLogger(config.Conf.App.LogLevel)
	metrics.MustRegisterDefault()
	platformsettings.NewHandler(config.Conf.Platform, config.Conf.Superset.GuestRoleName)
	credentials.NewHandler(config.Conf.Credentials.Admin, config.Conf.Credentials.Manufacturers)
	supersethandler.NewHandler(config.Conf.Superset, config.Conf.RLS)
	MetadataProbe = InitMetadataDB()
	logStartupSummary()
}

func logStartupSummary() {
	datasetScope := "global (all datasets)"
	if config.Conf.RLS.DatasetID != nil {
		datasetScope = "specific"
	}
	entry := log.
		WithField("superset_url", config.Conf.Superset.Host).
		WithField("dashboard_id", config.Conf.Superset.DashboardID).
		WithField("guest_role", config.Conf.Superset.GuestRoleName).
		WithField("rls_column", config.Conf.RLS.ColumnName).
		WithField("rls_dataset_scope", datasetScope).
		WithField("rls_escape_quotes", *config.Conf.RLS.EscapeQuotes).
		WithField("admin_username", config.Conf.Credentials.Admin.Username).
		WithField("manufacturers", len(config.Conf.Credentials.Manufacturers)).
		WithField("cors_origin", config.Conf.App.FrontendURL).
		WithField("session_tokens", *config.Conf.Auth.SessionEnabled)
	if config.Conf.RLS.DatasetID != nil {
		entry = entry.WithField("rls_dataset_id", *config.Conf.RLS.DatasetID)
	}
	entry.Info("embedding gateway configured")
	log.WithFields(platformsettings.Instance.Summary()).Info("superset platform settings")
}
