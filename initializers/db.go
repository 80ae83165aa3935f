package initializers

import (
	"superset-embed-gateway/config"
	metadatadb "superset-embed-gateway/lib/metadata-db"

	log "github.com/sirupsen/logrus"
)

// InitMetadataDB prepares the metadata database probe when it is enabled and
// returns it; nil means /healthz does not check the database.
func InitMetadataDB() metadatadb.Provider {
	if !*config.Conf.Platform.MetadataProbe {
		log.Info("metadata db probe disabled")
		return nil
	}
	err := metadatadb.NewHandler(config.Conf.Platform.MetadataDBURI, *config.Conf.Platform.MetadataDebug)
	if err != nil {
		panic(err.Error())
	}
	return metadatadb.Instance
}
