package platformsettings

import (
	"strings"

	"superset-embed-gateway/config"

	log "github.com/sirupsen/logrus"
)

const (
	masked = "******"

	defaultEmbeddedDomain = "http://localhost:8000"
)

// guest token views Superset must accept without a CSRF token
var csrfExemptList = []string{
	"superset.views.core.guest_token",
	"app.views.api.guest_token",
	"superset.security.api.guest_token",
	"superset.security.api.SecurityRestApi.guest_token",
	"/api/v1/security/guest_token/",
}

type CORSOptions struct {
	SupportsCredentials bool
	AllowHeaders        []string
	Resources           []string
	Origins             []string
}

// Settings are the Superset-side values an embedding deployment depends on.
type Settings struct {
	SecretKey              string
	MetadataDBURI          string
	AllowedEmbeddedDomains []string
	GuestTokenJWTSecret    string
	GuestRoleName          string
	CSRFExemptList         []string
	FeatureFlags           map[string]bool
	CORS                   CORSOptions
}

type Provider interface {
	Settings() Settings
	Summary() log.Fields
}

var Instance Provider

func NewHandler(platform config.PlatformConfig, guestRoleName string) {
	Instance = NewInstance(platform, guestRoleName)
}

func NewInstance(platform config.PlatformConfig, guestRoleName string) Provider {
	domains := SplitDomains(platform.AllowedEmbeddedDomains)
	guestSecret := platform.GuestTokenSecret
	if guestSecret == "" {
		guestSecret = platform.SecretKey
	}
	return impl{
		settings: Settings{
			SecretKey:              platform.SecretKey,
			MetadataDBURI:          platform.MetadataDBURI,
			AllowedEmbeddedDomains: domains,
			GuestTokenJWTSecret:    guestSecret,
			GuestRoleName:          guestRoleName,
			CSRFExemptList:         append([]string(nil), csrfExemptList...),
			FeatureFlags: map[string]bool{
				"ENABLE_TEMPLATE_PROCESSING": true,
				"ALLOW_CSV_UPLOAD":           true,
			},
			CORS: CORSOptions{
				SupportsCredentials: true,
				AllowHeaders:        []string{"*"},
				Resources:           []string{"*"},
				Origins:             domains,
			},
		},
	}
}

type impl struct {
	settings Settings
}

func (i impl) Settings() Settings {
	return i.settings
}

// Summary is safe to log: secrets and the metadata DB password are masked.
func (i impl) Summary() log.Fields {
	s := i.settings
	return log.Fields{
		"secret_key":               masked,
		"guest_token_jwt_secret":   masked,
		"metadata_db_uri":          maskURIPassword(s.MetadataDBURI),
		"allowed_embedded_domains": s.AllowedEmbeddedDomains,
		"guest_role_name":          s.GuestRoleName,
		"csrf_exempt_list":         s.CSRFExemptList,
		"feature_flags":            s.FeatureFlags,
		"cors_origins":             s.CORS.Origins,
	}
}

// SplitDomains parses a comma separated domain list; blanks are dropped and an
// empty result falls back to http://localhost:8000.
func SplitDomains(raw string) []string {
	var domains []string
	for _, domain := range strings.Split(raw, ",") {
		if domain = strings.TrimSpace(domain); domain != "" {
			domains = append(domains, domain)
		}
	}
	if len(domains) == 0 {
		return []string{defaultEmbeddedDomain}
	}
	return domains
}

func maskURIPassword(uri string) string {
	schemeEnd := strings.Index(uri, "://")
	at := strings.LastIndex(uri, "@")
	if schemeEnd < 0 || at < schemeEnd {
		return uri
	}
	userInfo := uri[schemeEnd+3 : at]
	user, _, hasPassword := strings.Cut(userInfo, ":")
	if !hasPassword {
		return uri
	}
	return uri[:schemeEnd+3] + user + ":" + masked + uri[at:]
}
