package supersethandler

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"superset-embed-gateway/models"
	supersetapimodels "superset-embed-gateway/models/api/superset"

	log "github.com/sirupsen/logrus"
)

const (
	fullUsernamePattern string = "guest_full_%v_%d"
	rlsUsernamePattern  string = "guest_mfr_%v_%d"
	rlsClausePattern    string = "\"%s\" = '%s'"

	maxUsernamePart = 30
	maxLastNamePart = 20
)

// RLSClause builds the row filter sent with a manufacturer guest token. The value
// is interpolated as is unless escapeQuotes is set, in which case single quotes
// are doubled.
func RLSClause(column, value string, escapeQuotes bool) string {
	if escapeQuotes {
		value = strings.ReplaceAll(value, "'", "''")
	}
	return fmt.Sprintf(rlsClausePattern, column, value)
}

// SanitizeUsernamePart replaces every rune that is not a letter or number with '_'
// and keeps at most 30 runes.
func SanitizeUsernamePart(value string) string {
	runes := []rune(value)
	if len(runes) > maxUsernamePart {
		runes = runes[:maxUsernamePart]
	}
	for idx, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			runes[idx] = '_'
		}
	}
	return string(runes)
}

type requestBuilder struct {
	dashboardID   string
	resourcesType string
	rlsColumn     string
	datasetID     *int
	escapeQuotes  bool
	now           func() time.Time
}

func (b requestBuilder) full(userID string) supersetapimodels.SupersetGuestTokenReq {
	return supersetapimodels.SupersetGuestTokenReq{
		User: supersetapimodels.User{
			Username:  fmt.Sprintf(fullUsernamePattern, userID, b.now().Unix()),
			FirstName: models.UserTypeAdmin.ToHuman(),
			LastName:  lastName(userID),
		},
		Resources: b.resources(),
		RLS:       []supersetapimodels.RLS{},
	}
}

func (b requestBuilder) rls(manufacturer string) supersetapimodels.SupersetGuestTokenReq {
	if strings.Contains(manufacturer, "'") {
		log.
			WithField("manufacturer", manufacturer).
			WithField("escape_quotes", b.escapeQuotes).
			Warn("manufacturer name contains a single quote, rls clause may not filter as intended")
	}
	rule := supersetapimodels.RLS{
		Clause: RLSClause(b.rlsColumn, manufacturer, b.escapeQuotes),
	}
	if b.datasetID != nil {
		datasetID := *b.datasetID
		rule.DatasetID = &datasetID
	}
	return supersetapimodels.SupersetGuestTokenReq{
		User: supersetapimodels.User{
			Username:  fmt.Sprintf(rlsUsernamePattern, SanitizeUsernamePart(manufacturer), b.now().Unix()),
			FirstName: models.UserTypeManufacturer.ToHuman(),
			LastName:  lastName(manufacturer),
		},
		Resources: b.resources(),
		RLS:       []supersetapimodels.RLS{rule},
	}
}

func (b requestBuilder) resources() []supersetapimodels.Resource {
	return []supersetapimodels.Resource{
		{
			Type: b.resourcesType,
			ID:   b.dashboardID,
		},
	}
}

func lastName(identifier string) string {
	runes := []rune(identifier)
	if len(runes) > maxLastNamePart {
		runes = runes[:maxLastNamePart]
	}
	return fmt.Sprintf("User (%s)", string(runes))
}
