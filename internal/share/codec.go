// Package share encodes diagnostic results into shareable URL query
// parameters and decodes them back on page load. Payloads carry no
// signature: nothing privileged reads them, a forged link only changes the
// numbers the recipient sees.
package share

import (
	"net/url"
	"strconv"

	"diagnostic-service/internal/domain"
)

const (
	paramShared = "shared"
	paramScore  = "score"
	paramLevel  = "level"
	paramFrom   = "from"
)

// Encode flattens a result (and optionally the referrer's first name) into
// query parameters understood by Decode.
func Encode(result domain.DiagnosticResult, fromName string) url.Values {
	values := url.Values{}
	values.Set(paramShared, "true")
	values.Set(paramScore, strconv.Itoa(result.TotalScore))
	values.Set(paramLevel, result.Tier)
	if fromName != "" {
		values.Set(paramFrom, fromName)
	}
	return values
}

// Decode parses share parameters from a query string. It returns false when
// the shared marker is absent or any required parameter is malformed; the
// caller then falls back to the default entry step.
func Decode(values url.Values) (domain.SharePayload, bool) {
	if values.Get(paramShared) != "true" {
		return domain.SharePayload{}, false
	}
	score, err := strconv.Atoi(values.Get(paramScore))
	if err != nil || score < 0 {
		return domain.SharePayload{}, false
	}
	tier := values.Get(paramLevel)
	if tier == "" {
		return domain.SharePayload{}, false
	}
	return domain.SharePayload{
		Score:    score,
		Tier:     tier,
		FromName: values.Get(paramFrom),
	}, true
}
