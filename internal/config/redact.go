package config

import (
	"net/url"
	"regexp"
	"strings"
)

// keywordPassword matches password=... in a libpq keyword/value DSN, quoted or bare.
var keywordPassword = regexp.MustCompile( //nolint:gochecknoglobals // compiled once, used by RedactURL
	`(?i)(\bpassword\s*=\s*)('(?:[^'\\]|\\.)*'|\S*)`,
)

// RedactURL hides the password in a PostgreSQL connection string so it can
// be printed or logged. Both postgres:// URLs and "host=... password=..."
// DSNs are handled. Strings without a password are returned unchanged.
func RedactURL(raw string) string {
	if raw == "" {
		return ""
	}

	if !strings.Contains(raw, "://") {
		return keywordPassword.ReplaceAllString(raw, "${1}***")
	}

	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}

	if _, hasPassword := u.User.Password(); !hasPassword {
		return raw
	}

	// Rewrite the raw userinfo rather than re-encoding u, which would
	// normalise the rest of the string.
	afterScheme := strings.Index(raw, "://") + len("://")

	atIdx := strings.LastIndex(raw[afterScheme:], "@")
	if atIdx < 0 {
		return raw
	}

	userinfo := raw[afterScheme : afterScheme+atIdx]

	colonIdx := strings.Index(userinfo, ":")
	if colonIdx < 0 {
		return raw
	}

	return raw[:afterScheme] + userinfo[:colonIdx+1] + "***" + raw[afterScheme+atIdx:]
}
