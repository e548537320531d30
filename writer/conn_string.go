package writer

import (
	"fmt"
	"net/url"
)

// BuildConnString combines the configured database URL with the separately
// supplied access key. The URL identifies the endpoint (user, host, port,
// database); the password is never part of it and is injected here, encoded
// so special characters survive.
func BuildConnString(rawURL, password, sslMode string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse database url: %w", err)
	}

	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("unsupported database url scheme '%s'", u.Scheme)
	}

	user := "postgres"
	if u.User != nil && u.User.Username() != "" {
		user = u.User.Username()
	}
	u.User = url.UserPassword(user, password)

	q := u.Query()
	if q.Get("sslmode") == "" {
		if sslMode == "" {
			sslMode = "prefer"
		}
		q.Set("sslmode", sslMode)
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}
