// Package session persists wizard sessions in Redis.
package session

import "time"

const (
	// CookieName is the name of the cookie that carries the wizard session id
	// so a returning visitor resumes where they left off.
	CookieName = "ordoflow_wizard"

	// CookiePath ensures the cookie is sent with all requests.
	CookiePath = "/"

	// DefaultTTL is how long an untouched session is kept.
	// CookieMaxAge should match it.
	DefaultTTL = 24 * time.Hour

	// CookieMaxAge sets the cookie expiration in seconds.
	CookieMaxAge = int(DefaultTTL / time.Second)

	// keyPrefix namespaces session keys in Redis.
	keyPrefix = "wizard:session:"

	// maxUpdateRetries bounds optimistic transaction retries per update.
	maxUpdateRetries = 5
)
