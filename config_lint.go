package exitpass

import (
	"net/url"
	"strings"
)

// LintWarning is a configuration that is valid but probably unintended.
type LintWarning struct {
	Code    string
	Message string
}

// LintWarnings is the result of [Config.Lint].
type LintWarnings []LintWarning

// Codes returns the warning codes in order.
func (ws LintWarnings) Codes() []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

// Lint reports settings that pass [Config.Validate] but weaken the session
// guarantees. It never fails.
func (c Config) Lint() LintWarnings {
	var ws LintWarnings
	add := func(code, msg string) {
		ws = append(ws, LintWarning{Code: code, Message: msg})
	}

	if c.Session.TimeoutMinutes == 0 {
		add("session_timeout_disabled", "sessions never expire")
	}
	if c.Session.TimeoutMinutes > 12*60 {
		add("session_timeout_long", "session timeout exceeds 12 hours")
	}
	if c.Session.Backend == BackendMemory {
		add("session_memory_backend", "the session is lost when the process exits")
	}
	if c.Session.SigningKey == "" && (c.Session.Backend == BackendRedis || c.Session.Backend == BackendSQLite) {
		add("session_unsigned_shared", "a shared session store without signing_key lets any writer pick a role")
	}
	if u, err := url.Parse(c.Endpoint.URL); err == nil && strings.EqualFold(u.Scheme, "http") && !isLoopback(u.Hostname()) {
		add("endpoint_plain_http", "the endpoint is reached without TLS")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", "login and logout are not audited")
	}
	return ws
}

func isLoopback(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}
