package config

import (
	"strings"
)

// platformOrigin is an environment variable set by a hosting platform
// during builds. Bare hosts get an https scheme.
type platformOrigin struct {
	Env      string
	BareHost bool
}

// Checked in order, first non-empty wins
var platformOrigins = []platformOrigin{
	{Env: "CF_PAGES_URL"},
	{Env: "URL"},
	{Env: "DEPLOY_PRIME_URL"},
	{Env: "VERCEL_PROJECT_PRODUCTION_URL", BareHost: true},
	{Env: "VERCEL_URL", BareHost: true},
	{Env: "RENDER_EXTERNAL_URL"},
}

// ResolveOrigin picks the site origin: the explicit override first, then the
// hosting platform variables read through lookup, then the configured
// fallback and finally DefaultOrigin. Trailing slashes are removed.
func ResolveOrigin(override string, lookup func(string) (string, bool), fallback string) string {
	if o := normalizeOrigin(override, false); o != "" {
		return o
	}

	if lookup != nil {
		for _, p := range platformOrigins {
			if v, ok := lookup(p.Env); ok {
				if o := normalizeOrigin(v, p.BareHost); o != "" {
					return o
				}
			}
		}
	}

	if o := normalizeOrigin(fallback, false); o != "" {
		return o
	}
	return DefaultOrigin
}

func normalizeOrigin(s string, bareHost bool) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if bareHost && !strings.Contains(s, "://") {
		s = "https://" + s
	}
	return strings.TrimRight(s, "/")
}
