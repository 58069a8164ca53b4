package middleware

import (
	"context"
	"net/http"
	"net/netip"

	"github.com/gin-gonic/gin"
)

// CountryResolver maps a client address to an ISO country code. An empty
// code means unknown.
type CountryResolver interface {
	Country(ctx context.Context, addr string) (string, error)
}

// CountryChecker reports whether a country code is blocked.
type CountryChecker interface {
	IsCountryBlocked(ctx context.Context, code string) (bool, error)
}

// NoopResolver resolves every address to an unknown country.
type NoopResolver struct{}

// Country implements CountryResolver.
func (NoopResolver) Country(context.Context, string) (string, error) { return "", nil }

// GeoFilter denies requests from blocked countries with 403 country_blocked.
// Loopback, private and unparsable addresses are never filtered. Resolver or
// checker failures are logged and the request is let through.
func GeoFilter(resolver CountryResolver, checker CountryChecker) gin.HandlerFunc {
	if resolver == nil {
		resolver = NoopResolver{}
	}
	return func(c *gin.Context) {
		addr := ClientAddr(c)
		if isLocalAddr(addr) {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		code, err := resolver.Country(ctx, addr)
		if err != nil {
			LoggerFrom(c).Warn().Err(err).Msg("geo lookup failed")
			c.Next()
			return
		}
		if code == "" {
			c.Next()
			return
		}
		blocked, err := checker.IsCountryBlocked(ctx, code)
		if err != nil {
			LoggerFrom(c).Warn().Err(err).Str("country", code).Msg("blocked-country lookup failed")
			c.Next()
			return
		}
		if blocked {
			abortJSON(c, http.StatusForbidden, "country_blocked", "access from your region is not allowed")
			return
		}
		c.Next()
	}
}

func isLocalAddr(addr string) bool {
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return true
	}
	ip = ip.Unmap()
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
}
