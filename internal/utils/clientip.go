package utils

import (
	"net"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ClientIP derives the rate-limiter identifier for a request. Proxy headers
// are checked in trust order before falling back to the socket address, so
// deployments behind Cloudflare or a reverse proxy still key on the real
// client rather than the proxy.
func ClientIP(c *fiber.Ctx) string {
	if ip := parseIP(c.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}

	// X-Forwarded-For can carry a chain; the first valid hop is the client.
	if forwarded := c.Get("X-Forwarded-For"); forwarded != "" {
		for _, part := range strings.Split(forwarded, ",") {
			if ip := parseIP(part); ip != "" {
				return ip
			}
		}
	}

	if ip := parseIP(c.Get("X-Real-IP")); ip != "" {
		return ip
	}

	if ip := parseIP(c.IP()); ip != "" {
		return ip
	}

	return "unknown"
}

// parseIP validates and normalizes an IP address string.
// Returns empty string if the IP is invalid.
func parseIP(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	ip := net.ParseIP(raw)
	if ip == nil {
		return ""
	}

	return ip.String()
}
