package middleware

import (
	"fmt"
	"net"

	"github.com/labstack/echo/v4"
)

// TrustedProxies makes c.RealIP() read X-Forwarded-For, trusting only hops
// inside the given CIDRs. The client IP is the rightmost untrusted entry,
// so a client cannot spoof its address by sending its own header.
//
// Rate limiting and request logs depend on this when the server runs
// behind a reverse proxy.
func TrustedProxies(e *echo.Echo, trustedCIDRs []string) error {
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, cidr := range trustedCIDRs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			return fmt.Errorf("parsing trusted proxy %q: %w", cidr, err)
		}
		opts = append(opts, echo.TrustIPRange(network))
	}

	e.IPExtractor = echo.ExtractIPFromXFFHeader(opts...)
	return nil
}
