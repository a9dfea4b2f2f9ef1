// Package safety guards outbound HTTP calls against SSRF: every URL this
// runtime fetches (search results, redirect targets, orchestrator
// candidates) originates from an untrusted page or search provider.
package safety

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// MaxResponseBody caps how much of a fetched body this runtime will read.
const MaxResponseBody int64 = 10 << 20

var (
	ErrSSRF          = errors.New("safety: url targets a private or loopback address")
	ErrUnsafeScheme  = errors.New("safety: only http and https schemes are allowed")
	ErrNoHost        = errors.New("safety: url has no host")
)

// ValidateURL checks that rawURL uses http/https, has a hostname, and does
// not resolve to a private, loopback, or link-local IP. DNS resolution
// failures are allowed through — the caller gets a network error at
// connection time regardless, and a resolution failure here is more likely
// a transient DNS hiccup than an SSRF attempt.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("safety: invalid url: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ErrUnsafeScheme
	}
	host := u.Hostname()
	if host == "" {
		return ErrNoHost
	}

	if ip := net.ParseIP(host); ip != nil {
		if isPrivateIP(ip) {
			return ErrSSRF
		}
		return nil
	}

	addrs, err := net.LookupHost(host)
	if err != nil {
		return nil
	}
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil && isPrivateIP(ip) {
			return ErrSSRF
		}
	}
	return nil
}

func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}
	for _, cidr := range []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"fc00::/7",
		"169.254.0.0/16",
		"::1/128",
	} {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
