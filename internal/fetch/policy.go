package fetch

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"
)

// sharedAddressSpace is the RFC 6598 carrier-grade NAT range, which
// net.IP.IsPrivate does not cover.
var sharedAddressSpace = mustParseCIDR("100.64.0.0/10")

func mustParseCIDR(cidr string) *net.IPNet {
	_, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("failed to parse CIDR %s: %v", cidr, err))
	}
	return ipNet
}

// Policy decides which source URLs the service may download images from.
type Policy struct {
	BlockPrivateIPs bool
	BlockedDomains  []string
	// LookupIP resolves hostnames; nil means net.LookupIP.
	LookupIP func(host string) ([]net.IP, error)
}

// Check validates rawURL against the policy.
func (p Policy) Check(rawURL string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %q (only http and https are allowed)", parsedURL.Scheme)
	}

	hostname := parsedURL.Hostname()
	if hostname == "" {
		return fmt.Errorf("URL missing hostname")
	}

	hostnameLower := strings.ToLower(hostname)
	for _, blockedDomain := range p.BlockedDomains {
		if hostnameLower == blockedDomain || strings.HasSuffix(hostnameLower, "."+blockedDomain) {
			return fmt.Errorf("domain %s is blocked", hostname)
		}
	}

	if !p.BlockPrivateIPs {
		return nil
	}

	lookup := p.LookupIP
	if lookup == nil {
		lookup = net.LookupIP
	}
	ips, err := lookup(hostname)
	if err != nil {
		// Unresolvable hosts fail naturally when the request is made
		return nil
	}
	for _, ip := range ips {
		if isPrivateIP(ip) {
			return fmt.Errorf("private IP address %s is blocked for hostname %s", ip.String(), hostname)
		}
	}

	return nil
}

// isPrivateIP reports whether ip is loopback, private, unspecified,
// link-local or in the shared address space.
func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		sharedAddressSpace.Contains(ip)
}

// dialControl rejects connections to private addresses after DNS resolution,
// so a hostname that resolves differently at dial time is still blocked.
func (p Policy) dialControl(network, address string, _ syscall.RawConn) error {
	if !p.BlockPrivateIPs {
		return nil
	}
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
	ip := net.ParseIP(host)
	if ip == nil || isPrivateIP(ip) {
		return fmt.Errorf("%w: private IP address %s is blocked", ErrRejected, host)
	}
	return nil
}
