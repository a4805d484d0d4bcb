package ics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/kevinhe012597/calendar-analytics/internal/config"
)

// ErrForbiddenHost is returned when a feed resolves to a loopback, private
// or otherwise internal address
var ErrForbiddenHost = errors.New("feed host resolves to a forbidden address")

// Fetcher downloads ICS feeds over HTTP
type Fetcher struct {
	client *resty.Client
	log    *zap.Logger
}

// NewFetcher creates a fetcher from the feed import settings. Requests give
// up after FetchTimeout and bodies larger than MaxFeedBytes are rejected.
func NewFetcher(cfg config.ICS, log *zap.Logger) *Fetcher {
	dialer := &net.Dialer{Timeout: cfg.FetchTimeout}
	if !cfg.AllowPrivateHosts {
		dialer.Control = publicOnly
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	// A proxy would hide the real target from the dial check
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext

	client := resty.New().
		SetTransport(transport).
		SetTimeout(cfg.FetchTimeout).
		SetResponseBodyLimit(cfg.MaxFeedBytes).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)).
		SetHeader("Accept", "text/calendar, */*;q=0.5")

	return &Fetcher{
		client: client,
		log:    log,
	}
}

// Fetch returns the raw feed body. webcal:// URLs are fetched over https.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	feedURL, err := normalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.R().
		SetContext(ctx).
		Get(feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar feed: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("calendar feed returned status %d", resp.StatusCode())
	}

	f.log.Debug("Calendar feed fetched",
		zap.String("host", hostOf(feedURL)),
		zap.Int("bytes", len(resp.Body())),
		zap.Duration("duration", resp.Time()))

	return resp.Body(), nil
}

// publicOnly runs after DNS resolution, so it also covers redirects and
// hostnames that resolve to internal addresses
func publicOnly(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("invalid dial address %q: %w", address, err)
	}

	ip, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("invalid dial address %q: %w", address, err)
	}

	if !isPublic(ip) {
		return fmt.Errorf("%w: %s", ErrForbiddenHost, ip)
	}
	return nil
}

func isPublic(ip netip.Addr) bool {
	ip = ip.Unmap()
	switch {
	case ip.IsLoopback(),
		ip.IsPrivate(),
		ip.IsLinkLocalUnicast(),
		ip.IsLinkLocalMulticast(),
		ip.IsInterfaceLocalMulticast(),
		ip.IsMulticast(),
		ip.IsUnspecified():
		return false
	}
	// Carrier-grade NAT
	if ip.Is4() && netip.MustParsePrefix("100.64.0.0/10").Contains(ip) {
		return false
	}
	return true
}

func normalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("invalid feed url: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "webcal", "webcals":
		u.Scheme = "https"
	case "http", "https":
	default:
		return "", fmt.Errorf("unsupported feed url scheme: %q", u.Scheme)
	}

	if u.Host == "" {
		return "", fmt.Errorf("feed url has no host")
	}
	return u.String(), nil
}

// hostOf keeps credentials and query tokens out of logs
func hostOf(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil {
		return ""
	}
	return u.Host
}
