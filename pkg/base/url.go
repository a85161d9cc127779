package base

import (
	"fmt"
	"net/url"
)

// URL is a RTSP URL: rtsp://<host>:<port>/<path>. Credentials in the
// authority are not supported.
type URL url.URL

// ParseURL parses a RTSP URL and requires an explicit port, since the
// control state machine has no default-port fallback.
func ParseURL(s string) (*URL, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}

	if u.Scheme != "rtsp" {
		return nil, fmt.Errorf("unsupported scheme '%s'", u.Scheme)
	}

	if u.Host == "" {
		return nil, fmt.Errorf("missing host")
	}

	if u.Port() == "" {
		return nil, fmt.Errorf("missing port")
	}

	return (*URL)(u), nil
}

// String implements fmt.Stringer.
func (u *URL) String() string {
	return (*url.URL)(u).String()
}

// Hostname returns the host part of the authority, without the port.
func (u *URL) Hostname() string {
	return (*url.URL)(u).Hostname()
}

// Port returns the port part of the authority.
func (u *URL) Port() string {
	return (*url.URL)(u).Port()
}

// WithSuffix returns a copy of the URL with suffix appended verbatim to
// its path, used to build the per-track SETUP URL (<url>/trackID=1): the
// server expects the original path kept intact, not replaced.
func (u *URL) WithSuffix(suffix string) *URL {
	u2 := url.URL(*u)
	u2.Path += suffix
	return (*URL)(&u2)
}
