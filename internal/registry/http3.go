package registry

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	http3 "github.com/quic-go/quic-go/http3"

	"github.com/Redux-Robotics/canandrepo-public/internal/specdoc"
)

// HTTP3Client resolves specs from a remote registry over HTTP/3, for
// fleets that publish spec updates faster than vendored copies travel.
// Grounded on the teacher's netstack.HTTP3Server/Client pairing: TLS 1.3
// is mandatory for QUIC, so the client enforces it the same way the
// server side does.
type HTTP3Client struct {
	base   string
	client *http.Client
}

// NewHTTP3Client builds a client against baseURL (e.g. "https://specs.example.com").
// tlsCfg may be nil, in which case a minimal TLS 1.3 config is used.
func NewHTTP3Client(baseURL string, tlsCfg *tls.Config) *HTTP3Client {
	if tlsCfg == nil {
		tlsCfg = &tls.Config{MinVersion: tls.VersionTLS13, NextProtos: []string{"h3"}}
	} else if tlsCfg.MinVersion < tls.VersionTLS13 {
		c := tlsCfg.Clone()
		c.MinVersion = tls.VersionTLS13
		if len(c.NextProtos) == 0 {
			c.NextProtos = []string{"h3"}
		}
		tlsCfg = c
	}

	return &HTTP3Client{
		base: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Transport: &http3.RoundTripper{TLSClientConfig: tlsCfg},
			Timeout:   10 * time.Second,
		},
	}
}

// listResponse is the wire shape the remote registry answers with: one
// entry per known (name, version), newest last.
type listResponse struct {
	Versions []struct {
		Version string `json:"version"`
		TOML    string `json:"toml"`
	} `json:"versions"`
}

// Resolve implements Registry by fetching the version list for name and
// picking the highest one satisfying constraint, then parsing its TOML
// body into a DeviceSpec.
func (c *HTTP3Client) Resolve(ctx context.Context, name string, constraint *semver.Constraints) (Entry, error) {
	u := fmt.Sprintf("%s/specs/%s/versions", c.base, url.PathEscape(strings.ToLower(name)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Entry{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Entry{}, fmt.Errorf("registry: http3 fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Entry{}, fmt.Errorf("registry: http3 fetch %s: status %d", u, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Entry{}, err
	}

	var lr listResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return Entry{}, fmt.Errorf("registry: decode response from %s: %w", u, err)
	}

	var best *semver.Version
	var bestTOML string
	var bestVersion string
	for _, v := range lr.Versions {
		sv, err := semver.NewVersion(v.Version)
		if err != nil {
			continue
		}
		if constraint != nil && !constraint.Check(sv) {
			continue
		}
		if best == nil || sv.GreaterThan(best) {
			best, bestTOML, bestVersion = sv, v.TOML, v.Version
		}
	}
	if best == nil {
		return Entry{}, ErrNotFound
	}

	spec, err := specdoc.Parse([]byte(bestTOML))
	if err != nil {
		return Entry{}, err
	}
	return Entry{Name: name, Version: bestVersion, Spec: spec}, nil
}
