// Package sanity is a small client for the Sanity content lake: GROQ queries,
// document mutations and image URL construction.
package sanity

import (
	"errors"
	"strings"
)

// DefaultAPIVersion is the dated API version queries are pinned to.
const DefaultAPIVersion = "2021-10-21"

const (
	apiHost = "api.sanity.io"
	cdnHost = "apicdn.sanity.io"

	// DefaultImageHost serves every image asset referenced by documents.
	DefaultImageHost = "https://cdn.sanity.io"
)

// Config identifies the project and dataset a Client talks to.
// It is a plain value: build it once and hand it to New.
type Config struct {
	ProjectID  string
	Dataset    string
	APIVersion string // e.g. "2021-10-21"; a leading "v" is optional
	UseCDN     bool   // read queries go through the edge cache
	Token      string // write token, only sent with mutations

	// APIHost replaces https://<project>.api(cdn).sanity.io entirely.
	// Used for proxies and fake servers in tests.
	APIHost string
	// ImageHost replaces DefaultImageHost.
	ImageHost string
}

// Validate reports whether the project identity is complete.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ProjectID) == "" {
		return errors.New("sanity: project id is required")
	}
	if strings.TrimSpace(c.Dataset) == "" {
		return errors.New("sanity: dataset is required")
	}
	return nil
}

func (c Config) version() string {
	v := strings.TrimPrefix(c.APIVersion, "v")
	if v == "" {
		v = DefaultAPIVersion
	}
	return "v" + v
}

// baseURL returns the API origin. Mutations never use the CDN.
func (c Config) baseURL(cdn bool) string {
	if c.APIHost != "" {
		return strings.TrimRight(c.APIHost, "/")
	}
	host := apiHost
	if cdn {
		host = cdnHost
	}
	return "https://" + c.ProjectID + "." + host
}

func (c Config) imageHost() string {
	if c.ImageHost != "" {
		return strings.TrimRight(c.ImageHost, "/")
	}
	return DefaultImageHost
}
