package sanitypress

import (
	"net/url"
	"path"
)

// BuildURL joins a base URL with path segments. The site root keeps its
// trailing slash; post and file paths do not get one.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}
