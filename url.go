package couchauth

import (
	"net/http"
	"net/url"
	"strings"

	kivik "github.com/go-kivik/kivik/v4"
	"github.com/pkg/errors"

	"github.com/go-kivik/couchauth/chttp"
)

// resolvedName joins the handle's prefix, if any, in front of its name.
func resolvedName(db DB) string {
	prefix := db.Prefix()
	if prefix == "" {
		return db.Name()
	}
	return strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(db.Name(), "/")
}

// baseURL returns the server root for db: the origin of its resolved name
// followed by the parent of its path. A database hosted at
// https://host:5984/sub/mydb resolves to https://host:5984/sub.
func baseURL(db DB) (string, error) {
	name := resolvedName(db)
	u, err := url.Parse(name)
	if err != nil {
		return "", &kivik.Error{Status: http.StatusBadRequest, Err: errors.Wrap(err, "couchauth: invalid database name")}
	}
	if u.Scheme == "" || u.Host == "" {
		return "", &kivik.Error{Status: http.StatusBadRequest, Err: errors.Errorf("couchauth: cannot derive server URL from %q", name)}
	}
	path := strings.TrimSuffix(u.EscapedPath(), "/")
	var parent string
	if i := strings.LastIndex(path, "/"); i > 0 {
		parent = path[:i]
	}
	return u.Scheme + "://" + u.Host + parent, nil
}

// joinURL appends each part to base, separated by exactly one slash.
func joinURL(base string, parts ...string) string {
	result := strings.TrimRight(base, "/")
	for _, part := range parts {
		part = strings.Trim(part, "/")
		if part == "" {
			continue
		}
		result += "/" + part
	}
	return result
}

// configURL returns the server configuration URL. When node is non-empty,
// the node-local configuration of a clustered server is addressed.
func configURL(db DB, node string) (string, error) {
	base, err := baseURL(db)
	if err != nil {
		return "", err
	}
	if node == "" {
		return joinURL(base, "_config"), nil
	}
	return joinURL(base, "_node", url.PathEscape(node), "_config"), nil
}

func usersURL(db DB) (string, error) {
	base, err := baseURL(db)
	if err != nil {
		return "", err
	}
	return joinURL(base, "_users"), nil
}

func sessionURL(db DB) (string, error) {
	base, err := baseURL(db)
	if err != nil {
		return "", err
	}
	return joinURL(base, "_session"), nil
}

func membershipURL(db DB) (string, error) {
	base, err := baseURL(db)
	if err != nil {
		return "", err
	}
	return joinURL(base, "_membership"), nil
}

// userDocURL returns the URL of the user document with the given ID.
func userDocURL(db DB, docID string) (string, error) {
	users, err := usersURL(db)
	if err != nil {
		return "", err
	}
	return users + "/" + chttp.EncodeDocID(docID), nil
}
