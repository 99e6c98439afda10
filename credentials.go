package couchauth

import (
	"net/http"
	"net/url"

	"github.com/go-kivik/couchauth/chttp"
)

// authHeader returns the headers that authenticate a request made on behalf
// of db. Credentials cached on the handle take precedence over credentials
// embedded in its name. With neither, the header is empty and the request
// relies on any session cookie held by the transport.
func authHeader(db DB) http.Header {
	header := http.Header{}
	if creds := db.Credentials(); creds != nil {
		header.Set("Authorization", chttp.BasicAuthHeader(creds.Username, creds.Password))
		return header
	}
	u, err := url.Parse(db.Name())
	if err != nil || u.User == nil {
		return header
	}
	password, _ := u.User.Password()
	header.Set("Authorization", chttp.BasicAuthHeader(u.User.Username(), password))
	return header
}
