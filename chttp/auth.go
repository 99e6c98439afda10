package chttp

import (
	"encoding/base64"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	kivik "github.com/go-kivik/kivik/v4"
	"golang.org/x/net/publicsuffix"
)

// BasicAuthHeader returns the value of an Authorization header carrying
// HTTP Basic Auth credentials. Both parts are encoded as UTF-8.
func BasicAuthHeader(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

func setCookieJar(c *http.Client) {
	// If a jar is already set, just use it
	if c.Jar != nil {
		return
	}
	// cookiejar.New never returns an error
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	c.Jar = jar
}

// SessionCookie returns the CouchDB session cookie the client holds for u,
// or nil if there is none.
func (c *Client) SessionCookie(u *url.URL) *http.Cookie {
	if c.Jar == nil {
		return nil
	}
	for _, cookie := range c.Jar.Cookies(u) {
		if cookie.Name == kivik.SessionCookieName {
			return cookie
		}
	}
	return nil
}

// ExpireSessionCookie drops the session cookie held for u, if any, so that
// it is no longer sent.
func (c *Client) ExpireSessionCookie(u *url.URL) {
	cookie := c.SessionCookie(u)
	if cookie == nil {
		return
	}
	// set to expire yesterday to allow us to ditch it
	c.Jar.SetCookies(u, []*http.Cookie{{
		Name:    cookie.Name,
		Value:   cookie.Value,
		Path:    "/",
		Expires: time.Now().AddDate(0, 0, -1),
		MaxAge:  -1,
	}})
}
