package chttp

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"mime"
	"net/http"
	"strings"
)

// HTTPError is an error that represents a non-2xx response from the server.
type HTTPError struct {
	// Response is the server response. Its body has been consumed.
	Response *http.Response `json:"-"`

	// Code is the HTTP status code.
	Code int `json:"-"`

	// Name is the lower-cased status phrase of the response, e.g.
	// "unauthorized". It is only set when the server sent a parsable error
	// body.
	Name string `json:"-"`

	// Type is the server-reported error identifier, from the "error" field of
	// the body, e.g. "illegal_database_name" or "conflict".
	Type string `json:"error"`

	// Reason is the server-reported explanation.
	Reason string `json:"reason"`

	// Body holds every field of the parsed error body, including those
	// mirrored in Type and Reason.
	Body map[string]interface{} `json:"-"`
}

func (e *HTTPError) Error() string {
	if e.Reason == "" {
		return http.StatusText(e.Code)
	}
	if statusText := http.StatusText(e.Code); statusText != "" {
		return fmt.Sprintf("%s: %s", statusText, e.Reason)
	}
	return e.Reason
}

// StatusCode returns the embedded status code.
func (e *HTTPError) StatusCode() int {
	return e.Code
}

// ResponseError returns an error from an *http.Response, or nil if the
// response carries a 1xx, 2xx or 3xx status. A JSON error body is merged onto
// the error; the status phrase then becomes its Name.
func ResponseError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()
	httpErr := &HTTPError{
		Response: resp,
		Code:     resp.StatusCode,
	}
	if resp.Request != nil && resp.Request.Method == http.MethodHead {
		return httpErr
	}
	ct, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if ct != typeJSON {
		return httpErr
	}
	raw, err := ioutil.ReadAll(resp.Body)
	if err != nil || len(raw) == 0 {
		return httpErr
	}
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return httpErr
	}
	httpErr.Body = body
	httpErr.Type, _ = body["error"].(string)
	httpErr.Reason, _ = body["reason"].(string)
	if phrase := statusPhrase(resp); phrase != "" {
		httpErr.Name = strings.ToLower(phrase)
	}
	return httpErr
}

// statusPhrase extracts "Not Found" from a Status of "404 Not Found", falling
// back to the standard text for the code.
func statusPhrase(resp *http.Response) string {
	if parts := strings.SplitN(resp.Status, " ", 2); len(parts) == 2 && parts[1] != "" {
		return parts[1]
	}
	return http.StatusText(resp.StatusCode)
}
