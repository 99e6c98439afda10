// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//  http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

package chttp

import (
	"io"
	"net/http"
	"net/url"
	"time"
)

// Options are optional parameters which may be sent with a request.
type Options struct {
	// Method, if set, replaces the HTTP method chosen by the caller.
	Method string

	// URL, if set, replaces the request URL chosen by the caller.
	URL string

	// Accept sets the request's Accept header. Defaults to "application/json".
	// To specify any, use "*/*".
	Accept string

	// ContentType sets the requests's Content-Type header. Defaults to "application/json".
	ContentType string

	// Body sets the body of the request.
	Body io.ReadCloser

	// JSON is an arbitrary data type which is marshaled to the request's body.
	// It an error to set both Body and JSON on the same request. When this is
	// set, ContentType is unconditionally set to 'application/json'.
	JSON interface{}

	// Query is appended to the exiting url, if present. If the passed url
	// already contains query parameters, the values in Query are appended.
	// No merging takes place.
	Query url.Values

	// Header is a list of default headers to be set on the request.
	Header http.Header

	// Timeout, if non-zero, bounds the whole request, including reading the
	// response body.
	Timeout time.Duration
}

// MergeOptions returns a new Options value built from defaults, with every
// non-zero field of overrides replacing its counterpart. Headers are merged
// key by key, so an override only replaces the header keys it names. Neither
// argument is modified, and either may be nil.
func MergeOptions(defaults, overrides *Options) *Options {
	result := &Options{}
	if defaults != nil {
		*result = *defaults
		result.Header = cloneHeader(defaults.Header)
	}
	if overrides == nil {
		return result
	}
	if overrides.Method != "" {
		result.Method = overrides.Method
	}
	if overrides.URL != "" {
		result.URL = overrides.URL
	}
	if overrides.Accept != "" {
		result.Accept = overrides.Accept
	}
	if overrides.ContentType != "" {
		result.ContentType = overrides.ContentType
	}
	if overrides.Body != nil {
		result.Body = overrides.Body
		result.JSON = nil
	}
	if overrides.JSON != nil {
		result.JSON = overrides.JSON
		result.Body = nil
	}
	if overrides.Query != nil {
		result.Query = overrides.Query
	}
	if overrides.Timeout != 0 {
		result.Timeout = overrides.Timeout
	}
	for key, values := range overrides.Header {
		if result.Header == nil {
			result.Header = http.Header{}
		}
		result.Header[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
	}
	return result
}

func cloneHeader(h http.Header) http.Header {
	if h == nil {
		return nil
	}
	clone := make(http.Header, len(h))
	for key, values := range h {
		clone[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
	}
	return clone
}
