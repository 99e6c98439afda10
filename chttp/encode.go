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
	"bytes"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"

	kivik "github.com/go-kivik/kivik/v4"
	"github.com/pkg/errors"
)

const (
	prefixDesign = "_design/"
	prefixLocal  = "_local/"
)

// EncodeDocID encodes a document ID according to CouchDB's path encoding rules.
//
// In particular:
// -  '_design/' and '_local/' prefixes are unaltered.
// - The rest of the docID is Query-URL encoded (despite being part of the
//   path), with spaces encoded as %20 rather than '+'.
func EncodeDocID(docID string) string {
	for _, prefix := range []string{prefixDesign, prefixLocal} {
		if strings.HasPrefix(docID, prefix) {
			return prefix + EscapeSegment(strings.TrimPrefix(docID, prefix))
		}
	}
	return EscapeSegment(docID)
}

// EscapeSegment encodes s for use as a single URL path segment. Unlike
// url.PathEscape, every reserved character is encoded, including '/', ':'
// and '@'.
func EscapeSegment(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// EncodeBody JSON encodes i to an io.ReadCloser. A nil value encodes as
// "null".
func EncodeBody(i interface{}) (io.ReadCloser, error) {
	buf, err := json.Marshal(i)
	if err != nil {
		return nil, &kivik.Error{Status: http.StatusBadRequest, Err: errors.Wrap(err, "chttp: encode request body")}
	}
	return ioutil.NopCloser(bytes.NewReader(buf)), nil
}
