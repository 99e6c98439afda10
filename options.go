package couchauth

import (
	"github.com/go-kivik/couchauth/chttp"
)

// Options are the per-call options accepted by every operation. A nil
// *Options is equivalent to the zero value.
type Options struct {
	// HTTP overrides the request built by the operation. Any non-zero field
	// replaces the computed value, and headers are replaced key by key. This
	// is also where a timeout is configured.
	HTTP *chttp.Options

	// Metadata holds extra user document fields, applied by SignUp and
	// PutUser. Reserved fields are rejected.
	Metadata map[string]interface{}

	// Roles, if non-nil, replaces the user document's roles in SignUp,
	// PutUser and ChangeUsername.
	Roles []string

	// DisableBasicAuth stops Login from caching the credentials on the handle.
	DisableBasicAuth bool

	// ConfigURL replaces the computed server configuration URL in SignUpAdmin
	// and DeleteAdmin.
	ConfigURL string
}

func (o *Options) http() *chttp.Options {
	if o == nil {
		return nil
	}
	return o.HTTP
}

func normalizeOptions(o *Options) *Options {
	if o == nil {
		return &Options{}
	}
	return o
}
