package couchauth

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// UserDoc is a document in the server's users database.
type UserDoc struct {
	ID      string
	Rev     string
	Deleted bool

	Name string
	// Password is write-only. The server replaces it with a hash, so it is
	// never present on a fetched document.
	Password string
	Roles    []string
	Type     string

	// Fields derived by the server from Password.
	PasswordScheme string
	Iterations     int
	DerivedKey     string
	Salt           string

	// Metadata holds every other field.
	Metadata map[string]interface{}
}

// docFields mirrors the typed fields of UserDoc for JSON decoding.
type docFields struct {
	ID             string   `json:"_id"`
	Rev            string   `json:"_rev"`
	Deleted        bool     `json:"_deleted"`
	Name           string   `json:"name"`
	Password       string   `json:"password"`
	Roles          []string `json:"roles"`
	Type           string   `json:"type"`
	PasswordScheme string   `json:"password_scheme"`
	Iterations     int      `json:"iterations"`
	DerivedKey     string   `json:"derived_key"`
	Salt           string   `json:"salt"`
}

func isTypedField(key string) bool {
	if key == "_deleted" {
		return true
	}
	return isReserved(key)
}

func isReserved(key string) bool {
	for _, field := range reservedFields {
		if key == field {
			return true
		}
	}
	return false
}

// newUserDoc returns the document for a new user.
func newUserDoc(username, password string) *UserDoc {
	return &UserDoc{
		ID:       UserPrefix + username,
		Name:     username,
		Password: password,
		Roles:    []string{},
		Type:     "user",
	}
}

// MarshalJSON satisfies the json.Marshaler interface. Typed fields take
// precedence over Metadata entries of the same name.
func (d *UserDoc) MarshalJSON() ([]byte, error) {
	doc := make(map[string]interface{}, len(d.Metadata)+8)
	for key, value := range d.Metadata {
		doc[key] = value
	}
	doc["_id"] = d.ID
	if d.Rev != "" {
		doc["_rev"] = d.Rev
	}
	if d.Deleted {
		doc["_deleted"] = true
	}
	doc["name"] = d.Name
	if d.Password != "" {
		doc["password"] = d.Password
	}
	roles := d.Roles
	if roles == nil {
		roles = []string{}
	}
	doc["roles"] = roles
	doc["type"] = d.Type
	if d.PasswordScheme != "" {
		doc["password_scheme"] = d.PasswordScheme
	}
	if d.Iterations != 0 {
		doc["iterations"] = d.Iterations
	}
	if d.DerivedKey != "" {
		doc["derived_key"] = d.DerivedKey
	}
	if d.Salt != "" {
		doc["salt"] = d.Salt
	}
	return json.Marshal(doc)
}

// UnmarshalJSON satisfies the json.Unmarshaler interface.
func (d *UserDoc) UnmarshalJSON(data []byte) error {
	var fields docFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return errors.Wrap(err, "couchauth: decode user document")
	}
	var all map[string]interface{}
	if err := json.Unmarshal(data, &all); err != nil {
		return errors.Wrap(err, "couchauth: decode user document")
	}
	*d = UserDoc{
		ID:             fields.ID,
		Rev:            fields.Rev,
		Deleted:        fields.Deleted,
		Name:           fields.Name,
		Password:       fields.Password,
		Roles:          fields.Roles,
		Type:           fields.Type,
		PasswordScheme: fields.PasswordScheme,
		Iterations:     fields.Iterations,
		DerivedKey:     fields.DerivedKey,
		Salt:           fields.Salt,
	}
	for key, value := range all {
		if isTypedField(key) {
			continue
		}
		if d.Metadata == nil {
			d.Metadata = make(map[string]interface{})
		}
		d.Metadata[key] = value
	}
	return nil
}

// Copy returns a deep copy of d.
func (d *UserDoc) Copy() *UserDoc {
	clone := *d
	if d.Roles != nil {
		clone.Roles = append([]string{}, d.Roles...)
	}
	if d.Metadata != nil {
		clone.Metadata = copyValue(d.Metadata).(map[string]interface{})
	}
	return &clone
}

// copyValue copies a decoded JSON value: objects and arrays are copied
// recursively, scalars are returned as-is.
func copyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		clone := make(map[string]interface{}, len(t))
		for key, value := range t {
			clone[key] = copyValue(value)
		}
		return clone
	case []interface{}:
		clone := make([]interface{}, len(t))
		for i, value := range t {
			clone[i] = copyValue(value)
		}
		return clone
	default:
		return v
	}
}
