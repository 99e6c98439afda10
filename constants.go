package couchauth

// Version is the current version of this package.
const Version = "1.0.0"

// UserPrefix is prepended to a username to form its user document ID.
const UserPrefix = "org.couchdb.user:"

const errIllegalDatabaseName = "illegal_database_name"

// reservedFields may not be set through Options.Metadata. They belong to the
// server's user document schema.
var reservedFields = []string{
	"_id",
	"_rev",
	"name",
	"type",
	"roles",
	"password",
	"password_scheme",
	"iterations",
	"derived_key",
	"salt",
}

// Precondition failure messages.
const (
	msgHTTPOnly       = `couchauth only works with http/https handles; use a handle such as NewHandle("http://mysite.com:5984/mydb") instead`
	msgNoUsername     = "you must provide a username"
	msgNoPassword     = "you must provide a password"
	msgNoNewUsername  = "you must provide a new username"
	msgNoRenameSource = "you must provide a username to rename"
	msgUserExists     = "user already exists"
	msgReservedField  = "cannot use reserved word in metadata: %q"
)
