/*
Package couchauth provides session login and logout, server admin
provisioning and user document management for a CouchDB server, given a
handle to one of its databases.

Handles

Administrative endpoints are resolved relative to the server that hosts the
handle's database. The server root is the origin of the handle's name
(joined after its prefix, if any) followed by the parent of its path, so a
database at https://example.com:5984/couch/mydb is administered through
https://example.com:5984/couch/_session, /couch/_users and so on.

    db := couchauth.NewHandle("http://localhost:5984/mydb")
    client, _ := couchauth.New(db)

Authentication

Every request carries HTTP Basic Auth credentials when available: those cached
on the handle by a successful Login, or else those embedded in the handle's
name. Without either, requests rely on the session cookie kept by the
client's cookie jar.

    _, err := client.Login(ctx, "bob", "abc123", nil)

Errors

Failed local preconditions, such as a handle that is not http or https or a
missing username, return an *AuthError without contacting the server. Server
errors are returned as *chttp.HTTPError; StatusCode and ErrorName inspect
either kind. Network failures are returned as reported by net/http. No
operation retries.
*/
package couchauth
