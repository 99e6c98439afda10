package couchauth

import (
	"context"
	"net/http"
	"net/url"
	"sort"
)

// DocResult is the server's response to a document write.
type DocResult struct {
	OK  bool   `json:"ok"`
	ID  string `json:"id"`
	Rev string `json:"rev"`
}

// UsersDatabaseURL returns the URL of the server's users database.
func (c *Client) UsersDatabaseURL() (string, error) {
	return usersURL(c.db)
}

// userPrecondition checks the handle type and the username common to every
// user operation.
func (c *Client) userPrecondition(username string) error {
	if err := c.requireHTTP(); err != nil {
		return err
	}
	return requireValue(username, msgNoUsername)
}

// metadataKeys returns the keys of opts.Metadata in sorted order, or an
// AuthError naming the first reserved one.
func metadataKeys(opts *Options) ([]string, error) {
	keys := make([]string, 0, len(opts.Metadata))
	for key := range opts.Metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if isReserved(key) {
			return nil, authError(msgReservedField, key)
		}
	}
	return keys, nil
}

// updateUser applies opts.Metadata and opts.Roles to user and stores it.
// user is modified in place.
func (c *Client) updateUser(ctx context.Context, user *UserDoc, opts *Options) (*DocResult, error) {
	keys, err := metadataKeys(opts)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		if user.Metadata == nil {
			user.Metadata = make(map[string]interface{}, len(keys))
		}
		user.Metadata[key] = opts.Metadata[key]
	}
	if opts.Roles != nil {
		user.Roles = opts.Roles
	}
	return c.putUserDoc(ctx, user, opts)
}

// putUserDoc stores user as-is.
func (c *Client) putUserDoc(ctx context.Context, user *UserDoc, opts *Options) (*DocResult, error) {
	docURL, err := userDocURL(c.db, user.ID)
	if err != nil {
		return nil, err
	}
	result := &DocResult{}
	if err := c.do(ctx, http.MethodPut, docURL, user, opts, result); err != nil {
		return nil, err
	}
	return result, nil
}

// SignUp creates a user with no roles, applying opts.Metadata and opts.Roles.
// The server hashes the password.
func (c *Client) SignUp(ctx context.Context, username, password string, opts *Options) (*DocResult, error) {
	opts = normalizeOptions(opts)
	if err := c.userPrecondition(username); err != nil {
		return nil, err
	}
	if err := requireValue(password, msgNoPassword); err != nil {
		return nil, err
	}
	return c.updateUser(ctx, newUserDoc(username, password), opts)
}

// GetUser fetches the user document for username.
func (c *Client) GetUser(ctx context.Context, username string, opts *Options) (*UserDoc, error) {
	if err := c.userPrecondition(username); err != nil {
		return nil, err
	}
	docURL, err := userDocURL(c.db, UserPrefix+username)
	if err != nil {
		return nil, err
	}
	user := &UserDoc{}
	if err := c.do(ctx, http.MethodGet, docURL, nil, opts, user); err != nil {
		return nil, err
	}
	return user, nil
}

// PutUser fetches the user document for username and stores it again with
// opts.Metadata and opts.Roles applied.
func (c *Client) PutUser(ctx context.Context, username string, opts *Options) (*DocResult, error) {
	opts = normalizeOptions(opts)
	if err := c.userPrecondition(username); err != nil {
		return nil, err
	}
	if _, err := metadataKeys(opts); err != nil {
		return nil, err
	}
	user, err := c.GetUser(ctx, username, opts)
	if err != nil {
		return nil, err
	}
	return c.updateUser(ctx, user, opts)
}

// DeleteUser deletes the current revision of the user document for
// username.
func (c *Client) DeleteUser(ctx context.Context, username string, opts *Options) (*DocResult, error) {
	if err := c.userPrecondition(username); err != nil {
		return nil, err
	}
	user, err := c.GetUser(ctx, username, opts)
	if err != nil {
		return nil, err
	}
	docURL, err := userDocURL(c.db, user.ID)
	if err != nil {
		return nil, err
	}
	result := &DocResult{}
	if err := c.do(ctx, http.MethodDelete, docURL+"?rev="+url.QueryEscape(user.Rev), nil, opts, result); err != nil {
		return nil, err
	}
	return result, nil
}

// ChangePassword sets a new password on the user document for username. The
// server hashes it.
func (c *Client) ChangePassword(ctx context.Context, username, password string, opts *Options) (*DocResult, error) {
	opts = normalizeOptions(opts)
	if err := c.userPrecondition(username); err != nil {
		return nil, err
	}
	if err := requireValue(password, msgNoPassword); err != nil {
		return nil, err
	}
	if _, err := metadataKeys(opts); err != nil {
		return nil, err
	}
	user, err := c.GetUser(ctx, username, opts)
	if err != nil {
		return nil, err
	}
	user.Password = password
	return c.updateUser(ctx, user, opts)
}

// ChangeUsername renames a user by copying its document to the new ID and
// then deleting the original. It fails with an AuthError for which IsTaken
// returns true if newUsername already exists.
//
// The new document is written first. If deleting the original then fails,
// both documents remain and the error of the delete is returned; removing
// the duplicate is left to the caller. The result of the delete is returned
// on success.
func (c *Client) ChangeUsername(ctx context.Context, oldUsername, newUsername string, opts *Options) (*DocResult, error) {
	opts = normalizeOptions(opts)
	if err := c.requireHTTP(); err != nil {
		return nil, err
	}
	if err := requireValue(newUsername, msgNoNewUsername); err != nil {
		return nil, err
	}
	if err := requireValue(oldUsername, msgNoRenameSource); err != nil {
		return nil, err
	}
	if _, err := c.GetUser(ctx, newUsername, opts); err == nil {
		return nil, &AuthError{Message: msgUserExists, Taken: true}
	}
	user, err := c.GetUser(ctx, oldUsername, opts)
	if err != nil {
		return nil, err
	}
	renamed := user.Copy()
	renamed.Rev = ""
	renamed.ID = UserPrefix + newUsername
	renamed.Name = newUsername
	if opts.Roles != nil {
		renamed.Roles = opts.Roles
	}
	if _, err := c.putUserDoc(ctx, renamed, opts); err != nil {
		return nil, err
	}
	user.Deleted = true
	return c.putUserDoc(ctx, user, opts)
}
