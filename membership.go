package couchauth

import (
	"context"
	"net/http"

	"github.com/go-kivik/couchauth/chttp"
)

// Membership lists the nodes of a clustered server.
type Membership struct {
	AllNodes     []string `json:"all_nodes"`
	ClusterNodes []string `json:"cluster_nodes"`
}

// GetMembership returns the cluster membership of the server. A server that
// predates clustering answers with an error for which IsIllegalDatabaseName
// returns true.
func (c *Client) GetMembership(ctx context.Context, opts *Options) (*Membership, error) {
	memberURL, err := membershipURL(c.db)
	if err != nil {
		return nil, err
	}
	result := &Membership{}
	if err := c.do(ctx, http.MethodGet, memberURL, nil, opts, result); err != nil {
		return nil, err
	}
	return result, nil
}

// nodeLookup is the outcome of resolving the node whose configuration holds
// the server admins. A pre-cluster server has a single, unnamed
// configuration, reported as Clustered == false.
type nodeLookup struct {
	Node      string
	Clustered bool
}

// lookupNode resolves the target node: the first member of a clustered
// server, or no node for a pre-cluster server. Any other membership failure
// is returned.
func (c *Client) lookupNode(ctx context.Context, opts *Options) (nodeLookup, error) {
	membership, err := c.GetMembership(ctx, opts)
	if err != nil {
		if IsIllegalDatabaseName(err) {
			return nodeLookup{}, nil
		}
		return nodeLookup{}, err
	}
	if len(membership.AllNodes) == 0 {
		return nodeLookup{Clustered: true}, nil
	}
	return nodeLookup{Node: membership.AllNodes[0], Clustered: true}, nil
}

// adminURL returns the URL of the admin entry for username, honoring
// opts.ConfigURL.
func (c *Client) adminURL(ctx context.Context, username string, opts *Options) (string, error) {
	lookup, err := c.lookupNode(ctx, opts)
	if err != nil {
		return "", err
	}
	config := opts.ConfigURL
	if config == "" {
		config, err = configURL(c.db, lookup.Node)
		if err != nil {
			return "", err
		}
	}
	return joinURL(config, "admins") + "/" + chttp.EscapeSegment(username), nil
}

// SignUpAdmin creates the server admin username, or changes its password if
// it exists. On a clustered server the admin is created on the first member
// node. The previous password hash is returned, or "" for a new admin.
func (c *Client) SignUpAdmin(ctx context.Context, username, password string, opts *Options) (string, error) {
	opts = normalizeOptions(opts)
	if err := c.requireHTTP(); err != nil {
		return "", err
	}
	if err := requireValue(username, msgNoUsername); err != nil {
		return "", err
	}
	if err := requireValue(password, msgNoPassword); err != nil {
		return "", err
	}
	adminURL, err := c.adminURL(ctx, username, opts)
	if err != nil {
		return "", err
	}
	var previous string
	err = c.do(ctx, http.MethodPut, adminURL, password, opts, &previous)
	return previous, err
}

// DeleteAdmin removes the server admin username, returning its password
// hash.
func (c *Client) DeleteAdmin(ctx context.Context, username string, opts *Options) (string, error) {
	opts = normalizeOptions(opts)
	if err := c.requireHTTP(); err != nil {
		return "", err
	}
	if err := requireValue(username, msgNoUsername); err != nil {
		return "", err
	}
	adminURL, err := c.adminURL(ctx, username, opts)
	if err != nil {
		return "", err
	}
	var previous string
	err = c.do(ctx, http.MethodDelete, adminURL, nil, opts, &previous)
	return previous, err
}
