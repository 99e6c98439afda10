package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-kivik/couchauth"
	"github.com/go-kivik/couchauth/chttp"
)

// Environment variables consulted when the corresponding flag is not given.
const (
	envDB       = "COUCHAUTH_DB"
	envPrefix   = "COUCHAUTH_PREFIX"
	envUser     = "COUCHAUTH_USER"
	envPassword = "COUCHAUTH_PASSWORD"
)

// cli holds the global flags and the client built from them.
type cli struct {
	dbName   string
	prefix   string
	user     string
	password string
	timeout  time.Duration
	verbose  bool

	client *couchauth.Client
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "couchauth",
		Short: "Manage CouchDB sessions, server admins and users.",
		Long: `couchauth logs in and out of a CouchDB server, provisions server admins and
manages the documents of its users database.

The server is derived from a database URL given with --db, or the
COUCHAUTH_DB environment variable, e.g. http://localhost:5984/mydb.
Credentials given with --user and --password are sent as HTTP Basic Auth.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.connect,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&c.dbName, "db", "", "database URL (env "+envDB+")")
	flags.StringVar(&c.prefix, "prefix", "", "prefix joined in front of --db (env "+envPrefix+")")
	flags.StringVarP(&c.user, "user", "u", "", "username for Basic Auth (env "+envUser+")")
	flags.StringVarP(&c.password, "password", "p", "", "password for Basic Auth (env "+envPassword+")")
	flags.DurationVar(&c.timeout, "timeout", 0, "per-request timeout, e.g. 10s")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "log HTTP requests and responses to stderr")

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.sessionCmd(),
		c.membershipCmd(),
		c.signUpAdminCmd(),
		c.deleteAdminCmd(),
		c.signUpCmd(),
		c.getUserCmd(),
		c.putUserCmd(),
		c.deleteUserCmd(),
		c.changePasswordCmd(),
		c.changeUsernameCmd(),
		c.usersURLCmd(),
	)
	return root
}

// fromEnv sets *value from the environment unless the flag was given.
func fromEnv(cmd *cobra.Command, flag, env string, value *string) {
	if cmd.Flags().Changed(flag) {
		return
	}
	if v, ok := os.LookupEnv(env); ok {
		*value = v
	}
}

func (c *cli) connect(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}
	fromEnv(cmd, "db", envDB, &c.dbName)
	fromEnv(cmd, "prefix", envPrefix, &c.prefix)
	fromEnv(cmd, "user", envUser, &c.user)
	fromEnv(cmd, "password", envPassword, &c.password)
	if c.dbName == "" {
		return fmt.Errorf("no database given; use --db or set %s", envDB)
	}
	var opts []couchauth.HandleOption
	if c.prefix != "" {
		opts = append(opts, couchauth.WithPrefix(c.prefix))
	}
	if c.user != "" {
		opts = append(opts, couchauth.WithCredentials(c.user, c.password))
	}
	client, err := couchauth.New(couchauth.NewHandle(c.dbName, opts...))
	if err != nil {
		return err
	}
	c.client = client
	if c.verbose {
		cmd.SetContext(chttp.WithClientTrace(cmd.Context(), newTrace(cmd.ErrOrStderr())))
	}
	return nil
}

// options returns the per-call options implied by the global flags.
func (c *cli) options() *couchauth.Options {
	opts := &couchauth.Options{}
	if c.timeout > 0 {
		opts.HTTP = &chttp.Options{Timeout: c.timeout}
	}
	return opts
}

func newTrace(w io.Writer) *chttp.ClientTrace {
	return &chttp.ClientTrace{
		HTTPRequest: func(req *http.Request) {
			fmt.Fprintf(w, "> %s %s\n", req.Method, req.URL)
		},
		HTTPResponse: func(res *http.Response) {
			fmt.Fprintf(w, "< %s\n", res.Status)
		},
	}
}

// printJSON writes v to the command's output as indented JSON.
func printJSON(cmd *cobra.Command, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

// parseMetadata parses key=value pairs. A value that is valid JSON is stored
// decoded, anything else as a string.
func parseMetadata(pairs []string) (map[string]interface{}, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		i := strings.Index(pair, "=")
		if i < 1 {
			return nil, fmt.Errorf("invalid metadata %q; expected key=value", pair)
		}
		key, raw := pair[:i], pair[i+1:]
		var value interface{}
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		meta[key] = value
	}
	return meta, nil
}
