package main

import (
	"github.com/spf13/cobra"
)

func (c *cli) loginCmd() *cobra.Command {
	var noBasicAuth bool
	cmd := &cobra.Command{
		Use:     "login USERNAME PASSWORD",
		Short:   "Start a session.",
		Example: "couchauth --db http://localhost:5984/mydb login bob abc123",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.options()
			opts.DisableBasicAuth = noBasicAuth
			result, err := c.client.Login(cmd.Context(), args[0], args[1], opts)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().BoolVar(&noBasicAuth, "no-basic-auth", false, "rely on the session cookie only")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := c.client.Logout(cmd.Context(), c.options())
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
}

func (c *cli) sessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Show the current session.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := c.client.GetSession(cmd.Context(), c.options())
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]interface{}{
				"name":                    sess.Name,
				"roles":                   sess.Roles,
				"authentication_method":   sess.AuthenticationMethod,
				"authentication_db":       sess.AuthenticationDB,
				"authentication_handlers": sess.AuthenticationHandlers,
			})
		},
	}
}
