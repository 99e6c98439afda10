package main

import (
	"github.com/spf13/cobra"
)

func (c *cli) membershipCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "membership",
		Short: "Show the cluster membership of the server.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := c.client.GetMembership(cmd.Context(), c.options())
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
}

func (c *cli) signUpAdminCmd() *cobra.Command {
	var configURL string
	cmd := &cobra.Command{
		Use:   "signup-admin USERNAME PASSWORD",
		Short: "Create a server admin, or change its password.",
		Long: `Create a server admin, or change its password. On a clustered server the
admin is created on the first member node, unless --config-url names another
configuration endpoint. The previous password hash, if any, is printed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.options()
			opts.ConfigURL = configURL
			previous, err := c.client.SignUpAdmin(cmd.Context(), args[0], args[1], opts)
			if err != nil {
				return err
			}
			return printJSON(cmd, previous)
		},
	}
	cmd.Flags().StringVar(&configURL, "config-url", "", "server configuration URL, e.g. http://localhost:5984/_node/n1/_config")
	return cmd
}

func (c *cli) deleteAdminCmd() *cobra.Command {
	var configURL string
	cmd := &cobra.Command{
		Use:   "delete-admin USERNAME",
		Short: "Remove a server admin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.options()
			opts.ConfigURL = configURL
			previous, err := c.client.DeleteAdmin(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			return printJSON(cmd, previous)
		},
	}
	cmd.Flags().StringVar(&configURL, "config-url", "", "server configuration URL")
	return cmd
}
