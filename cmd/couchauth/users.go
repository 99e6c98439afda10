package main

import (
	"github.com/spf13/cobra"

	"github.com/go-kivik/couchauth"
)

// userFlags are the flags shared by commands that write a user document.
type userFlags struct {
	meta  []string
	roles []string
}

func (f *userFlags) register(cmd *cobra.Command, withMeta bool) {
	if withMeta {
		cmd.Flags().StringArrayVar(&f.meta, "meta", nil, "extra user document field as key=value; repeatable")
	}
	cmd.Flags().StringSliceVar(&f.roles, "role", nil, "replace the user's roles; repeatable")
}

// apply adds the metadata and roles to opts. Roles are only replaced when
// --role was given.
func (f *userFlags) apply(cmd *cobra.Command, opts *couchauth.Options) error {
	meta, err := parseMetadata(f.meta)
	if err != nil {
		return err
	}
	opts.Metadata = meta
	if cmd.Flags().Changed("role") {
		opts.Roles = f.roles
		if opts.Roles == nil {
			opts.Roles = []string{}
		}
	}
	return nil
}

func (c *cli) signUpCmd() *cobra.Command {
	flags := &userFlags{}
	cmd := &cobra.Command{
		Use:     "signup USERNAME PASSWORD",
		Short:   "Create a user.",
		Example: "couchauth signup bob abc123 --meta email=bob@example.com --role editor",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.options()
			if err := flags.apply(cmd, opts); err != nil {
				return err
			}
			result, err := c.client.SignUp(cmd.Context(), args[0], args[1], opts)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
	flags.register(cmd, true)
	return cmd
}

func (c *cli) getUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get-user USERNAME",
		Short: "Show a user document.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.client.GetUser(cmd.Context(), args[0], c.options())
			if err != nil {
				return err
			}
			return printJSON(cmd, user)
		},
	}
}

func (c *cli) putUserCmd() *cobra.Command {
	flags := &userFlags{}
	cmd := &cobra.Command{
		Use:   "put-user USERNAME",
		Short: "Update the metadata or roles of a user.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.options()
			if err := flags.apply(cmd, opts); err != nil {
				return err
			}
			result, err := c.client.PutUser(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
	flags.register(cmd, true)
	return cmd
}

func (c *cli) deleteUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-user USERNAME",
		Short: "Delete a user.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.client.DeleteUser(cmd.Context(), args[0], c.options())
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
}

func (c *cli) changePasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "change-password USERNAME PASSWORD",
		Short: "Set a new password for a user.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.client.ChangePassword(cmd.Context(), args[0], args[1], c.options())
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
}

func (c *cli) changeUsernameCmd() *cobra.Command {
	flags := &userFlags{}
	cmd := &cobra.Command{
		Use:   "change-username OLD NEW",
		Short: "Rename a user.",
		Long: `Rename a user by copying its document to the new name and deleting the
original. If the delete fails, both documents remain.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.options()
			if err := flags.apply(cmd, opts); err != nil {
				return err
			}
			result, err := c.client.ChangeUsername(cmd.Context(), args[0], args[1], opts)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
	flags.register(cmd, false)
	return cmd
}

func (c *cli) usersURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users-url",
		Short: "Print the URL of the users database.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := c.client.UsersDatabaseURL()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write([]byte(u + "\n"))
			return err
		},
	}
}
