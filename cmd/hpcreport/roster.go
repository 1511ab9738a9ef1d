package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/j-veylop/hpc-usage-report/internal/models"
	"github.com/j-veylop/hpc-usage-report/internal/ui/components"
	"github.com/j-veylop/hpc-usage-report/internal/ui/confirm"
	"github.com/j-veylop/hpc-usage-report/internal/ui/styles"
)

// ask is replaced in tests.
var ask = func(question string) (bool, error) {
	return confirm.Ask(question, os.Stdin, os.Stderr)
}

// confirmed prints summary and asks for confirmation unless yes is set.
func confirmed(cmd *cobra.Command, summary string, yes bool) (bool, error) {
	fmt.Fprintln(cmd.ErrOrStderr(), summary)
	if yes {
		return true, nil
	}
	ok, err := ask("Is this correct?")
	if err != nil {
		return false, err
	}
	if !ok {
		fmt.Fprintln(cmd.ErrOrStderr(), "Aborted.")
	}
	return ok, nil
}

func newGroupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage the research groups in the roster",
	}
	cmd.AddCommand(newGroupAddCmd(), newGroupRemoveCmd(), newGroupListCmd())
	return cmd
}

func newGroupAddCmd() *cobra.Command {
	var yes bool
	var projects []string

	cmd := &cobra.Command{
		Use:   "add <gid> <ngid> <first> <last> <email> <department>",
		Short: "Add a group",
		Args:  cobra.ExactArgs(6),
		RunE: func(cmd *cobra.Command, args []string) error {
			group := models.Group{
				GID:        args[0],
				NGID:       args[1],
				FirstName:  args[2],
				LastName:   args[3],
				Email:      args[4],
				Department: args[5],
				Projects:   projects,
			}

			summary := fmt.Sprintf("You entered\ngid: %s\nngid: %s\nfirst name: %s\nlast name: %s\nemail: %s\ndepartment: %s",
				group.GID, group.NGID, group.FirstName, group.LastName, group.Email, group.Department)
			if len(projects) > 0 {
				summary += "\nprojects: " + strings.Join(projects, ", ")
			}
			if ok, err := confirmed(cmd, summary, yes); err != nil || !ok {
				return err
			}

			mgr, _, err := openManager()
			if err != nil {
				return err
			}
			defer closeManager(mgr)

			if err := mgr.Roster().AddGroup(group); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added group %s\n", group.GID)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().StringSliceVar(&projects, "project", nil, "Project account owned by the group (repeatable)")
	return cmd
}

func newGroupRemoveCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove <gid>",
		Short: "Remove a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, err := openManager()
			if err != nil {
				return err
			}
			defer closeManager(mgr)

			group, ok := mgr.Roster().Group(args[0])
			if !ok {
				return fmt.Errorf("group not found: %s", args[0])
			}
			summary := fmt.Sprintf("Removing group %s (%s, %s)", group.GID, group.DisplayName(), group.Department)
			if ok, err := confirmed(cmd, summary, yes); err != nil || !ok {
				return err
			}

			if err := mgr.Roster().RemoveGroup(group.GID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed group %s\n", group.GID)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newGroupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, err := openManager()
			if err != nil {
				return err
			}
			defer closeManager(mgr)

			groups := mgr.Roster().Groups()
			rows := make([][]string, len(groups))
			for i, g := range groups {
				rows[i] = []string{g.GID, g.NGID, g.FirstName, g.LastName, g.Department, g.Email, strings.Join(g.Projects, ",")}
			}
			fmt.Fprintln(cmd.OutOrStdout(), components.RenderList(
				[]string{"gid", "ngid", "First name", "Last name", "Department", "Email", "Projects"}, rows))
			return nil
		},
	}
}

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage the cluster users in the roster",
	}
	cmd.AddCommand(newUserAddCmd(), newUserRemoveCmd(), newUserListCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "add <uid> <gid> <nuid> <first> <last> <email>",
		Short: "Add a user",
		Args:  cobra.ExactArgs(6),
		RunE: func(cmd *cobra.Command, args []string) error {
			user := models.User{
				UID:       args[0],
				GID:       args[1],
				NUID:      args[2],
				FirstName: args[3],
				LastName:  args[4],
				Email:     args[5],
			}

			summary := fmt.Sprintf("You entered\nuid: %s\ngid: %s\nnuid: %s\nfirst name: %s\nlast name: %s\nemail: %s",
				user.UID, user.GID, user.NUID, user.FirstName, user.LastName, user.Email)
			if ok, err := confirmed(cmd, summary, yes); err != nil || !ok {
				return err
			}

			mgr, _, err := openManager()
			if err != nil {
				return err
			}
			defer closeManager(mgr)

			resolver := mgr.Roster().Resolver()
			if _, isGroup := resolver.Group(user.GID); !isGroup && !resolver.IsKnownOwner(user.GID) {
				fmt.Fprintln(cmd.ErrOrStderr(), styles.WarningTextStyle.Render(
					fmt.Sprintf("Warning: %s is not a known group or project; usage will count as misc", user.GID)))
			}
			if err := mgr.Roster().AddUser(user); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added user %s\n", user.UID)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newUserRemoveCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove <uid>",
		Short: "Remove a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, err := openManager()
			if err != nil {
				return err
			}
			defer closeManager(mgr)

			user, ok := mgr.Roster().User(args[0])
			if !ok {
				return fmt.Errorf("user not found: %s", args[0])
			}
			summary := fmt.Sprintf("Removing user %s (%s, group %s)", user.UID, user.DisplayName(), user.GID)
			if ok, err := confirmed(cmd, summary, yes); err != nil || !ok {
				return err
			}

			if err := mgr.Roster().RemoveUser(user.UID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed user %s\n", user.UID)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, err := openManager()
			if err != nil {
				return err
			}
			defer closeManager(mgr)

			users := mgr.Roster().Users()
			rows := make([][]string, len(users))
			for i, u := range users {
				rows[i] = []string{u.UID, u.GID, u.NUID, u.FirstName, u.LastName, u.Email}
			}
			fmt.Fprintln(cmd.OutOrStdout(), components.RenderList(
				[]string{"uid", "gid", "nuid", "First name", "Last name", "Email"}, rows))
			return nil
		},
	}
}
