package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
)

// GroupsCmd manages household groups.
type GroupsCmd struct {
	List       GroupsListCmd       `cmd:"" help:"List your groups"`
	Create     GroupsCreateCmd     `cmd:"" help:"Create a group"`
	Join       GroupsJoinCmd       `cmd:"" help:"Join a group with an invite code"`
	Rename     GroupsRenameCmd     `cmd:"" help:"Rename a group"`
	Leave      GroupsLeaveCmd      `cmd:"" help:"Leave a group"`
	InviteCode GroupsInviteCodeCmd `cmd:"" name:"invite-code" help:"Mint an invite code for a group"`
	Switch     GroupsSwitchCmd     `cmd:"" help:"Switch the active group"`
}

// GroupsListCmd lists the current user's groups.
type GroupsListCmd struct {
	ConnectFlags
}

func (g *GroupsListCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals, g.ConnectFlags)
	if err != nil {
		return err
	}

	groups, err := env.api.MyGroups(ctx)
	if err != nil {
		return fmt.Errorf("failed to list groups: %w", err)
	}

	if len(groups) == 0 {
		fmt.Println("No groups found.")
		fmt.Println()
		fmt.Println("Create one with:")
		fmt.Println("  lebensmittel-cli groups create <name>")
		return nil
	}

	activeID, _ := env.session.ActiveGroupID(ctx)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tACTIVE")
	for _, group := range groups {
		active := ""
		if group.ID == activeID {
			active = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", group.ID, group.Name, active)
	}
	w.Flush()
	return nil
}

// GroupsCreateCmd creates a new group.
type GroupsCreateCmd struct {
	ConnectFlags
	Name string `arg:"" help:"Group name"`
}

func (g *GroupsCreateCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals, g.ConnectFlags)
	if err != nil {
		return err
	}

	group, err := env.api.CreateGroup(ctx, g.Name)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}

	fmt.Printf("Group %q created (%s).\n", group.Name, group.ID)
	return nil
}

// GroupsJoinCmd joins a group using an invite code.
type GroupsJoinCmd struct {
	ConnectFlags
	Code string `arg:"" help:"Invite code"`
}

func (g *GroupsJoinCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals, g.ConnectFlags)
	if err != nil {
		return err
	}

	groupID, err := env.api.JoinGroup(ctx, g.Code)
	if err != nil {
		return fmt.Errorf("failed to join group: %w", err)
	}

	fmt.Printf("Joined group %s.\n", groupID)
	return nil
}

// GroupsRenameCmd renames a group.
type GroupsRenameCmd struct {
	ConnectFlags
	ID   string `arg:"" help:"Group id"`
	Name string `arg:"" help:"New name"`
}

func (g *GroupsRenameCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals, g.ConnectFlags)
	if err != nil {
		return err
	}

	group, err := env.api.RenameGroup(ctx, g.ID, g.Name)
	if err != nil {
		return fmt.Errorf("failed to rename group: %w", err)
	}

	fmt.Printf("Group renamed to %q.\n", group.Name)
	return nil
}

// GroupsLeaveCmd removes the current user from a group.
type GroupsLeaveCmd struct {
	ConnectFlags
	ID string `arg:"" help:"Group id"`
}

func (g *GroupsLeaveCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals, g.ConnectFlags)
	if err != nil {
		return err
	}

	if err := env.api.LeaveGroup(ctx, g.ID); err != nil {
		return fmt.Errorf("failed to leave group: %w", err)
	}

	// Leaving the active group clears the local cache; the next lookup
	// asks the server again.
	if activeID, err := env.session.ActiveGroupID(ctx); err == nil && activeID == g.ID {
		if err := env.session.SetActiveGroup(""); err != nil {
			return err
		}
	}

	fmt.Printf("Left group %s.\n", g.ID)
	return nil
}

// GroupsInviteCodeCmd mints a short-lived invite code.
type GroupsInviteCodeCmd struct {
	ConnectFlags
	ID string `arg:"" help:"Group id"`
}

func (g *GroupsInviteCodeCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals, g.ConnectFlags)
	if err != nil {
		return err
	}

	code, err := env.api.InviteCode(ctx, g.ID)
	if err != nil {
		return fmt.Errorf("failed to get invite code: %w", err)
	}

	fmt.Printf("Invite code: %s\n", code)
	fmt.Println("Codes expire after 15 minutes.")
	return nil
}

// GroupsSwitchCmd switches the locally cached active group.
type GroupsSwitchCmd struct {
	ConnectFlags
	ID string `arg:"" help:"Group id"`
}

func (g *GroupsSwitchCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals, g.ConnectFlags)
	if err != nil {
		return err
	}

	if err := env.session.SetActiveGroup(g.ID); err != nil {
		return fmt.Errorf("failed to switch group: %w", err)
	}

	fmt.Printf("Active group set to %s.\n", g.ID)
	return nil
}
