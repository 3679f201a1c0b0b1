package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/lebensmittel/cli/internal/session"
)

// LoginCmd logs in and stores the session locally.
type LoginCmd struct {
	ConnectFlags
	Username string `arg:"" help:"Account username"`
	Password string `help:"Password (prompted when omitted)"`
	Save     bool   `help:"Write the server URL to the config file"`
}

func (l *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals, l.ConnectFlags)
	if err != nil {
		return err
	}

	password := l.Password
	if password == "" {
		fmt.Print("Password: ")
		if _, err := fmt.Scanln(&password); err != nil {
			return errors.New("password is required")
		}
	}

	user, _, err := env.session.Login(ctx, l.Username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Printf("Logged in as %s (%s)\n", user.DisplayName, user.Username)

	if l.Save {
		if err := env.cfg.Save(env.configPath); err != nil {
			return err
		}
		fmt.Printf("Server URL saved to %s\n", env.configPath)
	}

	return nil
}

// RegisterCmd creates an account; the server auto-logs the new user in.
type RegisterCmd struct {
	ConnectFlags
	Username    string `arg:"" help:"Account username"`
	DisplayName string `help:"Name shown to other group members" required:""`
	Password    string `help:"Password (prompted when omitted)"`
}

func (r *RegisterCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals, r.ConnectFlags)
	if err != nil {
		return err
	}

	password := r.Password
	if password == "" {
		fmt.Print("Password: ")
		if _, err := fmt.Scanln(&password); err != nil {
			return errors.New("password is required")
		}
	}

	user, _, err := env.session.Register(ctx, r.Username, password, r.DisplayName)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	fmt.Printf("Registered and logged in as %s (%s)\n", user.DisplayName, user.Username)
	return nil
}

// LogoutCmd clears the stored session.
type LogoutCmd struct {
	ConnectFlags
}

func (l *LogoutCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals, l.ConnectFlags)
	if err != nil {
		return err
	}

	if err := env.session.Logout(); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	fmt.Println("Logged out.")
	return nil
}

// WhoamiCmd shows the stored user and session state.
type WhoamiCmd struct {
	ConnectFlags
}

func (w *WhoamiCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals, w.ConnectFlags)
	if err != nil {
		return err
	}

	user, err := env.session.CurrentUser()
	if err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			fmt.Println("Not logged in.")
			return nil
		}
		return err
	}

	fmt.Printf("User:     %s (%s)\n", user.DisplayName, user.Username)
	fmt.Printf("Session:  valid=%v\n", env.session.IsAuthenticated())

	if groupID, err := env.session.ActiveGroupID(ctx); err == nil && groupID != "" {
		fmt.Printf("Group:    %s\n", groupID)
	}

	return nil
}
