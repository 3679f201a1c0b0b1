package commands

import (
	"fmt"

	"github.com/lebensmittel/cli/internal/api"
	"github.com/lebensmittel/cli/internal/config"
	"github.com/lebensmittel/cli/internal/keystore"
	"github.com/lebensmittel/cli/internal/logger"
	"github.com/lebensmittel/cli/internal/session"
)

type Globals struct {
	Debug   bool
	Version string
}

// ConnectFlags are shared by every command that talks to the server.
type ConnectFlags struct {
	Server   string `help:"Server URL (overrides the config file)" env:"LEBENSMITTEL_SERVER"`
	Keystore string `help:"Custom keystore directory"`
}

// env bundles the pieces a command needs: one session instance constructed
// here and passed by reference to every collaborator.
type env struct {
	cfg        *config.Config
	configPath string
	session    *session.Manager
	api        *api.Client
}

func newEnv(globals *Globals, flags ConnectFlags) (*env, error) {
	logger.Setup(globals.Debug)

	path, err := config.DefaultPath()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if flags.Server != "" {
		cfg.ServerURL = flags.Server
	}

	store, err := keystore.NewStore(flags.Keystore)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize keystore: %w", err)
	}

	sess := session.NewManager(store, cfg.APIBaseURL(), nil)

	return &env{
		cfg:        cfg,
		configPath: path,
		session:    sess,
		api:        api.New(sess, nil),
	}, nil
}
