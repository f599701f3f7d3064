package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/scribe/internal/auth"
	"github.com/mrlokans/scribe/internal/config"
	"github.com/mrlokans/scribe/internal/database"
)

// CreateUserCommand registers an account without going through the web form.
type CreateUserCommand struct {
	Driver       string
	DatabasePath string
	DatabaseURL  string
	Username     string
	Password     string
	BcryptCost   int

	out io.Writer
}

func NewCreateUserCommand() *CreateUserCommand {
	return &CreateUserCommand{out: os.Stdout}
}

func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)

	fs.StringVar(&cmd.Driver, "driver", database.DriverSQLite, "Database driver: sqlite or postgres")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the SQLite database")
	fs.StringVar(&cmd.DatabaseURL, "url", "", "PostgreSQL connection URL (with -driver postgres)")
	fs.StringVar(&cmd.Username, "username", "", "Username (required)")
	fs.StringVar(&cmd.Password, "password", "", "Password (defaults to $SCRIBE_PASSWORD)")
	fs.IntVar(&cmd.BcryptCost, "cost", 0, "bcrypt cost (0 uses the library default)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user -username <name> [options]\n\n", os.Args[0])
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Username == "" {
		return fmt.Errorf("required flag -username not provided")
	}
	if cmd.Password == "" {
		cmd.Password = os.Getenv("SCRIBE_PASSWORD")
	}
	if cmd.Password == "" {
		return fmt.Errorf("password not provided: use -password or SCRIBE_PASSWORD")
	}
	return nil
}

func (cmd *CreateUserCommand) Run() error {
	if cmd.out == nil {
		cmd.out = os.Stdout
	}

	db, err := database.Open(database.Options{
		Driver:   cmd.Driver,
		Path:     cmd.DatabasePath,
		URL:      cmd.DatabaseURL,
		LogLevel: "silent",
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	service := auth.NewService(db.DB, config.Auth{BcryptCost: cmd.BcryptCost})
	user, err := service.Register(context.Background(), cmd.Username, cmd.Password)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Fprintf(cmd.out, "Created user %q (id %d)\n", user.Username, user.ID)
	return nil
}
