// Package cli holds the maintenance subcommands of the scribe binary.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/scribe/internal/config"
	"github.com/mrlokans/scribe/internal/covers"
	"github.com/mrlokans/scribe/internal/database"
	"github.com/mrlokans/scribe/internal/database/stories"
	"github.com/mrlokans/scribe/internal/tasks"
)

// CoverAuditCommand reconciles stored cover files with story rows once.
type CoverAuditCommand struct {
	Driver       string
	DatabasePath string
	DatabaseURL  string
	UploadDir    string
	DryRun       bool
	Verbose      bool

	out io.Writer
}

func NewCoverAuditCommand() *CoverAuditCommand {
	return &CoverAuditCommand{out: os.Stdout}
}

func (cmd *CoverAuditCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("cover-audit", flag.ContinueOnError)

	fs.StringVar(&cmd.Driver, "driver", database.DriverSQLite, "Database driver: sqlite or postgres")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the SQLite database")
	fs.StringVar(&cmd.DatabaseURL, "url", "", "PostgreSQL connection URL (with -driver postgres)")
	fs.StringVar(&cmd.UploadDir, "uploads", config.DefaultUploadDir, "Directory holding cover images")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Report problems without fixing them")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "List every affected story and file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s cover-audit [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Clear cover references whose image file is missing and delete\n")
		fmt.Fprintf(os.Stderr, "cover files that belong to no story.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s cover-audit -dry-run -verbose\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s cover-audit -db /data/scribe.db -uploads /data/uploads\n", os.Args[0])
	}

	return fs.Parse(args)
}

func (cmd *CoverAuditCommand) Run() error {
	if cmd.out == nil {
		cmd.out = os.Stdout
	}
	fmt.Fprintln(cmd.out, "Cover Audit")
	fmt.Fprintln(cmd.out, "===========")
	if cmd.DryRun {
		fmt.Fprintln(cmd.out, "DRY RUN MODE - No changes will be made")
	}

	if _, err := os.Stat(cmd.UploadDir); os.IsNotExist(err) {
		return fmt.Errorf("upload directory not found: %s", cmd.UploadDir)
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

	store, err := covers.NewFileStore(cmd.UploadDir)
	if err != nil {
		return err
	}

	report, err := tasks.NewCoverAuditor(stories.NewRepository(db.DB), store).Run(context.Background(), cmd.DryRun)
	if err != nil {
		return err
	}

	if cmd.Verbose {
		for _, id := range report.DanglingRefs {
			fmt.Fprintf(cmd.out, "  story %d: cover file missing\n", id)
		}
		for _, name := range report.OrphanFiles {
			fmt.Fprintf(cmd.out, "  %s: no matching story\n", name)
		}
	}
	fmt.Fprintf(cmd.out, "\nDone: %s\n", report)

	if report.FailedRepairs > 0 {
		return fmt.Errorf("%d repairs failed", report.FailedRepairs)
	}
	return nil
}
