// Command lodge-admin is the operational CLI: migrations, database
// reset and seeding for development, one-shot candidate expiry sweeps,
// and roster cache inspection.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/lodgeworks/lodge-api/config"
	expiryadapter "github.com/lodgeworks/lodge-api/internal/adapters/expiry"
	"github.com/lodgeworks/lodge-api/internal/bootstrap"
	"github.com/lodgeworks/lodge-api/internal/devseed"
)

const defaultMigrationTimeout = 5 * time.Minute

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
}

type command struct {
	name        string
	description string
	run         func(ctx *commandContext, args []string) error
}

func commands() map[string]command {
	return map[string]command{
		"db-reset": {
			name:        "db-reset",
			description: "Drop the database schema, run migrations, and optionally seed data",
			run:         runDBReset,
		},
		"db-seed": {
			name:        "db-seed",
			description: "Run database migrations and seed development data",
			run:         runDBSeed,
		},
		"migrate": {
			name:        "migrate",
			description: "Run database migrations",
			run:         runMigrations,
		},
		"promote": {
			name:        "promote",
			description: "Set a member's role; the global role is re-derived after the edit",
			run:         runPromote,
		},
		"expire-candidates": {
			name:        "expire-candidates",
			description: "Run a single candidate expiry sweep and exit",
			run:         runExpireCandidates,
		},
		"list-roster-cache": {
			name:        "list-roster-cache",
			description: "Inspect cached record-to-lodge roster entries in Redis",
			run:         runListRosterCache,
		},
		"clear-roster-cache": {
			name:        "clear-roster-cache",
			description: "Clear cached record-to-lodge roster entries from Redis",
			run:         runClearRosterCache,
		},
	}
}

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		reportUsage(logger)
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		reportUsage(logger)
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func reportUsage(logger *slog.Logger) {
	if err := printUsage(); err != nil {
		logger.Error("print usage failed", "error", err)
	}
}

func printUsage() error {
	if err := writef(os.Stdout, "Usage: lodge-admin <command> [flags]\n\nAvailable commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(os.Stdout, "  %-24s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

// newFlagSet standardizes subcommand flag sets: parse errors print to
// stderr and return instead of exiting.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

type migrateOptions struct {
	Timeout time.Duration
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	var opts migrateOptions
	fs := newFlagSet("migrate")
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout, "Maximum duration to wait for migrations to complete")
	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, err
	}
	if opts.Timeout <= 0 {
		return migrateOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

type dbResetOptions struct {
	Timeout     time.Duration
	Yes         bool
	Seed        bool
	AllowRemote bool
}

func parseDBResetFlags(args []string) (dbResetOptions, error) {
	var opts dbResetOptions
	fs := newFlagSet("db-reset")
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout, "Maximum duration to wait for reset operations to complete")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")
	fs.BoolVar(&opts.Seed, "seed", false, "Run database seeding after reset completes")
	fs.BoolVar(&opts.AllowRemote, "allow-remote", false, "Permit running against database hosts that do not look local")
	if err := fs.Parse(args); err != nil {
		return dbResetOptions{}, err
	}
	if opts.Timeout <= 0 {
		return dbResetOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

type dbSeedOptions struct {
	Timeout     time.Duration
	AllowRemote bool
}

func parseDBSeedFlags(args []string) (dbSeedOptions, error) {
	var opts dbSeedOptions
	fs := newFlagSet("db-seed")
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout, "Maximum duration to wait for seeding to complete")
	fs.BoolVar(&opts.AllowRemote, "allow-remote", false, "Permit running against database hosts that do not look local")
	if err := fs.Parse(args); err != nil {
		return dbSeedOptions{}, err
	}
	if opts.Timeout <= 0 {
		return dbSeedOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

type expireOptions struct {
	Timeout   time.Duration
	BatchSize int
}

func parseExpireFlags(args []string) (expireOptions, error) {
	var opts expireOptions
	fs := newFlagSet("expire-candidates")
	fs.DurationVar(&opts.Timeout, "timeout", 2*time.Minute, "Maximum duration to wait for the sweep to complete")
	fs.IntVar(&opts.BatchSize, "batch-size", 0, "Override the configured sweep batch size (0 uses the configured value)")
	if err := fs.Parse(args); err != nil {
		return expireOptions{}, err
	}
	if opts.Timeout <= 0 {
		return expireOptions{}, errors.New("--timeout must be greater than zero")
	}
	if opts.BatchSize < 0 {
		return expireOptions{}, errors.New("--batch-size cannot be negative")
	}
	return opts, nil
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		cmdCtx.Logger.Info("running database migrations")
		if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
			return fmt.Errorf("run migrations: %w", migrateErr)
		}
		cmdCtx.Logger.Info("migrations completed successfully")
		return nil
	})
}

func runDBReset(cmdCtx *commandContext, args []string) error {
	opts, err := parseDBResetFlags(args)
	if err != nil {
		return err
	}

	pg := cmdCtx.Config.Postgres
	target := fmt.Sprintf("database %q on %s:%d", pg.Name, pg.Host, pg.Port)

	remote, err := guardRemoteHost(cmdCtx, opts.AllowRemote, "drop and recreate the public schema")
	if err != nil {
		return err
	}

	confirmOpts := dbResetConfirmOptions{yes: opts.Yes, target: target}
	if remote {
		confirmOpts.remoteHost = pg.Host
	}
	if confirmErr := confirmAction(confirmOpts, "reset database schema"); confirmErr != nil {
		return confirmErr
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		cmdCtx.Logger.Info("dropping public schema", "database", pg.Name)
		if resetErr := cmdCtx.resetDatabase(ctx, db); resetErr != nil {
			return resetErr
		}

		cmdCtx.Logger.Info("re-running database migrations")
		if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
			return fmt.Errorf("run migrations: %w", migrateErr)
		}

		if opts.Seed {
			cmdCtx.Logger.Info("seeding development data after reset")
			if seedErr := devseed.Run(ctx, devseed.NewServices(db), cmdCtx.Logger); seedErr != nil {
				return fmt.Errorf("seed data: %w", seedErr)
			}
		}

		cmdCtx.Logger.Info("database reset completed successfully")
		return nil
	})
}

func runDBSeed(cmdCtx *commandContext, args []string) error {
	opts, err := parseDBSeedFlags(args)
	if err != nil {
		return err
	}

	if _, guardErr := guardRemoteHost(cmdCtx, opts.AllowRemote, "seed development data on the configured database"); guardErr != nil {
		return guardErr
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		cmdCtx.Logger.Info("ensuring database migrations are current")
		if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
			return fmt.Errorf("run migrations: %w", migrateErr)
		}

		cmdCtx.Logger.Info("seeding development data")
		if seedErr := devseed.Run(ctx, devseed.NewServices(db), cmdCtx.Logger); seedErr != nil {
			return fmt.Errorf("seed data: %w", seedErr)
		}

		cmdCtx.Logger.Info("database seeding completed successfully")
		return nil
	})
}

func runExpireCandidates(cmdCtx *commandContext, args []string) error {
	opts, err := parseExpireFlags(args)
	if err != nil {
		return err
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		expiryCfg := cmdCtx.Config.Services.Expiry
		if opts.BatchSize > 0 {
			expiryCfg.BatchSize = opts.BatchSize
		}
		expiryCfg.Sanitize()

		runner, runnerErr := expiryadapter.NewRunner(expiryadapter.RunnerOptions{
			DB:     db,
			Config: expiryCfg,
			Logger: cmdCtx.Logger,
		})
		if runnerErr != nil {
			return fmt.Errorf("wire expiry runner: %w", runnerErr)
		}

		expired, sweepErr := runner.SweepOnce(ctx)
		if sweepErr != nil {
			return fmt.Errorf("sweep candidates: %w", sweepErr)
		}

		if err := writef(os.Stdout, "Expired %d overdue candidates\n", expired); err != nil {
			return fmt.Errorf("print sweep summary: %w", err)
		}
		return nil
	})
}

// withDatabase connects, runs f under a deadline plus SIGINT/SIGTERM
// cancellation, and closes the connection.
func withDatabase(cmdCtx *commandContext, timeout time.Duration, f func(context.Context, *sql.DB) error) error {
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", cerr)
		}
	}()

	return f(ctx, db)
}

func (cmdCtx *commandContext) resetDatabase(ctx context.Context, db *sql.DB) error {
	if cmdCtx == nil {
		return errors.New("command context is required")
	}

	cfg := &cmdCtx.Config.Postgres
	statements := []string{
		"DROP SCHEMA public CASCADE",
		"CREATE SCHEMA public",
		"GRANT ALL ON SCHEMA public TO public",
	}
	if user := strings.TrimSpace(cfg.User); user != "" && !strings.EqualFold(user, "public") {
		statements = append(statements, "GRANT ALL ON SCHEMA public TO "+quoteIdentifier(user))
	}

	for _, stmt := range statements {
		if cmdCtx.Logger != nil {
			cmdCtx.Logger.DebugContext(ctx, "executing reset statement", "sql", stmt)
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return nil
}

func quoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// guardRemoteHost blocks destructive commands aimed at a host that does
// not look local. --allow-remote downgrades the block to a typed
// confirmation of the hostname.
func guardRemoteHost(cmdCtx *commandContext, allow bool, action string) (bool, error) {
	host := cmdCtx.Config.Postgres.Host
	if !isLikelyRemoteHost(host) {
		return false, nil
	}
	if !allow {
		return true, fmt.Errorf(
			"refusing to run against potentially remote database host %q; re-run with --allow-remote if this is intentional",
			host,
		)
	}
	return true, requireRemoteHostConfirmation(action, host)
}

func isLikelyRemoteHost(host string) bool {
	h := strings.ToLower(strings.TrimSpace(host))
	switch {
	case h == "", h == "localhost", h == "127.0.0.1", h == "::1":
		return false
	case strings.HasSuffix(h, ".local"):
		return false
	}
	if ip := net.ParseIP(host); ip != nil {
		return !ip.IsLoopback()
	}
	return true
}

func requireRemoteHostConfirmation(action, host string) error {
	err := writef(os.Stderr,
		"\nWARNING: database host %q does not look like a local address.\n"+
			"This operation will %s.\n"+
			"Type %q to continue or press enter to abort: ",
		host, action, host)
	if err != nil {
		return fmt.Errorf("print remote host warning: %w", err)
	}

	resp, err := readPromptLine(os.Stderr)
	if err != nil {
		return err
	}
	if strings.TrimSpace(resp) != host {
		if writeErr := writeln(os.Stderr, "\nRemote safeguard check failed; aborting."); writeErr != nil {
			return fmt.Errorf("print remote safeguard failure: %w", writeErr)
		}
		return errors.New("aborted by user")
	}
	return nil
}

// confirmOptions is what a command must expose for interactive
// confirmation; each destructive command carries its own implementation.
type confirmOptions interface {
	IsDryRun() bool
	IsYes() bool
	GetWarning() string
	GetTarget() string
}

type dbResetConfirmOptions struct {
	yes        bool
	target     string
	remoteHost string
}

func (d dbResetConfirmOptions) IsDryRun() bool { return false }

// IsYes never lets --yes bypass the prompt when the host looks remote.
func (d dbResetConfirmOptions) IsYes() bool { return d.remoteHost == "" && d.yes }

func (d dbResetConfirmOptions) GetWarning() string {
	warning := "WARNING: this will drop and recreate the public schema for the configured database."
	if d.remoteHost != "" {
		warning += fmt.Sprintf(" Host %q appears to be remote; double-check before proceeding.", d.remoteHost)
	}
	return warning
}

func (d dbResetConfirmOptions) GetTarget() string { return d.target }

func confirmAction(opts confirmOptions, actionType string) error {
	if opts.IsDryRun() || opts.IsYes() {
		return nil
	}

	if target := opts.GetTarget(); target != "" {
		if err := writef(os.Stdout, "About to %s for %s.\n", actionType, target); err != nil {
			return fmt.Errorf("print confirmation message: %w", err)
		}
	} else if err := writeln(os.Stdout, opts.GetWarning()); err != nil {
		return fmt.Errorf("print confirmation warning: %w", err)
	}

	if err := write(os.Stdout, "Continue? [y/N]: "); err != nil {
		return fmt.Errorf("print confirmation prompt: %w", err)
	}
	resp, err := readPromptLine(os.Stdout)
	if err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(resp)) {
	case "y", "yes":
		return nil
	}
	return errors.New("aborted by user")
}

// readPromptLine reads one line from stdin, reporting read failures to
// errOut before aborting.
func readPromptLine(errOut io.Writer) (string, error) {
	resp, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		if writeErr := writef(errOut, "\nFailed to read confirmation input: %v\n", err); writeErr != nil {
			return "", fmt.Errorf("aborted by user: report write failed: %w", writeErr)
		}
		return "", errors.New("aborted by user")
	}
	return resp, nil
}

func renderTTL(d time.Duration) string {
	switch {
	case d == -1*time.Second:
		return "no expiry"
	case d == -2*time.Second:
		return "key missing"
	default:
		return d.String()
	}
}
