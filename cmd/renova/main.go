package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/erazemk/renova/internal/api"
	"github.com/erazemk/renova/internal/archive"
	"github.com/erazemk/renova/internal/audit"
	"github.com/erazemk/renova/internal/config"
	"github.com/erazemk/renova/internal/db"
	"github.com/erazemk/renova/internal/engine"
	"github.com/erazemk/renova/internal/model"
	"github.com/erazemk/renova/internal/store"
)

const usage = `Usage: renova [command] [flags]

Commands:
  serve                   run the HTTP server (default)
  init                    create the database and print the account passwords
  export [-o <path>] [-archive]
                          write the activity report as CSV (default: stdout),
                          or upload it to the configured bucket
  passwd -u <username>    set a user's password
  reset -yes              restore default inventory, clear loans and logs
  help                    show this help and exit

Flags:
` + config.FlagUsage + `  -h, -help               show this help and exit
`

// cliActor performs changes made from the command line.
var cliActor = model.Actor{Name: "cli", Role: model.RoleAdmin}

// Test seams.
var (
	isTerminal   = term.IsTerminal
	readPassword = term.ReadPassword
)

type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	lines  *bufio.Reader
}

func main() {
	c := &cli{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	os.Exit(c.run(os.Args[1:]))
}

func (c *cli) run(args []string) int {
	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		return c.serve(args)
	case "init":
		return c.init(args)
	case "export":
		return c.export(args)
	case "passwd":
		return c.passwd(args)
	case "reset":
		return c.reset(args)
	case "help":
		fmt.Fprint(c.stdout, usage)
		return 0
	default:
		fmt.Fprintf(c.stderr, "unknown command: %s\n", cmd)
		fmt.Fprint(c.stderr, usage)
		return 1
	}
}

// setup parses the flags of a command, configures logging and returns the
// config. ok is false when the command should exit with code.
func (c *cli) setup(fs *flag.FlagSet, args []string) (cfg *config.Config, cleanup func(), code int, ok bool) {
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	cfg, err := config.Load(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fmt.Fprint(c.stdout, usage)
			return nil, nil, 0, false
		}
		fmt.Fprintf(c.stderr, "error: %v\n", err)
		return nil, nil, 1, false
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(c.stderr, "unexpected argument: %s\n", fs.Arg(0))
		return nil, nil, 1, false
	}

	cleanup, err = setupLogger(cfg.LogPath, c.stdout, c.stderr)
	if err != nil {
		fmt.Fprintf(c.stderr, "error: %v\n", err)
		return nil, nil, 1, false
	}
	return cfg, cleanup, 0, true
}

// openDatabase opens the database and applies migrations.
func openDatabase(ctx context.Context, path string) (*sql.DB, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, database); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return database, nil
}

func (c *cli) serve(args []string) int {
	fs := flag.NewFlagSet("renova serve", flag.ContinueOnError)
	cfg, cleanup, code, ok := c.setup(fs, args)
	if !ok {
		return code
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Check if DB exists, auto-init if not.
	if _, err := os.Stat(cfg.DBPath); errors.Is(err, os.ErrNotExist) {
		if code := c.initDatabase(ctx, cfg.DBPath); code != 0 {
			return code
		}
		fmt.Fprintln(c.stdout)
	}

	database, err := openDatabase(ctx, cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		return 1
	}
	defer database.Close()

	version, err := db.Version(ctx, database)
	if err != nil {
		slog.Error("failed to read schema version", "error", err)
		return 1
	}
	slog.Info("database ready", "path", cfg.DBPath, "schema", version)

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		slog.Error("failed to get JWT secret", "error", err)
		return 1
	}

	loc, _ := cfg.Location()
	eng := engine.New(ctx, database, engine.WithLogger(slog.Default()))

	routerCfg := api.Config{
		DB:         database,
		Engine:     eng,
		JWTSecret:  jwtSecret,
		TokenTTL:   cfg.TokenTTL,
		DateLayout: cfg.DateLayout,
		Location:   loc,
	}
	if cfg.S3.Enabled() {
		uploader, err := archive.New(ctx, cfg.S3)
		if err != nil {
			slog.Error("failed to configure report archiving", "error", err)
			return 1
		}
		routerCfg.Archiver = uploader
		slog.Info("report archiving enabled", "bucket", cfg.S3.Bucket)
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.LoggingMiddleware(api.NewRouter(routerCfg)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go pruneRevokedTokens(ctx, database, time.Hour)

	// Graceful shutdown on SIGINT/SIGTERM.
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		return 1
	}

	slog.Info("server stopped, closing database")
	return 0
}

// pruneRevokedTokens periodically drops revocations of expired tokens.
func pruneRevokedTokens(ctx context.Context, database *sql.DB, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.PruneRevokedTokens(ctx, database, now)
			if err != nil {
				slog.Warn("failed to prune revoked tokens", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("pruned revoked tokens", "count", n)
			}
		}
	}
}

func (c *cli) init(args []string) int {
	fs := flag.NewFlagSet("renova init", flag.ContinueOnError)
	cfg, cleanup, code, ok := c.setup(fs, args)
	if !ok {
		return code
	}
	defer cleanup()

	if _, err := os.Stat(cfg.DBPath); err == nil {
		fmt.Fprintf(c.stderr, "error: database already exists: %s\n", cfg.DBPath)
		return 1
	}
	return c.initDatabase(context.Background(), cfg.DBPath)
}

// initDatabase creates a new database with the default state and replaces
// the default account passwords with generated ones.
func (c *cli) initDatabase(ctx context.Context, path string) int {
	database, err := openDatabase(ctx, path)
	if err != nil {
		slog.Error("failed to initialize database", "error", err)
		return 1
	}
	defer database.Close()

	eng := engine.New(ctx, database, engine.WithLogger(slog.Default()))

	// Persist the default inventory so it survives the first restart.
	if err := eng.Reset(ctx, cliActor); err != nil {
		slog.Error("failed to initialize database", "error", err)
		database.Close()
		os.Remove(path)
		return 1
	}

	fmt.Fprintf(c.stdout, "Database created: %s\n", path)
	fmt.Fprintln(c.stdout, "Schema initialized.")
	fmt.Fprintln(c.stdout)
	fmt.Fprintln(c.stdout, "Accounts created:")

	for _, u := range eng.Users() {
		password, err := generatePassword(16)
		if err == nil {
			err = eng.ChangePassword(ctx, cliActor, u.ID, password)
		}
		if err != nil {
			slog.Error("failed to set initial password", "username", u.Username, "error", err)
			database.Close()
			os.Remove(path)
			return 1
		}
		fmt.Fprintf(c.stdout, "  %-10s %-12s %s\n", u.Role, u.Username, password)
	}

	fmt.Fprintln(c.stdout)
	fmt.Fprintln(c.stdout, "Save these passwords, they cannot be recovered.")
	fmt.Fprintln(c.stdout, "Change them with `renova passwd -u <username>` or after logging in.")
	return 0
}

func (c *cli) export(args []string) int {
	fs := flag.NewFlagSet("renova export", flag.ContinueOnError)
	var outPath string
	fs.StringVar(&outPath, "o", "", "")
	fs.StringVar(&outPath, "out", "", "")
	upload := fs.Bool("archive", false, "")

	cfg, cleanup, code, ok := c.setup(fs, args)
	if !ok {
		return code
	}
	defer cleanup()

	ctx := context.Background()
	database, err := openDatabase(ctx, cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		return 1
	}
	defer database.Close()

	loc, _ := cfg.Location()
	logs := engine.New(ctx, database, engine.WithLogger(slog.Default())).Logs()

	if *upload {
		uploader, err := archive.New(ctx, cfg.S3)
		if err != nil {
			slog.Error("failed to configure report archiving", "error", err)
			return 1
		}
		key, err := uploader.ArchiveLogs(ctx, time.Now(), logs, cfg.DateLayout, loc)
		if err != nil {
			slog.Error("failed to archive activity report", "error", err)
			return 1
		}
		fmt.Fprintf(c.stdout, "Report uploaded: s3://%s/%s\n", cfg.S3.Bucket, key)
		return 0
	}

	out := c.stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			slog.Error("failed to create report file", "error", err)
			return 1
		}
		defer f.Close()
		out = f
	}

	if err := audit.WriteCSV(out, logs, cfg.DateLayout, loc); err != nil {
		slog.Error("failed to write activity report", "error", err)
		return 1
	}
	return 0
}

func (c *cli) passwd(args []string) int {
	fs := flag.NewFlagSet("renova passwd", flag.ContinueOnError)
	var username string
	fs.StringVar(&username, "u", "", "")
	fs.StringVar(&username, "user", "", "")

	cfg, cleanup, code, ok := c.setup(fs, args)
	if !ok {
		return code
	}
	defer cleanup()

	if username == "" {
		fmt.Fprintln(c.stderr, "error: -u <username> required")
		return 1
	}

	ctx := context.Background()
	database, err := openDatabase(ctx, cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		return 1
	}
	defer database.Close()

	eng := engine.New(ctx, database, engine.WithLogger(slog.Default()))

	var user model.User
	for _, u := range eng.Users() {
		if strings.EqualFold(u.Username, username) {
			user = u
		}
	}
	if user.ID == "" {
		fmt.Fprintf(c.stderr, "error: no such user: %s\n", username)
		return 1
	}

	password, err := c.promptPassword("New password: ")
	if err != nil {
		fmt.Fprintf(c.stderr, "error: %v\n", err)
		return 1
	}
	confirm, err := c.promptPassword("Repeat password: ")
	if err != nil {
		fmt.Fprintf(c.stderr, "error: %v\n", err)
		return 1
	}
	if password != confirm {
		fmt.Fprintln(c.stderr, "error: passwords do not match")
		return 1
	}

	if err := eng.ChangePassword(ctx, cliActor, user.ID, password); err != nil {
		fmt.Fprintf(c.stderr, "error: %v\n", err)
		return 1
	}

	fmt.Fprintf(c.stdout, "Password updated for %s.\n", username)
	return 0
}

func (c *cli) reset(args []string) int {
	fs := flag.NewFlagSet("renova reset", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "")

	cfg, cleanup, code, ok := c.setup(fs, args)
	if !ok {
		return code
	}
	defer cleanup()

	if !*yes {
		fmt.Fprintln(c.stderr, "error: reset deletes all loans and activity logs; pass -yes to confirm")
		return 1
	}

	ctx := context.Background()
	database, err := openDatabase(ctx, cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		return 1
	}
	defer database.Close()

	eng := engine.New(ctx, database, engine.WithLogger(slog.Default()))
	if err := eng.Reset(ctx, cliActor); err != nil {
		slog.Error("failed to reset", "error", err)
		return 1
	}

	fmt.Fprintln(c.stdout, "System reset.")
	return 0
}

// promptPassword reads a password without echo from a terminal, or one
// line from any other input.
func (c *cli) promptPassword(prompt string) (string, error) {
	if f, ok := c.stdin.(*os.File); ok && isTerminal(int(f.Fd())) {
		fmt.Fprint(c.stdout, prompt)
		b, err := readPassword(int(f.Fd()))
		fmt.Fprintln(c.stdout)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}

	if c.lines == nil {
		c.lines = bufio.NewReader(c.stdin)
	}
	line, err := c.lines.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
