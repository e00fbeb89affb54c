package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/config"
	"github.com/stemsi/schoolhub-backend/internal/logger"
)

func main() {
	var migrationDir string
	var yes bool
	flag.StringVar(&migrationDir, "path", "migrations", "Path to migration files")
	flag.BoolVar(&yes, "yes", false, "Confirm destructive commands (down)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(2)
	}

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	m, err := migrate.New("file://"+migrationDir, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("path", migrationDir).Msg("Migration failed to initialize")
	}
	defer m.Close()
	m.Log = migrateLogger{log: log}

	// ─── Run Command ───────────────────────────────────────────────────
	switch command := args[0]; command {
	case "up":
		check(log, command, m.Up())
	case "down":
		if !yes {
			log.Fatal().Msg("down drops every table; rerun with -yes to confirm")
		}
		check(log, command, m.Down())
	case "steps":
		n := intArg(log, args, "steps")
		check(log, command, m.Steps(n))
	case "force":
		v := intArg(log, args, "force")
		check(log, command, m.Force(v))
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Info().Msg("No migration applied yet")
			return
		}
		if err != nil {
			log.Fatal().Err(err).Msg("Version failed")
		}
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Current version")
	default:
		printUsage()
		os.Exit(2)
	}
}

func check(log zerolog.Logger, command string, err error) {
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info().Str("command", command).Msg("Nothing to migrate")
		return
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", command).Msg("Migration failed")
	}
	log.Info().Str("command", command).Msg("Migration applied")
}

func intArg(log zerolog.Logger, args []string, command string) int {
	if len(args) < 2 {
		log.Fatal().Msgf("%s requires a number argument", command)
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		log.Fatal().Err(err).Str("arg", args[1]).Msg("Invalid number")
	}
	return n
}

// migrateLogger adapts zerolog to golang-migrate's Logger interface.
type migrateLogger struct {
	log zerolog.Logger
}

func (l migrateLogger) Printf(format string, v ...interface{}) {
	l.log.Info().Str("component", "migrate").Msgf(format, v...)
}

func (l migrateLogger) Verbose() bool {
	return zerolog.GlobalLevel() <= zerolog.DebugLevel
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: migrate [flags] <command>")
	fmt.Fprintln(os.Stderr, "Commands: up, down -yes, steps <n>, force <version>, version")
	fmt.Fprintln(os.Stderr, "Flags:")
	flag.PrintDefaults()
}
