package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"courseboard/app"
)

func main() {
	fs := flag.NewFlagSet("courseboard", flag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "path to a YAML config file")
	addr := fs.String("addr", "", "listen address (overrides config and environment)")
	dsn := fs.String("db", "", "database DSN (overrides config and environment)")
	driver := fs.String("driver", "", "database driver: sqlite3 or pgx")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return
		}
		os.Exit(2)
	}

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "courseboard: %v\n", err)
		os.Exit(1)
	}
	if fs.Changed("addr") {
		cfg.Addr = *addr
	}
	if fs.Changed("db") {
		cfg.Database.DSN = *dsn
	}
	if fs.Changed("driver") {
		cfg.Database.Driver = *driver
	}

	if err := app.Run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "courseboard: %v\n", err)
		os.Exit(1)
	}
}
