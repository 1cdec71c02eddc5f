// Package main is the entry point for the richsync convergence demo. It
// runs a scripted editing session between two replicas, either wired
// directly in process or through a running relay, and verifies that both
// end up with the same formatted document.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dshills/richsync/internal/config"
	"github.com/dshills/richsync/internal/logging"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

type options struct {
	configPath string
	relayURL   string
	session    string
	statePath  string
	logLevel   string
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load configuration: %v\n", err)
		return 1
	}
	if opts.relayURL != "" {
		cfg.Demo.Relay = opts.relayURL
	}
	if opts.session != "" {
		cfg.Demo.Session = opts.session
	}
	if opts.statePath != "" {
		cfg.Demo.State = opts.statePath
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		return 1
	}

	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Prefix: cfg.Logging.Prefix,
	})

	if err := runScript(cfg, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.relayURL, "relay", "", "Relay websocket URL (empty runs both replicas in process)")
	flag.StringVar(&opts.session, "session", "", "Session name to join on the relay")
	flag.StringVar(&opts.statePath, "state", "", "Path to a saved document to start from")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "richsync-demo - scripted two-replica convergence run\n\n")
		fmt.Fprintf(os.Stderr, "Usage: richsync-demo [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  richsync-demo                              Run the script in process\n")
		fmt.Fprintf(os.Stderr, "  richsync-demo -relay ws://localhost:8737   Sync through a relay\n")
		fmt.Fprintf(os.Stderr, "  richsync-demo -state doc.json              Start from a saved document\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("richsync-demo %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	// Validate log level
	if opts.logLevel != "" {
		switch opts.logLevel {
		case "debug", "info", "warn", "error":
			// Valid
		default:
			fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.logLevel)
			os.Exit(1)
		}
	}

	return opts
}
