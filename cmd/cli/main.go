// Command onb is a CLI client for campus onboarding: signup, login and profile setup.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/campus-onboard/internal/config"
	"github.com/and161185/campus-onboard/internal/logger"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func usage(w io.Writer) {
	fmt.Fprintf(w, `onb CLI
Usage:
  onb [-config onb.yaml] [-base-url URL] <cmd> [args]

Commands:
  version
  signup    -role student|teacher -u <username> -email <email> -p <password|->
  login     -email <email> -p <password|->          (saves session)
  logout                                           (clears session)
  whoami
  profile   -first <name> -last <name> [-middle <name>] [-suffix <s>]
            [-uses-nickname -nickname <nick>] [-token <token>]
  steps                                            (profile wizard steps)
`)
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run dispatches subcommands and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	// global flags
	fs := flag.NewFlagSet("onb", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgFile := fs.String("config", "", "config file (yaml)")
	baseURL := fs.String("base-url", "", "backend base URL (overrides config)")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		usage(stderr)
		return 2
	}
	cmd, rest := fs.Arg(0), fs.Args()[1:]

	if cmd == "version" {
		fmt.Fprintf(stdout, "onb %s (%s)\n", version, buildDate)
		return 0
	}

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		return fail(stderr, err)
	}
	if *baseURL != "" {
		cfg.BaseURL = config.NormalizeBaseURL(*baseURL)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fail(stderr, err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	a := &app{cfg: cfg, log: log, in: stdin, out: stdout, errOut: stderr}
	switch cmd {
	case "signup":
		err = a.signup(ctx, rest)
	case "login":
		err = a.login(ctx, rest)
	case "logout":
		err = a.logout(ctx)
	case "whoami":
		err = a.whoami(ctx)
	case "profile":
		err = a.profile(ctx, rest)
	case "steps":
		a.steps()
	default:
		usage(stderr)
		return 2
	}
	if err != nil {
		log.Debug("command failed", zap.String("cmd", cmd), zap.Error(err))
		return fail(stderr, err)
	}
	return 0
}

func fail(w io.Writer, err error) int {
	fmt.Fprintln(w, err)
	return 1
}
