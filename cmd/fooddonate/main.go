// Command fooddonate is a terminal front end for the food donation
// marketplace: sign in, browse and post listings, request food and review
// requests.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/joho/godotenv"

	"fooddonation/internal/apiclient"
	"fooddonation/internal/async"
	"fooddonation/internal/domain"
	"fooddonation/internal/infra"
	"fooddonation/internal/infra/credentials"
	"fooddonation/internal/services"
	"fooddonation/internal/storage"
)

type app struct {
	out        io.Writer
	api        *apiclient.Client
	auth       *services.Auth
	donations  *services.Donations
	requests   *services.Requests
	profile    *services.Profile
	categories *services.Categories
	loop       *async.Loop
}

type command struct {
	usage string
	run   func(a *app, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"login":      {"-email E -password P", (*app).login},
	"logout":     {"", (*app).logout},
	"register":   {"-name N -email E -password P -phone T -address A", (*app).register},
	"passwd":     {"-current C -new N -confirm N", (*app).changePassword},
	"feed":       {"", (*app).feed},
	"show":       {"<id>", (*app).show},
	"donate":     {"-item I -description D -quantity Q -location L -until 2006-01-02T15:04 [-notes N] -image FILE", (*app).donate},
	"request":    {"<id>", (*app).request},
	"mine":       {"", (*app).mine},
	"status":     {"<id> approved|rejected", (*app).status},
	"delete":     {"<id>", (*app).deleteDonation},
	"requests":   {"", (*app).myRequests},
	"cancel":     {"<id>", (*app).cancelRequest},
	"approved":   {"", (*app).approved},
	"profile":    {"", (*app).showProfile},
	"categories": {"", (*app).listCategories},
	"asset":      {"[-o FILE] <path>", (*app).asset},
}

func main() {
	_ = godotenv.Load()

	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[flag.Arg(0)]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", flag.Arg(0))
		usage()
		os.Exit(2)
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		exitWithError(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, nil).With().Str("cmd", "fooddonate").Logger()

	a, err := newApp(cfg, logger, os.Stdout)
	if err != nil {
		exitWithError(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		if err := a.loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("dispatcher stopped")
		}
	}()

	if err := cmd.run(a, ctx, flag.Args()[1:]); err != nil {
		logger.Debug().Err(err).Str("command", flag.Arg(0)).Msg("command failed")
		exitWithError(err)
	}
}

func newApp(cfg *infra.Config, logger infra.Logger, out io.Writer) (*app, error) {
	files, err := storage.NewFileStore(cfg.CredentialsDir, cfg.CredentialsKey)
	if err != nil {
		return nil, err
	}
	session := credentials.NewSession(files)
	api, err := apiclient.NewClient(apiclient.Options{
		BaseURL:        cfg.APIBaseURL,
		Credentials:    session,
		Logger:         &logger,
		RequestTimeout: cfg.HTTPTimeout,
	})
	if err != nil {
		return nil, err
	}
	return &app{
		out:        out,
		api:        api,
		auth:       services.NewAuth(api, session),
		donations:  services.NewDonations(api),
		requests:   services.NewRequests(api),
		profile:    services.NewProfile(api),
		categories: services.NewCategories(api),
		loop:       async.NewLoop(16),
	}, nil
}

func usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(os.Stderr, "usage: fooddonate <command> [arguments]")
	fmt.Fprintln(os.Stderr)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-11s %s\n", name, commands[name].usage)
	}
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, domain.UserMessage(err))
	os.Exit(1)
}
