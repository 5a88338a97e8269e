package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/upb/account-auth/app"
	"github.com/upb/account-auth/config"
	"github.com/upb/account-auth/models"
	"go.uber.org/zap"
)

type options struct {
	email      string
	password   string
	superuser  bool
	initSchema bool
}

// userRegistrar is satisfied by services.UserManager
type userRegistrar interface {
	Register(ctx context.Context, email, password string, superuser bool) (*models.User, error)
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(context.Background(), opts, logger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, logger *zap.Logger) error {
	cfg, err := config.New(ctx)
	if err != nil {
		return err
	}

	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = deps.Close(context.Background()) }()

	if opts.initSchema {
		if err := deps.RepoFactory.InitSchema(ctx); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	user, err := register(ctx, deps.UserManager, opts)
	if err != nil {
		return err
	}

	fmt.Printf("created user %s (%s)\n", user.Email, user.ID)
	return nil
}

func register(ctx context.Context, users userRegistrar, opts options) (*models.User, error) {
	user, err := users.Register(ctx, opts.email, opts.password, opts.superuser)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("auth-useradd", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.email, "email", "", "email address used as the login name")
	fs.StringVar(&opts.password, "password", "", "password; falls back to AUTH_USER_PASSWORD")
	fs.BoolVar(&opts.superuser, "superuser", false, "mark the user as a superuser")
	fs.BoolVar(&opts.initSchema, "init-schema", false, "create the users table if it does not exist")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if opts.password == "" {
		opts.password = os.Getenv("AUTH_USER_PASSWORD")
	}
	if opts.email == "" {
		return options{}, errors.New("-email is required")
	}
	if opts.password == "" {
		return options{}, errors.New("-password or AUTH_USER_PASSWORD is required")
	}
	return opts, nil
}
