// Command multiplexctl runs administrative tasks against the blog database:
// schema migration, account creation, fixture seeding and the staff bulk
// actions.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"gorm.io/gorm"

	"github.com/cppla/multiplex/config"
	"github.com/cppla/multiplex/models"
	"github.com/cppla/multiplex/services"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

const usage = `multiplexctl administers the multiplex database.

Usage:
  multiplexctl <command> [flags]

Commands:
  migrate                         create or update tables
  createuser --username --password [--email] [--staff] [--superuser]
  seed --file users.yaml          create users listed in a YAML fixture
  setlevel --as <staff> --level N <user-id>...
  publish --as <staff> [--unpublish] <post-id>...

Every command accepts --config <path>.
`

func run(args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(out, usage)
		return nil
	}
	cmd, rest := args[0], args[1:]

	flagSet := pflag.NewFlagSet("multiplexctl "+cmd, pflag.ContinueOnError)
	flagSet.SetOutput(out)
	configPath := flagSet.String("config", config.DefaultConfigPath, "path to a JSON or YAML config file")

	var (
		username, password, email, file, as string
		staff, superuser, unpublish         bool
		level                               int
	)
	switch cmd {
	case "migrate":
	case "createuser":
		flagSet.StringVar(&username, "username", "", "login name")
		flagSet.StringVar(&password, "password", "", "initial password")
		flagSet.StringVar(&email, "email", "", "email address")
		flagSet.BoolVar(&staff, "staff", false, "grant the staff flag")
		flagSet.BoolVar(&superuser, "superuser", false, "grant the superuser flag")
	case "seed":
		flagSet.StringVar(&file, "file", "", "YAML fixture with a users list")
	case "setlevel":
		flagSet.StringVar(&as, "as", "", "staff username performing the action")
		flagSet.IntVar(&level, "level", 0, "profile level to set")
	case "publish":
		flagSet.StringVar(&as, "as", "", "staff username performing the action")
		flagSet.BoolVar(&unpublish, "unpublish", false, "unpublish instead of publish")
	default:
		return fmt.Errorf("unknown command %q (run multiplexctl help)", cmd)
	}
	if err := flagSet.Parse(rest); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	db, err := config.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	if err := config.Migrate(db, models.All()...); err != nil {
		return err
	}

	ctx := context.Background()
	users := services.NewUserService(db)

	switch cmd {
	case "migrate":
		fmt.Fprintln(out, "migrations applied")
	case "createuser":
		u, err := users.CreateUser(ctx, services.NewUser{Username: username, Password: password, Email: email, IsStaff: staff, IsSuperuser: superuser})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "created user %s (id %d)\n", u.Username, u.ID)
	case "seed":
		if file == "" {
			return errors.New("--file is required")
		}
		n, err := users.SeedFromFile(ctx, file)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "seeded %d users\n", n)
	case "setlevel":
		actor, ids, err := actorAndIDs(ctx, users, as, flagSet.Args())
		if err != nil {
			return err
		}
		n, err := users.SetLevel(ctx, actor, ids, level)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "updated %d profiles\n", n)
	case "publish":
		actor, ids, err := actorAndIDs(ctx, users, as, flagSet.Args())
		if err != nil {
			return err
		}
		n, err := postService(db, cfg).SetPublished(ctx, actor, ids, !unpublish)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "updated %d posts\n", n)
	}
	return nil
}

func postService(db *gorm.DB, cfg config.AppConfig) *services.PostService {
	return services.NewPostService(db, nil, cfg.PageSize, cfg.MaxPageSize)
}

// actorAndIDs resolves --as to an actor so bulk actions go through the same
// staff check as the HTTP admin endpoints.
func actorAndIDs(ctx context.Context, users *services.UserService, as string, args []string) (services.Actor, []uint, error) {
	if as == "" {
		return services.Actor{}, nil, errors.New("--as is required")
	}
	u, err := users.GetByUsername(ctx, as)
	if err != nil {
		return services.Actor{}, nil, err
	}
	ids := make([]uint, 0, len(args))
	for _, a := range args {
		for _, part := range strings.Split(a, ",") {
			if part == "" {
				continue
			}
			id, err := strconv.ParseUint(part, 10, 64)
			if err != nil {
				return services.Actor{}, nil, fmt.Errorf("invalid id %q", part)
			}
			ids = append(ids, uint(id))
		}
	}
	return services.ActorFromUser(u), ids, nil
}
