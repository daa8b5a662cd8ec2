package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"zeendr/internal/cli"
	"zeendr/internal/core"
	"zeendr/internal/services"
)

const usage = `usage: zeendr-admin <command> [flags]

commands:
  create-user   -user NAME -establishment NAME [-role admin|staff] [-logo URL] [-password PASS]
  set-password  -user NAME [-password PASS]
  list-users

The password defaults to $ZEENDR_PASSWORD.`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]

	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()
	auth := services.NewAuthService(repo, cfg.SessionTTL)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch cmd {
	case "create-user":
		err = createUser(ctx, auth, args)
	case "set-password":
		err = setPassword(ctx, auth, args)
	case "list-users":
		err = listUsers(ctx, auth)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("Command failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func createUser(ctx context.Context, auth *services.AuthService, args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	user := fs.String("user", "", "username")
	establishment := fs.String("establishment", "", "establishment shown on the dashboard")
	role := fs.String("role", string(core.RoleStaff), "admin or staff")
	logo := fs.String("logo", "", "logo URL")
	password := fs.String("password", os.Getenv("ZEENDR_PASSWORD"), "password")
	_ = fs.Parse(args)

	u, err := auth.CreateUser(ctx, core.User{
		Username:      *user,
		Establishment: *establishment,
		Role:          core.Role(*role),
		LogoURL:       *logo,
	}, *password)
	if err != nil {
		return err
	}
	fmt.Printf("created user %s (id %d, %s)\n", u.Username, u.ID, u.Role)
	return nil
}

func setPassword(ctx context.Context, auth *services.AuthService, args []string) error {
	fs := flag.NewFlagSet("set-password", flag.ExitOnError)
	user := fs.String("user", "", "username")
	password := fs.String("password", os.Getenv("ZEENDR_PASSWORD"), "new password")
	_ = fs.Parse(args)

	if err := auth.SetPassword(ctx, *user, *password); err != nil {
		return err
	}
	fmt.Printf("password updated for %s\n", *user)
	return nil
}

func listUsers(ctx context.Context, auth *services.AuthService) error {
	users, err := auth.Users(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSER\tROLE\tESTABLISHMENT")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Username, u.Role, u.Establishment)
	}
	return w.Flush()
}
