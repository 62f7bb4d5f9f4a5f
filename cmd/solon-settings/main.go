// ABOUTME: Operator CLI for inspecting and editing per-guild cog settings
// ABOUTME: Reads the config, guild snapshot and SQLite store, then runs one command

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/2389/solon/internal/config"
	"github.com/2389/solon/internal/guild"
	"github.com/2389/solon/internal/settings"
)

// getConfigPath returns the path to the config file.
// Priority: SOLON_CONFIG env var > XDG_CONFIG_HOME/solon/solon.yaml > ~/.config/solon/solon.yaml
func getConfigPath() string {
	if envPath := os.Getenv("SOLON_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "solon.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "solon", "solon.yaml")
}

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	cmd := os.Args[1]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage(os.Stdout)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, getConfigPath(), cmd, os.Args[2:], os.Stdout); err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, cmd string, args []string, w io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	a, err := newApp(ctx, cfg, setupLogger(cfg.Logging, os.Stderr))
	if err != nil {
		return err
	}
	defer a.Close()

	switch cmd {
	case "guilds":
		return cmdGuilds(a, w)
	case "types":
		return cmdTypes(a, w)
	case "owners":
		return cmdOwners(a, w, args)
	case "fields":
		return cmdFields(a, w, args)
	case "get":
		return cmdGet(a, w, args)
	case "set":
		return cmdSet(ctx, a, w, args)
	case "clear":
		return cmdClear(ctx, a, w, args)
	case "records":
		return cmdRecords(ctx, a, w, args)
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func printUsage(w io.Writer) {
	yellow := color.New(color.FgYellow)

	fmt.Fprintln(w, "Usage: solon-settings <command> [args]")
	fmt.Fprintln(w)
	yellow.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  guilds                              List guilds in the snapshot")
	fmt.Fprintln(w, "  types                               List registered setting types")
	fmt.Fprintln(w, "  owners <guild>                      List cogs with settings in a guild")
	fmt.Fprintln(w, "  fields <cog> <guild>                Show every field with its type and value")
	fmt.Fprintln(w, "  get <cog> <guild> <path>            Show one value (path may be field.key)")
	fmt.Fprintln(w, "  set <cog> <guild> <path> <value>    Parse and store a value")
	fmt.Fprintln(w, "  clear <cog> <guild> <path>          Reset a field or remove a mapping entry")
	fmt.Fprintln(w, "  records [prefix]                    List stored record keys")
	fmt.Fprintln(w)
	yellow.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  SOLON_CONFIG    Config file (default: ~/.config/solon/solon.yaml)")
}

// ownerArgs resolves "<cog> <guild>" at the start of args.
func ownerArgs(args []string, want int, usage string) (string, []string, error) {
	if len(args) < want {
		return "", nil, fmt.Errorf("usage: %s", usage)
	}
	guildID, err := guild.ParseID(args[1])
	if err != nil {
		return "", nil, err
	}
	return settings.OwnerID(args[0], guildID), args[2:], nil
}

func cmdGuilds(a *app, w io.Writer) error {
	cyan := color.New(color.FgCyan)
	cyan.Fprintln(w, "  Guilds")
	cyan.Fprintln(w, "  ------")

	all := a.guilds.All()
	if len(all) == 0 {
		fmt.Fprintln(w, "  (no guilds in snapshot)")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  ID\tNAME\tMEMBERS\tROLES\tCHANNELS")
	for _, g := range all {
		fmt.Fprintf(tw, "  %d\t%s\t%d\t%d\t%d\n", g.ID(), g.Name(), len(g.Members()), len(g.Roles()), len(g.Channels()))
	}
	return tw.Flush()
}

func cmdTypes(a *app, w io.Writer) error {
	for _, name := range a.reg.TypeNames() {
		fmt.Fprintf(w, "  %s\n", name)
	}
	return nil
}

func cmdOwners(a *app, w io.Writer, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: owners <guild>")
	}
	guildID, err := guild.ParseID(args[0])
	if err != nil {
		return err
	}

	cogs := a.settings.Owners(guildID)
	if len(cogs) == 0 {
		fmt.Fprintln(w, "  (no cogs with settings)")
		return nil
	}
	for _, cog := range cogs {
		fmt.Fprintf(w, "  %s\n", cog)
	}
	return nil
}

func cmdFields(a *app, w io.Writer, args []string) error {
	owner, _, err := ownerArgs(args, 2, "fields <cog> <guild>")
	if err != nil {
		return err
	}
	names, err := a.settings.FieldNames(owner)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  FIELD\tTYPE\tVALUE")
	for _, name := range names {
		typeName, err := a.settings.TypeName(owner, name)
		if err != nil {
			return err
		}
		value, err := a.settings.Describe(owner, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", name, typeName, value)
	}
	return tw.Flush()
}

func cmdGet(a *app, w io.Writer, args []string) error {
	owner, rest, err := ownerArgs(args, 3, "get <cog> <guild> <path>")
	if err != nil {
		return err
	}
	value, err := a.settings.Describe(owner, rest[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(w, value)
	return nil
}

func cmdSet(ctx context.Context, a *app, w io.Writer, args []string) error {
	owner, rest, err := ownerArgs(args, 4, "set <cog> <guild> <path> <value>")
	if err != nil {
		return err
	}
	path, raw := rest[0], strings.Join(rest[1:], " ")

	if err := a.settings.SetText(owner, path, raw); err != nil {
		return err
	}
	if err := a.save(ctx); err != nil {
		return fmt.Errorf("saving: %w", err)
	}

	value, err := a.settings.Describe(owner, path)
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprint(w, "✓ ")
	fmt.Fprintf(w, "%s = %s\n", path, value)
	return nil
}

func cmdClear(ctx context.Context, a *app, w io.Writer, args []string) error {
	owner, rest, err := ownerArgs(args, 3, "clear <cog> <guild> <path>")
	if err != nil {
		return err
	}
	path := rest[0]

	if err := a.settings.Set(owner, path, nil); err != nil {
		return err
	}
	if err := a.save(ctx); err != nil {
		return fmt.Errorf("saving: %w", err)
	}

	color.New(color.FgGreen).Fprint(w, "✓ ")
	fmt.Fprintf(w, "%s cleared\n", path)
	return nil
}

func cmdRecords(ctx context.Context, a *app, w io.Writer, args []string) error {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}

	keys, err := a.db.Keys(ctx, prefix)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Fprintln(w, "  (no records)")
		return nil
	}
	for _, key := range keys {
		fmt.Fprintf(w, "  %s\n", key)
	}
	return nil
}
