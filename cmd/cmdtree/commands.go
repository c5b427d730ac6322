package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/haasonsaas/cmdtree/internal/bridge/discord"
	"github.com/haasonsaas/cmdtree/internal/config"
	"github.com/haasonsaas/cmdtree/internal/host"
	"github.com/haasonsaas/cmdtree/internal/permissions"
)

// =============================================================================
// Exec Command
// =============================================================================

func buildExecCmd(configPath *string) *cobra.Command {
	var player string

	cmd := &cobra.Command{
		Use:   "exec -- <command line>",
		Short: "Dispatch a single command line",
		Example: `  cmdtree exec -- town help
  cmdtree exec --player Steve -- /town create Springfield`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return runExec(cmd.Context(), cfg, cmd.OutOrStdout(), player, strings.Join(args, " "))
		},
	}
	cmd.Flags().StringVarP(&player, "player", "p", "", "Act as the named player")
	return cmd
}

func runExec(ctx context.Context, cfg *config.Config, out io.Writer, player, line string) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	console := host.NewConsoleSender(out, out == os.Stdout && host.ColorEnabled(os.Stdout))
	return a.commands.Dispatch(ctx, a.sender(console, player), line)
}

// =============================================================================
// List Command
// =============================================================================

func buildListCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered root commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			renderCommandTable(cmd.OutOrStdout(), a.commands.Commands())
			return nil
		},
	}
}

// renderCommandTable writes one row per root command.
func renderCommandTable(out io.Writer, cmds []host.Command) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("Command"),
		text.FgHiCyan.Sprint("Aliases"),
		text.FgHiCyan.Sprint("Permission"),
		text.FgHiCyan.Sprint("Sub-commands"),
		text.FgHiCyan.Sprint("Description"),
	})

	for _, cmd := range cmds {
		decl := cmd.Declaration()
		var subs []string
		if named, ok := cmd.(interface{ Names() []string }); ok {
			subs = named.Names()
		}
		perm := decl.Permission
		if perm == "" {
			perm = text.Faint.Sprint("none")
		}
		t.AppendRow(table.Row{
			text.FgYellow.Sprint("/" + decl.Name),
			strings.Join(decl.Aliases, ", "),
			perm,
			strings.Join(subs, ", "),
			decl.Description,
		})
	}
	t.Render()
}

// =============================================================================
// Perms Commands
// =============================================================================

func buildPermsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "perms",
		Short: "Inspect and edit permission grants",
		Long: `Inspect and edit the permission store selected by the configuration.

Subjects are "player:<name>" for console players and "discord:<user id>"
for Discord users. Nodes may end in ".*" and may be negated with "-".`,
	}

	grant := &cobra.Command{
		Use:   "grant <subject> <node>",
		Short: "Grant a permission node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), *configPath, func(ctx context.Context, r *permissions.Resolver) error {
				if err := r.Store().Grant(ctx, args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "granted %s to %s\n", args[1], args[0])
				return nil
			})
		},
	}
	revoke := &cobra.Command{
		Use:   "revoke <subject> <node>",
		Short: "Revoke a permission node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), *configPath, func(ctx context.Context, r *permissions.Resolver) error {
				if err := r.Store().Revoke(ctx, args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "revoked %s from %s\n", args[1], args[0])
				return nil
			})
		},
	}
	show := &cobra.Command{
		Use:   "show <subject>",
		Short: "Show the effective nodes of a subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), *configPath, func(ctx context.Context, r *permissions.Resolver) error {
				nodes, err := r.Effective(ctx, args[0])
				if err != nil {
					return err
				}
				if len(nodes) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%s holds no nodes\n", args[0])
					return nil
				}
				for _, node := range nodes {
					fmt.Fprintln(cmd.OutOrStdout(), node)
				}
				return nil
			})
		},
	}

	cmd.AddCommand(grant, revoke, show)
	return cmd
}

var errVolatileStore = errors.New("the memory permission backend does not persist; configure the file or sqlite backend")

func withStore(ctx context.Context, configPath string, fn func(context.Context, *permissions.Resolver) error) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Permissions.Backend == config.BackendMemory {
		return errVolatileStore
	}
	perms := cfg.Permissions
	perms.Watch = false
	store, err := openStore(ctx, perms, slog.Default())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(ctx, permissions.NewResolver(store, cfg.Permissions.Defaults, nil))
}

// =============================================================================
// Discord Command
// =============================================================================

func buildDiscordCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "discord",
		Short: "Relay Discord messages to the command map",
		Long: `Connect to Discord as a bot and dispatch every message that starts
with discord.prefix. Authors act as players whose permissions are stored
under "discord:<user id>".

Graceful shutdown is handled on SIGINT/SIGTERM signals.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runDiscord(ctx, cfg)
		},
	}
}

func runDiscord(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	bridge, err := discord.New(discord.Config{
		Token:  cfg.Discord.Token,
		Prefix: cfg.Discord.Prefix,
		Logger: a.logger,
	}, a.commands, a.resolver)
	if err != nil {
		return err
	}
	if err := bridge.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	return bridge.Stop(context.WithoutCancel(ctx))
}

// =============================================================================
// Version Command
// =============================================================================

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cmdtree %s\n  commit: %s\n  built:  %s\n", version, commit, date)
		},
	}
}
