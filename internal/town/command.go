package town

import (
	"context"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/haasonsaas/cmdtree/internal/chat"
	"github.com/haasonsaas/cmdtree/internal/commands"
)

// Permission nodes used by the town command.
const (
	PermUse    = "town.use"
	PermCreate = "town.create"
	PermJoin   = "town.join"
	PermAdmin  = "town.admin"
)

// Command is the /town root definition.
type Command struct {
	towns  *Registry
	logger *slog.Logger
}

// NewCommand creates the /town definition backed by towns.
func NewCommand(towns *Registry, logger *slog.Logger) *Command {
	if logger == nil {
		logger = slog.Default()
	}
	return &Command{
		towns:  towns,
		logger: logger.With("component", "town"),
	}
}

// New builds the /town root command.
func New(towns *Registry, logger *slog.Logger, opts ...commands.Option) (*commands.Core, error) {
	opts = append([]commands.Option{commands.WithLogger(logger)}, opts...)
	return commands.New(NewCommand(towns, logger), opts...)
}

// Declaration implements commands.Definition.
func (c *Command) Declaration() commands.Declaration {
	return commands.Declaration{
		Name:        "town",
		Description: "Found, join and manage towns",
		Permission:  PermUse,
		Aliases:     []string{"t", "towns"},
	}
}

// Subcommands implements commands.Definition.
func (c *Command) Subcommands() []commands.Descriptor {
	return []commands.Descriptor{
		commands.Sub(commands.Declaration{
			Name:        "create",
			Description: "Found a new town",
			Permission:  PermCreate,
			PlayerOnly:  true,
		}, c.newCreate),
		commands.Sub(commands.Declaration{
			Name:        "info",
			Description: "Show details about a town",
		}, c.newInfo),
		commands.Sub(commands.Declaration{
			Name:        "list",
			Description: "List all towns",
		}, c.newList),
		commands.Sub(commands.Declaration{
			Name:        "join",
			Description: "Become a member of a town",
			Permission:  PermJoin,
			PlayerOnly:  true,
		}, c.newJoin),
		commands.Sub(commands.Declaration{
			Name:        "delete",
			Description: "Disband a town",
			Permission:  PermAdmin,
		}, c.newDelete),
		commands.Sub(commands.Declaration{
			Name:        "rename",
			Description: "Give a town a new name",
		}, c.newRename),
	}
}

// RenderHelp lists the sub-commands the sender may use as an aligned table.
func (c *Command) RenderHelp(ctx context.Context, sender commands.Sender, root *commands.Core, subs []commands.SubCommand) {
	player, isPlayer := sender.(commands.Player)

	rows := make([]table.Row, 0, len(subs))
	for _, sub := range subs {
		decl, _ := root.Describe(sub.Name())
		if isPlayer && decl.Permission != "" && !player.HasPermission(decl.Permission) {
			continue
		}
		usage := root.SubUsage(sub)
		if decl.PlayerOnly && !isPlayer {
			usage += " *"
		}
		rows = append(rows, table.Row{usage, decl.Description})
	}

	sender.SendMessage(chat.Gold.Wrap("--- Town Commands ---"))
	if len(rows) == 0 {
		sender.SendMessage(chat.Gray.Wrap("No sub-commands available."))
		return
	}
	for _, line := range renderTable(table.Row{"Usage", "Description"}, rows) {
		sender.SendMessage(chat.Yellow.Wrap(line))
	}
	if !isPlayer {
		sender.SendMessage(chat.DarkGray.Wrap("* player only"))
	}
}
