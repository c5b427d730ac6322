package town

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/haasonsaas/cmdtree/internal/chat"
	"github.com/haasonsaas/cmdtree/internal/commands"
)

const pageSize = 8

var namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

func townNameArgument(name string, priority commands.Priority) *commands.StringArgument {
	return commands.NewStringArgument(name, priority).Length(3, 16).Matching(namePattern)
}

// townCompleter suggests existing town names for the first argument.
type townCompleter struct {
	towns *Registry
}

func (t townCompleter) TabComplete(ctx context.Context, sender commands.Sender, alias string, args []string) []string {
	if len(args) != 1 {
		return []string{}
	}
	return commands.FilterPrefix(t.towns.Names(), args[0])
}

// create

type createSub struct {
	commands.Base
	cmd  *Command
	name *commands.StringArgument
}

func (c *Command) newCreate(name string) commands.SubCommand {
	arg := townNameArgument("name", commands.Required)
	return &createSub{
		Base: commands.NewBase(name, commands.NewSyntax(arg)),
		cmd:  c,
		name: arg,
	}
}

func (s *createSub) OnPlayerUse(ctx context.Context, p commands.Player, args []string) {
	t, err := s.cmd.towns.Create(s.name.Value(), p.Name(), p.Location())
	switch {
	case errors.Is(err, ErrTownExists):
		p.SendMessage(chat.Red.Wrap(fmt.Sprintf("A town named %s already exists.", s.name.Value())))
		return
	case errors.Is(err, ErrAlreadyMember):
		if current, ok := s.cmd.towns.MemberOf(p.Name()); ok {
			p.SendMessage(chat.Red.Wrap(fmt.Sprintf("You already belong to %s.", current.Name)))
			return
		}
		p.SendMessage(chat.Red.Wrap("You already belong to a town."))
		return
	case err != nil:
		p.SendMessage(chat.Red.Wrap("Could not found the town."))
		s.cmd.logger.ErrorContext(ctx, "create town", "town", s.name.Value(), "error", err)
		return
	}
	s.cmd.logger.InfoContext(ctx, "town founded", "town", t.Name, "mayor", t.Mayor, "world", t.Spawn.World)
	p.SendMessage(chat.Green.Wrap(fmt.Sprintf("Town %s founded!", t.Name)))
}

// info

type infoSub struct {
	commands.Base
	cmd  *Command
	name *commands.StringArgument
}

func (c *Command) newInfo(name string) commands.SubCommand {
	arg := commands.NewStringArgument("name", commands.Optional)
	return &infoSub{
		Base: commands.NewBase(name, commands.NewSyntax(arg)),
		cmd:  c,
		name: arg,
	}
}

func (s *infoSub) OnPlayerUse(ctx context.Context, p commands.Player, args []string) {
	if len(args) == 0 {
		t, ok := s.cmd.towns.MemberOf(p.Name())
		if !ok {
			p.SendMessage(chat.Red.Wrap("You are not in a town. Use /town info <name>."))
			return
		}
		sendInfo(p, t)
		return
	}
	s.lookup(p)
}

func (s *infoSub) OnConsoleUse(ctx context.Context, c commands.Console, args []string) {
	if len(args) == 0 {
		c.SendMessage(chat.Red.Wrap("Specify a town name."))
		return
	}
	s.lookup(c)
}

func (s *infoSub) lookup(sender commands.Sender) {
	t, ok := s.cmd.towns.Get(s.name.Value())
	if !ok {
		sender.SendMessage(chat.Red.Wrap(fmt.Sprintf("No town named %s.", s.name.Value())))
		return
	}
	sendInfo(sender, t)
}

func (s *infoSub) TabComplete(ctx context.Context, sender commands.Sender, alias string, args []string) []string {
	return townCompleter{s.cmd.towns}.TabComplete(ctx, sender, alias, args)
}

// TabCompleteAt offers the nearest towns first.
func (s *infoSub) TabCompleteAt(ctx context.Context, sender commands.Sender, alias string, args []string, loc *commands.Location) []string {
	if len(args) != 1 || loc == nil {
		return s.TabComplete(ctx, sender, alias, args)
	}
	return commands.FilterPrefix(s.cmd.towns.Nearest(*loc), args[0])
}

func sendInfo(sender commands.Sender, t Town) {
	sender.SendMessage(chat.Gold.Wrap(fmt.Sprintf("--- %s ---", t.Name)))
	sender.SendMessage(chat.Yellow.Wrap("Mayor: ") + chat.White.Wrap(t.Mayor))
	sender.SendMessage(chat.Yellow.Wrap(fmt.Sprintf("Members (%d): ", len(t.Members))) +
		chat.White.Wrap(strings.Join(t.Members, ", ")))
	sender.SendMessage(chat.Yellow.Wrap("Founded: ") + chat.White.Wrap(t.Founded.Format("2006-01-02")))
	sender.SendMessage(chat.Yellow.Wrap("Spawn: ") + chat.White.Wrap(formatLocation(t.Spawn)))
}

func formatLocation(loc commands.Location) string {
	world := loc.World
	if world == "" {
		world = "unknown"
	}
	return fmt.Sprintf("%s (%.0f, %.0f, %.0f)", world, loc.X, loc.Y, loc.Z)
}

// list

type listSub struct {
	commands.Base
	cmd  *Command
	page *commands.IntArgument
}

func (c *Command) newList(name string) commands.SubCommand {
	arg := commands.NewIntArgument("page", commands.Optional).Between(1, 999)
	return &listSub{
		Base: commands.NewBase(name, commands.NewSyntax(arg)),
		cmd:  c,
		page: arg,
	}
}

func (s *listSub) OnPlayerUse(ctx context.Context, p commands.Player, args []string) {
	s.send(p, args)
}

func (s *listSub) OnConsoleUse(ctx context.Context, c commands.Console, args []string) {
	s.send(c, args)
}

func (s *listSub) send(sender commands.Sender, args []string) {
	towns := s.cmd.towns.List()
	if len(towns) == 0 {
		sender.SendMessage(chat.Gray.Wrap("There are no towns yet."))
		return
	}

	page := 1
	if len(args) > 0 {
		page = s.page.Value()
	}
	pages := (len(towns) + pageSize - 1) / pageSize
	if page > pages {
		sender.SendMessage(chat.Red.Wrap(fmt.Sprintf("Page %d does not exist. There are %d pages.", page, pages)))
		return
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, len(towns))
	rows := make([]table.Row, 0, end-start)
	for _, t := range towns[start:end] {
		rows = append(rows, table.Row{t.Name, t.Mayor, len(t.Members)})
	}

	sender.SendMessage(chat.Gold.Wrap(fmt.Sprintf("--- Towns (page %d/%d) ---", page, pages)))
	for _, line := range renderTable(table.Row{"Name", "Mayor", "Members"}, rows) {
		sender.SendMessage(chat.Yellow.Wrap(line))
	}
}

// join

type joinSub struct {
	commands.Base
	cmd  *Command
	name *commands.StringArgument
}

func (c *Command) newJoin(name string) commands.SubCommand {
	arg := commands.NewStringArgument("name", commands.Required)
	return &joinSub{
		Base: commands.NewBase(name, commands.NewSyntax(arg)),
		cmd:  c,
		name: arg,
	}
}

func (s *joinSub) TabComplete(ctx context.Context, sender commands.Sender, alias string, args []string) []string {
	return townCompleter{s.cmd.towns}.TabComplete(ctx, sender, alias, args)
}

func (s *joinSub) OnPlayerUse(ctx context.Context, p commands.Player, args []string) {
	t, err := s.cmd.towns.Join(s.name.Value(), p.Name())
	switch {
	case errors.Is(err, ErrTownNotFound):
		p.SendMessage(chat.Red.Wrap(fmt.Sprintf("No town named %s.", s.name.Value())))
		return
	case errors.Is(err, ErrAlreadyMember):
		p.SendMessage(chat.Red.Wrap("You already belong to a town."))
		return
	case err != nil:
		p.SendMessage(chat.Red.Wrap("Could not join the town."))
		s.cmd.logger.ErrorContext(ctx, "join town", "town", s.name.Value(), "error", err)
		return
	}
	s.cmd.logger.InfoContext(ctx, "town joined", "town", t.Name, "player", p.Name())
	p.SendMessage(chat.Green.Wrap(fmt.Sprintf("You joined %s.", t.Name)))
}

// delete

type deleteSub struct {
	commands.Base
	cmd  *Command
	name *commands.StringArgument
}

func (c *Command) newDelete(name string) commands.SubCommand {
	arg := commands.NewStringArgument("name", commands.Required)
	return &deleteSub{
		Base: commands.NewBase(name, commands.NewSyntax(arg)),
		cmd:  c,
		name: arg,
	}
}

func (s *deleteSub) TabComplete(ctx context.Context, sender commands.Sender, alias string, args []string) []string {
	return townCompleter{s.cmd.towns}.TabComplete(ctx, sender, alias, args)
}

func (s *deleteSub) OnPlayerUse(ctx context.Context, p commands.Player, args []string) {
	s.delete(ctx, p)
}

func (s *deleteSub) OnConsoleUse(ctx context.Context, c commands.Console, args []string) {
	s.delete(ctx, c)
}

func (s *deleteSub) delete(ctx context.Context, sender commands.Sender) {
	t, err := s.cmd.towns.Delete(s.name.Value())
	if err != nil {
		sender.SendMessage(chat.Red.Wrap(fmt.Sprintf("No town named %s.", s.name.Value())))
		return
	}
	s.cmd.logger.InfoContext(ctx, "town deleted", "town", t.Name, "members", len(t.Members))
	sender.SendMessage(chat.Green.Wrap(fmt.Sprintf("Town %s deleted.", t.Name)))
}

// rename

type renameSub struct {
	commands.Base
	cmd     *Command
	name    *commands.StringArgument
	newName *commands.StringArgument
}

func (c *Command) newRename(name string) commands.SubCommand {
	from := commands.NewStringArgument("name", commands.Required)
	to := townNameArgument("new-name", commands.Required)
	return &renameSub{
		Base:    commands.NewBase(name, commands.NewSyntax(from, to)),
		cmd:     c,
		name:    from,
		newName: to,
	}
}

func (s *renameSub) TabComplete(ctx context.Context, sender commands.Sender, alias string, args []string) []string {
	return townCompleter{s.cmd.towns}.TabComplete(ctx, sender, alias, args)
}

// OnPlayerUse allows the mayor or an administrator to rename.
func (s *renameSub) OnPlayerUse(ctx context.Context, p commands.Player, args []string) {
	t, ok := s.cmd.towns.Get(s.name.Value())
	if !ok {
		p.SendMessage(chat.Red.Wrap(fmt.Sprintf("No town named %s.", s.name.Value())))
		return
	}
	if !strings.EqualFold(t.Mayor, p.Name()) && !p.HasPermission(PermAdmin) {
		p.SendMessage(chat.Red.Wrap(fmt.Sprintf("Only the mayor can rename %s.", t.Name)))
		return
	}
	s.rename(ctx, p)
}

func (s *renameSub) OnConsoleUse(ctx context.Context, c commands.Console, args []string) {
	s.rename(ctx, c)
}

func (s *renameSub) rename(ctx context.Context, sender commands.Sender) {
	t, err := s.cmd.towns.Rename(s.name.Value(), s.newName.Value())
	switch {
	case errors.Is(err, ErrTownNotFound):
		sender.SendMessage(chat.Red.Wrap(fmt.Sprintf("No town named %s.", s.name.Value())))
		return
	case errors.Is(err, ErrTownExists):
		sender.SendMessage(chat.Red.Wrap(fmt.Sprintf("A town named %s already exists.", s.newName.Value())))
		return
	case err != nil:
		sender.SendMessage(chat.Red.Wrap("Could not rename the town."))
		s.cmd.logger.ErrorContext(ctx, "rename town", "town", s.name.Value(), "error", err)
		return
	}
	s.cmd.logger.InfoContext(ctx, "town renamed", "from", s.name.Value(), "to", t.Name)
	sender.SendMessage(chat.Green.Wrap(fmt.Sprintf("%s is now known as %s.", s.name.Value(), t.Name)))
}
