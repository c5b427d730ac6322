package commands

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/haasonsaas/cmdtree/internal/chat"
)

// ListHelp is a ready-made HelpRenderer: a title line followed by one line
// per sub-command the sender may use.
type ListHelp struct {
	// Header replaces the default "<Root> Commands" title
	Header string

	// ShowAll lists sub-commands the sender lacks permission for
	ShowAll bool
}

// RenderHelp implements HelpRenderer.
func (h ListHelp) RenderHelp(ctx context.Context, sender Sender, root *Core, subs []SubCommand) {
	header := h.Header
	if header == "" {
		header = titleCase(root.Name()) + " Commands"
	}
	sender.SendMessage(chat.Gold.Wrap(fmt.Sprintf("--- %s ---", header)))

	player, isPlayer := sender.(Player)
	shown := 0
	for _, sub := range subs {
		decl, _ := root.Describe(sub.Name())
		if !h.ShowAll && isPlayer && !permitted(player, decl.Permission) {
			continue
		}
		desc := decl.Description
		if desc == "" {
			desc = "No description"
		}
		line := chat.Yellow.Wrap(root.SubUsage(sub)) + chat.Gray.Wrap(" - "+desc)
		if decl.PlayerOnly && !isPlayer {
			line += chat.DarkGray.Wrap(" (player only)")
		}
		sender.SendMessage(line)
		shown++
	}
	if shown == 0 {
		sender.SendMessage(chat.Gray.Wrap("No sub-commands available."))
	}
}

// titleCase converts the first letter of each word to uppercase.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return cases.Title(language.English).String(strings.ReplaceAll(s, "-", " "))
}
