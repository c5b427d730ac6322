package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/haasonsaas/cmdtree/internal/commands"
	"github.com/haasonsaas/cmdtree/internal/host"
)

func buildConsoleCmd(configPath *string) *cobra.Command {
	var player string

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Start an interactive command console",
		Long: `Start an interactive console that dispatches each line to the
registered root commands. Press TAB to complete labels, sub-commands and
argument values. Type "exit" or press Ctrl+D to quit.

With --player the console acts as that player: permission checks apply
and tab completion is enabled for sub-commands. Every player holds the
nodes in permissions.defaults ([town.use] unless configured); grant more
with "cmdtree perms grant player:<name> <node>".`,
		Example: `  cmdtree console
  cmdtree console --player Steve --config cmdtree.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if player == "" {
				player = cfg.Console.Player
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			return runConsole(ctx, a, player)
		},
	}
	cmd.Flags().StringVarP(&player, "player", "p", "", "Act as the named player")
	return cmd
}

func runConsole(ctx context.Context, a *app, player string) error {
	var sender commands.Sender
	completer := &lineCompleter{
		ctx:      ctx,
		commands: a.commands,
		prefixes: a.commands.Parser().Prefixes(),
		sender:   func() commands.Sender { return sender },
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            a.cfg.Console.Prompt,
		HistoryFile:       a.cfg.Console.HistoryFile,
		AutoComplete:      completer,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()

	console := host.NewConsoleSender(rl.Stdout(), host.ColorEnabled(os.Stdout))
	sender = a.sender(console, player)
	a.logger.Info("console started", "sender", sender.Name())

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		} else if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		input := strings.TrimSpace(line)
		switch input {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		if err := a.commands.Dispatch(ctx, sender, input); err != nil && !errors.Is(err, host.ErrUnknownCommand) {
			a.logger.Error("dispatch failed", "error", err)
		}
	}
}

// completionSource is the part of the command map lineCompleter needs.
type completionSource interface {
	Complete(ctx context.Context, sender commands.Sender, line string) []string
}

// lineCompleter adapts the command map to readline.AutoCompleter.
type lineCompleter struct {
	ctx      context.Context
	commands completionSource
	prefixes []string
	sender   func() commands.Sender
}

// Do implements readline.AutoCompleter. Candidates are returned as the
// suffix that completes the word under the cursor.
func (c *lineCompleter) Do(line []rune, pos int) ([][]rune, int) {
	sender := c.sender()
	if sender == nil {
		return nil, 0
	}
	typed := string(line[:pos])
	word := typed[strings.LastIndexAny(typed, " \t")+1:]
	if word == strings.TrimLeft(typed, " \t") {
		for _, prefix := range c.prefixes {
			if strings.HasPrefix(word, prefix) {
				word = strings.TrimPrefix(word, prefix)
				break
			}
		}
	}
	partial := []rune(word)

	var out [][]rune
	for _, candidate := range c.commands.Complete(c.ctx, sender, typed) {
		cand := []rune(candidate)
		if len(cand) < len(partial) || !strings.EqualFold(string(cand[:len(partial)]), word) {
			continue
		}
		out = append(out, append(cand[len(partial):], ' '))
	}
	return out, len(partial)
}
