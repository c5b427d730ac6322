package commands

import (
	"context"
)

// TabComplete suggests completions for args, the tokens after the root label.
// Only players receive suggestions.
func (c *Core) TabComplete(ctx context.Context, sender Sender, alias string, args []string) []string {
	return c.complete(ctx, sender, alias, args, nil)
}

// TabCompleteAt is the location-aware variant of TabComplete.
func (c *Core) TabCompleteAt(ctx context.Context, sender Sender, alias string, args []string, loc *Location) []string {
	return c.complete(ctx, sender, alias, args, loc)
}

func (c *Core) complete(ctx context.Context, sender Sender, alias string, args []string, loc *Location) []string {
	suggestions := c.suggest(ctx, sender, alias, args, loc)
	if suggestions == nil {
		suggestions = []string{}
	}
	c.recorder.RecordCompletion(c.decl.Name, len(suggestions))
	return suggestions
}

func (c *Core) suggest(ctx context.Context, sender Sender, alias string, args []string, loc *Location) []string {
	if _, ok := sender.(Player); !ok {
		return nil
	}

	switch {
	case len(args) == 1:
		// One entry per descriptor, named by the instance built from the
		// descriptor's canonical name.
		names := make([]string, 0, len(c.subs))
		for _, desc := range c.subs {
			if sub, ok := c.instantiate(ctx, desc); ok {
				names = append(names, sub.Name())
			}
		}
		return names

	case len(args) > 1:
		desc, ok := c.Resolve(args[0])
		if !ok {
			return nil
		}
		sub, ok := c.instantiateAs(ctx, desc, args[0])
		if !ok {
			return nil
		}
		rest := args[1:]
		if loc != nil {
			if lc, ok := sub.(LocationTabCompleter); ok {
				return lc.TabCompleteAt(ctx, sender, alias, rest, loc)
			}
		}
		if tc, ok := sub.(TabCompleter); ok {
			return tc.TabComplete(ctx, sender, alias, rest)
		}
		return sub.Syntax().Suggest(rest)
	}

	return nil
}
