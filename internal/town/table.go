package town

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// chatStyle draws column-aligned text without borders so each row fits on
// one chat line.
var chatStyle = func() table.Style {
	s := table.StyleDefault
	s.Name = "chat"
	s.Options = table.Options{
		DrawBorder:      false,
		SeparateColumns: true,
		SeparateHeader:  true,
		SeparateRows:    false,
	}
	s.Box.MiddleVertical = " "
	s.Box.MiddleHorizontal = "-"
	s.Box.MiddleSeparator = "-"
	s.Box.PaddingLeft = ""
	s.Box.PaddingRight = " "
	s.Format.Header = text.FormatDefault
	return s
}()

// renderTable lays out rows under header and returns one string per line.
func renderTable(header table.Row, rows []table.Row) []string {
	t := table.NewWriter()
	t.SetStyle(chatStyle)
	t.AppendHeader(header)
	t.AppendRows(rows)

	lines := strings.Split(t.Render(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimRight(line, " "); line != "" {
			out = append(out, line)
		}
	}
	return out
}
