package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/lysyi3m/rss-clusters/app/cluster"
)

// Console prints "[label] title" lines grouped by label, one blank line between groups
type Console struct {
	out   io.Writer
	label *color.Color
	title *color.Color
}

func NewConsole(out io.Writer, useColors bool) *Console {
	c := &Console{
		out:   out,
		label: color.New(color.FgBlue),
		title: color.New(color.Bold),
	}

	if useColors {
		c.label.EnableColor()
		c.title.EnableColor()
	} else {
		c.label.DisableColor()
		c.title.DisableColor()
	}

	return c
}

func (c *Console) Render(partition cluster.Partition) error {
	for i, cl := range partition.Clusters() {
		if i > 0 {
			if _, err := fmt.Fprintln(c.out); err != nil {
				return fmt.Errorf("failed to write separator: %w", err)
			}
		}

		for _, entry := range cl.Members {
			_, err := fmt.Fprintf(c.out, "%s%s\n",
				c.label.Sprintf("[%d] ", cl.Label),
				c.title.Sprint(entry.Title))
			if err != nil {
				return fmt.Errorf("failed to write cluster %d: %w", cl.Label, err)
			}
		}
	}

	return nil
}
