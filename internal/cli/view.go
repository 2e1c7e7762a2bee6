package cli

import (
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/spantower/pkg/waterfall"
)

// viewCommand creates the interactive viewer command.
func (c *CLI) viewCommand() *cobra.Command {
	var (
		display bool
		expand  []string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "view [trace.json]",
		Short: "Browse a trace waterfall in the terminal",
		Long: `Browse a trace waterfall interactively. Move with the arrow keys or j/k
and press enter or space to open or close a span's annotations.

In display mode every panel is open and rows cannot be toggled.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			po := c.pipelineOptions(args[0], renderOpts{display: display, expand: expand})
			root, _, err := runner.Load(ctx, po)
			if err != nil {
				return err
			}
			if err := po.ValidateForLayout(); err != nil {
				return err
			}

			view := waterfall.NewViewWithToggles(root, po.ToggleState(), po.WaterfallOptions()...)
			model := NewWaterfallModel(view, fmt.Sprintf("%s  %s", filepath.Base(args[0]), root.Span.TraceID))

			final, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			if err != nil {
				return fmt.Errorf("run viewer: %w", err)
			}
			if m, ok := final.(WaterfallModel); ok {
				if ids := m.Trace.Toggles().IDs(); len(ids) > 0 && !display {
					printNextStep("Render this view", renderHint(args[0], ids))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&display, "display", false, "display mode: open every panel, disable toggling")
	cmd.Flags().StringSliceVarP(&expand, "expand", "e", nil, "span id(s) to open initially")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the trace cache")

	return cmd
}

// renderHint is the render command reproducing an interactive session.
func renderHint(input string, expanded []string) string {
	cmd := "spantower render " + input + " -f svg"
	for _, id := range expanded {
		cmd += " -e " + id
	}
	return cmd
}
