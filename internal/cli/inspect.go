package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dshills/rasterdoc/internal/engine/snapshot"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	folderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75"))
	layerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	faintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	hiddenStyle = lipgloss.NewStyle().Faint(true).Strikethrough(true)
)

func newInspectCommand(_ *env) *cobra.Command {
	var raw bool
	var theme string
	cmd := &cobra.Command{
		Use:   "inspect <snapshot.yaml>",
		Short: "Print the member tree of a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if raw {
				return quick.Highlight(cmd.OutOrStdout(), string(data), "yaml", "terminal256", theme)
			}
			s, err := snapshot.Decode(bytes.NewReader(data))
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			printTree(cmd.OutOrStdout(), s)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the highlighted YAML instead of the tree")
	cmd.Flags().StringVar(&theme, "theme", "monokai", "highlighting theme for --raw")
	return cmd
}

// printTree writes the members of s top to bottom, the way a layer panel
// lists them.
func printTree(w io.Writer, s *snapshot.Document) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%dx%d, %d members", s.Width, s.Height, len(s.Members)-1)))

	byID := make(map[string]snapshot.Member, len(s.Members))
	for _, m := range s.Members {
		byID[m.ID] = m
	}
	var visit func(id string, depth int)
	visit = func(id string, depth int) {
		m := byID[id]
		for i := len(m.Children) - 1; i >= 0; i-- {
			child := byID[m.Children[i]]
			fmt.Fprintln(w, strings.Repeat("  ", depth)+memberLine(child))
			visit(child.ID, depth+1)
		}
	}
	visit(s.Root, 0)
}

func memberLine(m snapshot.Member) string {
	style := layerStyle
	if m.Kind == "folder" {
		style = folderStyle
	}
	if !m.Visible {
		style = hiddenStyle
	}
	line := style.Render(m.Name)

	var details []string
	if m.Opacity < 1 {
		details = append(details, fmt.Sprintf("%.0f%%", m.Opacity*100))
	}
	if m.Image != nil {
		details = append(details, fmt.Sprintf("%d chunks", len(m.Image.Chunks)))
	}
	if m.Mask != nil {
		details = append(details, "mask")
	}
	if len(details) > 0 {
		line += " " + faintStyle.Render(strings.Join(details, ", "))
	}
	return line
}
