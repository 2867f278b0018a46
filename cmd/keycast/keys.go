package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"keycast/internal/keysym"
)

func newKeysCmd() *cobra.Command {
	var class string
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "List the key codes keycast can display",
		Long: `keys prints the key table: the virtual key code, its class, the glyph
shown without shift and the glyph shown with shift. Names from the KEY
column are accepted by the input.toggle_key setting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows := keyRows(class)
			if len(rows) == 0 {
				return fmt.Errorf("no keys in class %q", class)
			}
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("CODE", "CLASS", "KEY", "SHIFTED").
				Rows(rows...)
			_, err := fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return err
		},
	}
	cmd.Flags().StringVar(&class, "class", "", "only list one class (editing, navigation, digit, letter, function, ...)")
	return cmd
}

func keyRows(class string) [][]string {
	var rows [][]string
	for _, k := range keysym.Table() {
		if class != "" && !strings.EqualFold(k.Class.String(), class) {
			continue
		}
		rows = append(rows, []string{
			k.Code.String(),
			k.Class.String(),
			k.Plain,
			k.Shifted,
		})
	}
	return rows
}
