package cli

import (
	"fmt"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/handwrite/pkg/catalog"
	"github.com/matzehuels/handwrite/pkg/errors"
	"github.com/matzehuels/handwrite/pkg/picker"
)

// variantsCommand creates the variants command.
func (c *CLI) variantsCommand() *cobra.Command {
	var assetsDir string

	cmd := &cobra.Command{
		Use:   "variants [char]",
		Short: "List the hand-drawn variants of a character",
		Long: `Variants lists the variant files of one character, or every character in
the asset directory with its variant count when no character is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assets, err := c.openAssets(assetsDir)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				printCharacters(assets)
				return nil
			}
			r, size := utf8.DecodeRuneInString(args[0])
			if size != len(args[0]) || r == utf8.RuneError {
				return errors.New(errors.ErrCodeInvalidInput, "want a single character, got %q", args[0])
			}
			printVariants(assets, r)
			return nil
		},
	}

	cmd.Flags().StringVar(&assetsDir, "assets", "", "variant directory (default from config)")
	return cmd
}

func printVariants(assets catalog.Assets, r rune) {
	ids := assets.Variants(r)
	if len(ids) == 0 {
		printWarning("No variants for %q; it renders as a blank", r)
		if picker.IsCJK(r) {
			printDetail("CJK characters fall back to a full-width blank")
		}
		return
	}

	rows := make([][]string, len(ids))
	for i, id := range ids {
		size := "unreadable"
		if data, err := assets.Load(id); err == nil {
			size = fmt.Sprintf("%d B", len(data))
		}
		rows[i] = []string{fmt.Sprint(i), string(id), size}
	}
	fmt.Println(StyleTitle.Render(fmt.Sprintf("Variants of %q", r)))
	fmt.Println(newTable("#", "Variant", "Size").Rows(rows...).Render())
	printDetail("%d variants", len(ids))
}

func printCharacters(assets catalog.Assets) {
	chars := assets.Characters()
	if len(chars) == 0 {
		printWarning("No characters found")
		return
	}
	rows := make([][]string, len(chars))
	total := 0
	for i, r := range chars {
		n := len(assets.Variants(r))
		total += n
		rows[i] = []string{fmt.Sprintf("%q", r), fmt.Sprintf("%U", r), fmt.Sprint(n)}
	}
	fmt.Println(newTable("Char", "Code", "Variants").Rows(rows...).Render())
	printDetail("%d characters, %d variants", len(chars), total)
}

func newTable(headers ...string) *table.Table {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			return StyleValue
		})
}
