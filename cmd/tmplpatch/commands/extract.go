package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/walteh/tmplpatch/cmd/tmplpatch/opts"
	"github.com/walteh/tmplpatch/pkg/markup"
	"gitlab.com/tozd/go/errors"
)

// NewExtractCmd creates the extract command
func NewExtractCmd(o *opts.RootOpts) *cobra.Command {
	var (
		tag    string
		class  string
		active string
		output string
	)

	cmd := &cobra.Command{
		Use:   "extract <template>",
		Short: "Print an element of a reference template",
		Long: `Extract prints the first <tag class="..."> element of a template, nested
elements included. Use it to seed a shared markup file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Errorf("reading template: %w", err)
			}

			fragment, err := markup.ExtractElement(string(data), tag, class)
			if err != nil {
				return errors.Errorf("extracting from %s: %w", args[0], err)
			}
			if err := markup.Validate(fragment); err != nil {
				return errors.Errorf("extracted element: %w", err)
			}
			if active != "" {
				fragment, err = markup.SetActiveLink(fragment, active)
				if err != nil {
					return errors.Errorf("activating %s: %w", active, err)
				}
			}

			if output == "" {
				_, err = fmt.Fprintln(o.Stdout, fragment)
				return err
			}
			if err := os.WriteFile(output, []byte(fragment+"\n"), 0644); err != nil {
				return errors.Errorf("writing %s: %w", output, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&tag, "tag", "t", "nav", "element tag")
	cmd.Flags().StringVar(&class, "class", "navbar", "class the element must carry, any when empty")
	cmd.Flags().StringVar(&active, "active", "", "mark the link with this href as active")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")

	return cmd
}
