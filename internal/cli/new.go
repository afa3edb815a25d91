package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SonghaiFan/metroflow/pkg/document"
	"github.com/SonghaiFan/metroflow/pkg/editor"
	"github.com/SonghaiFan/metroflow/pkg/errors"
	"github.com/SonghaiFan/metroflow/pkg/metro"
)

// newCommand creates the "new" command that writes a fresh snapshot.
func (c *CLI) newCommand() *cobra.Command {
	var (
		example bool
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "new [map.json]",
		Short: "Create a new map snapshot",
		Long: `Create a new map snapshot.

By default the map holds one empty track. With --example it holds the
two-line starter map (a red and a blue line, one segment each).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := "map.json"
			if len(args) == 1 {
				output = args[0]
			}
			return c.runNew(output, example, force)
		},
	}

	cmd.Flags().BoolVar(&example, "example", false, "start from the two-line example map")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	return cmd
}

func (c *CLI) runNew(output string, example, force bool) error {
	if !force {
		if _, err := os.Stat(output); err == nil {
			return errors.New(errors.ErrCodeInvalidInput, "%s already exists (use --force to overwrite)", output)
		}
	}

	var sess *editor.Session
	if example {
		sess = editor.Open(metro.NewExample(), c.editorOptions()...)
	} else {
		sess = editor.New(c.editorOptions()...)
	}

	if err := document.WriteFile(sess.Map(), output); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	printSuccess("Created map")
	printFile(output)
	printStats(document.FromMap(sess.Map()).Stats(), false)
	printNewline()
	printNextStep("Render", appName+" render "+output)
	return nil
}
