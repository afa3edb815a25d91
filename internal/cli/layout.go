package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SonghaiFan/metroflow/pkg/document"
	"github.com/SonghaiFan/metroflow/pkg/editor"
)

// layoutCommand creates the layout command that re-routes a snapshot.
func (c *CLI) layoutCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "layout [map.json]",
		Short: "Re-route every segment of a map snapshot",
		Long: `Re-route every segment of a map snapshot.

The snapshot is loaded, every segment path is recomputed from its endpoints,
on-segment and minor stations are re-projected, and the normalized snapshot
is written back (or to --output).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: rewrite the input)")

	return cmd
}

func (c *CLI) runLayout(input, output string) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	prog := newProgress(c.Logger)
	sess := editor.New(c.editorOptions()...)
	if err := sess.Load(data); err != nil {
		return fmt.Errorf("load %s: %w", input, err)
	}
	sess.Layout()

	var buf bytes.Buffer
	if err := sess.Save(&buf); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Routed %d segments", len(sess.Map().Segments())))

	if output == "" {
		output = input
	}
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	if bytes.Equal(bytes.TrimSpace(data), bytes.TrimSpace(buf.Bytes())) {
		printSuccess("Layout unchanged")
	} else {
		printSuccess("Layout complete")
	}
	printFile(output)
	printStats(document.FromMap(sess.Map()).Stats(), false)
	return nil
}
