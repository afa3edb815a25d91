package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/SonghaiFan/metroflow/pkg/store"
)

// storeCommand creates the store command group for named snapshots.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage named map snapshots",
		Long: `Manage named map snapshots.

Snapshots are kept in the backend chosen by the [store] section of the
config file: a directory of JSON files (default), Redis or MongoDB.`,
	}

	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storePushCommand())
	cmd.AddCommand(c.storePullCommand())
	cmd.AddCommand(c.storeRemoveCommand())

	return cmd
}

// withStore opens the configured store for the duration of fn.
func (c *CLI) withStore(ctx context.Context, fn func(store.Store) error) error {
	s, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func (c *CLI) storeListCommand() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored snapshots",
		Long: `List stored snapshots.

With -i an interactive picker opens; the selected snapshot is pulled to
<name>.json in the current directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStore(ctx, func(s store.Store) error {
				infos, err := s.List(ctx)
				if err != nil {
					return err
				}
				if interactive {
					return c.pickSnapshot(ctx, s, infos)
				}
				printSnapshots(infos)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick a snapshot to pull")

	return cmd
}

func printSnapshots(infos []store.Info) {
	if len(infos) == 0 {
		printInfo("No snapshots stored")
		return
	}
	t := newTable("Name", "Size", "Updated")
	for _, info := range infos {
		t.Row(info.Name, formatSize(info.Size), info.Updated.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(stdout, t.Render())
	printDetail("%d snapshots", len(infos))
}

func (c *CLI) pickSnapshot(ctx context.Context, s store.Store, infos []store.Info) error {
	final, err := tea.NewProgram(NewSnapshotListModel(infos), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("snapshot picker: %w", err)
	}
	m, ok := final.(SnapshotListModel)
	if !ok || m.Selected == nil {
		printInfo("Nothing selected")
		return nil
	}
	return c.pull(ctx, s, m.Selected.Name, m.Selected.Name+".json")
}

func (c *CLI) storePushCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "push [map.json] [name]",
		Short: "Store a snapshot file under a name",
		Long: `Store a snapshot file under a name. The name defaults to the file name
without its extension. An existing snapshot with the same name is replaced.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			name := basePathName(input)
			if len(args) == 2 {
				name = args[1]
			}
			data, err := readInput(input)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return c.withStore(ctx, func(s store.Store) error {
				if err := s.Put(ctx, name, data); err != nil {
					return err
				}
				printSuccess("Stored %s", StyleHighlight.Render(name))
				printDetail("backend: %s", c.Config.Store.Backend)
				return nil
			})
		},
	}
}

func (c *CLI) storePullCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "pull [name]",
		Short: "Write a stored snapshot to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if output == "" {
				output = name + ".json"
			}
			ctx := cmd.Context()
			return c.withStore(ctx, func(s store.Store) error {
				if output == "-" {
					data, err := s.Get(ctx, name)
					if err != nil {
						return err
					}
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				return c.pull(ctx, s, name, output)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default: <name>.json)")
	cmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return c.completeSnapshotNames(cmd, args, toComplete)
	}

	return cmd
}

func (c *CLI) pull(ctx context.Context, s store.Store, name, output string) error {
	data, err := s.Get(ctx, name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	printSuccess("Pulled %s", StyleHighlight.Render(name))
	printFile(output)
	return nil
}

func (c *CLI) storeRemoveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm [name]...",
		Aliases: []string{"remove"},
		Short:   "Remove stored snapshots",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStore(ctx, func(s store.Store) error {
				for _, name := range args {
					if err := s.Delete(ctx, name); err != nil {
						return err
					}
					printSuccess("Removed %s", name)
				}
				return nil
			})
		},
	}
	cmd.ValidArgsFunction = c.completeSnapshotNames
	return cmd
}
