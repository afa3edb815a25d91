package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/SonghaiFan/metroflow/pkg/store"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for metroflow.

Bash:
  $ source <(metroflow completion bash)

Zsh:
  $ metroflow completion zsh > "${fpath[1]}/_metroflow"

Fish:
  $ metroflow completion fish > ~/.config/fish/completions/metroflow.fish

PowerShell:
  PS> metroflow completion powershell | Out-String | Invoke-Expression

Stored snapshot names are completed for "store pull" and "store rm".
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}

// completeSnapshotNames completes names from the configured store. Config
// loading does not run for completion requests, so it is done here.
func (c *CLI) completeSnapshotNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if err := c.loadConfig(); err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var names []string
	err := c.withStore(cmd.Context(), func(s store.Store) error {
		infos, err := s.List(cmd.Context())
		for _, info := range infos {
			if strings.HasPrefix(info.Name, toComplete) {
				names = append(names, info.Name)
			}
		}
		return err
	})
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
