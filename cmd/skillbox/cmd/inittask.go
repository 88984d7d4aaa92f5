package cmd

import (
	"fmt"

	"skillbox/cmd/skillbox/globals"
	"skillbox/internal/research"
	"skillbox/lib/osutil"

	"github.com/spf13/cobra"
)

func newInitTaskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-task [path]",
		Short: "Creates the directories and progress.json of a stock research task.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := globals.Get(cmd.Context())

			base := v.Config.Research.BasePath
			if len(args) > 0 {
				base = args[0]
			}
			base, err := osutil.ExpandHome(base)
			if err != nil {
				return err
			}

			task, err := research.InitTask(base, v.Time.Now())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, dir := range task.Directories {
				fmt.Fprintf(out, "[OK] %s\n", dir)
			}
			fmt.Fprintf(out, "[OK] %s\n", task.ProgressPath)
			fmt.Fprintf(out, "\n✅ 任務初始化完成：%s\n", task.BasePath)
			return nil
		},
	}
}
