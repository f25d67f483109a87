package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/spo/internal/adapters/driven/taskfile"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Work with task files",
}

var taskInitCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write an example task file",
	Long: `Write an example task file to get started. Edit the prompt, requirements
and qa entries, then run 'spo optimize --task <file>'.`,
	Args: cobra.ExactArgs(1),
	RunE: runTaskInit,
}

var taskCheckCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Validate a task file without running it",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskCheck,
}

func init() {
	taskInitCmd.Flags().BoolP("force", "f", false, "overwrite an existing file")
	taskCmd.AddCommand(taskInitCmd)
	taskCmd.AddCommand(taskCheckCmd)
	rootCmd.AddCommand(taskCmd)
}

func runTaskInit(cmd *cobra.Command, args []string) error {
	path := args[0]
	force, _ := cmd.Flags().GetBool("force")

	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("checking %s: %w", path, err)
		}
	}

	if err := taskfile.Save(path, taskfile.Template()); err != nil {
		return err
	}
	cmd.Printf("Wrote task file: %s\n", path)
	return nil
}

func runTaskCheck(cmd *cobra.Command, args []string) error {
	task, err := taskfile.Load(args[0], defaultMaxRounds())
	if err != nil {
		return err
	}
	cmd.Printf("Task is valid: %d exemplars, %d rounds\n", len(task.Exemplars), task.MaxRounds)
	return nil
}
