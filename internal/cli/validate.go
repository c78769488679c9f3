package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"retaildw/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the effective configuration",
	Long: `Validate checks the merged configuration (defaults, config file, and
CLI flags) without touching the input file or the warehouse. Errors exit
non-zero; warnings are printed but do not fail the command.`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	issues := config.Validate(cfg)
	for _, issue := range issues {
		cmd.Println(issue.Error())
	}
	if config.HasErrors(issues) {
		return fmt.Errorf("configuration has errors")
	}
	cmd.Println("configuration OK")
	return nil
}
