package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ericlee/eoss/pkg/config"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	Long: `Write the default EOSS configuration to the path given with --config.

The generated file carries every supported key with its default value;
edit the paths before starting the service.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		return fmt.Errorf("init requires --config <path>")
	}

	if _, err := os.Stat(cfgFile); err == nil && !forceInit {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", cfgFile)
	}

	if err := config.Save(config.Default(), cfgFile); err != nil {
		return err
	}

	fmt.Printf("configuration written to %s\n", cfgFile)
	return nil
}
