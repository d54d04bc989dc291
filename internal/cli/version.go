package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rprtr258/fswatch/internal/config"
)

var _cmdVersion = &cobra.Command{
	Use:   "version",
	Short: "print fswatch version",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		fmt.Println(config.Version)
		return nil
	},
}
