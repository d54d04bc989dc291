package cli

import (
	"github.com/spf13/cobra"
)

var _app = func() *cobra.Command {
	cmd := _cmdWatch
	cmd.AddCommand(_cmdVersion)
	return cmd
}()

func Run(argv []string) error {
	_app.SetArgs(argv[1:])
	return _app.Execute()
}
