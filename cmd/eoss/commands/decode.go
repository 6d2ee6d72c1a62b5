package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericlee/eoss/pkg/objectname"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <object-name>",
	Short: "Decode an on-disk object name",
	Long: `Decode a base64 object name back into the filename, salt and version
it was derived from. Useful when inspecting the storage directory or the
metadata catalog by hand.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

func runDecode(cmd *cobra.Command, args []string) error {
	decoded, err := objectname.Decode(args[0])
	if err != nil {
		return fmt.Errorf("decoding %q: %w", args[0], err)
	}

	fmt.Println(decoded)
	return nil
}
