package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/treeverse/fileconn/secrets"
)

var tokenCmd = &cobra.Command{
	Use:   "token [json file]",
	Short: "Convert a JSON key file (or stdin) to TOML for a secrets section",
	Long: `Convert a JSON document, such as a GCS service account key, to TOML.
Paste the output under [connections.<name>] in the secrets file.`,
	Args: cobra.MaximumNArgs(1),
	// configuration is not needed to convert a file
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = cmd.InOrStdin()
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		return secrets.ConvertJSON(in, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}
