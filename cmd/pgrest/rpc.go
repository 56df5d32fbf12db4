package pgrest

import (
	"github.com/spf13/cobra"
)

var rpcCmd = &cobra.Command{
	Use:   "rpc <name>",
	Short: "Invoke a stored procedure",
	Long: `POSTs to /rpc/<name> and prints the first row of the result, e.g.

  pgrest rpc add_them --data '{"a": 1, "b": 2}'`,
	Args: cobra.ExactArgs(1),
	RunE: runRPC,
}

func init() {
	rpcCmd.Flags().StringP("data", "d", "", "procedure arguments as a JSON object")
	rootCmd.AddCommand(rpcCmd)
}

func runRPC(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}

	procArgs := map[string]any{}
	if raw, _ := cmd.Flags().GetString("data"); raw != "" {
		var err error
		procArgs, err = decodeData(cmd)
		if err != nil {
			return err
		}
	}

	result, err := client.RPC(cmd.Context(), args[0], procArgs)
	if err != nil {
		return err
	}
	return printJSON(result)
}
