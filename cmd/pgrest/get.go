package pgrest

import (
	"fmt"

	"github.com/edgeflare/pgrest/pkg/postgrest"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <table>",
	Short: "List rows of a table",
	Long: `Lists the rows of a table matching the given filters.
Filter values use PostgREST's operator-prefixed syntax, e.g.

  pgrest get users --filter active=eq.true --filter deleted_at=is.null`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	f := getCmd.Flags()
	f.StringArrayP("filter", "f", nil, "filter as col=op.value (repeatable)")
	f.String("pick", "", "print only this dotted attribute path from each row")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}

	filterPairs, _ := cmd.Flags().GetStringArray("filter")
	filters, err := parsePairs(filterPairs)
	if err != nil {
		return err
	}

	resource := client.Bind(postgrest.Binding{Table: args[0]})
	records, err := resource.Filter(cmd.Context(), postgrest.Params(filters))
	if err != nil {
		return err
	}

	pick, _ := cmd.Flags().GetString("pick")
	if pick != "" {
		for _, record := range records {
			value, err := record.Lookup(pick)
			if err != nil {
				return err
			}
			fmt.Println(value)
		}
		return nil
	}

	rows := make([]map[string]any, 0, len(records))
	for _, record := range records {
		rows = append(rows, record.Attrs())
	}
	return printJSON(rows)
}
