package pgrest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/edgeflare/pgrest/pkg/postgrest"
	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create <table>",
	Short: "Insert a row",
	Long: `Inserts a row and prints the server's representation of it, e.g.

  pgrest create users --data '{"name": "anne"}'`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

var updateCmd = &cobra.Command{
	Use:   "update <table>",
	Short: "Update a row by key",
	Long: `Patches the row identified by the --key columns and prints its
refreshed state, e.g.

  pgrest update users --key id=5 --data '{"email": "anne@example.com"}'`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <table>",
	Short: "Delete a row by key",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	createCmd.Flags().StringP("data", "d", "", "row attributes as a JSON object")
	createCmd.MarkFlagRequired("data")

	updateCmd.Flags().StringArrayP("key", "k", nil, "key column as col=value (repeatable)")
	updateCmd.Flags().StringP("data", "d", "", "changed attributes as a JSON object")
	updateCmd.MarkFlagRequired("key")
	updateCmd.MarkFlagRequired("data")

	deleteCmd.Flags().StringArrayP("key", "k", nil, "key column as col=value (repeatable)")
	deleteCmd.MarkFlagRequired("key")

	rootCmd.AddCommand(createCmd, updateCmd, deleteCmd)
}

func decodeData(cmd *cobra.Command) (map[string]any, error) {
	raw, _ := cmd.Flags().GetString("data")
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("invalid --data JSON: %w", err)
	}
	return payload, nil
}

// keyedRecord fetches the single row identified by the --key flags.
func keyedRecord(cmd *cobra.Command, client *postgrest.Client, table string) (*postgrest.Record, error) {
	keyPairs, _ := cmd.Flags().GetStringArray("key")
	params, err := keyParams(keyPairs)
	if err != nil {
		return nil, err
	}

	columns := make([]string, 0, len(params))
	for col := range params {
		columns = append(columns, col)
	}

	resource := client.Bind(postgrest.Binding{Table: table, Key: columns})
	record, err := resource.Get(cmd.Context(), params)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("no row in %q matches %s", table, strings.Join(keyPairs, ", "))
	}
	return record, nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	payload, err := decodeData(cmd)
	if err != nil {
		return err
	}

	resource := client.Bind(postgrest.Binding{Table: args[0]})
	record, err := resource.Create(cmd.Context(), payload)
	if err != nil {
		return err
	}
	return printJSON(record.Attrs())
}

func runUpdate(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	payload, err := decodeData(cmd)
	if err != nil {
		return err
	}

	record, err := keyedRecord(cmd, client, args[0])
	if err != nil {
		return err
	}
	if err := record.Update(cmd.Context(), payload); err != nil {
		return err
	}
	return printJSON(record.Attrs())
}

func runDelete(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}

	record, err := keyedRecord(cmd, client, args[0])
	if err != nil {
		return err
	}
	return record.Delete(cmd.Context())
}
