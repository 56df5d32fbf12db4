package postgrest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// RPC invokes a stored procedure via POST {base}/rpc/{name} and returns the
// first element of the JSON array response, or nil when the procedure
// returned no rows.
func (c *Client) RPC(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	if args == nil {
		args = map[string]any{}
	}
	body, err := marshalPayload(args)
	if err != nil {
		return nil, err
	}
	rawURL := c.baseURL + "/rpc/" + name
	respBody, err := c.do(ctx, http.MethodPost, rawURL, "rpc/"+name, body)
	if err != nil {
		return nil, err
	}

	var rows []map[string]any
	if err := json.Unmarshal(respBody, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode rpc response from %q: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}
