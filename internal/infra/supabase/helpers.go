package supabase

import (
	"context"
	"encoding/json"
	"net/http"
)

// ============================================================
// HTTP helpers for POST, PATCH, DELETE
// ============================================================

func (c *Client) doPost(ctx context.Context, table string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return c.doRequest(ctx, http.MethodPost, table, payload)
}

// doUpsert POSTs with merge-duplicates resolution so PostgREST updates
// the existing row on an on_conflict key instead of returning 409.
func (c *Client) doUpsert(ctx context.Context, table string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, table, payload, "return=representation,resolution=merge-duplicates")
}

func (c *Client) doPatch(ctx context.Context, path string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = c.doRequest(ctx, http.MethodPatch, path, payload)
	return err
}

func (c *Client) doDelete(ctx context.Context, path string) error {
	_, err := c.doRequest(ctx, http.MethodDelete, path, nil)
	return err
}

// decodeRows unmarshals a PostgREST array response. A nil or empty body
// decodes to an empty slice.
func decodeRows[T any](body []byte) ([]T, error) {
	if body == nil || string(body) == "[]" {
		return []T{}, nil
	}
	var rows []T
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
