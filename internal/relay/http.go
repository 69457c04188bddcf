package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"polychat/internal/docstore"
)

// statusError is a non-2xx reply that carried no known error code.
type statusError struct {
	Method string
	Path   string
	Status string
	Msg    string
}

func (e *statusError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("docstore %s %s: %s: %s", e.Method, e.Path, e.Status, e.Msg)
	}
	return fmt.Sprintf("docstore %s %s: %s", e.Method, e.Path, e.Status)
}

// do sends in as JSON (when non-nil) and decodes a 2xx reply into out (when
// non-nil). Error replies carrying a known code are mapped back to the
// domain sentinel.
func (c *HTTP) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return err
		}
		body = buf
	}
	req, err := http.NewRequestWithContext(ctx, method, c.Base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var eb docstore.ErrorBody
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&eb)
		if sentinel := docstore.ErrorFromCode(eb.Code); sentinel != nil {
			return fmt.Errorf("%w (docstore %s %s)", sentinel, method, path)
		}
		return &statusError{Method: method, Path: path, Status: resp.Status, Msg: eb.Error}
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
