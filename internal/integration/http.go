package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

const maxErrorBody = 64 << 10

// Do executes req and decodes a 2xx JSON body into out.
// Non-2xx responses become an *UpstreamError carrying the response body.
func Do(client *http.Client, platform Platform, op string, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return &UpstreamError{Platform: platform, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &UpstreamError{Platform: platform, Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &UpstreamError{Platform: platform, Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// FlexInt decodes integers sent either as JSON numbers or numeric strings.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		*f = FlexInt(n)
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid integer %q", s)
	}
	*f = FlexInt(v)
	return nil
}
