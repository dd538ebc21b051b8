// Package cli provides commands that inspect a running shell through its
// diagnostics server.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/websocket"

	"github.com/rennerdo30/taqyon/internal/journal"
)

// DefaultAddr is the default diagnostics address.
const DefaultAddr = "http://127.0.0.1:9477"

// Client talks to the diagnostics server.
type Client struct {
	BaseURL string
	Client  *http.Client
	Out     io.Writer
}

// NewClient creates a new diagnostics client.
func NewClient(baseURL string, out io.Writer) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 10 * time.Second},
		Out:     out,
	}
}

// NewCommands creates the ctl commands.
func NewCommands() *cobra.Command {
	var addr string

	root := &cobra.Command{
		Use:   "ctl",
		Short: "Inspect a running shell through its diagnostics server",
	}
	root.PersistentFlags().StringVar(&addr, "addr", DefaultAddr, "Diagnostics server URL")

	client := func(cmd *cobra.Command) *Client {
		return NewClient(addr, cmd.OutOrStdout())
	}

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the shell is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			return client(cmd).CheckHealth()
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show the running shell's version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return client(cmd).ShowVersion()
		},
	}

	stateCmd := &cobra.Command{
		Use:   "state",
		Short: "Show the shell state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return client(cmd).ShowState()
		},
	}

	var limit int
	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "List recent shell events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return client(cmd).ListEvents(limit)
		},
	}
	eventsCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of events to show")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream shell events as they happen",
		RunE: func(cmd *cobra.Command, args []string) error {
			return client(cmd).Watch(cmd.Context())
		},
	}

	root.AddCommand(healthCmd, versionCmd, stateCmd, eventsCmd, watchCmd)
	return root
}

func (c *Client) doRequest(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	return c.Client.Do(req)
}

func (c *Client) getJSON(path string, v interface{}) error {
	resp, err := c.doRequest(context.Background(), http.MethodGet, path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body) //nolint:errcheck // Best effort read for error message
		return fmt.Errorf("diagnostics error: %s - %s", resp.Status, strings.TrimSpace(string(body)))
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

// CheckHealth reports whether the shell answers.
func (c *Client) CheckHealth() error {
	var health map[string]interface{}
	if err := c.getJSON("/healthz", &health); err != nil {
		return err
	}

	if health["status"] == "healthy" {
		fmt.Fprintf(c.Out, "Shell is healthy (up %v)\n", health["uptime"])
		return nil
	}
	fmt.Fprintf(c.Out, "Shell health: %v\n", health["status"])
	return nil
}

// ShowVersion prints the running shell's version.
func (c *Client) ShowVersion() error {
	var info map[string]interface{}
	if err := c.getJSON("/version", &info); err != nil {
		return err
	}

	fmt.Fprintf(c.Out, "%v %v\n", info["name"], info["version"])
	fmt.Fprintf(c.Out, "Commit: %v\n", info["git_commit"])
	fmt.Fprintf(c.Out, "Built: %v\n", info["build_time"])
	fmt.Fprintf(c.Out, "Go: %v %v\n", info["go_version"], info["platform"])
	return nil
}

// ShowState prints the shell state as indented JSON.
func (c *Client) ShowState() error {
	var state map[string]interface{}
	if err := c.getJSON("/debug/state", &state); err != nil {
		return err
	}

	data, _ := json.MarshalIndent(state, "", "  ") //nolint:errcheck // Error only on cycle which won't happen
	fmt.Fprintln(c.Out, string(data))
	return nil
}

// ListEvents prints the most recent events, newest first.
func (c *Client) ListEvents(limit int) error {
	path := "/debug/events"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var resp struct {
		Events []journal.Entry `json:"events"`
		Total  int             `json:"total"`
	}
	if err := c.getJSON(path, &resp); err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSOURCE\tTYPE\tOUTCOME\tURL\tDETAIL")
	for _, e := range resp.Events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Format("15:04:05.000"), e.Source, e.Type, e.Outcome, e.URL, e.Detail)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "%d of %d events\n", len(resp.Events), resp.Total)
	return nil
}

// Watch prints events pushed over the diagnostics websocket until ctx is
// cancelled or the connection closes.
func (c *Client) Watch(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	wsURL, err := websocketURL(c.BaseURL)
	if err != nil {
		return err
	}

	cfg, err := websocket.NewConfig(wsURL, c.BaseURL)
	if err != nil {
		return fmt.Errorf("websocket config: %w", err)
	}
	ws, err := cfg.DialContext(ctx)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", wsURL, err)
	}
	defer ws.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			ws.Close()
		case <-done:
		}
	}()

	for {
		var msg struct {
			Type string        `json:"type"`
			Data journal.Entry `json:"data"`
		}
		if err := websocket.JSON.Receive(ws, &msg); err != nil {
			if ctx.Err() != nil || err == io.EOF {
				return nil
			}
			return fmt.Errorf("receive: %w", err)
		}
		e := msg.Data
		fmt.Fprintf(c.Out, "%s %s\n", e.Timestamp.Format("15:04:05.000"), e.Summary())
	}
}

func websocketURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid diagnostics url %q: %w", base, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid diagnostics url %q: scheme must be http or https", base)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/debug/ws"
	return u.String(), nil
}
