package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/avandyck/rostrum/internal/config"
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a debate without running it here",
	Long: `New registers a debate and prints its id.

With --server the request is posted to a running rostrum API, which starts
the debate immediately. Without it the session is written to the local store
in pending status; start it later with 'rostrum resume <id>'.`,
	Args: cobra.NoArgs,
	RunE: runNew,
}

var newServer string

func init() {
	rootCmd.AddCommand(newCmd)

	newCmd.Flags().StringVarP(&runFile, "file", "f", "", "YAML debate manifest")
	newCmd.Flags().StringVar(&runTopic, "topic", "", "Motion under debate")
	newCmd.Flags().StringVar(&runBackground, "background", "", "Context shared with every participant")
	newCmd.Flags().IntVar(&runRounds, "rounds", 0, "Number of rounds (default from config)")
	newCmd.Flags().StringVar(&newServer, "server", "", "base URL of a running rostrum API (e.g. http://127.0.0.1:8098)")
}

func runNew(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	req, err := buildRequest(cfg)
	if err != nil {
		return err
	}

	if newServer != "" {
		id, err := postCreate(newServer, req)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	}

	rt, err := openRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	manager, err := rt.store.Create(context.Background(), req)
	if err != nil {
		return fmt.Errorf("failed to create debate: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), manager.ID())
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", mutedStyle.Render("start it with: rostrum resume "+manager.ID()))
	return nil
}

// postCreate submits the request to a running API and returns the new id.
func postCreate(base string, req any) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Post(base+"/api/debates", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("post to %s: %w", base, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("server rejected the debate (%s): %s", resp.Status, bytes.TrimSpace(raw))
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return out.ID, nil
}
