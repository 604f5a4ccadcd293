package sessionscmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/buildfastwithai/researchchat/pkg/session"
)

const pushLongDesc string = `Push local sessions to a remote researchchat server.

Reads every session from the local store and POSTs them to the remote
server's /api/sessions/import endpoint. Sessions whose ids already exist
on the server are skipped.

Examples:
  researchchat sessions push http://192.168.1.42:8080
  researchchat sessions push --db ~/.researchchat/chat.db http://localhost:8080`

const pushShortDesc string = "Push sessions to a remote server"

type pushCommander struct {
	parent    *sessionsCommander
	batchSize int
}

type pushResponse struct {
	New      int `json:"new"`
	Existing int `json:"existing"`
	Errors   int `json:"errors"`
}

func NewPushCmd(parent *sessionsCommander) *cobra.Command {
	cmder := &pushCommander{parent: parent}

	cmd := &cobra.Command{
		Use:   "push <server-url>",
		Short: pushShortDesc,
		Long:  pushLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args[0])
		},
	}

	cmd.Flags().IntVar(&cmder.batchSize, "batch-size", 100, "Sessions per HTTP request")

	return cmd
}

func (c *pushCommander) run(ctx context.Context, cmd *cobra.Command, serverURL string) error {
	serverURL = strings.TrimRight(serverURL, "/")

	store, err := c.parent.open()
	if err != nil {
		return fmt.Errorf("could not open local store: %w", err)
	}
	defer store.Close()

	summaries, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("could not list local sessions: %w", err)
	}

	if len(summaries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No local sessions to push.")
		return nil
	}

	sessions := make([]*session.Session, 0, len(summaries))
	for _, sum := range summaries {
		sess, err := store.Load(ctx, sum.ID)
		if err != nil {
			continue
		}
		sessions = append(sessions, sess)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Pushing %d sessions to %s\n", len(sessions), serverURL)

	var totalNew, totalExisting, totalErr int

	for i := 0; i < len(sessions); i += c.batchSize {
		end := i + c.batchSize
		if end > len(sessions) {
			end = len(sessions)
		}
		batch := sessions[i:end]

		resp, err := c.postBatch(serverURL, batch)
		if err != nil {
			return fmt.Errorf("push failed on batch %d-%d: %w", i, end-1, err)
		}

		totalNew += resp.New
		totalExisting += resp.Existing
		totalErr += resp.Errors
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Pushed %d new sessions (%d already existed, %d errors)\n",
		totalNew, totalExisting, totalErr)

	return nil
}

func (c *pushCommander) postBatch(serverURL string, sessions []*session.Session) (*pushResponse, error) {
	body, err := json.Marshal(sessions)
	if err != nil {
		return nil, fmt.Errorf("could not marshal sessions: %w", err)
	}

	resp, err := http.Post(serverURL+"/api/sessions/import", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result pushResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("could not decode response: %w", err)
	}

	return &result, nil
}
