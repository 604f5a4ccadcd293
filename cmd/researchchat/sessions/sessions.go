// Package sessionscmder implements the session maintenance subcommands:
// listing, inspecting, deleting, and pushing stored conversations.
package sessionscmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buildfastwithai/researchchat/cmd/researchchat/storepath"
	"github.com/buildfastwithai/researchchat/pkg/session"
	"github.com/buildfastwithai/researchchat/pkg/thinking"
)

const sessionsLongDesc string = `Inspect and maintain stored chat sessions.

Sessions live as one JSON file each under the store directory (or as rows
in a SQLite database when --db is used).`

type sessionsCommander struct {
	storeDir string
	dbPath   string
}

func NewSessionsCmd() *cobra.Command {
	cmder := &sessionsCommander{}

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage stored chat sessions",
		Long:  sessionsLongDesc,
	}

	cmd.PersistentFlags().StringVar(&cmder.storeDir, "store-dir", "", "Directory for session JSON files")
	cmd.PersistentFlags().StringVar(&cmder.dbPath, "db", "", "Path to SQLite session database (instead of JSON files)")

	cmd.AddCommand(
		cmder.newListCmd(),
		cmder.newShowCmd(),
		cmder.newRmCmd(),
		NewPushCmd(cmder),
	)

	return cmd
}

func (c *sessionsCommander) open() (session.Store, error) {
	return storepath.Open(c.storeDir, c.dbPath)
}

func (c *sessionsCommander) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runList(cmd.Context(), cmd)
		},
	}
}

func (c *sessionsCommander) runList(ctx context.Context, cmd *cobra.Command) error {
	store, err := c.open()
	if err != nil {
		return err
	}
	defer store.Close()

	summaries, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("could not list sessions: %w", err)
	}

	if len(summaries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No stored sessions.")
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%-36s  %-16s  %5s  %s\n", "ID", "UPDATED", "TURNS", "TITLE")
	for _, s := range summaries {
		fmt.Fprintf(cmd.OutOrStdout(), "%-36s  %-16s  %5d  %s\n",
			s.ID, s.UpdatedAt.Local().Format("2006-01-02 15:04"), s.TurnCount, s.Title)
	}

	return nil
}

type showCommander struct {
	parent       *sessionsCommander
	withThinking bool
}

func (c *sessionsCommander) newShowCmd() *cobra.Command {
	cmder := &showCommander{parent: c}

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print a session transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args[0])
		},
	}

	cmd.Flags().BoolVar(&cmder.withThinking, "thinking", false, "Include the model's thinking sections")

	return cmd
}

func (c *showCommander) run(ctx context.Context, cmd *cobra.Command, id string) error {
	store, err := c.parent.open()
	if err != nil {
		return err
	}
	defer store.Close()

	sess, err := store.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("could not load session %s: %w", id, err)
	}

	if sess.Title != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n", sess.Title)
	}

	for _, turn := range sess.Transcript() {
		switch turn.Role {
		case session.RoleUser:
			fmt.Fprintf(cmd.OutOrStdout(), "You:\n%s\n\n", turn.Content)
		case session.RoleAssistant:
			split := thinking.Split(turn.Content)
			if split.Found && c.withThinking {
				fmt.Fprintf(cmd.OutOrStdout(), "Assistant (thinking):\n%s\n\n", split.Thinking)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Assistant:\n%s\n\n", split.Answer)
		}
	}

	return nil
}

func (c *sessionsCommander) newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <session-id>",
		Short: "Delete a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.open()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("could not delete session %s: %w", args[0], err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", args[0])
			return nil
		},
	}
}
