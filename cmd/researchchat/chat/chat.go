package chatcmder

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/buildfastwithai/researchchat/cmd/researchchat/storepath"
	"github.com/buildfastwithai/researchchat/pkg/config"
	"github.com/buildfastwithai/researchchat/pkg/llm"
	"github.com/buildfastwithai/researchchat/pkg/session"
	"github.com/buildfastwithai/researchchat/tui"
)

const chatLongDesc string = `Start an interactive deep-research chat.

The reply streams into the terminal; the model's thinking section stays
collapsed until toggled with ctrl+t. Every turn is persisted, so a chat
can be resumed later with --session.

Examples:
  researchchat chat
  researchchat chat --session 3fa85f64-5717-4562-b3fc-2c963f66afa6
  researchchat chat --db ~/.researchchat/chat.db`

const chatShortDesc string = "Chat with the deep-research model"

type chatCommander struct {
	configPath string
	storeDir   string
	dbPath     string
	sessionID  string
	model      string
	maxTokens  int
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to config file")
	cmd.Flags().StringVar(&cmder.storeDir, "store-dir", "", "Directory for session JSON files")
	cmd.Flags().StringVar(&cmder.dbPath, "db", "", "Path to SQLite session database (instead of JSON files)")
	cmd.Flags().StringVarP(&cmder.sessionID, "session", "s", "", "Resume an existing session by id")
	cmd.Flags().StringVarP(&cmder.model, "model", "m", "", "Model name override")
	cmd.Flags().IntVar(&cmder.maxTokens, "max-tokens", 0, "Max completion tokens override")

	return cmd
}

func (c *chatCommander) run(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.model != "" {
		cfg.Model = c.model
	}
	if c.maxTokens > 0 {
		cfg.MaxTokens = c.maxTokens
	}
	if c.storeDir != "" {
		cfg.StoreDir = c.storeDir
	}
	if c.dbPath != "" {
		cfg.DBPath = c.dbPath
	}

	if err := cfg.EnsureAPIKey(); err != nil {
		return err
	}

	store, err := storepath.Open(cfg.StoreDir, cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	sess, err := c.resolveSession(cmd, store, cfg.SystemPrompt)
	if err != nil {
		return err
	}

	client := llm.NewClient(cfg.BaseURL, cfg.APIKey)

	m := tui.New(tui.Config{
		Client:    client,
		Store:     store,
		Session:   sess,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat UI failed: %w", err)
	}

	return nil
}

// resolveSession loads the requested session, starting fresh when it is
// missing; no --session flag always means a new conversation.
func (c *chatCommander) resolveSession(cmd *cobra.Command, store session.Store, systemPrompt string) (*session.Session, error) {
	if c.sessionID == "" {
		return session.New(systemPrompt), nil
	}

	sess, err := store.Load(cmd.Context(), c.sessionID)
	if err != nil {
		var notFound session.ErrNotFound
		if errors.As(err, &notFound) {
			fmt.Fprintf(cmd.ErrOrStderr(), "No history for session %s, starting fresh.\n", c.sessionID)
			sess = session.New(systemPrompt)
			sess.ID = c.sessionID
			return sess, nil
		}
		return nil, err
	}

	return sess, nil
}
