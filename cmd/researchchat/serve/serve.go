package servecmder

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/buildfastwithai/researchchat/cmd/researchchat/storepath"
	"github.com/buildfastwithai/researchchat/pkg/config"
	"github.com/buildfastwithai/researchchat/pkg/llm"
	"github.com/buildfastwithai/researchchat/pkg/logger"
	"github.com/buildfastwithai/researchchat/server"
)

const serveLongDesc string = `Serve the chat loop over HTTP.

POST /api/chat runs one conversation turn against the upstream model,
optionally streaming NDJSON chunks; the session endpoints list, fetch,
delete, and import stored conversations.

Examples:
  researchchat serve
  researchchat serve --listen :9090 --db ~/.researchchat/chat.db`

const serveShortDesc string = "Run the chat HTTP server"

type serveCommander struct {
	configPath string
	listenAddr string
	storeDir   string
	dbPath     string
	model      string
	debug      bool
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run()
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to config file")
	cmd.Flags().StringVarP(&cmder.listenAddr, "listen", "l", ":8080", "Address to listen on")
	cmd.Flags().StringVar(&cmder.storeDir, "store-dir", "", "Directory for session JSON files")
	cmd.Flags().StringVar(&cmder.dbPath, "db", "", "Path to SQLite session database (instead of JSON files)")
	cmd.Flags().StringVarP(&cmder.model, "model", "m", "", "Model name override")
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Enable debug logging")

	return cmd
}

func (c *serveCommander) run() error {
	log := logger.NewLogger(c.debug)
	defer log.Sync()

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.model != "" {
		cfg.Model = c.model
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

	client := llm.NewClient(cfg.BaseURL, cfg.APIKey)

	srv := server.New(server.Config{
		ListenAddr:   c.listenAddr,
		Model:        cfg.Model,
		MaxTokens:    cfg.MaxTokens,
		SystemPrompt: cfg.SystemPrompt,
	}, store, client, log)
	defer srv.Close()

	log.Info("researchchat server starting",
		zap.String("listen", c.listenAddr),
		zap.String("model", cfg.Model),
		zap.Bool("debug", c.debug),
	)

	return srv.Run()
}
