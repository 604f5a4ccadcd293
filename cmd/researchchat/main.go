package main

import (
	"os"

	"github.com/spf13/cobra"

	chatcmder "github.com/buildfastwithai/researchchat/cmd/researchchat/chat"
	servecmder "github.com/buildfastwithai/researchchat/cmd/researchchat/serve"
	sessionscmder "github.com/buildfastwithai/researchchat/cmd/researchchat/sessions"
)

func main() {
	root := &cobra.Command{
		Use:   "researchchat",
		Short: "Deep-research chat assistant for the Perplexity API",
		Long: `researchchat is a chat client for Perplexity's deep-research models.

It keeps every conversation as a local session, splits the model's
thinking section away from the answer, and can serve the same chat
loop over HTTP.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		chatcmder.NewChatCmd(),
		servecmder.NewServeCmd(),
		sessionscmder.NewSessionsCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
