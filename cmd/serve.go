package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/theapemachine/recall/pkg/analyzer"
	"github.com/theapemachine/recall/pkg/auth"
	"github.com/theapemachine/recall/pkg/chat"
	"github.com/theapemachine/recall/pkg/provider"
	"github.com/theapemachine/recall/pkg/search"
	"github.com/theapemachine/recall/pkg/service"
	"github.com/theapemachine/recall/pkg/stores/qdrant"
	"github.com/theapemachine/recall/pkg/stores/sqlite"
)

var (
	addrFlag string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the recall API server",
		Long:  longServe,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := sqlite.Open(viper.GetString("store.path"))

			if err != nil {
				return err
			}

			defer store.Close()

			generator, err := buildGenerator()

			if err != nil {
				return err
			}

			embedder, err := buildEmbedder()

			if err != nil {
				return err
			}

			searcher := search.New(embedder, store, nil)

			authService := auth.NewService(
				viper.GetString("auth.signing_key"),
				auth.WithAPIKeys(viper.GetStringMapString("auth.api_keys")),
			)

			options := []service.Option{service.WithAddr(addrFlag)}

			if endpoint := viper.GetString("qdrant.endpoint"); endpoint != "" {
				options = append(options, service.WithMirror(
					qdrant.New(endpoint, viper.GetString("qdrant.collection")),
				))
			}

			srv := service.NewServer(
				store,
				analyzer.New(generator),
				embedder,
				searcher,
				chat.New(searcher, generator),
				authService,
				options...,
			)

			return srv.Run()
		},
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&addrFlag, "addr", "a", ":3000", "Address to serve on")
}

func providerTimeout() time.Duration {
	if timeout := viper.GetDuration("provider.timeout"); timeout > 0 {
		return timeout
	}
	return provider.DefaultTimeout
}

// buildGenerator selects the text generation backend from config.
func buildGenerator() (provider.Generator, error) {
	name := viper.GetString("provider.generator")
	timeout := providerTimeout()

	log.Info("using generator", "provider", name)

	switch name {
	case "google", "":
		return provider.NewGoogleProvider(
			provider.WithGoogleClient(),
			provider.WithGoogleTimeout(timeout),
		), nil
	case "openai":
		return provider.NewOpenAIProvider(
			provider.WithOpenAIClient(),
			provider.WithOpenAITimeout(timeout),
		), nil
	case "anthropic":
		return provider.NewAnthropicProvider(
			provider.WithAnthropicClient(),
			provider.WithAnthropicTimeout(timeout),
		), nil
	case "ollama":
		return provider.NewOllamaProvider(
			provider.WithOllamaClient(),
			provider.WithOllamaTimeout(timeout),
		), nil
	}

	return nil, errUnknownProvider("generator", name)
}

// buildEmbedder selects the embedding backend from config.
func buildEmbedder() (provider.Embedder, error) {
	name := viper.GetString("provider.embedder")
	timeout := providerTimeout()

	log.Info("using embedder", "provider", name)

	switch name {
	case "google", "":
		return provider.NewGoogleProvider(
			provider.WithGoogleClient(),
			provider.WithGoogleTimeout(timeout),
		), nil
	case "openai":
		return provider.NewOpenAIProvider(
			provider.WithOpenAIClient(),
			provider.WithOpenAITimeout(timeout),
		), nil
	case "cohere":
		return provider.NewCohereEmbedder(
			provider.WithCohereClient(),
			provider.WithCohereTimeout(timeout),
		), nil
	case "ollama":
		return provider.NewOllamaProvider(
			provider.WithOllamaClient(),
			provider.WithOllamaTimeout(timeout),
		), nil
	}

	return nil, errUnknownProvider("embedder", name)
}

func errUnknownProvider(role, name string) error {
	return fmt.Errorf("unknown %s provider %q", role, name)
}

var longServe = `
Serve the recall API: capture, semantic search and memory-grounded chat.

Examples:
  # Serve with the config defaults
  recall serve

  # Serve on another port
  recall serve --addr :8080
`
