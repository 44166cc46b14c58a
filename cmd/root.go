package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/itsmostafa/docai/internal/config"
	"github.com/itsmostafa/docai/internal/docai"
	"github.com/itsmostafa/docai/internal/store"
	"github.com/itsmostafa/docai/internal/version"
	"github.com/itsmostafa/docai/internal/workflow"
)

var (
	configFile string
	logLevel   string
	apiURL     string
	apiToken   string
	region     string
	stateDir   string
)

var rootCmd = &cobra.Command{
	Use:   "docai",
	Short: "Document AI layouts, extraction and training from the command line",
	Long: `docai uploads documents to a document AI service, requests OCR,
classification, language detection and field extraction, and decodes the
returned layouts locally to map every character to its page and position.

Settings come from the environment (DOCAI_TOKEN, DOCAI_REGION, ...), a .env
file in the working directory and an optional YAML config file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("docai %s\n", version.String()))

	rootCmd.PersistentFlags().StringVar(&configFile, "config", os.Getenv("DOCAI_CONFIG"), "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "url", "", "API base URL (overrides --region)")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", "", "API token")
	rootCmd.PersistentFlags().StringVar(&region, "region", "", fmt.Sprintf("API region (%v)", docai.Regions))
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", workflow.DefaultStateDir, "Directory for run state")
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// loadConfig merges config sources and applies the persistent flags, which
// win over everything else.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if apiURL != "" {
		cfg.URL = apiURL
	}
	if apiToken != "" {
		cfg.Token = apiToken
	}
	if region != "" {
		cfg.Region = region
		if apiURL == "" {
			cfg.URL = ""
		}
	}
	return cfg, nil
}

// setup loads config and builds the logger. requireToken is false for
// commands that work offline.
func setup(cmd *cobra.Command, requireToken bool) (*config.Config, *logrus.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if requireToken {
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}
	log, err := cfg.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func blobsFor(cfg *config.Config) *store.Blobs {
	return store.NewBlobs(store.S3Options{Region: cfg.S3.Region, Endpoint: cfg.S3.Endpoint})
}

// newWorkflow wires the API client, storage and run state for cmd.
func newWorkflow(cmd *cobra.Command) (*workflow.Workflow, *config.Config, error) {
	cfg, log, err := setup(cmd, true)
	if err != nil {
		return nil, nil, err
	}
	client, err := docai.NewClient(cfg.BaseURL(), cfg.Token, docai.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}
	log.WithField("url", client.BaseURL()).Debug("API client ready")

	return &workflow.Workflow{
		API:   client,
		Blobs: blobsFor(cfg),
		Out:   cmd.OutOrStdout(),
		Log:   log,
		State: workflow.NewStateManager(stateDir),
	}, cfg, nil
}
