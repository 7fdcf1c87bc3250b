package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/s0up4200/marquee/appwrite"
	"github.com/s0up4200/marquee/backend"
	"github.com/s0up4200/marquee/config"
	"github.com/s0up4200/marquee/filter"
	"github.com/s0up4200/marquee/history"
	"github.com/s0up4200/marquee/kvstore"
	"github.com/s0up4200/marquee/session"
	"github.com/s0up4200/marquee/tmdb"
)

var (
	cfgFile      string
	cfg          *config.Config
	logger       zerolog.Logger
	catalog      *tmdb.Client
	service      *backend.Service
	store        kvstore.Store
	searches     *history.History
	sessionState *session.State
	filters      *filter.Manager

	// Command flags
	filterExpr   string
	outputFormat string
	kindFlag     string

	version   = "dev"
	buildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "marquee",
	Short: "Browse movies and TV shows and keep a saved list",
	Long: `marquee is a CLI client for browsing the TMDB catalog. Signed-in users
can save movies and shows to their collection, and every search feeds the
trending list shared by all users.`,
	PersistentPreRunE:  initializeApp,
	PersistentPostRunE: shutdownApp,
	SilenceUsage:       true,
}

// SetVersion sets the version reported by --version
func SetVersion(v, built string) {
	version = v
	buildTime = built
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format (table/json)")
	rootCmd.PersistentFlags().StringVarP(&kindFlag, "kind", "k", "", "media kind (movie/tv), defaults to search.kind")
}

// initializeApp initializes the configuration and clients
func initializeApp(cmd *cobra.Command, args []string) error {
	if outputFormat != "table" && outputFormat != "json" {
		return fmt.Errorf("invalid output format: %s (must be 'table' or 'json')", outputFormat)
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging)

	if kindFlag == "" {
		kindFlag = cfg.Search.Kind
	}

	filters = filter.NewManager()
	if err := filters.RegisterFilters(cfg.Filter); err != nil {
		return fmt.Errorf("invalid filter in config: %w", err)
	}

	store, err = kvstore.Open(cfg.Storage.Driver, cfg.Storage.Dir, logger)
	if err != nil {
		return fmt.Errorf("failed to open local storage: %w", err)
	}
	searches = history.New(store, logger)

	catalog, err = tmdb.NewClient(cfg.TMDB.BaseURL, cfg.TMDB.APIKey, logger, tmdb.WithTimeout(cfg.TMDB.Timeout))
	if err != nil {
		return fmt.Errorf("failed to create TMDB client: %w", err)
	}

	awClient, err := appwrite.NewClient(cfg.Appwrite.Endpoint, cfg.Appwrite.ProjectID, logger,
		appwrite.WithTimeout(cfg.Appwrite.Timeout),
		appwrite.WithSelfSigned(cfg.Appwrite.SelfSigned),
		appwrite.WithSessionStore(kvstore.NewSessionStore(store, kvstore.DefaultSessionKey)),
	)
	if err != nil {
		return fmt.Errorf("failed to create Appwrite client: %w", err)
	}

	logger.Debug().Str("endpoint", awClient.Endpoint()).Str("project", cfg.Appwrite.ProjectID).Msg("Appwrite client ready")

	policy, err := backend.ParseSignInPolicy(cfg.Appwrite.SignInPolicy)
	if err != nil {
		return err
	}
	service, err = backend.NewService(awClient, awClient, backend.Config{
		DatabaseID:         cfg.Appwrite.DatabaseID,
		SavedCollectionID:  cfg.Appwrite.SavedCollectionID,
		SearchCollectionID: cfg.Appwrite.SearchCollectionID,
		SignInPolicy:       policy,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create backend service: %w", err)
	}

	sessionState = session.New(service, logger)
	return nil
}

// shutdownApp closes local storage and logs request counters
func shutdownApp(cmd *cobra.Command, args []string) error {
	logMetricsSummary()
	if store != nil {
		return store.Close()
	}
	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	var out io.Writer = os.Stderr
	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
			NoColor:    !cfg.Color || !isTerminal(os.Stderr),
		}
	}

	if cfg.File != "" {
		out = zerolog.MultiLevelWriter(out, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
	}

	return zerolog.New(out).With().Timestamp().Logger()
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// logMetricsSummary writes every non-zero marquee counter to the debug log
func logMetricsSummary() {
	if zerolog.GlobalLevel() > zerolog.DebugLevel {
		return
	}

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		logger.Debug().Err(err).Msg("Failed to gather metrics")
		return
	}

	for _, family := range families {
		if !strings.HasPrefix(family.GetName(), "marquee_") {
			continue
		}
		for _, m := range family.GetMetric() {
			if m.GetCounter() == nil || m.GetCounter().GetValue() == 0 {
				continue
			}
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			sort.Strings(labels)
			logger.Debug().
				Str("metric", family.GetName()).
				Str("labels", strings.Join(labels, ",")).
				Float64("value", m.GetCounter().GetValue()).
				Msg("Request counter")
		}
	}
}

// mediaKind returns the kind selected by --kind or the config
func mediaKind() (tmdb.MediaKind, error) {
	return tmdb.ParseMediaKind(kindFlag)
}
