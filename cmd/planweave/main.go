// Command planweave exercises the context-resolution core against a task
// scenario: it loads (or synthesizes) a task hierarchy, resolves agent input
// for every runnable task, and optionally archives the run.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/planweave/planweave/internal/archive"
	"github.com/planweave/planweave/internal/config"
	"github.com/planweave/planweave/internal/knowledge"
	"github.com/planweave/planweave/internal/llm"
	"github.com/planweave/planweave/internal/planning"
	"github.com/planweave/planweave/internal/resolve"
	"github.com/planweave/planweave/internal/summarize"
	"github.com/planweave/planweave/models"
)

var (
	cfgFile      string
	verbose      bool
	scenarioFile string
	archivePath  string
)

var rootCmd = &cobra.Command{
	Use:   "planweave",
	Short: "Context resolution for hierarchical task-decomposition agents",
	Long: `planweave resolves bounded, deduplicated context bundles for LLM-backed
agents working on a hierarchical task decomposition. It is the harness around
the knowledge store and the strategy pipeline; agent execution itself lives
elsewhere.`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default ./planweave.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	demoCmd.Flags().StringVarP(&scenarioFile, "scenario", "s", "", "scenario YAML file (default: built-in demo)")
	demoCmd.Flags().StringVar(&archivePath, "archive", "", "archive the run into a SQLite db under this directory")

	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("planweave")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
	viper.SetEnvPrefix("PLANWEAVE")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()

	level := slog.LevelInfo
	if verbose || viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective resolution configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadResolutionConfig()
		fmt.Printf("target_words:            %d\n", cfg.TargetWords)
		fmt.Printf("chars_per_word:          %d\n", cfg.CharsPerWord)
		fmt.Printf("summary_slack:           %.2f\n", cfg.SummarySlack)
		fmt.Printf("optimizations_enabled:   %t\n", cfg.OptimizationsEnabled)
		fmt.Printf("cache_capacity:          %d\n", cfg.CacheCapacity)
		fmt.Printf("cache_ttl_ms:            %d\n", cfg.CacheTTLMillis)
		fmt.Printf("write_buffer_size:       %d\n", cfg.WriteBufferSize)
		fmt.Printf("context_cache_capacity:  %d\n", cfg.ContextCacheCapacity)
		fmt.Printf("context_cache_ttl_ms:    %d\n", cfg.ContextCacheTTLMillis)
		return nil
	},
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Resolve context for every runnable task in a scenario",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		logger := slog.Default()
		cfg := config.LoadResolutionConfig()

		scenario, err := loadScenario(scenarioFile)
		if err != nil {
			return err
		}

		base := knowledge.NewStore()
		var store knowledge.RecordStore = base
		if cfg.OptimizationsEnabled {
			store = knowledge.NewOptimizedStore(base, knowledge.OptimizedStoreConfig{
				CacheCapacity:  cfg.CacheCapacity,
				CacheTTLMillis: cfg.CacheTTLMillis,
				BatchSize:      cfg.WriteBufferSize,
				Logger:         logger,
			})
		}
		for _, node := range scenario.Nodes() {
			store.AddOrUpdateRecordFromNode(node)
		}

		policy := resolve.NewSizingPolicy(cfg.TargetWords, cfg.CharsPerWord, cfg.SummarySlack, buildSummarizer(ctx, logger), logger)
		builder := resolve.NewCachedBuilder(
			resolve.NewBuilder(store, policy, logger),
			store, cfg.ContextCacheCapacity, cfg.ContextCacheTTLMillis, logger)
		parentCtx := planning.NewParentContextBuilder(store, logger)

		for _, t := range scenario.Tasks {
			if models.TaskStatus(t.Status) != models.StatusReady {
				continue
			}
			input := builder.ResolveContextForAgent(ctx, resolve.ResolveRequest{
				TaskID:             t.ID,
				Goal:               t.Goal,
				TaskType:           t.Type,
				AgentName:          t.Type,
				OverallProjectGoal: scenario.ProjectGoal,
			})
			fmt.Printf("== %s (%s): %d context item(s)\n", t.ID, t.Type, len(input.RelevantContextItems))
			for _, item := range input.RelevantContextItems {
				fmt.Printf("   - %s [%s]: %v\n", item.SourceTaskID, item.ContentTypeDescription, item.Content)
			}
			if narrative := parentCtx.Build(t.ID, scenario.ProjectGoal); narrative != nil {
				fmt.Printf("   hierarchy narrative: %d ancestor level(s)\n", len(narrative.Chain))
			}
		}

		if archivePath != "" {
			return archiveRun(base, scenario.ProjectGoal, scenario)
		}
		return nil
	},
}

// buildSummarizer wires the LLM summarizer when a provider is configured and
// falls back to truncation-only sizing otherwise.
func buildSummarizer(ctx context.Context, logger *slog.Logger) summarize.Summarizer {
	llmCfg := config.LoadLLMConfig()
	if llmCfg.Provider == "" {
		logger.Debug("no LLM provider configured, summarization degrades to truncation")
		return nil
	}
	provider, err := llm.ValidateProvider(llmCfg.Provider)
	if err != nil {
		logger.Warn("invalid LLM provider, summarization degrades to truncation", "error", err)
		return nil
	}
	chatModel, err := llm.NewChatModel(ctx, llm.Config{
		Provider: provider,
		Model:    llmCfg.Model,
		APIKey:   llmCfg.APIKey,
		BaseURL:  llmCfg.BaseURL,
	})
	if err != nil {
		logger.Warn("chat model unavailable, summarization degrades to truncation", "error", err)
		return nil
	}
	return summarize.NewModelSummarizer(chatModel)
}

func archiveRun(store *knowledge.Store, projectGoal string, scenario *Scenario) error {
	arch, err := archive.NewSQLiteArchive(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = arch.Close() }()

	var records []*models.TaskRecord
	for _, t := range scenario.Tasks {
		if rec := store.GetRecord(t.ID); rec != nil {
			records = append(records, rec)
		}
	}
	runID, err := arch.ArchiveRun(projectGoal, records)
	if err != nil {
		return fmt.Errorf("archive run: %w", err)
	}
	fmt.Printf("archived run %s (%d records)\n", runID, len(records))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
