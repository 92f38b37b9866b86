package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/claimflow/internal/model"
)

// Version is set at build time
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "claimflow",
	Short: "Claimflow - insurance claim orchestration engine",
	Long: `Claimflow moves insurance claim submissions through a fixed chain of
stage agents (extraction, validation, enrichment, fraud screening,
routing) or through a dynamic planner that picks tools step by step.

Every judgement call is delegated to a decision oracle (an LLM) whose
replies are decoded into typed decisions. Scores, rules and quality
checks are deterministic tools.

Finished claims are appended to a JSON result store keyed by submitter.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of Claimflow.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "claimflow %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.claimflow/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().String("mode", "", "orchestration mode (fixed, dynamic)")
	rootCmd.PersistentFlags().String("store", "", "result store path")
	rootCmd.PersistentFlags().String("llm-provider", "", "LLM provider (openai, anthropic, ollama, gemini)")
	rootCmd.PersistentFlags().String("llm-model", "", "LLM model name")
	rootCmd.PersistentFlags().String("knowledge-dir", "", "directory of reference documents")

	// Bind flags to viper
	bindFlag("pipeline.mode", "mode")
	bindFlag("store.path", "store")
	bindFlag("llm.provider", "llm-provider")
	bindFlag("llm.model", "llm-model")
	bindFlag("knowledge.dir", "knowledge-dir")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

func bindFlag(key, flag string) {
	_ = viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag))
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(filepath.Join(home, ".claimflow"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Every default key is registered so CLAIMFLOW_* variables can override it
	if err := setDefaults(viper.GetViper(), model.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Error registering defaults: %v\n", err)
	}

	// Read in environment variables that match CLAIMFLOW_* (server.addr -> CLAIMFLOW_SERVER_ADDR)
	viper.SetEnvPrefix("CLAIMFLOW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers cfg under its mapstructure keys
func setDefaults(v *viper.Viper, cfg model.Config) error {
	var tree map[string]any
	if err := mapstructure.Decode(cfg, &tree); err != nil {
		return fmt.Errorf("flatten defaults: %w", err)
	}
	setTree(v, "", tree)
	return nil
}

func setTree(v *viper.Viper, prefix string, tree map[string]any) {
	for key, value := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}
		if sub, ok := value.(map[string]any); ok {
			setTree(v, key, sub)
			continue
		}
		v.SetDefault(key, value)
	}
}

// loadConfig returns the effective configuration: flags, env, file, defaults
func loadConfig() (model.Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return model.Config{}, fmt.Errorf("decode config: %w", err)
	}

	if verbose {
		cfg.Logging.Level = "debug"
	}

	switch cfg.Pipeline.Mode {
	case model.ModeFixed, model.ModeDynamic:
	case "":
		cfg.Pipeline.Mode = model.ModeFixed
	default:
		return model.Config{}, fmt.Errorf("unknown mode %q (supported: fixed, dynamic)", cfg.Pipeline.Mode)
	}
	return cfg, nil
}
