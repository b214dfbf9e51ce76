package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/teacherlink-search/internal/filtering"
	"github.com/spigell/teacherlink-search/internal/logger"
	"github.com/spigell/teacherlink-search/internal/server"
	"github.com/spigell/teacherlink-search/internal/store"
	"github.com/spigell/teacherlink-search/internal/teacherlink"
)

const (
	app       = "teacherlink-search"
	envPrefix = "TEACHERLINK"
)

type Config struct {
	TeacherLink *teacherlink.Config `mapstructure:"teacherlink"`
	APIKeyFile  string              `mapstructure:"api-key-file"`
	PerPage     int                 `mapstructure:"per-page" validate:"gte=0,lte=100"`
	Filters     *FiltersConfig      `mapstructure:"filters"`
	Store       *store.Config       `mapstructure:"store"`
	Server      *server.Config      `mapstructure:"server"`
	Log         *LogConfig          `mapstructure:"log"`
}

type FiltersConfig struct {
	Retention string `mapstructure:"retention" validate:"omitempty,oneof=soft-filters-required scoring-only"`
	// Default criteria, in the same shape the web client stored them.
	Default map[string]any `mapstructure:"default"`
}

type LogConfig struct {
	Level string   `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Paths []string `mapstructure:"paths"`
}

var (
	// Used for flags.
	cfgFile string

	validate = validator.New()

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "teacherlink-search filters, ranks and pages TeacherLink teacher candidates",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("api-key-file", envPrefix+"_API_KEY_FILE"); err != nil {
		log.Fatalf("binding %s_API_KEY_FILE environment variable: %v", envPrefix, err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is teacherlink-search.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// A missing .env is fine; a broken one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	// Unmarshal only sees env values for keys viper already knows about.
	for _, key := range []string{"teacherlink.base-url", "teacherlink.user-uid", "store.backend", "store.redis.addr", "store.redis.password"} {
		if err := viper.BindEnv(key); err != nil {
			log.Fatalf("binding %s: %v", key, err)
		}
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Only an explicitly requested config must exist.
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func newLogger() *zap.Logger {
	cfg := logger.Config{
		JSON:  viper.GetBool("json"),
		Debug: viper.GetBool("debug"),
	}
	if !cfg.Debug {
		cfg.Level = viper.GetString("log.level")
	}
	cfg.OutputPaths = viper.GetStringSlice("log.paths")

	l, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config == nil {
		config = &Config{}
	}
	if config.Filters == nil {
		config.Filters = &FiltersConfig{}
	}

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// requireAPI checks the settings needed to talk to the candidate endpoints.
func (c *Config) requireAPI() error {
	if c.TeacherLink == nil || strings.TrimSpace(c.TeacherLink.BaseURL) == "" {
		return errors.New("teacherlink.base-url is required")
	}
	return validate.Struct(c.TeacherLink)
}

func (c *Config) retention() (filtering.Retention, error) {
	return filtering.ParseRetention(c.Filters.Retention)
}

func (c *Config) defaultCriteria() (filtering.Criteria, error) {
	criteria, err := filtering.CriteriaFromMap(c.Filters.Default)
	if err != nil {
		return filtering.Criteria{}, fmt.Errorf("parsing filters.default: %w", err)
	}
	if err := criteria.Validate(); err != nil {
		return filtering.Criteria{}, fmt.Errorf("filters.default: %w", err)
	}
	return criteria, nil
}
