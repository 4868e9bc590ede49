package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pfrederiksen/around-the-grounds/internal/config"
	"github.com/pfrederiksen/around-the-grounds/internal/coordinator"
	"github.com/pfrederiksen/around-the-grounds/internal/fetch"
	"github.com/pfrederiksen/around-the-grounds/internal/filter"
	"github.com/pfrederiksen/around-the-grounds/internal/logger"
	"github.com/pfrederiksen/around-the-grounds/internal/notifier"
	"github.com/pfrederiksen/around-the-grounds/internal/storage"
)

const envPrefix = "ATG"

// settings is the resolved view of flags, environment and settings file.
type settings struct {
	ConfigPath  string
	SitesDir    string
	Site        string
	Format      OutputFormat
	Output      string
	Sort        SortOrder
	DataDir     string
	MetricsFile string
	Verbose     bool
	LogLevel    logger.Level

	Coordinator coordinator.Config
	RateLimit   float64
	UserAgent   string

	Vision       bool
	AnthropicKey string
	VisionModel  string

	Sources []string
	Filter  *filter.Filter

	Twitter notifier.TwitterCredentials
}

func addPersistentFlags(cmd *cobra.Command) {
	def := coordinator.DefaultConfig()
	f := cmd.PersistentFlags()

	f.String("settings", "", "Settings file (yaml, json or toml)")
	f.StringP("config", "c", "", "Source configuration file (site yaml or legacy json); overrides --site")
	f.String("sites-dir", "", "Directory of site yaml files (default: built-in sites)")
	f.String("site", config.DefaultSite, "Site to load from --sites-dir")
	f.BoolP("verbose", "v", false, "Enable verbose output and debug logging")
	f.String("log-level", "warn", "Log level: debug, info, warn or error")
	f.String("data-dir", storage.DefaultDataDir, "Data directory for snapshots")
	f.String("metrics-file", "", "Write run metrics in Prometheus textfile format to this path")

	f.Int("max-concurrent", def.MaxConcurrent, "Sources scraped at once")
	f.Duration("timeout", def.TimeoutPerRequest, "Limit on one fetch and parse attempt")
	f.Int("max-retries", def.MaxRetries, "Attempts per source, including the first")
	f.Duration("backoff", def.BackoffUnit, "Wait before the second attempt; doubles after each retry")
	f.Int("days", def.WindowDays, "Days ahead of today to include")
	f.Float64("rate-limit", 0, "Requests per second across all sources (0 for no limit)")
	f.String("user-agent", fetch.DefaultUserAgent, "User-Agent header for requests")

	f.Bool("vision", true, "Read vendor names from logo images when ANTHROPIC_API_KEY is set")
	f.String("vision-model", "", "Model used for logo analysis")

	f.StringSlice("source", nil, "Only scrape these source keys")
	f.StringSlice("vendor", nil, "Only show vendors whose name contains one of these")
	f.Bool("weekends", false, "Only show Saturday and Sunday events")
	f.Bool("hide-tbd", false, "Hide slots without a named vendor")
	f.String("dates", "", "Only show events in this range, e.g. 'Jul 16-20' or '2026-07-16..2026-07-20'")
}

// bindSettings wires a command's flags into v. Environment variables use the
// ATG_ prefix with dashes turned into underscores.
func bindSettings(v *viper.Viper, cmd *cobra.Command) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	// These keep their conventional unprefixed names.
	_ = v.BindEnv("anthropic_api_key", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("twitter.api_key", "TWITTER_API_KEY")
	_ = v.BindEnv("twitter.api_secret", "TWITTER_API_SECRET")
	_ = v.BindEnv("twitter.access_token", "TWITTER_ACCESS_TOKEN")
	_ = v.BindEnv("twitter.access_secret", "TWITTER_ACCESS_SECRET")

	if path := v.GetString("settings"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading settings file: %w", err)
		}
	}
	return nil
}

func loadSettings(v *viper.Viper) (*settings, error) {
	s := &settings{
		ConfigPath:   v.GetString("config"),
		SitesDir:     v.GetString("sites-dir"),
		Site:         v.GetString("site"),
		Format:       OutputFormat(strings.ToLower(v.GetString("format"))),
		Output:       v.GetString("output"),
		Sort:         SortOrder(strings.ToLower(v.GetString("sort"))),
		DataDir:      v.GetString("data-dir"),
		MetricsFile:  v.GetString("metrics-file"),
		Verbose:      v.GetBool("verbose"),
		RateLimit:    v.GetFloat64("rate-limit"),
		UserAgent:    v.GetString("user-agent"),
		Vision:       v.GetBool("vision"),
		AnthropicKey: v.GetString("anthropic_api_key"),
		VisionModel:  v.GetString("vision-model"),
		Sources:      v.GetStringSlice("source"),
		Coordinator: coordinator.Config{
			MaxConcurrent:     v.GetInt("max-concurrent"),
			TimeoutPerRequest: v.GetDuration("timeout"),
			MaxRetries:        v.GetInt("max-retries"),
			BackoffUnit:       v.GetDuration("backoff"),
			WindowDays:        v.GetInt("days"),
		},
	}

	if s.Format == "" {
		s.Format = FormatText
	}
	if !s.Format.valid() {
		return nil, fmt.Errorf("invalid format: %s (must be text, json, web or ics)", s.Format)
	}
	if s.Sort == "" {
		s.Sort = SortByTime
	}
	if !s.Sort.valid() {
		return nil, fmt.Errorf("invalid sort: %s (must be time, source or vendor)", s.Sort)
	}

	level, err := logger.ParseLevel(v.GetString("log-level"))
	if err != nil {
		return nil, err
	}
	if s.Verbose {
		level = logger.LevelDebug
	}
	s.LogLevel = level

	if s.Coordinator.TimeoutPerRequest < 0 || s.Coordinator.BackoffUnit < 0 {
		return nil, fmt.Errorf("durations must not be negative")
	}
	if s.Coordinator.MaxConcurrent < 0 || s.Coordinator.MaxRetries < 0 || s.Coordinator.WindowDays < 0 {
		return nil, fmt.Errorf("counts must not be negative")
	}

	s.Filter = filter.NewFilter()
	s.Filter.Vendors = v.GetStringSlice("vendor")
	s.Filter.WeekendsOnly = v.GetBool("weekends")
	s.Filter.HideTBD = v.GetBool("hide-tbd")
	if dates := v.GetString("dates"); dates != "" {
		from, to, err := filter.ParseDateRange(dates)
		if err != nil {
			return nil, err
		}
		s.Filter.DateFrom, s.Filter.DateTo = from, to
	}

	var creds struct {
		Twitter notifier.TwitterCredentials `mapstructure:"twitter"`
	}
	if err := v.Unmarshal(&creds); err != nil {
		return nil, fmt.Errorf("reading twitter credentials: %w", err)
	}
	s.Twitter = creds.Twitter

	return s, nil
}

func (s *settings) logger(w io.Writer) *logger.Logger {
	if w == nil {
		w = os.Stderr
	}
	return logger.New(s.LogLevel, w)
}

func (s *settings) fetchConfig() fetch.Config {
	return fetch.Config{
		MaxConns:      s.Coordinator.MaxConcurrent,
		Timeout:       s.Coordinator.TimeoutPerRequest,
		UserAgent:     s.UserAgent,
		RatePerSecond: s.RateLimit,
		Burst:         1,
	}
}

// windowDays is the effective window for messages.
func (s *settings) windowDays() int {
	if s.Coordinator.WindowDays > 0 {
		return s.Coordinator.WindowDays
	}
	return coordinator.DefaultConfig().WindowDays
}
