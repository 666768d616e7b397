package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BTreeMap/MealMate/internal/api"
	"github.com/BTreeMap/MealMate/internal/genai"
	"github.com/BTreeMap/MealMate/internal/lockfile"
	"github.com/BTreeMap/MealMate/internal/messaging"
	"github.com/BTreeMap/MealMate/internal/photoarchive"
	"github.com/BTreeMap/MealMate/internal/store"
	"github.com/BTreeMap/MealMate/internal/twiliowhatsapp"
	"github.com/BTreeMap/MealMate/internal/util"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for MealMate state data
	DefaultStateDir = "/var/lib/mealmate"
	// DefaultDBFileName is the default SQLite event log filename
	DefaultDBFileName = "mealmate.db"
	// DefaultMaxImageMB is the default food photo ceiling in MiB
	DefaultMaxImageMB = 10
)

func main() {
	// Load environment configuration first so DEBUG can pick the log level
	config := loadEnvironmentConfig()

	initializeLogger(config.Debug)

	flags, err := parseCommandLineFlags(config, os.Args[1:])
	if err != nil {
		slog.Error("Invalid command line", "error", err)
		os.Exit(2)
	}

	loc, err := loadLocation(*flags.timezone)
	if err != nil {
		slog.Error("Invalid timezone", "error", err, "timezone", *flags.timezone)
		os.Exit(1)
	}

	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	// Conversation state is per process, so one instance per state directory
	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	lineOpts := buildLineOptions(flags)
	twilioOpts := buildTwilioOptions(flags)
	storeOpts := buildStoreOptions(flags)
	genaiOpts := buildGenAIOptions(flags)
	archiveOpts := buildArchiveOptions(flags)
	apiOpts := buildAPIOptions(flags, loc)

	slog.Info("Bootstrapping MealMate with configured modules")
	slog.Debug("Final configuration",
		"transport", *flags.transport,
		"state_dir", *flags.stateDir,
		"dsn_set", *flags.dbDSN != "",
		"api_addr", *flags.apiAddr,
		"webhook_path", *flags.webhookPath,
		"genai_provider", *flags.genaiProvider,
		"timezone", loc.String())
	runErr := api.Run(lineOpts, twilioOpts, storeOpts, genaiOpts, archiveOpts, apiOpts)
	lock.Release()
	if runErr != nil {
		slog.Error("MealMate failed to run", "error", runErr)
		os.Exit(1)
	}
	slog.Info("MealMate exited successfully")
}

// Config holds environment configuration
type Config struct {
	Transport        string
	LineSecret       string
	LineToken        string
	WebhookPublicURL string
	GenAIProvider    string
	OpenAIKey        string
	OpenAIModel      string
	GeminiKey        string
	GeminiModel      string
	APIAddr          string
	WebhookPath      string
	DatabaseURL      string
	StateDir         string
	PhotoBucket      string
	AWSRegion        string
	Timezone         string
	MaxImageMB       int
	Debug            bool
}

// Flags holds command line flag values
type Flags struct {
	transport        *string
	lineSecret       *string
	lineToken        *string
	webhookPublicURL *string
	genaiProvider    *string
	openaiKey        *string
	openaiModel      *string
	geminiKey        *string
	geminiModel      *string
	apiAddr          *string
	webhookPath      *string
	dbDSN            *string
	stateDir         *string
	photoBucket      *string
	awsRegion        *string
	timezone         *string
	maxImageMB       *int
}

// initializeLogger sets up structured logging, at debug level when requested
func initializeLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		Transport:        os.Getenv("TRANSPORT"),
		LineSecret:       os.Getenv("LINE_SECRET"),
		LineToken:        os.Getenv("LINE_TOKEN"),
		WebhookPublicURL: os.Getenv("WEBHOOK_PUBLIC_URL"),
		GenAIProvider:    os.Getenv("GENAI_PROVIDER"),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      os.Getenv("OPENAI_MODEL"),
		GeminiKey:        os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      os.Getenv("GEMINI_MODEL"),
		APIAddr:          os.Getenv("API_ADDR"),
		WebhookPath:      os.Getenv("WEBHOOK_PATH"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		StateDir:         os.Getenv("MEALMATE_STATE_DIR"),
		PhotoBucket:      os.Getenv("PHOTO_ARCHIVE_BUCKET"),
		AWSRegion:        os.Getenv("AWS_REGION"),
		Timezone:         os.Getenv("TIMEZONE"),
		MaxImageMB:       util.ParseIntEnv("MAX_IMAGE_MB", DefaultMaxImageMB),
		Debug:            util.ParseBoolEnv("DEBUG", false),
	}

	if config.Transport == "" {
		config.Transport = api.TransportLINE
	}
	if config.GenAIProvider == "" {
		config.GenAIProvider = genai.ProviderOpenAI
	}

	// Set default state directory if not specified
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No MEALMATE_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"TRANSPORT", config.Transport,
		"LINE_SECRET_SET", config.LineSecret != "",
		"LINE_TOKEN_SET", config.LineToken != "",
		"WEBHOOK_PUBLIC_URL", config.WebhookPublicURL,
		"GENAI_PROVIDER", config.GenAIProvider,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"GEMINI_API_KEY_SET", config.GeminiKey != "",
		"API_ADDR", config.APIAddr,
		"WEBHOOK_PATH", config.WebhookPath,
		"MEALMATE_STATE_DIR", config.StateDir,
		"PHOTO_ARCHIVE_BUCKET", config.PhotoBucket,
		"TIMEZONE", config.Timezone,
		"MAX_IMAGE_MB", config.MaxImageMB)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config, args []string) (Flags, error) {
	fs := flag.NewFlagSet("MealMate", flag.ContinueOnError)
	flags := Flags{
		transport:        fs.String("transport", config.Transport, "chat platform, line or twilio (overrides $TRANSPORT)"),
		lineSecret:       fs.String("line-secret", config.LineSecret, "LINE channel secret (overrides $LINE_SECRET)"),
		lineToken:        fs.String("line-token", config.LineToken, "LINE channel access token (overrides $LINE_TOKEN)"),
		webhookPublicURL: fs.String("webhook-public-url", config.WebhookPublicURL, "public webhook URL used for Twilio signatures (overrides $WEBHOOK_PUBLIC_URL)"),
		genaiProvider:    fs.String("genai-provider", config.GenAIProvider, "generation backend, openai or gemini (overrides $GENAI_PROVIDER)"),
		openaiKey:        fs.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		openaiModel:      fs.String("openai-model", config.OpenAIModel, "OpenAI model (overrides $OPENAI_MODEL)"),
		geminiKey:        fs.String("gemini-api-key", config.GeminiKey, "Gemini API key (overrides $GEMINI_API_KEY)"),
		geminiModel:      fs.String("gemini-model", config.GeminiModel, "Gemini model (overrides $GEMINI_MODEL)"),
		apiAddr:          fs.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		webhookPath:      fs.String("webhook-path", config.WebhookPath, "webhook path (overrides $WEBHOOK_PATH)"),
		dbDSN:            fs.String("db-dsn", config.DatabaseURL, "event log DSN, SQLite path or Postgres URL (overrides $DATABASE_URL)"),
		stateDir:         fs.String("state-dir", config.StateDir, "state directory for MealMate data (overrides $MEALMATE_STATE_DIR)"),
		photoBucket:      fs.String("photo-bucket", config.PhotoBucket, "S3 bucket for food photos (overrides $PHOTO_ARCHIVE_BUCKET)"),
		awsRegion:        fs.String("aws-region", config.AWSRegion, "AWS region for the photo bucket (overrides $AWS_REGION)"),
		timezone:         fs.String("timezone", config.Timezone, "IANA zone where tracking days start (overrides $TIMEZONE)"),
		maxImageMB:       fs.Int("max-image-mb", config.MaxImageMB, "food photo size ceiling in MiB (overrides $MAX_IMAGE_MB)"),
	}

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}

	slog.Debug("flags parsed",
		"transport", *flags.transport,
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"apiAddr", *flags.apiAddr,
		"webhookPath", *flags.webhookPath,
		"genaiProvider", *flags.genaiProvider,
		"photoBucket", *flags.photoBucket,
		"timezone", *flags.timezone,
		"maxImageMB", *flags.maxImageMB)

	// Update database DSN if not explicitly set but state directory is provided
	if *flags.dbDSN == config.DatabaseURL && config.DatabaseURL == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "old_state_dir", config.StateDir, "new_state_dir", *flags.stateDir)
	}

	return flags, nil
}

// loadLocation resolves the tracking zone; empty or "Local" is the host zone.
func loadLocation(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if store.DetectDSNType(*flags.dbDSN) == "postgres" {
		return nil
	}
	dbDir := filepath.Dir(*flags.dbDSN)
	slog.Debug("Creating directory for file-based event log", "dir", dbDir)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		slog.Error("Failed to create event log directory", "error", err, "dir", dbDir)
		return err
	}
	return nil
}

// buildLineOptions constructs LINE transport options
func buildLineOptions(flags Flags) []messaging.LineOption {
	var lineOpts []messaging.LineOption
	if *flags.lineSecret != "" {
		lineOpts = append(lineOpts, messaging.WithChannelSecret(*flags.lineSecret))
	}
	if *flags.lineToken != "" {
		lineOpts = append(lineOpts, messaging.WithChannelToken(*flags.lineToken))
	}
	return lineOpts
}

// buildTwilioOptions constructs Twilio options; credentials come from TWILIO_* variables
func buildTwilioOptions(flags Flags) []twiliowhatsapp.Option {
	var twilioOpts []twiliowhatsapp.Option
	if sid := os.Getenv("TWILIO_ACCOUNT_SID"); sid != "" {
		twilioOpts = append(twilioOpts, twiliowhatsapp.WithAccountSID(sid))
	}
	if token := os.Getenv("TWILIO_AUTH_TOKEN"); token != "" {
		twilioOpts = append(twilioOpts, twiliowhatsapp.WithAuthToken(token))
	}
	if from := os.Getenv("TWILIO_FROM_NUMBER"); from != "" {
		twilioOpts = append(twilioOpts, twiliowhatsapp.WithFromWhats(from))
	}
	return twilioOpts
}

// buildStoreOptions constructs event log options
func buildStoreOptions(flags Flags) []store.Option {
	var storeOpts []store.Option
	if *flags.dbDSN == "" {
		slog.Debug("No database DSN provided, will use in-memory event log")
		return storeOpts
	}
	if store.DetectDSNType(*flags.dbDSN) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL event log", "dsn_type", "postgresql")
		storeOpts = append(storeOpts, store.WithPostgresDSN(*flags.dbDSN))
	} else {
		slog.Debug("Detected SQLite DSN, configuring SQLite event log", "dsn_type", "sqlite", "db_path", *flags.dbDSN)
		storeOpts = append(storeOpts, store.WithSQLiteDSN(*flags.dbDSN))
	}
	return storeOpts
}

// buildGenAIOptions constructs generation backend options for the selected provider
func buildGenAIOptions(flags Flags) []genai.Option {
	genaiOpts := []genai.Option{genai.WithProvider(*flags.genaiProvider)}
	key, model := *flags.openaiKey, *flags.openaiModel
	if *flags.genaiProvider == genai.ProviderGemini {
		key, model = *flags.geminiKey, *flags.geminiModel
	}
	if key != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(key))
	}
	if model != "" {
		genaiOpts = append(genaiOpts, genai.WithModel(model))
	}
	return genaiOpts
}

// buildArchiveOptions constructs photo archive options; no bucket disables it
func buildArchiveOptions(flags Flags) []photoarchive.Option {
	var archiveOpts []photoarchive.Option
	if *flags.photoBucket != "" {
		archiveOpts = append(archiveOpts, photoarchive.WithBucket(*flags.photoBucket))
	}
	if *flags.awsRegion != "" {
		archiveOpts = append(archiveOpts, photoarchive.WithRegion(*flags.awsRegion))
	}
	return archiveOpts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags, loc *time.Location) []api.Option {
	apiOpts := []api.Option{
		api.WithTransport(*flags.transport),
		api.WithLocation(loc),
		api.WithMaxImageBytes(*flags.maxImageMB * 1024 * 1024),
	}
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	if *flags.webhookPath != "" {
		apiOpts = append(apiOpts, api.WithWebhookPath(*flags.webhookPath))
	}
	if *flags.webhookPublicURL != "" {
		apiOpts = append(apiOpts, api.WithWebhookPublicURL(*flags.webhookPublicURL))
	}
	return apiOpts
}
