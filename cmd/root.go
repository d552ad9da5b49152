package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app       = "ats-scorer"
	envPrefix = "ATS"
)

type Config struct {
	LLM       *LLMConfig       `mapstructure:"llm"`
	Embedding *EmbeddingConfig `mapstructure:"embedding" validate:"required"`
	NER       *NERConfig       `mapstructure:"ner"`
	Policy    *PolicyConfig    `mapstructure:"policy" validate:"required"`
	Worker    *WorkerConfig    `mapstructure:"worker"`
	S3        *S3Config        `mapstructure:"s3"`
}

type LLMConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Provider     string `mapstructure:"provider" validate:"omitempty,oneof=gemini openai"`
	Model        string `mapstructure:"model"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	BaseURL      string `mapstructure:"base-url" validate:"omitempty,url"`
	MaxRetries   int    `mapstructure:"max-retries" validate:"gte=0"`
	MaxLogLength int    `mapstructure:"max-log-length" validate:"gte=0"`
}

type EmbeddingConfig struct {
	Model      string `mapstructure:"model"`
	APIKeyFile string `mapstructure:"api-key-file"`
}

type NERConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	URL             string        `mapstructure:"url" validate:"omitempty,url"`
	TrainedModel    string        `mapstructure:"trained-model"`
	PretrainedModel string        `mapstructure:"pretrained-model"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type PolicyConfig struct {
	FitThreshold       float64 `mapstructure:"fit-threshold" validate:"gte=0,lte=100"`
	SemanticThreshold  float64 `mapstructure:"semantic-threshold" validate:"gte=0,lte=1"`
	MaxExperienceYears float64 `mapstructure:"max-experience-years" validate:"gt=0"`
	SectionMinLength   int     `mapstructure:"section-min-length" validate:"gte=0"`
	SectionYOE         bool    `mapstructure:"section-yoe"`
}

type WorkerConfig struct {
	AMQPURL         string `mapstructure:"amqp-url"`
	Queue           string `mapstructure:"queue"`
	ResultsExchange string `mapstructure:"results-exchange"`
	Workers         int    `mapstructure:"workers" validate:"gte=0"`
}

type S3Config struct {
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint" validate:"omitempty,url"`
	AccessKey string `mapstructure:"access-key" json:"-"`
	SecretKey string `mapstructure:"secret-key" json:"-"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "ats-scorer rates resumes against a job description",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is ats-scorer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults()
}

func setDefaults() {
	viper.SetDefault("llm.provider", "gemini")
	viper.SetDefault("llm.max-retries", 3)
	viper.SetDefault("llm.max-log-length", 200)
	viper.SetDefault("embedding.model", "text-embedding-004")
	viper.SetDefault("ner.trained-model", "resume")
	viper.SetDefault("ner.pretrained-model", "en_core_web_sm")
	viper.SetDefault("ner.timeout", 10*time.Second)
	viper.SetDefault("policy.fit-threshold", 65)
	viper.SetDefault("policy.semantic-threshold", 0.75)
	viper.SetDefault("policy.max-experience-years", 50)
	viper.SetDefault("policy.section-min-length", 100)
	viper.SetDefault("worker.queue", "ats.batch")
	viper.SetDefault("worker.results-exchange", "ats.results")
	viper.SetDefault("worker.workers", 2)
}

func initConfig() {
	// Version does not need any configuration.
	if versionCmd.CalledAs() != "" {
		return
	}

	// A missing .env is fine, it only helps during development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Defaults and env are enough to run, but an explicit broken config is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		return nil, errors.New("config is empty")
	}

	if err := validator.New().Struct(config); err != nil {
		return config, err
	}

	return config, nil
}
