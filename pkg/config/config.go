package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Source declares an external note source synced into a notebook.
type Source struct {
	URL            string        `yaml:"url"`
	UpdateInterval time.Duration `yaml:"update_interval"`
}

// Notebook declares a notebook created at startup.
type Notebook struct {
	Name    string   `yaml:"name"`
	Sources []Source `yaml:"sources,omitempty"`
}

// Config is the server configuration, loaded from YAML with env
// overrides applied on top.
type Config struct {
	ListenAddress  string     `yaml:"listen_address"`
	DataDir        string     `yaml:"data_dir"`
	Engine         string     `yaml:"engine"`
	OpenAIKey      string     `yaml:"openai_api_key"`
	OpenAIBaseURL  string     `yaml:"openai_base_url"`
	EmbeddingModel string     `yaml:"embedding_model"`
	LLMModel       string     `yaml:"llm_model"`
	DatabaseURL    string     `yaml:"database_url"`
	MaxChunkSize   int        `yaml:"max_chunk_size"`
	GitPrivateKey  string     `yaml:"git_private_key"`
	Notebooks      []Notebook `yaml:"notebooks,omitempty"`
}

// Default returns the configuration used when nothing is specified.
func Default() Config {
	return Config{
		ListenAddress:  ":8080",
		DataDir:        "data",
		Engine:         "fulltext",
		EmbeddingModel: "text-embedding-3-small",
		LLMModel:       "gpt-4o",
		MaxChunkSize:   1000,
	}
}

// Load reads the YAML file at path and applies env overrides. An empty
// path skips the file and returns defaults plus env.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	envString(&c.ListenAddress, "LOCALNOTES_ADDRESS")
	envString(&c.DataDir, "LOCALNOTES_DATA_DIR")
	envString(&c.Engine, "LOCALNOTES_ENGINE")
	envString(&c.OpenAIKey, "OPENAI_API_KEY")
	envString(&c.OpenAIBaseURL, "OPENAI_API_BASE_URL")
	envString(&c.EmbeddingModel, "EMBEDDING_MODEL")
	envString(&c.LLMModel, "LLM_MODEL")
	envString(&c.DatabaseURL, "DATABASE_URL")
	envString(&c.GitPrivateKey, "LOCALNOTES_GIT_PRIVATE_KEY")
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate rejects configurations that cannot start.
func (c Config) Validate() error {
	switch c.Engine {
	case "fulltext", "chromem", "postgres":
	default:
		return fmt.Errorf("unknown engine %q (want fulltext, chromem or postgres)", c.Engine)
	}

	if c.Engine == "postgres" && c.DatabaseURL == "" {
		return fmt.Errorf("engine postgres requires database_url")
	}
	if c.Engine == "chromem" && c.OpenAIKey == "" {
		return fmt.Errorf("engine chromem requires an OpenAI API key")
	}
	if c.MaxChunkSize <= 0 {
		return fmt.Errorf("max_chunk_size must be positive")
	}

	seen := map[string]bool{}
	for _, nb := range c.Notebooks {
		if nb.Name == "" {
			return fmt.Errorf("notebook without a name")
		}
		if seen[nb.Name] {
			return fmt.Errorf("duplicate notebook %q", nb.Name)
		}
		seen[nb.Name] = true
	}

	return nil
}

// DBPath is where notebook state and indexes live.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "db")
}

// AssetDir is where stored note files live, per notebook.
func (c Config) AssetDir(notebook string) string {
	return filepath.Join(c.DataDir, "assets", notebook)
}
