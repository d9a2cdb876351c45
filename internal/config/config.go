package config

import (
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port         int           `yaml:"port" default:"8080"`
		Host         string        `yaml:"host" default:"0.0.0.0"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"30s"`
		IdleTimeout  time.Duration `yaml:"idle_timeout" default:"60s"`
	} `yaml:"server"`

	Workers struct {
		PoolSize   int           `yaml:"pool_size" default:"10"`
		QueueSize  int           `yaml:"queue_size" default:"100"`
		Timeout    time.Duration `yaml:"timeout" default:"30s"`
		MaxRetries int           `yaml:"max_retries" default:"3"`
		RateLimit  int           `yaml:"rate_limit" default:"60"` // rank requests per minute per poster
	} `yaml:"workers"`

	BackgroundTasks struct {
		MaxConcurrentTasks int           `yaml:"max_concurrent_tasks" default:"50"`
		TaskTimeout        time.Duration `yaml:"task_timeout" default:"300s"`
		CleanupInterval    time.Duration `yaml:"cleanup_interval" default:"1h"`
		MaxTaskAge         time.Duration `yaml:"max_task_age" default:"24h"`
	} `yaml:"background_tasks"`

	Embeddings struct {
		Enabled   bool          `yaml:"enabled" default:"true"`
		Provider  string        `yaml:"provider" default:"gemini"`
		APIKey    string        `yaml:"api_key"`
		Model     string        `yaml:"model" default:"text-embedding-004"`
		Timeout   time.Duration `yaml:"timeout" default:"30s"`
		RateLimit int           `yaml:"rate_limit" default:"120"` // requests per minute
		// FailureThreshold is the number of consecutive embedding failures
		// after which ranking batches are forced to the lexical strategy.
		FailureThreshold int           `yaml:"failure_threshold" default:"3"`
		CooldownPeriod   time.Duration `yaml:"cooldown_period" default:"5m"`
	} `yaml:"embeddings"`

	Matching struct {
		TopK int `yaml:"top_k" default:"5"`
	} `yaml:"matching"`

	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`

		Adapters []struct {
			Name    string                 `yaml:"name"`
			Type    string                 `yaml:"type"`
			Enabled bool                   `yaml:"enabled"`
			Options map[string]interface{} `yaml:"options"`
		} `yaml:"adapters"`
	} `yaml:"logging"`

	Redis struct {
		URL          string        `yaml:"url" default:"redis://localhost:6379"`
		Password     string        `yaml:"password"`
		DB           int           `yaml:"db" default:"0"`
		Timeout      time.Duration `yaml:"timeout" default:"5s"`
		EmbeddingTTL time.Duration `yaml:"embedding_ttl" default:"24h"`
	} `yaml:"redis"`
}

// expandEnvVars expands environment variables in a string using ${VAR} or $VAR syntax
func expandEnvVars(s string) string {
	// Expand ${VAR} syntax
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1] // Remove ${ and }
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if env var not found
	})

	// Expand $VAR syntax (but avoid replacing ${VAR} that was already processed)
	re2 := regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	s = re2.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:] // Remove $
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if env var not found
	})

	return s
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	config := &Config{}

	// Set defaults
	config.Server.Port = 8080
	config.Server.Host = "0.0.0.0"
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 30 * time.Second
	config.Server.IdleTimeout = 60 * time.Second

	config.Workers.PoolSize = 10
	config.Workers.QueueSize = 100
	config.Workers.Timeout = 30 * time.Second
	config.Workers.MaxRetries = 3
	config.Workers.RateLimit = 60

	config.BackgroundTasks.MaxConcurrentTasks = 50
	config.BackgroundTasks.TaskTimeout = 300 * time.Second
	config.BackgroundTasks.CleanupInterval = 1 * time.Hour
	config.BackgroundTasks.MaxTaskAge = 24 * time.Hour

	config.Embeddings.Enabled = true
	config.Embeddings.Provider = "gemini"
	config.Embeddings.Model = "text-embedding-004"
	config.Embeddings.Timeout = 30 * time.Second
	config.Embeddings.RateLimit = 120
	config.Embeddings.FailureThreshold = 3
	config.Embeddings.CooldownPeriod = 5 * time.Minute

	config.Matching.TopK = 5

	config.Logging.Level = "info"
	config.Logging.Format = "json"
	config.Logging.Output = "stdout"

	config.Redis.URL = "redis://localhost:6379"
	config.Redis.DB = 0
	config.Redis.Timeout = 5 * time.Second
	config.Redis.EmbeddingTTL = 24 * time.Hour

	// Load from YAML file if it exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			// Expand environment variables in the YAML content
			yamlContent := expandEnvVars(string(data))

			if err := yaml.Unmarshal([]byte(yamlContent), config); err != nil {
				return nil, err
			}
		}
	}

	// Override with environment variables
	config.loadFromEnv()

	return config, nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}

	if apiKey := os.Getenv("EMBEDDINGS_API_KEY"); apiKey != "" {
		c.Embeddings.APIKey = apiKey
	}

	// Also support GEMINI_API_KEY for compatibility
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" && c.Embeddings.APIKey == "" {
		c.Embeddings.APIKey = apiKey
	}

	if provider := os.Getenv("EMBEDDINGS_PROVIDER"); provider != "" {
		c.Embeddings.Provider = provider
	}

	if model := os.Getenv("EMBEDDINGS_MODEL"); model != "" {
		c.Embeddings.Model = model
	}

	if enabled := os.Getenv("EMBEDDINGS_ENABLED"); enabled != "" {
		c.Embeddings.Enabled = enabled == "true" || enabled == "1"
	}

	if rateLimit := os.Getenv("EMBEDDINGS_RATE_LIMIT"); rateLimit != "" {
		if limit, err := strconv.Atoi(rateLimit); err == nil {
			c.Embeddings.RateLimit = limit
		}
	}

	if topK := os.Getenv("MATCHING_TOP_K"); topK != "" {
		if k, err := strconv.Atoi(topK); err == nil && k > 0 {
			c.Matching.TopK = k
		}
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.URL = redisURL
	}

	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		c.Redis.Password = redisPassword
	}

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			c.Redis.DB = db
		}
	}

	if redisTimeout := os.Getenv("REDIS_TIMEOUT"); redisTimeout != "" {
		if timeout, err := time.ParseDuration(redisTimeout); err == nil {
			c.Redis.Timeout = timeout
		}
	}

	if embeddingTTL := os.Getenv("REDIS_EMBEDDING_TTL"); embeddingTTL != "" {
		if ttl, err := time.ParseDuration(embeddingTTL); err == nil {
			c.Redis.EmbeddingTTL = ttl
		}
	}

	if poolSize := os.Getenv("WORKERS_POOL_SIZE"); poolSize != "" {
		if size, err := strconv.Atoi(poolSize); err == nil && size > 0 {
			c.Workers.PoolSize = size
		}
	}

	if queueSize := os.Getenv("WORKERS_QUEUE_SIZE"); queueSize != "" {
		if size, err := strconv.Atoi(queueSize); err == nil && size > 0 {
			c.Workers.QueueSize = size
		}
	}
}
