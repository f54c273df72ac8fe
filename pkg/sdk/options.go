package katalog

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "memory", "valkey" or "redis"
	addrs    []string
	password string
	maxKeys  int

	completer   Completer
	model       string
	maxTokens   int
	temperature float64

	extraBrands      []string
	extraObjectTypes []string
	maxTerms         int
	preselectLimit   int

	auctionetURL string
	publicURL    string
	httpTimeout  time.Duration

	sessionCacheSize int
	sessionTTL       time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		driver:           "memory",
		maxTokens:        1024,
		auctionetURL:     "https://auctionet.com",
		publicURL:        "https://auctionet.com/sv",
		httpTimeout:      10 * time.Second,
		sessionCacheSize: 256,
		sessionTTL:       24 * time.Hour,
	}
}

// WithMemory keeps sessions and caches in process memory (default).
// maxKeys bounds the store; 0 uses the driver default.
func WithMemory(maxKeys int) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "memory"
		c.addrs = nil
		c.maxKeys = maxKeys
	})
}

// WithValkey configures the client to store sessions in a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis configures the client to store sessions in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithCompleter sets the LLM used for search terms and enhancement.
func WithCompleter(llm Completer) Option {
	return optionFunc(func(c *clientConfig) {
		c.completer = llm
	})
}

// WithModel sets the defaults applied to every completion request.
func WithModel(model string, maxTokens int, temperature float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.model = model
		c.maxTokens = maxTokens
		c.temperature = temperature
	})
}

// WithDictionaries extends the built-in brand and object type lists.
func WithDictionaries(brands, objectTypes []string) Option {
	return optionFunc(func(c *clientConfig) {
		c.extraBrands = append(c.extraBrands, brands...)
		c.extraObjectTypes = append(c.extraObjectTypes, objectTypes...)
	})
}

// WithTermLimits caps candidate terms and how many start selected.
// Defaults: 12 and 4.
func WithTermLimits(maxTerms, preselect int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxTerms = maxTerms
		c.preselectLimit = preselect
	})
}

// WithAuctionet overrides the Auctionet API and public site URLs.
func WithAuctionet(baseURL, publicURL string, timeout time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.auctionetURL = baseURL
		c.publicURL = publicURL
		if timeout > 0 {
			c.httpTimeout = timeout
		}
	})
}

// WithSessions sets the number of live sessions kept in memory and
// how long persisted snapshots survive.
func WithSessions(cacheSize int, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.sessionCacheSize = cacheSize
		c.sessionTTL = ttl
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
