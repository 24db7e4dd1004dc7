package config

// DefaultThreshold is the minimum cosine similarity to report a match,
// on the [-1, 1] scale.
const DefaultThreshold = 0.28

// DefaultTopN is the result cap when the caller gives none.
const DefaultTopN = 4

// DefaultExtensions is the media file allow-list, matched case-insensitively.
var DefaultExtensions = []string{".png", ".jpg", ".jpeg", ".webp"}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Storage.SnapshotPath == "" {
		cfg.Storage.SnapshotPath = "/usr/local/var/mieru/data/index.json"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "openai"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "clip-vit-base-patch32"
	}
	if cfg.Embedding.APIKeyEnv == "" {
		cfg.Embedding.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 512
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 77
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1000
	}
	if cfg.Search.DefaultTopN == 0 {
		cfg.Search.DefaultTopN = DefaultTopN
	}
	if cfg.Search.Threshold == 0 {
		cfg.Search.Threshold = DefaultThreshold
	}
	if cfg.Index.Extensions == nil {
		cfg.Index.Extensions = append([]string(nil), DefaultExtensions...)
	}
}
