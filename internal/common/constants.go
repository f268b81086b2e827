package common

// Feature schema
const (
	// FeatureCount is the fixed length of every extracted feature vector.
	FeatureCount = 14
	// DefaultHistoryWindow is how many trailing history snapshots feed the
	// price-momentum features.
	DefaultHistoryWindow = 10
	// DefaultOutcomeCount is assumed when a snapshot carries neither prices
	// nor a usable outcome count.
	DefaultOutcomeCount = 2
)

// Environment variable keys
const (
	EnvConfigFile    = "CONFIG_FILE"
	EnvModelPath     = "MODEL_PATH"
	EnvDataPath      = "DATA_PATH"
	EnvGammaBaseURL  = "GAMMA_BASE_URL"
	EnvRESTTimeout   = "REST_TIMEOUT"
	EnvHistoryWindow = "HISTORY_WINDOW"
	EnvLogLevel      = "LOG_LEVEL"
)

// Configuration defaults
const (
	DefaultModelPath    = "models/forecast_model.json"
	DefaultGammaBaseURL = "https://gamma-api.polymarket.com"
	DefaultLogLevel     = "info"
	// DefaultModelVersion is stamped on records when no artifact supplies
	// its own version string.
	DefaultModelVersion = "1.0.0"
)
