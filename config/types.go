package config

// SelfConfig identifies the authority this process runs as. Client-only processes may
// leave it empty.
type SelfConfig struct {
	ID          string `yaml:"id"`
	PrivKeyPath string `yaml:"privkey_path"`
	ListenAddr  string `yaml:"listen_addr"`
}

// AuthorityConfig is one roster entry.
type AuthorityConfig struct {
	ID        string `yaml:"id"`
	PublicKey string `yaml:"public_key"`
	Endpoint  string `yaml:"endpoint"`
}

// NodeConfig holds the configuration from the node file
type NodeConfig struct {
	Self        SelfConfig        `yaml:"self,omitempty"`
	Authorities []AuthorityConfig `yaml:"authorities"`
}

// ConfigFile is the top-level structure for the node file
type ConfigFile struct {
	Config NodeConfig `yaml:"config"`
}

type LedgerConfig struct {
	InitialBalance string `ini:"initial_balance"`
}

type ClientConfig struct {
	QuorumTimeoutMs  int `ini:"quorum_timeout_ms"`
	RequestTimeoutMs int `ini:"request_timeout_ms"`
	ConfirmTimeoutMs int `ini:"confirm_timeout_ms"`
}

type LogConfig struct {
	File       string `ini:"file"`
	MaxSizeMB  int    `ini:"max_size_mb"`
	MaxAgeDays int    `ini:"max_age_days"`
	Debug      bool   `ini:"debug"`
}

type RPCConfig struct {
	CORSAllowedOrigins []string `ini:"cors_allowed_origins" delim:","`
	CORSAllowedMethods []string `ini:"cors_allowed_methods" delim:","`
	CORSAllowedHeaders []string `ini:"cors_allowed_headers" delim:","`
	CORSMaxAge         int      `ini:"cors_max_age"`
}

// Tuning is the ini tuning file. Every key has a default.
type Tuning struct {
	Ledger LedgerConfig
	Client ClientConfig
	Log    LogConfig
	RPC    RPCConfig
}
