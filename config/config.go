package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/holiman/uint256"
	"github.com/mezonai/fastpay/common"
	"github.com/mezonai/fastpay/crypto"
	"github.com/mezonai/fastpay/logx"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// LoadNodeConfig reads and validates the node file.
func LoadNodeConfig(path string) (*NodeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read node config: %w", err)
	}

	var cfgFile ConfigFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfgFile); err != nil {
		return nil, fmt.Errorf("failed to decode node config %s: %w", path, err)
	}
	if err := cfgFile.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid node config %s: %w", path, err)
	}
	logx.Info("CONFIG", fmt.Sprintf("Loaded node config %s | authorities=%d | self=%s",
		path, len(cfgFile.Config.Authorities), cfgFile.Config.Self.ID))
	return &cfgFile.Config, nil
}

// EncodeNodeConfig renders cfg in the node file format.
func EncodeNodeConfig(cfg *NodeConfig) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(ConfigFile{Config: *cfg}); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate checks the roster: at least one authority, unique non-empty ids, unique valid
// public keys and an endpoint for each. A non-empty self id must name a roster entry.
func (c *NodeConfig) Validate() error {
	if len(c.Authorities) == 0 {
		return fmt.Errorf("no authorities configured")
	}
	ids := make(map[string]struct{}, len(c.Authorities))
	keys := make(map[string]struct{}, len(c.Authorities))
	for i, a := range c.Authorities {
		if a.ID == "" {
			return fmt.Errorf("authority %d: id is required", i)
		}
		if _, dup := ids[a.ID]; dup {
			return fmt.Errorf("authority %d: duplicate id %q", i, a.ID)
		}
		ids[a.ID] = struct{}{}

		if !common.IsValidPublicKey(a.PublicKey) {
			return fmt.Errorf("authority %q: invalid public key %q", a.ID, a.PublicKey)
		}
		if _, dup := keys[a.PublicKey]; dup {
			return fmt.Errorf("authority %q: duplicate public key", a.ID)
		}
		keys[a.PublicKey] = struct{}{}

		if strings.TrimSpace(a.Endpoint) == "" {
			return fmt.Errorf("authority %q: endpoint is required", a.ID)
		}
	}
	if c.Self.ID != "" {
		if _, ok := ids[c.Self.ID]; !ok {
			return fmt.Errorf("self id %q is not in the roster", c.Self.ID)
		}
	}
	return nil
}

// Roster returns the authority public keys in file order.
func (c *NodeConfig) Roster() []string {
	roster := make([]string, len(c.Authorities))
	for i, a := range c.Authorities {
		roster[i] = a.PublicKey
	}
	return roster
}

// Authority looks up a roster entry by id.
func (c *NodeConfig) Authority(id string) (AuthorityConfig, bool) {
	for _, a := range c.Authorities {
		if a.ID == id {
			return a, true
		}
	}
	return AuthorityConfig{}, false
}

// DefaultTuning returns the tuning used when no file is given.
func DefaultTuning() *Tuning {
	return &Tuning{
		Ledger: LedgerConfig{InitialBalance: DefaultInitialBalance},
		Client: ClientConfig{
			QuorumTimeoutMs:  DefaultQuorumTimeoutMs,
			RequestTimeoutMs: DefaultRequestTimeoutMs,
			ConfirmTimeoutMs: DefaultConfirmTimeoutMs,
		},
		Log: LogConfig{
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxAgeDays: DefaultLogMaxAgeDays,
		},
	}
}

// LoadTuning reads the ini tuning file. An empty path or a missing file yields the
// defaults; keys absent from a section keep their default.
func LoadTuning(path string) (*Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logx.Warn("CONFIG", "Tuning file ", path, " not found, using defaults")
		return t, nil
	}

	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load tuning file %s: %w", path, err)
	}
	sections := map[string]interface{}{
		sectionLedger: &t.Ledger,
		sectionClient: &t.Client,
		sectionLog:    &t.Log,
		sectionRPC:    &t.RPC,
	}
	for name, target := range sections {
		if err := cfg.Section(name).MapTo(target); err != nil {
			return nil, fmt.Errorf("invalid [%s] section in %s: %w", name, path, err)
		}
	}
	if _, err := t.InitialBalance(); err != nil {
		return nil, err
	}
	return t, nil
}

// InitialBalance parses the configured opening balance.
func (t *Tuning) InitialBalance() (*uint256.Int, error) {
	balance, err := uint256.FromDecimal(strings.TrimSpace(t.Ledger.InitialBalance))
	if err != nil {
		return nil, fmt.Errorf("invalid initial_balance %q: %w", t.Ledger.InitialBalance, err)
	}
	return balance, nil
}

func (t *Tuning) QuorumTimeout() time.Duration {
	return millis(t.Client.QuorumTimeoutMs, DefaultQuorumTimeoutMs)
}

func (t *Tuning) RequestTimeout() time.Duration {
	return millis(t.Client.RequestTimeoutMs, DefaultRequestTimeoutMs)
}

func (t *Tuning) ConfirmTimeout() time.Duration {
	return millis(t.Client.ConfirmTimeoutMs, DefaultConfirmTimeoutMs)
}

// LogSettings converts the [log] section for logx.Init.
func (t *Tuning) LogSettings() logx.LogConfig {
	return logx.LogConfig{
		File:       t.Log.File,
		MaxSizeMB:  t.Log.MaxSizeMB,
		MaxAgeDays: t.Log.MaxAgeDays,
		Debug:      t.Log.Debug,
	}
}

func millis(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Millisecond
}

// LoadEd25519PrivKey loads an Ed25519 key pair from a file holding a hex encoded seed or
// full private key.
func LoadEd25519PrivKey(path string) (*crypto.KeyPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	kp, err := crypto.ParsePrivateKey(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid key file %s: %w", path, err)
	}
	return kp, nil
}

// SaveEd25519PrivKey writes the hex seed of kp with owner-only permissions.
func SaveEd25519PrivKey(path string, kp *crypto.KeyPair) error {
	return os.WriteFile(path, []byte(kp.SeedHex()+"\n"), 0o600)
}
