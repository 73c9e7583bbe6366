package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config keys shared by flags, environment and config file.
const (
	KeyAlgodAddress    = "algod.address"
	KeyAlgodToken      = "algod.token"
	KeyAlgodTimeout    = "algod.timeout"
	KeyCreatorMnemonic = "accounts.creator_mnemonic"
	KeyFaucetMnemonic  = "accounts.faucet_mnemonic"
	KeyMaxRetries      = "extract.max_retries"
	KeyMaxConcurrency  = "extract.max_concurrency"
	KeyRoundTime       = "extract.round_time"
	KeyWaitRounds      = "extract.wait_rounds"
	KeyLive            = "extract.live"
	KeyPostgresURL     = "output.postgres_url"
	KeyMetricsAddr     = "metrics.addr"
	KeyLogLevel        = "log_level"
)

// Sandbox defaults, matching a local algod sandbox.
const (
	DefaultAlgodAddress = "http://localhost:4001"
	DefaultAlgodToken   = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

type AlgodConfig struct {
	Address string
	Token   string
	Timeout time.Duration
}

func (c AlgodConfig) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("algod address is required")
	}
	u, err := url.Parse(c.Address)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid algod address %q", c.Address)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("algod timeout must be positive")
	}
	return nil
}

type AccountConfig struct {
	CreatorMnemonic string
	FaucetMnemonic  string
}

// RequireCreator returns the creator mnemonic or an error telling the user how to set it.
func (c AccountConfig) RequireCreator() (string, error) {
	if strings.TrimSpace(c.CreatorMnemonic) == "" {
		return "", fmt.Errorf("please set CREATOR_MNEMONIC to the mnemonic for the Algorand account that creates the smart contract")
	}
	return c.CreatorMnemonic, nil
}

// RequireFaucet returns the faucet mnemonic or an error telling the user how to set it.
func (c AccountConfig) RequireFaucet() (string, error) {
	if strings.TrimSpace(c.FaucetMnemonic) == "" {
		return "", fmt.Errorf("please set FAUCET_MNEMONIC to the mnemonic of an Algorand account that is used to create/fund accounts")
	}
	return c.FaucetMnemonic, nil
}

type ExtractConfig struct {
	MaxRetries     uint
	MaxConcurrency uint
	RoundTime      time.Duration
	WaitRounds     uint64
	Live           bool
}

func (c ExtractConfig) Validate() error {
	if c.MaxConcurrency == 0 {
		return fmt.Errorf("max concurrency must be greater than 0")
	}
	if c.RoundTime <= 0 {
		return fmt.Errorf("round time must be positive")
	}
	if c.WaitRounds == 0 {
		return fmt.Errorf("wait rounds must be greater than 0")
	}
	return nil
}

type OutputConfig struct {
	PostgresURL string
}

type MetricsConfig struct {
	Addr string
}

type Config struct {
	Algod    AlgodConfig
	Accounts AccountConfig
	Extract  ExtractConfig
	Output   OutputConfig
	Metrics  MetricsConfig
	LogLevel string
}

func (c Config) Validate() error {
	if err := c.Algod.Validate(); err != nil {
		return err
	}
	return c.Extract.Validate()
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAlgodAddress, DefaultAlgodAddress)
	v.SetDefault(KeyAlgodToken, DefaultAlgodToken)
	v.SetDefault(KeyAlgodTimeout, 30*time.Second)
	v.SetDefault(KeyMaxRetries, 3)
	v.SetDefault(KeyMaxConcurrency, 8)
	v.SetDefault(KeyRoundTime, 3*time.Second)
	v.SetDefault(KeyWaitRounds, 4)
	v.SetDefault(KeyLogLevel, "info")
}

// BindEnv wires environment variables: TEALCOUNTER_ALGOD_ADDRESS and so on,
// plus the CREATOR_MNEMONIC and FAUCET_MNEMONIC names used by the scripts.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix("TEALCOUNTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv(KeyCreatorMnemonic, "TEALCOUNTER_ACCOUNTS_CREATOR_MNEMONIC", "CREATOR_MNEMONIC"); err != nil {
		return err
	}
	if err := v.BindEnv(KeyFaucetMnemonic, "TEALCOUNTER_ACCOUNTS_FAUCET_MNEMONIC", "FAUCET_MNEMONIC"); err != nil {
		return err
	}
	return nil
}

// Load reads the configuration from v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Algod: AlgodConfig{
			Address: v.GetString(KeyAlgodAddress),
			Token:   v.GetString(KeyAlgodToken),
			Timeout: v.GetDuration(KeyAlgodTimeout),
		},
		Accounts: AccountConfig{
			CreatorMnemonic: v.GetString(KeyCreatorMnemonic),
			FaucetMnemonic:  v.GetString(KeyFaucetMnemonic),
		},
		Extract: ExtractConfig{
			MaxRetries:     v.GetUint(KeyMaxRetries),
			MaxConcurrency: v.GetUint(KeyMaxConcurrency),
			RoundTime:      v.GetDuration(KeyRoundTime),
			WaitRounds:     v.GetUint64(KeyWaitRounds),
			Live:           v.GetBool(KeyLive),
		},
		Output: OutputConfig{
			PostgresURL: v.GetString(KeyPostgresURL),
		},
		Metrics: MetricsConfig{
			Addr: v.GetString(KeyMetricsAddr),
		},
		LogLevel: v.GetString(KeyLogLevel),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
