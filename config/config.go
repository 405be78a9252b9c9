// Package config loads krakendca YAML configuration files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/krakendca/internal/domain"
)

const (
	// FilePattern matches the configuration files of a directory.
	FilePattern = "config*.yaml"

	PlaceholderUserName   = "KRAKEN_USER_NAME"
	PlaceholderPublicKey  = "KRAKEN_API_PUBLIC_KEY"
	PlaceholderPrivateKey = "KRAKEN_API_PRIVATE_KEY"

	EnvAPIKey    = "KRAKEN_API_KEY"
	EnvAPISecret = "KRAKEN_API_SECRET"

	defaultInterval = time.Hour
	defaultDataDir  = "./wal"
)

// ErrPlaceholder the file still holds the sample user name and is not meant to run.
var ErrPlaceholder = errors.New("configuration is not initialized")

// Mode selects the exchange the bot trades on.
type Mode string

const (
	ModeLive     Mode = "live"
	ModeSimulate Mode = "simulate"
)

// Config is one Kraken account and its DCA plans.
type Config struct {
	Path      string
	UserName  string
	APIKey    string
	APISecret string
	Mode      Mode
	// Interval between evaluation cycles in run mode.
	Interval         time.Duration
	OrdersDir        string
	IntentsDir       string
	SimulateStateDir string
	// SimulateBalances initial paper account funding.
	SimulateBalances domain.Balances
	Plans            []domain.DCAPlan
}

type configTmp struct {
	API struct {
		UserName   string `yaml:"user_name"`
		PublicKey  string `yaml:"public_key"`
		PrivateKey string `yaml:"private_key"`
	} `yaml:"api"`
	Mode       string        `yaml:"mode"`
	Interval   time.Duration `yaml:"interval"`
	OrdersDir  string        `yaml:"orders_dir"`
	IntentsDir string        `yaml:"intents_dir"`
	Simulate   struct {
		StateDir string            `yaml:"state_dir"`
		Balances map[string]string `yaml:"balances"`
	} `yaml:"simulate"`
	DCAPairs []pairTmp `yaml:"dca_pairs"`
}

type pairTmp struct {
	Pair        string `yaml:"pair"`
	Delay       int    `yaml:"delay"`
	Amount      string `yaml:"amount"`
	LimitFactor string `yaml:"limit_factor,omitempty"`
	MaxPrice    string `yaml:"max_price,omitempty"`
}

// LoadEnv reads a .env file into the environment. A missing file is not an error.
func LoadEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "load %s", path)
	}
	return nil
}

// LoadAll loads every configuration file of dir in name order, skipping
// files that still carry the placeholder user name. Two files may not share a
// storage directory.
func LoadAll(dir string) ([]Config, error) {
	paths, err := filepath.Glob(filepath.Join(dir, FilePattern))
	if err != nil {
		return nil, errors.Wrap(err, "list configuration files")
	}
	sort.Strings(paths)

	configs := make([]Config, 0, len(paths))
	owners := make(map[string]string)
	for _, path := range paths {
		c, err := Load(path)
		if errors.Is(err, ErrPlaceholder) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, d := range []string{c.OrdersDir, c.IntentsDir} {
			d = filepath.Clean(d)
			if owner, ok := owners[d]; ok {
				return nil, fmt.Errorf("config %s shares storage dir %s with %s, set a distinct 'api.user_name' or storage dirs", path, d, owner)
			}
			owners[d] = path
		}
		configs = append(configs, c)
	}

	return configs, nil
}

// Load reads and validates one configuration file.
func Load(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}

	var tmp configTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}

	c, err := tmp.toConfig()
	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	c.Path = path

	return c, nil
}

func (tmp configTmp) toConfig() (Config, error) {
	userName := strings.TrimSpace(tmp.API.UserName)
	if userName == PlaceholderUserName {
		return Config{}, ErrPlaceholder
	}
	if userName == "" {
		return Config{}, fmt.Errorf("'api.user_name' is required")
	}

	c := Config{
		UserName:   userName,
		APIKey:     credential(tmp.API.PublicKey, PlaceholderPublicKey, EnvAPIKey),
		APISecret:  credential(tmp.API.PrivateKey, PlaceholderPrivateKey, EnvAPISecret),
		Mode:       Mode(strings.ToLower(strings.TrimSpace(tmp.Mode))),
		Interval:   tmp.Interval,
		OrdersDir:  tmp.OrdersDir,
		IntentsDir: tmp.IntentsDir,
	}

	if c.Mode == "" {
		c.Mode = ModeLive
	}
	if c.Mode != ModeLive && c.Mode != ModeSimulate {
		return Config{}, fmt.Errorf("incorrect 'mode' param %q (must be %s or %s)", tmp.Mode, ModeLive, ModeSimulate)
	}
	if c.Mode == ModeLive && (c.APIKey == "" || c.APISecret == "") {
		return Config{}, fmt.Errorf("live mode requires API keys in the config or %s and %s", EnvAPIKey, EnvAPISecret)
	}
	if c.Interval == 0 {
		c.Interval = defaultInterval
	}
	if c.Interval < 0 {
		return Config{}, fmt.Errorf("incorrect 'interval' param %s (must be positive)", c.Interval)
	}

	dataDir := filepath.Join(defaultDataDir, dirName(userName))
	if c.OrdersDir == "" {
		c.OrdersDir = filepath.Join(dataDir, "orders")
	}
	if c.IntentsDir == "" {
		c.IntentsDir = filepath.Join(dataDir, "intents")
	}
	c.SimulateStateDir = tmp.Simulate.StateDir
	if c.SimulateStateDir == "" {
		c.SimulateStateDir = filepath.Join(dataDir, "simulate")
	}

	c.SimulateBalances = make(domain.Balances, len(tmp.Simulate.Balances))
	for asset, amount := range tmp.Simulate.Balances {
		v, err := decimal.NewFromString(amount)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'simulate.balances.%s' param in yaml config (must be a decimal), error: %w", asset, err)
		}
		c.SimulateBalances[asset] = v
	}

	if len(tmp.DCAPairs) == 0 {
		return Config{}, fmt.Errorf("'dca_pairs' must list at least one pair")
	}
	seen := make(map[string]bool, len(tmp.DCAPairs))
	for _, p := range tmp.DCAPairs {
		plan, err := p.toPlan(userName)
		if err != nil {
			return Config{}, err
		}
		if seen[plan.PairSymbol] {
			return Config{}, fmt.Errorf("pair %s is configured more than once", plan.PairSymbol)
		}
		seen[plan.PairSymbol] = true
		c.Plans = append(c.Plans, plan)
	}

	return c, nil
}

func (p pairTmp) toPlan(userName string) (domain.DCAPlan, error) {
	amount, err := decimal.NewFromString(p.Amount)
	if err != nil {
		return domain.DCAPlan{}, fmt.Errorf("incorrect 'amount' param of pair %s in yaml config (must be a decimal), error: %w", p.Pair, err)
	}

	plan := domain.NewDCAPlan(strings.TrimSpace(p.Pair), p.Delay, amount, userName)

	if p.LimitFactor != "" {
		factor, err := decimal.NewFromString(p.LimitFactor)
		if err != nil {
			return domain.DCAPlan{}, fmt.Errorf("incorrect 'limit_factor' param of pair %s in yaml config (must be a decimal), error: %w", p.Pair, err)
		}
		plan.LimitFactor = factor
	}

	if p.MaxPrice != "" {
		maxPrice, err := decimal.NewFromString(p.MaxPrice)
		if err != nil {
			return domain.DCAPlan{}, fmt.Errorf("incorrect 'max_price' param of pair %s in yaml config (must be a decimal), error: %w", p.Pair, err)
		}
		plan.MaxPrice = maxPrice
	}

	if err := plan.Validate(); err != nil {
		return domain.DCAPlan{}, errors.Wrapf(err, "pair %s", p.Pair)
	}

	return plan, nil
}

// credential returns the configured value unless it is empty or the sample placeholder,
// in which case the environment variable is used.
func credential(value, placeholder, env string) string {
	value = strings.TrimSpace(value)
	if value == "" || value == placeholder {
		return os.Getenv(env)
	}
	return value
}

func dirName(userName string) string {
	return strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(strings.ToLower(userName))
}
