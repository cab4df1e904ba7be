package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/multierr"
)

// Config 聚合了路由服务运行所需的全部配置项。
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Router   RouterConfig   `mapstructure:"router"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	API      APIConfig      `mapstructure:"api"`
	Events   EventsConfig   `mapstructure:"events"`
}

// AppConfig 控制应用级参数。
type AppConfig struct {
	Environment string `mapstructure:"environment"`
}

// RouterConfig 描述路由合约地址及其允许的结算后端。
type RouterConfig struct {
	Address  string          `mapstructure:"address"`
	Backends []BackendConfig `mapstructure:"backends"`
}

// BackendConfig 描述单个版本的结算后端。
type BackendConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Address string `mapstructure:"address"`
}

// ChainConfig 控制本地账本参数。
type ChainConfig struct {
	MaxCallDepth int              `mapstructure:"max_call_depth"`
	Genesis      []GenesisAccount `mapstructure:"genesis"`
}

// GenesisAccount 为初始余额分配，余额单位为 wei（十进制字符串）。
type GenesisAccount struct {
	Address string `mapstructure:"address"`
	Balance string `mapstructure:"balance"`
}

// DatabaseConfig 管理数据库连接。
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	InMemory        bool          `mapstructure:"in_memory"`
}

// LoggingConfig 控制日志输出。
type LoggingConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// APIConfig 控制 HTTP 接口。
type APIConfig struct {
	ListenAddress   string        `mapstructure:"listen_address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// EventsConfig 控制事件外发。
type EventsConfig struct {
	Kafka KafkaConfig `mapstructure:"kafka"`
}

// KafkaConfig 描述 Kafka 事件主题。
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// Validate 对配置进行基本校验。
func (c *Config) Validate() error {
	var err error

	if c.App.Environment == "" {
		err = multierr.Append(err, errors.New("app.environment 不能为空"))
	}
	if !common.IsHexAddress(c.Router.Address) {
		err = multierr.Append(err, fmt.Errorf("router.address 不是合法地址: %q", c.Router.Address))
	}
	if len(c.Router.Backends) != 2 {
		err = multierr.Append(err, fmt.Errorf("router.backends 必须恰好配置两个后端，当前 %d 个", len(c.Router.Backends)))
	}
	seen := make(map[common.Address]struct{}, len(c.Router.Backends))
	for i, backend := range c.Router.Backends {
		if !common.IsHexAddress(backend.Address) {
			err = multierr.Append(err, fmt.Errorf("router.backends[%d].address 不是合法地址: %q", i, backend.Address))
			continue
		}
		addr := common.HexToAddress(backend.Address)
		if addr == common.HexToAddress(c.Router.Address) {
			err = multierr.Append(err, fmt.Errorf("router.backends[%d].address 不能与路由地址相同", i))
		}
		if _, dup := seen[addr]; dup {
			err = multierr.Append(err, fmt.Errorf("router.backends[%d].address 重复: %s", i, addr.Hex()))
		}
		seen[addr] = struct{}{}
		switch strings.TrimSpace(backend.Version) {
		case "1.4", "1.5":
		default:
			err = multierr.Append(err, fmt.Errorf("router.backends[%d].version 仅支持 1.4 或 1.5: %q", i, backend.Version))
		}
	}
	if c.Chain.MaxCallDepth <= 0 {
		err = multierr.Append(err, errors.New("chain.max_call_depth 必须大于0"))
	}
	for i, account := range c.Chain.Genesis {
		if !common.IsHexAddress(account.Address) {
			err = multierr.Append(err, fmt.Errorf("chain.genesis[%d].address 不是合法地址: %q", i, account.Address))
		}
		if _, parseErr := uint256.FromDecimal(account.Balance); parseErr != nil {
			err = multierr.Append(err, fmt.Errorf("chain.genesis[%d].balance 解析失败: %w", i, parseErr))
		}
	}
	if c.Database.Path == "" && !c.Database.InMemory {
		err = multierr.Append(err, errors.New("database.path 不能为空"))
	}
	if c.Database.MaxOpenConns <= 0 {
		err = multierr.Append(err, errors.New("database.max_open_conns 必须大于0"))
	}
	if c.Database.MaxIdleConns < 0 {
		err = multierr.Append(err, errors.New("database.max_idle_conns 不能为负"))
	}
	if c.Database.ConnMaxLifetime < 0 {
		err = multierr.Append(err, errors.New("database.conn_max_lifetime 不能为负"))
	}
	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level 不能为空"))
	}
	if c.Logging.Encoding == "" {
		err = multierr.Append(err, errors.New("logging.encoding 不能为空"))
	}
	if len(c.Logging.OutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.output_paths 至少包含一个输出目标"))
	}
	if len(c.Logging.ErrorOutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.error_output_paths 至少包含一个输出目标"))
	}
	if c.API.ListenAddress == "" {
		err = multierr.Append(err, errors.New("api.listen_address 不能为空"))
	}
	if c.API.ReadTimeout <= 0 {
		err = multierr.Append(err, errors.New("api.read_timeout 必须大于0"))
	}
	if c.API.ShutdownTimeout <= 0 {
		err = multierr.Append(err, errors.New("api.shutdown_timeout 必须大于0"))
	}
	if c.Events.Kafka.Enabled {
		if len(c.Events.Kafka.Brokers) == 0 {
			err = multierr.Append(err, errors.New("events.kafka.brokers 启用时不能为空"))
		}
		if c.Events.Kafka.Topic == "" {
			err = multierr.Append(err, errors.New("events.kafka.topic 启用时不能为空"))
		}
	}

	if err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	return nil
}
