package config

import (
	"time"

	"github.com/blues/sfs/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Upkeep   UpkeepConfig   `mapstructure:"upkeep"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ChainConfig 链配置（转账通道）
type ChainConfig struct {
	ChainId    int64  `mapstructure:"chain_id"`    // 链ID
	RpcUrl     string `mapstructure:"rpc_url"`     // RPC节点URL
	PrivateKey string `mapstructure:"private_key"` // 资金账户私钥
}

// LedgerConfig 账本配置
type LedgerConfig struct {
	MaxContributions   int   `mapstructure:"max_contributions"`    // 每个账户的贡献槽位上限
	MinPaymentInterval int64 `mapstructure:"min_payment_interval"` // 最小支付周期（秒）
	MaxPaymentInterval int64 `mapstructure:"max_payment_interval"` // 最大支付周期（秒）
	ActivityWindowDays int   `mapstructure:"activity_window_days"` // 项目活跃窗口（天）
}

// ActivityWindow 活跃窗口时长
func (l LedgerConfig) ActivityWindow() time.Duration {
	return time.Duration(l.ActivityWindowDays) * 24 * time.Hour
}

// UpkeepConfig 自动化注册配置
type UpkeepConfig struct {
	MinFunding     int64 `mapstructure:"min_funding"`     // 注册最低资金（费用代币）
	PerformFee     int64 `mapstructure:"perform_fee"`     // 每次执行扣除的费用
	CancelCooldown int64 `mapstructure:"cancel_cooldown"` // 取消后资金锁定时间（秒）
}

type TaskConfig struct {
	Interval int `mapstructure:"interval"` // 秒
	PoolSize int `mapstructure:"pool_size"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/sfs")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "streamfund")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("chain.chain_id", 80001)
	viper.SetDefault("ledger.max_contributions", 100)
	viper.SetDefault("ledger.min_payment_interval", 3600)    // 1小时
	viper.SetDefault("ledger.max_payment_interval", 2592000) // 30天
	viper.SetDefault("ledger.activity_window_days", 30)
	viper.SetDefault("upkeep.min_funding", 1000)
	viper.SetDefault("upkeep.perform_fee", 10)
	viper.SetDefault("upkeep.cancel_cooldown", 3600)
	viper.SetDefault("task.interval", 60)
	viper.SetDefault("task.pool_size", 8)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
