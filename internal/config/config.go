package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config medadhere 服务配置
// 加载顺序：默认值 -> CONFIG_FILE 指定的 YAML 文件 -> 环境变量
type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	DBEnabled bool           `yaml:"db_enabled"`
	Database  DatabaseConfig `yaml:"database"`
	Redis     RedisConfig    `yaml:"redis"`
	MQTT      MQTTConfig     `yaml:"mqtt"`
	Log       struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Device  DeviceConfig  `yaml:"device"`
	Monitor MonitorConfig `yaml:"monitor"`
	FHIR    FHIRConfig    `yaml:"fhir"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
	MaxIdle  int    `yaml:"max_idle"`
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis 配置（最新样本缓存 + 样本流）
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MQTTConfig MQTT 配置（样本转发，默认关闭）
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"` // 如 "tcp://localhost:1883"
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
}

// DeviceConfig 本地传感器设备（Arduino）配置
type DeviceConfig struct {
	Address string        `yaml:"address"` // IP 或 host:port，不含 scheme
	Timeout time.Duration `yaml:"timeout"`
	ID      string        `yaml:"id"` // 持久化记录中的 device_id，为空时使用 Address
}

// MonitorConfig 轮询调度配置
type MonitorConfig struct {
	Interval    time.Duration `yaml:"interval"`
	HistorySize int           `yaml:"history_size"`
	AutoSave    bool          `yaml:"auto_save"`
	Simulation  bool          `yaml:"simulation"`
	AutoStart   bool          `yaml:"auto_start"`
	OwnerID     string        `yaml:"owner_id"` // AutoStart 时的记录归属用户
}

// FHIRConfig 外部 FHIR 服务配置
type FHIRConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = ":8080"

	cfg.DBEnabled = true
	cfg.Database = DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "medadhere",
		SSLMode:  "disable",
		MaxConns: 10,
		MaxIdle:  2,
	}

	cfg.Redis = RedisConfig{Enabled: false, Addr: "localhost:6379"}
	cfg.MQTT = MQTTConfig{
		Enabled:  false,
		Broker:   "tcp://localhost:1883",
		ClientID: "medadhere-vitals",
		Topic:    "medadhere/vitals",
	}

	cfg.Log.Level = "info"
	cfg.Log.Format = "json"

	cfg.Device = DeviceConfig{Address: "192.168.1.100", Timeout: 5 * time.Second}
	cfg.Monitor = MonitorConfig{
		Interval:    10 * time.Second,
		HistorySize: 20,
		AutoSave:    true,
	}
	cfg.FHIR = FHIRConfig{BaseURL: "https://r4.smarthealthit.org", Timeout: 15 * time.Second}
	return cfg
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", cfg.HTTP.Addr)

	cfg.DBEnabled = getBool("DB_ENABLED", cfg.DBEnabled)
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = parseInt(getEnv("DB_PORT", ""), cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Database = getEnv("DB_NAME", cfg.Database.Database)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)

	cfg.Redis.Enabled = getBool("REDIS_ENABLED", cfg.Redis.Enabled)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", ""), cfg.Redis.DB)

	cfg.MQTT.Enabled = getBool("MQTT_ENABLED", cfg.MQTT.Enabled)
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", cfg.MQTT.Broker)
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", cfg.MQTT.ClientID)
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", cfg.MQTT.Username)
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", cfg.MQTT.Password)
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", cfg.MQTT.Topic)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	// ARDUINO_IP_ADDRESS 与前端的 NEXT_PUBLIC_ARDUINO_IP 保持同名语义
	cfg.Device.Address = getEnv("ARDUINO_IP_ADDRESS", cfg.Device.Address)
	cfg.Device.Timeout = getDuration("DEVICE_TIMEOUT", cfg.Device.Timeout)
	cfg.Device.ID = getEnv("DEVICE_ID", cfg.Device.ID)

	cfg.Monitor.Interval = getDuration("MONITOR_INTERVAL", cfg.Monitor.Interval)
	cfg.Monitor.HistorySize = parseInt(getEnv("MONITOR_HISTORY_SIZE", ""), cfg.Monitor.HistorySize)
	cfg.Monitor.AutoSave = getBool("MONITOR_AUTO_SAVE", cfg.Monitor.AutoSave)
	cfg.Monitor.Simulation = getBool("MONITOR_SIMULATION", cfg.Monitor.Simulation)
	cfg.Monitor.AutoStart = getBool("MONITOR_AUTO_START", cfg.Monitor.AutoStart)
	cfg.Monitor.OwnerID = getEnv("MONITOR_OWNER_ID", cfg.Monitor.OwnerID)

	cfg.FHIR.BaseURL = getEnv("FHIR_BASE_URL", cfg.FHIR.BaseURL)
	cfg.FHIR.Timeout = getDuration("FHIR_TIMEOUT", cfg.FHIR.Timeout)

	if cfg.Monitor.Interval <= 0 {
		return nil, fmt.Errorf("monitor interval must be positive, got %s", cfg.Monitor.Interval)
	}
	if cfg.Monitor.HistorySize <= 0 {
		return nil, fmt.Errorf("monitor history size must be positive, got %d", cfg.Monitor.HistorySize)
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
