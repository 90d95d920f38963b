package config

import (
	"os"
	"path"
	"strings"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// DBConfig Database configuration
type DBConfig struct {
	Type     string `yaml:"type"` // postgres or sqlite
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Debug    bool   `yaml:"debug"`
}

// SysConfig System configuration
type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
}

// WebConfig admin api listener
type WebConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// SnmpConfig SNMP transport configuration
type SnmpConfig struct {
	Community   string `yaml:"community"`
	Port        int    `yaml:"port"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	Retries     int    `yaml:"retries"`
}

// MonitorConfig telemetry engine configuration
type MonitorConfig struct {
	SampleInterval        time.Duration `yaml:"sample_interval"`
	MaxSampleSeconds      int           `yaml:"max_sample_seconds"`
	PartialOnError        bool          `yaml:"partial_on_error"`
	EventCapacity         int           `yaml:"event_capacity"`
	WorkerPoolSize        int           `yaml:"worker_pool_size"`
	LivenessMaxHosts      int           `yaml:"liveness_max_hosts"` // 0 keeps every host ever probed
	LivenessTTL           time.Duration `yaml:"liveness_ttl"`       // 0 never expires
	CapturePollInterval   time.Duration `yaml:"capture_poll_interval"`
	LivenessSweepInterval time.Duration `yaml:"liveness_sweep_interval"`
}

// LogConfig logging configuration
type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

type AppConfig struct {
	System   SysConfig     `yaml:"system"`
	Web      WebConfig     `yaml:"web"`
	Database DBConfig      `yaml:"database"`
	Snmp     SnmpConfig    `yaml:"snmp"`
	Monitor  MonitorConfig `yaml:"monitor"`
	Logger   LogConfig     `yaml:"logger"`
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return path.Join(c.System.Workdir, "data")
}

func (c *AppConfig) initDirs() {
	_ = os.MkdirAll(c.GetLogDir(), 0o700)
	_ = os.MkdirAll(c.GetDataDir(), 0o700)
}

func setEnvValue(name string, val *string) {
	if v := os.Getenv(name); v != "" {
		*val = v
	}
}

func setEnvBoolValue(name string, val *bool) {
	if v := os.Getenv(name); v != "" {
		*val = cast.ToBool(v)
	}
}

func setEnvIntValue(name string, val *int) {
	if v := os.Getenv(name); v != "" {
		if i, err := cast.ToIntE(v); err == nil {
			*val = i
		}
	}
}

func setEnvDurationValue(name string, val *time.Duration) {
	if v := os.Getenv(name); v != "" {
		if d, err := cast.ToDurationE(v); err == nil {
			*val = d
		}
	}
}

// DefaultAppConfig returns the built-in defaults
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		System: SysConfig{
			Appid:    "ToughMON",
			Location: "UTC",
			Workdir:  "/var/toughmon",
		},
		Web: WebConfig{
			Host: "0.0.0.0",
			Port: 1816,
		},
		Database: DBConfig{
			Type:     "sqlite",
			Host:     "127.0.0.1",
			Port:     5432,
			Name:     "toughmon.db",
			User:     "postgres",
			Passwd:   "myroot",
			MaxConn:  20,
			IdleConn: 5,
		},
		Snmp: SnmpConfig{
			Community:   "public",
			Port:        161,
			TimeoutSecs: 2,
			Retries:     1,
		},
		Monitor: MonitorConfig{
			SampleInterval:        time.Second,
			MaxSampleSeconds:      3600,
			EventCapacity:         100,
			WorkerPoolSize:        64,
			CapturePollInterval:   5 * time.Second,
			LivenessSweepInterval: 30 * time.Second,
		},
		Logger: LogConfig{
			Mode:     "development",
			Filename: "/var/toughmon/toughmon.log",
		},
	}
}

// LoadConfig reads the yaml file (if any) over the defaults, then applies TOUGHMON_* overrides
func LoadConfig(cfile string) *AppConfig {
	cfg := DefaultAppConfig()
	if cfile != "" {
		data, err := os.ReadFile(cfile)
		if err != nil {
			panic(err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			panic(err)
		}
	}

	setEnvValue("TOUGHMON_SYSTEM_WORKER_DIR", &cfg.System.Workdir)
	setEnvBoolValue("TOUGHMON_SYSTEM_DEBUG", &cfg.System.Debug)

	setEnvValue("TOUGHMON_WEB_HOST", &cfg.Web.Host)
	setEnvIntValue("TOUGHMON_WEB_PORT", &cfg.Web.Port)

	setEnvValue("TOUGHMON_DB_TYPE", &cfg.Database.Type)
	setEnvValue("TOUGHMON_DB_HOST", &cfg.Database.Host)
	setEnvValue("TOUGHMON_DB_NAME", &cfg.Database.Name)
	setEnvValue("TOUGHMON_DB_USER", &cfg.Database.User)
	setEnvValue("TOUGHMON_DB_PWD", &cfg.Database.Passwd)
	setEnvIntValue("TOUGHMON_DB_PORT", &cfg.Database.Port)
	setEnvBoolValue("TOUGHMON_DB_DEBUG", &cfg.Database.Debug)

	setEnvValue("TOUGHMON_SNMP_COMMUNITY", &cfg.Snmp.Community)
	setEnvIntValue("TOUGHMON_SNMP_PORT", &cfg.Snmp.Port)
	setEnvIntValue("TOUGHMON_SNMP_TIMEOUT", &cfg.Snmp.TimeoutSecs)
	setEnvIntValue("TOUGHMON_SNMP_RETRIES", &cfg.Snmp.Retries)

	setEnvBoolValue("TOUGHMON_MONITOR_PARTIAL_ON_ERROR", &cfg.Monitor.PartialOnError)
	setEnvIntValue("TOUGHMON_MONITOR_LIVENESS_MAX_HOSTS", &cfg.Monitor.LivenessMaxHosts)
	setEnvDurationValue("TOUGHMON_MONITOR_LIVENESS_TTL", &cfg.Monitor.LivenessTTL)
	setEnvDurationValue("TOUGHMON_MONITOR_CAPTURE_POLL", &cfg.Monitor.CapturePollInterval)

	setEnvValue("TOUGHMON_LOGGER_MODE", &cfg.Logger.Mode)
	setEnvBoolValue("TOUGHMON_LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)

	cfg.Logger.Mode = strings.ToLower(cfg.Logger.Mode)
	return cfg
}

// Init creates the working directories
func (c *AppConfig) Init() {
	c.initDirs()
}
