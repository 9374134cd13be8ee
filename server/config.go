package server

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//Config 配置文件
type Config struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	NumEventLoop    int           `yaml:"num_event_loop"`
	InactiveTimeout int           `yaml:"inactive_timeout"`
	TickInterval    time.Duration `yaml:"tick_interval"`
	WheelSlots      int           `yaml:"wheel_slots"`
	TCPKeepAlive    time.Duration `yaml:"tcp_keepalive"`
	LogLevel        string        `yaml:"log_level"`
}

//LoadConfig 读取yaml配置
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := &Config{Host: "0.0.0.0"}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if config.Port < 0 || config.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", config.Port)
	}
	return config, nil
}

//Options 转换成可选项，零值不覆盖默认值
func (c *Config) Options() []Option {
	opts := []Option{
		WithNumEventLoop(c.NumEventLoop),
		WithInactiveTimeout(c.InactiveTimeout),
	}
	if c.TickInterval > 0 {
		opts = append(opts, WithTickInterval(c.TickInterval))
	}
	if c.WheelSlots > 0 {
		opts = append(opts, WithWheelSlots(c.WheelSlots))
	}
	if c.TCPKeepAlive > 0 {
		opts = append(opts, WithTCPKeepAlive(c.TCPKeepAlive))
	}
	if c.LogLevel != "" {
		opts = append(opts, WithLogLevel(c.LogLevel))
	}
	return opts
}
