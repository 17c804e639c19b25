/*
Package config loads server configuration from file and environment.

PURPOSE:
  Centralizes the tunables: HTTP listen address, database path, and the
  leave entitlement policy (initial grants, sick certificate threshold).
  Values come from an optional config file plus LEAVE_* environment
  variables; sane defaults cover development.
*/
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	DB     DBConfig     `mapstructure:"db"`
	Policy PolicyConfig `mapstructure:"policy"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

// PolicyConfig is the entitlement policy applied when provisioning a new
// employee-year. Day values allow halves, so they are parsed as decimals.
type PolicyConfig struct {
	InitialPaidDays          string `mapstructure:"initial_paid_days"`
	InitialSickDays          string `mapstructure:"initial_sick_days"`
	SickCertificateThreshold string `mapstructure:"sick_certificate_threshold"`
}

func (p PolicyConfig) InitialPaid() (decimal.Decimal, error) {
	return decimal.NewFromString(p.InitialPaidDays)
}

func (p PolicyConfig) InitialSick() (decimal.Decimal, error) {
	return decimal.NewFromString(p.InitialSickDays)
}

func (p PolicyConfig) CertificateThreshold() (decimal.Decimal, error) {
	return decimal.NewFromString(p.SickCertificateThreshold)
}

// Load reads configuration from the given file (optional) and LEAVE_*
// environment variables. Missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("db.path", "leave.db")
	v.SetDefault("policy.initial_paid_days", "20")
	v.SetDefault("policy.initial_sick_days", "10")
	v.SetDefault("policy.sick_certificate_threshold", "3")

	v.SetEnvPrefix("LEAVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Fail fast on unparseable policy numbers.
	if _, err := cfg.Policy.InitialPaid(); err != nil {
		return nil, fmt.Errorf("policy.initial_paid_days: %w", err)
	}
	if _, err := cfg.Policy.InitialSick(); err != nil {
		return nil, fmt.Errorf("policy.initial_sick_days: %w", err)
	}
	if _, err := cfg.Policy.CertificateThreshold(); err != nil {
		return nil, fmt.Errorf("policy.sick_certificate_threshold: %w", err)
	}
	return &cfg, nil
}
