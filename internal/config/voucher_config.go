package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type VoucherSeed struct {
	Code      string     `yaml:"code"`
	Discount  string     `yaml:"discount"`
	ExpiresAt *time.Time `yaml:"expires_at"`
}

type VoucherConfig struct {
	Vouchers []VoucherSeed `yaml:"vouchers"`
}

// yaml path : docs/vouchers.yaml
func LoadVoucherConfig(path string) (*VoucherConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := &VoucherConfig{}
	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, err
	}

	return config, nil
}
