package config

import (
	"errors"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/constants"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/pricing"
	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	viper "github.com/spf13/viper"
)

/*
把init config跟read config分開
init : 需要設置viper watch 與 onConfigChange
read config : 一般讀寫  需要使用讀寫鎖
*/
var config_singleton *ConfigSingleTon
var muonce sync.Once

type ConfigSingleTon struct {
	Config *Config
	mu     sync.RWMutex
}

type Config struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	Env         string `mapstructure:"ENV"`
	StoreDriver string `mapstructure:"STORE_DRIVER"`

	DbName       string `mapstructure:"POSTGRES_DB"`
	DbHost       string `mapstructure:"POSTGRES_HOST"`
	DbPort       string `mapstructure:"POSTGRES_PORT"`
	DbUser       string `mapstructure:"POSTGRES_USER"`
	DbPas        string `mapstructure:"POSTGRES_PASSWORD"`
	MigrationURL string `mapstructure:"MIGRATION_URL"`

	MongoURI string `mapstructure:"MONGO_URI"`
	MongoDB  string `mapstructure:"MONGO_DB"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	KafkaBrokers    string `mapstructure:"KAFKA_BROKERS"`
	KafkaOrderTopic string `mapstructure:"KAFKA_ORDER_TOPIC"`
	KafkaLogTopic   string `mapstructure:"KAFKA_LOG_TOPIC"`

	VnpTmnCode          string `mapstructure:"VNP_TMN_CODE"`
	VnpHashSecret       string `mapstructure:"VNP_HASH_SECRET"`
	VnpURL              string `mapstructure:"VNP_URL"`
	VnpReturnURL        string `mapstructure:"VNP_RETURN_URL"`
	VnpRequireSignature bool   `mapstructure:"VNP_REQUIRE_SIGNATURE"`
	PaymentResultURL    string `mapstructure:"PAYMENT_RESULT_URL"`

	TimeZone              string `mapstructure:"TIMEZONE"`
	VatRate               string `mapstructure:"VAT_RATE"`
	ShippingFee           string `mapstructure:"SHIPPING_FEE"`
	FreeShippingThreshold string `mapstructure:"FREE_SHIPPING_THRESHOLD"`

	RateLimitCapacity int64 `mapstructure:"RATE_LIMIT_CAPACITY"`
	RateLimitRate     int64 `mapstructure:"RATE_LIMIT_RATE"`

	VoucherSeedFile string `mapstructure:"VOUCHER_SEED_FILE"`
}

func GetConfig() *Config {
	initConfig()
	config_singleton.mu.RLock()
	defer config_singleton.mu.RUnlock()
	return config_singleton.Config
}

func initConfig() {
	if config_singleton == nil {
		muonce.Do(func() {
			config_singleton = &ConfigSingleTon{}
			v := viper.GetViper()
			if cf, err := LoadConfig(v, configPath()); err == nil {
				config_singleton.Config = cf
			} else {
				log.Fatalf("error read config: %v", err)
			}
			if v.ConfigFileUsed() == "" {
				return
			}
			v.OnConfigChange(func(e fsnotify.Event) {
				cf, err := LoadConfig(v, e.Name)
				if err != nil {
					log.Printf("failed to reload config file %s: %v", e.Name, err)
					return
				}
				config_singleton.mu.Lock()
				config_singleton.Config = cf
				config_singleton.mu.Unlock()
			})
			v.WatchConfig()
		})
	}
}

// CONFIG_PATH 沒設定時讀工作目錄的 .env
func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return ".env"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("ENV", string(constants.Dev))
	v.SetDefault("STORE_DRIVER", string(constants.StorePostgres))
	v.SetDefault("POSTGRES_DB", "marketplace")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_PASSWORD", "")
	v.SetDefault("MIGRATION_URL", "")
	v.SetDefault("MONGO_URI", "")
	v.SetDefault("MONGO_DB", "marketplace")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_ORDER_TOPIC", "marketplace.order")
	v.SetDefault("KAFKA_LOG_TOPIC", "")
	v.SetDefault("VNP_TMN_CODE", "")
	v.SetDefault("VNP_HASH_SECRET", "")
	v.SetDefault("VNP_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html")
	v.SetDefault("VNP_RETURN_URL", "http://localhost:8080/api/v1/payment/callback")
	v.SetDefault("VNP_REQUIRE_SIGNATURE", true)
	v.SetDefault("PAYMENT_RESULT_URL", "http://localhost:3000/payment/result")
	v.SetDefault("TIMEZONE", constants.DefaultTimeZone)
	v.SetDefault("VAT_RATE", pricing.DefaultVATRate.String())
	v.SetDefault("SHIPPING_FEE", pricing.DefaultShippingFee.String())
	v.SetDefault("FREE_SHIPPING_THRESHOLD", pricing.DefaultFreeShippingThreshold.String())
	v.SetDefault("RATE_LIMIT_CAPACITY", 100)
	v.SetDefault("RATE_LIMIT_RATE", 50)
	v.SetDefault("VOUCHER_SEED_FILE", "")
}

/*
單純回傳錯誤  由外部決定要不要Fatal, 畢竟有可能有替代方案
設定檔不存在時只用預設值與環境變數
*/
func LoadConfig(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, err
		}
	}

	cf := &Config{}
	if err := v.Unmarshal(cf); err != nil {
		return nil, err
	}
	return cf, nil
}

// Location 報表切日用的時區, 設定錯誤時退回預設時區
func (cf *Config) Location() *time.Location {
	loc, err := time.LoadLocation(cf.TimeZone)
	if err == nil {
		return loc
	}
	loc, err = time.LoadLocation(constants.DefaultTimeZone)
	if err == nil {
		return loc
	}
	return time.FixedZone("ICT", 7*60*60)
}

func (cf *Config) KafkaBrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(cf.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func (cf *Config) PricingPolicy() pricing.Policy {
	policy := pricing.DefaultPolicy()
	if d, err := decimal.NewFromString(cf.VatRate); err == nil {
		policy.VATRate = d
	}
	if d, err := decimal.NewFromString(cf.ShippingFee); err == nil {
		policy.ShippingFee = d
	}
	if d, err := decimal.NewFromString(cf.FreeShippingThreshold); err == nil {
		policy.FreeShippingThreshold = d
	}
	return policy
}

func (cf *Config) IsDebug() bool {
	return cf.Env == string(constants.Debug)
}
