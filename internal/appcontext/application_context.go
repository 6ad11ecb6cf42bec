package appcontext

import (
	"context"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/config"
	"github.com/RoyceAzure/lab/marketplace/internal/constants"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/cache"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/gateway/vnpay"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/producer"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/mongodb"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/marketplace/internal/logger"
	"github.com/RoyceAzure/lab/marketplace/internal/ratelimit"
	"github.com/RoyceAzure/lab/marketplace/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type ApplicationContext struct {
	Cf     *config.Config
	Logger zerolog.Logger

	DbConn      *gorm.DB
	MongoClient *mongo.Client
	Store       repository.Store

	RedisClient  *redis.Client
	Cache        cache.Cache
	ProductCache redis_repo.IProductCacheRepository
	Ledger       redis_repo.ICallbackLedgerRepository

	KafkaWriter    *kafka.Writer
	KafkaLogWriter *kafka.Writer
	Publisher      producer.EventPublisher

	Limiter   ratelimit.ILimiter
	stopLimit func()

	VnpayClient *vnpay.Client

	ProductService service.IProductService
	CartService    service.ICartService
	OrderService   service.IOrderService
	ReportService  service.IReportService
	PaymentService service.IPaymentService
}

func NewApplicationContext(cf *config.Config) (*ApplicationContext, error) {
	app := ApplicationContext{
		Cf: cf,
	}

	err := app.Init()
	if err != nil {
		return nil, err
	}

	return &app, nil
}

func (app *ApplicationContext) Init() error {
	steps := []func() error{
		app.setUpLogger,
		app.setUpStore,
		app.setUpRedis,
		app.setUpLimiter,
		app.setUpPublisher,
		app.setUpVnpay,
		app.setUpServices,
		app.seedVouchers,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// setUpLogger 有設定 KAFKA_LOG_TOPIC 時 log 同時送到 kafka
func (app *ApplicationContext) setUpLogger() error {
	brokers := app.Cf.KafkaBrokerList()
	if len(brokers) > 0 && app.Cf.KafkaLogTopic != "" {
		app.KafkaLogWriter = producer.NewKafkaWriter(producer.WriterConfig{
			Brokers: brokers,
			Topic:   app.Cf.KafkaLogTopic,
		})
		app.Logger = logger.New(app.Cf.Env, logger.NewKafkaWriter(app.KafkaLogWriter))
	} else {
		app.Logger = logger.New(app.Cf.Env)
	}
	zerolog.DefaultContextLogger = &app.Logger

	app.Logger.Info().
		Str("env", app.Cf.Env).
		Str("store_driver", app.Cf.StoreDriver).
		Str("server_port", app.Cf.ServerPort).
		Str("timezone", app.Cf.Location().String()).
		Bool("redis", app.Cf.RedisAddr != "").
		Strs("kafka_brokers", brokers).
		Msg("Finish setup logger")
	return nil
}

func (app *ApplicationContext) setUpStore() error {
	app.Logger.Info().Msg("Start setup store")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch constants.StoreDriver(app.Cf.StoreDriver) {
	case constants.StorePostgres:
		conn, err := db.GetDbConn(app.Cf.DbName, app.Cf.DbHost, app.Cf.DbPort, app.Cf.DbUser, app.Cf.DbPas)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		app.DbConn = conn
		store := db.NewStore(conn)
		app.Store = store

		// 有 migration 檔時以 migration 為準, 否則用 gorm AutoMigrate
		if app.Cf.MigrationURL != "" {
			source := db.MigrationSource(app.Cf.DbName, app.Cf.DbHost, app.Cf.DbPort, app.Cf.DbUser, app.Cf.DbPas)
			if err := db.RunDBMigration(app.Cf.MigrationURL, source); err != nil {
				return fmt.Errorf("run db migration: %w", err)
			}
		} else if err := store.InitMigrate(ctx); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
	case constants.StoreMongo:
		client, err := mongodb.Connect(ctx, app.Cf.MongoURI)
		if err != nil {
			return fmt.Errorf("connect mongo: %w", err)
		}
		app.MongoClient = client
		store := mongodb.NewStore(client, app.Cf.MongoDB)
		app.Store = store
		if err := store.InitMigrate(ctx); err != nil {
			return fmt.Errorf("create mongo indexes: %w", err)
		}
	default:
		return fmt.Errorf("unknown store driver %q", app.Cf.StoreDriver)
	}

	app.Logger.Info().Msg("Finish setup store")
	return nil
}

// setUpRedis REDIS_ADDR 為空時不使用快取, callback 去重只靠 db 條件更新
func (app *ApplicationContext) setUpRedis() error {
	if app.Cf.RedisAddr == "" {
		app.Logger.Warn().Msg("REDIS_ADDR not set, skip redis")
		return nil
	}

	app.Logger.Info().Msg("Start setup redis")
	client, err := cache.GetRedisClient(app.Cf.RedisAddr,
		cache.WithPassword(app.Cf.RedisPassword),
		cache.WithDB(app.Cf.RedisDB),
	)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	app.RedisClient = client
	app.Cache = cache.NewRedisCache(client, "marketplace")
	app.ProductCache = redis_repo.NewProductCacheRepo(app.Cache, redis_repo.DefaultProductTTL)
	app.Ledger = redis_repo.NewCallbackLedgerRepo(app.Cache, redis_repo.DefaultCallbackTTL)
	app.Logger.Info().Msg("Finish setup redis")
	return nil
}

// setUpLimiter 有 redis 時多個 instance 共用額度
func (app *ApplicationContext) setUpLimiter() error {
	app.Logger.Info().Msg("Start setup rate limiter")
	cfg := ratelimit.GetDefaultLimiterConfig()
	cfg.Key = "marketplace:ratelimit"
	if app.Cf.RateLimitCapacity > 0 {
		cfg.Capacity = app.Cf.RateLimitCapacity
	}
	if app.Cf.RateLimitRate > 0 {
		cfg.RatePS = app.Cf.RateLimitRate
	}

	if app.RedisClient != nil {
		app.Limiter = ratelimit.NewRsBucketToken(app.RedisClient, &cfg)
	} else {
		tb := ratelimit.NewTokenBucket(&cfg)
		app.Limiter = tb
		app.stopLimit = tb.Stop
	}
	app.Logger.Info().Int64("capacity", cfg.Capacity).Int64("rate_ps", cfg.RatePS).Msg("Finish setup rate limiter")
	return nil
}

func (app *ApplicationContext) setUpPublisher() error {
	brokers := app.Cf.KafkaBrokerList()
	if len(brokers) == 0 {
		app.Logger.Warn().Msg("KAFKA_BROKERS not set, order events are dropped")
		app.Publisher = producer.NoopPublisher{}
		return nil
	}

	app.Logger.Info().Msg("Start setup event publisher")
	app.KafkaWriter = producer.NewKafkaWriter(producer.WriterConfig{
		Brokers: brokers,
		Topic:   app.Cf.KafkaOrderTopic,
	})
	app.Publisher = producer.NewKafkaEventPublisher(app.KafkaWriter, app.Cf.KafkaOrderTopic, 3)
	app.Logger.Info().Str("topic", app.Cf.KafkaOrderTopic).Msg("Finish setup event publisher")
	return nil
}

func (app *ApplicationContext) setUpVnpay() error {
	app.Logger.Info().Msg("Start setup vnpay client")
	if app.Cf.VnpHashSecret == "" {
		app.Logger.Warn().Msg("VNP_HASH_SECRET not set, payment url and callback verification will fail")
	}
	app.VnpayClient = vnpay.NewClient(vnpay.Config{
		TmnCode:    app.Cf.VnpTmnCode,
		HashSecret: app.Cf.VnpHashSecret,
		PayURL:     app.Cf.VnpURL,
		Location:   app.Cf.Location(),
	})
	app.Logger.Info().Msg("Finish setup vnpay client")
	return nil
}

func (app *ApplicationContext) setUpServices() error {
	app.Logger.Info().Msg("Start setup services")
	opts := []service.Option{
		service.WithPublisher(app.Publisher),
		service.WithPricingPolicy(app.Cf.PricingPolicy()),
		service.WithLocation(app.Cf.Location()),
	}

	app.ProductService = service.NewProductService(app.Store, app.ProductCache, opts...)
	app.CartService = service.NewCartService(app.Store, opts...)
	app.OrderService = service.NewOrderService(app.Store, app.ProductCache, opts...)
	app.ReportService = service.NewReportService(app.Store, opts...)

	app.PaymentService = service.NewPaymentService(app.Store, app.VnpayClient, app.Ledger, service.PaymentConfig{
		RequireSignature: app.Cf.VnpRequireSignature,
		DefaultReturnURL: app.Cf.VnpReturnURL,
		ResultURL:        app.Cf.PaymentResultURL,
	}, opts...)
	app.Logger.Info().Msg("Finish setup services")
	return nil
}

// seedVouchers 重複啟動只會覆蓋既有 voucher
func (app *ApplicationContext) seedVouchers() error {
	if app.Cf.VoucherSeedFile == "" {
		return nil
	}

	app.Logger.Info().Str("file", app.Cf.VoucherSeedFile).Msg("Start seed vouchers")
	vc, err := config.LoadVoucherConfig(app.Cf.VoucherSeedFile)
	if err != nil {
		return fmt.Errorf("load voucher seed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	now := time.Now().UTC()
	for _, seed := range vc.Vouchers {
		discount, err := decimal.NewFromString(seed.Discount)
		if err != nil {
			return fmt.Errorf("voucher %s discount %q: %w", seed.Code, seed.Discount, err)
		}
		v := &model.Voucher{
			Code:      seed.Code,
			Discount:  discount,
			ExpiresAt: seed.ExpiresAt,
		}
		v.Stamp(now)
		if err := app.Store.UpsertVoucher(ctx, v); err != nil {
			return fmt.Errorf("upsert voucher %s: %w", seed.Code, err)
		}
	}
	app.Logger.Info().Int("count", len(vc.Vouchers)).Msg("Finish seed vouchers")
	return nil
}

// HealthCheck store 與 redis 都要能連線
func (app *ApplicationContext) HealthCheck(ctx context.Context) error {
	if app.DbConn != nil {
		sqlDB, err := app.DbConn.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if app.MongoClient != nil {
		if err := app.MongoClient.Ping(ctx, nil); err != nil {
			return fmt.Errorf("mongo: %w", err)
		}
	}
	if app.Cache != nil {
		if _, err := app.Cache.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (app *ApplicationContext) Shutdown(ctx context.Context) error {
	app.Logger.Info().Msg("Start application shutdown")

	done := make(chan error, 1)
	go func() {
		defer close(done)

		if app.stopLimit != nil {
			app.stopLimit()
		}

		// 各資源互不相依, 一起關閉, 有錯誤不中斷其他關閉流程
		var g errgroup.Group
		if app.Publisher != nil {
			g.Go(func() error {
				if err := app.Publisher.Close(); err != nil {
					return fmt.Errorf("close event publisher: %w", err)
				}
				return nil
			})
		}
		if app.RedisClient != nil {
			g.Go(func() error {
				if err := app.RedisClient.Close(); err != nil {
					return fmt.Errorf("close redis: %w", err)
				}
				return nil
			})
		}
		if app.Store != nil {
			g.Go(func() error {
				if err := app.Store.Close(ctx); err != nil {
					return fmt.Errorf("close store: %w", err)
				}
				return nil
			})
		}
		err := g.Wait()

		// log writer 最後關, 上面的錯誤還能送出去
		if err != nil {
			app.Logger.Error().Err(err).Msg("application shutdown with error")
		}
		if app.KafkaLogWriter != nil {
			app.Logger = logger.New(app.Cf.Env)
			if cerr := app.KafkaLogWriter.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close kafka log writer: %w", cerr)
			}
		}

		app.Logger.Info().Msg("Application shutdown complete")
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %v", ctx.Err())
	}
}
