package constants

import "time"

type ENV string

const (
	Debug ENV = "debug"
	Dev   ENV = "development"
	Stag  ENV = "staging"
	Prod  ENV = "production"
)

type StoreDriver string

const (
	StorePostgres StoreDriver = "postgres"
	StoreMongo    StoreDriver = "mongo"
)

type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	ClientIPKey  ContextKey = "client_ip"
)

// request header 帶入的 request id
const RequestIDHeader = "X-Request-Id"

const (
	// 原系統以越南時區(GMT+7)切日
	DefaultTimeZone = "Asia/Ho_Chi_Minh"
	DateLayout      = "2006-01-02"
)

const (
	// cart 樂觀鎖衝突時的重試次數
	CartSaveRetry = 3

	DefaultRequestTimeout = 30 * time.Second
)
