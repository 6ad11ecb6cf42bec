// Package vnpay VNPay 轉址付款的簽章與驗章
package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Version   = "2.1.0"
	Command   = "pay"
	CurrCode  = "VND"
	Locale    = "vn"
	OrderType = "billpayment"

	createDateLayout = "20060102150405"

	ParamSecureHash     = "vnp_SecureHash"
	ParamSecureHashType = "vnp_SecureHashType"
	ParamResponseCode   = "vnp_ResponseCode"
	ParamTxnRef         = "vnp_TxnRef"

	// ResponseCodeSuccess 付款成功, ResponseCodeCancelled 使用者取消
	ResponseCodeSuccess   = "00"
	ResponseCodeCancelled = "24"
)

var (
	ErrMissingSecret    = errors.New("vnpay hash secret not configured")
	ErrMissingSignature = errors.New("vnpay callback without secure hash")
	ErrInvalidSignature = errors.New("vnpay secure hash mismatch")
)

type Config struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	Location   *time.Location
}

type PaymentRequest struct {
	TxnRef    string
	Amount    decimal.Decimal
	OrderInfo string
	ReturnURL string
	ClientIP  string
	CreatedAt time.Time
}

// IGateway 方便 service 測試替換
type IGateway interface {
	BuildPaymentURL(req PaymentRequest) (string, error)
	VerifyCallback(params url.Values, requireSignature bool) error
}

type Client struct {
	cf Config
}

func NewClient(cf Config) *Client {
	if cf.Location == nil {
		cf.Location = time.UTC
	}
	return &Client{cf: cf}
}

var _ IGateway = (*Client)(nil)

// Sign HMAC-SHA512(secret, query) hex
func Sign(secret, query string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

// BuildPaymentURL 參數依 key 排序後 form encode, 簽章附加在最後
// 金額以最小單位 (x100) 傳送
func (c *Client) BuildPaymentURL(req PaymentRequest) (string, error) {
	if c.cf.HashSecret == "" {
		return "", ErrMissingSecret
	}
	createdAt := req.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	ip := req.ClientIP
	if ip == "" {
		ip = "127.0.0.1"
	}
	orderInfo := req.OrderInfo
	if orderInfo == "" {
		orderInfo = req.TxnRef
	}

	params := url.Values{}
	params.Set("vnp_Version", Version)
	params.Set("vnp_Command", Command)
	params.Set("vnp_TmnCode", c.cf.TmnCode)
	params.Set("vnp_Amount", strconv.FormatInt(req.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), 10))
	params.Set("vnp_CreateDate", createdAt.In(c.cf.Location).Format(createDateLayout))
	params.Set("vnp_CurrCode", CurrCode)
	params.Set("vnp_IpAddr", ip)
	params.Set("vnp_Locale", Locale)
	params.Set("vnp_OrderInfo", orderInfo)
	params.Set("vnp_OrderType", OrderType)
	params.Set("vnp_ReturnUrl", req.ReturnURL)
	params.Set(ParamTxnRef, req.TxnRef)

	// url.Values.Encode 已依 key 排序
	query := params.Encode()
	return c.cf.PayURL + "?" + query + "&" + ParamSecureHash + "=" + Sign(c.cf.HashSecret, query), nil
}

// VerifyCallback 去掉簽章欄位後重新計算
// 有設定 secret 時一定要帶簽章, 只有沒 secret 且 requireSignature 為 false 才放行
func (c *Client) VerifyCallback(params url.Values, requireSignature bool) error {
	got := params.Get(ParamSecureHash)
	if got == "" {
		if requireSignature || c.cf.HashSecret != "" {
			return ErrMissingSignature
		}
		return nil
	}
	if c.cf.HashSecret == "" {
		return ErrMissingSecret
	}

	signed := url.Values{}
	for k, v := range params {
		if k == ParamSecureHash || k == ParamSecureHashType {
			continue
		}
		if len(v) == 0 || v[0] == "" {
			continue
		}
		signed[k] = v[:1]
	}
	want := Sign(c.cf.HashSecret, signed.Encode())
	if !hmac.Equal([]byte(want), []byte(toLowerHex(got))) {
		return ErrInvalidSignature
	}
	return nil
}

func toLowerHex(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'F' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
