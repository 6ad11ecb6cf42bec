package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model/event"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/gateway/vnpay"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type PaymentResult string

const (
	PaymentResultOK        PaymentResult = "OK"
	PaymentResultErr       PaymentResult = "ERR"
	PaymentResultCancelled PaymentResult = "CANCELLED"
)

type CreatePaymentParams struct {
	OrderIDs  []string
	ReturnURL string
	ClientIP  string
}

type CallbackResult struct {
	Result      PaymentResult `json:"result"`
	Message     string        `json:"message"`
	RedirectURL string        `json:"redirectUrl"`
	Updated     int64         `json:"updated"`
	Duplicate   bool          `json:"duplicate"`
}

type IPaymentService interface {
	CreatePaymentURL(ctx context.Context, arg CreatePaymentParams) (string, error)
	HandleCallback(ctx context.Context, params url.Values) (*CallbackResult, error)
	UpdatePaymentStatus(ctx context.Context, orderIDs []string, isSuccess bool) (int64, error)
}

type PaymentConfig struct {
	// RequireSignature 為 true 時沒帶 vnp_SecureHash 的回呼一律拒絕
	RequireSignature bool
	DefaultReturnURL string
	// ResultURL 前端顯示付款結果的頁面
	ResultURL string
}

type PaymentService struct {
	store   repository.Store
	gateway vnpay.IGateway
	ledger  redis_repo.ICallbackLedgerRepository
	cf      PaymentConfig
	options
}

// NewPaymentService ledger 可為 nil, 此時重送只靠 is_paid 條件保證不重複更新
func NewPaymentService(store repository.Store, gateway vnpay.IGateway, ledger redis_repo.ICallbackLedgerRepository, cf PaymentConfig, opts ...Option) *PaymentService {
	return &PaymentService{
		store:   store,
		gateway: gateway,
		ledger:  ledger,
		cf:      cf,
		options: newOptions(opts...),
	}
}

var _ IPaymentService = (*PaymentService)(nil)

// parseOrderIDs 去除重複, 任何一個不是標準格式的 uuid 就整批拒絕
// 回傳的 id 一律為小寫標準格式
func parseOrderIDs(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, apperr.New(apperr.InvalidInputCode, "orderIds is required")
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		id, ok := canonicalUUID(strings.TrimSpace(raw))
		if !ok {
			return nil, apperr.Newf(apperr.InvalidReferenceCode, "invalid order id %q", raw)
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// loadOrders 回傳順序與 ids 相同, 缺任何一筆回傳 NotFound
func (p *PaymentService) loadOrders(ctx context.Context, ids []string) ([]model.Order, error) {
	orders, err := p.store.GetOrdersByIDs(ctx, ids)
	if err != nil {
		return nil, notFoundOr(err, "")
	}
	byID := make(map[string]model.Order, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
	}
	sorted := make([]model.Order, 0, len(ids))
	for _, id := range ids {
		o, ok := byID[id]
		if !ok {
			return nil, apperr.Newf(apperr.NotFoundCode, "order %s not found", id)
		}
		sorted = append(sorted, o)
	}
	return sorted, nil
}

// CreatePaymentURL 多張訂單合併成一筆付款, TxnRef 為逗號串接的訂單 id
// 錯誤:
//   - InvalidReferenceCode: 任一 id 不是 uuid
//   - NotFoundCode: 任一訂單不存在
//   - InvalidStateCode: 任一訂單已取消或已付款
//   - ExternalServiceCode: 無法產生付款連結
func (p *PaymentService) CreatePaymentURL(ctx context.Context, arg CreatePaymentParams) (string, error) {
	ids, err := parseOrderIDs(arg.OrderIDs)
	if err != nil {
		return "", err
	}
	orders, err := p.loadOrders(ctx, ids)
	if err != nil {
		return "", err
	}

	amount := decimal.Zero
	for _, o := range orders {
		if !o.Payable() {
			return "", apperr.Newf(apperr.InvalidStateCode, "order %s is not payable (status %s, paid %t)", o.ID, o.Status, o.IsPaid)
		}
		amount = amount.Add(o.OrderTotal)
	}

	returnURL := arg.ReturnURL
	if returnURL == "" {
		returnURL = p.cf.DefaultReturnURL
	}
	txnRef := strings.Join(ids, ",")

	payURL, err := p.gateway.BuildPaymentURL(vnpay.PaymentRequest{
		TxnRef:    txnRef,
		Amount:    amount,
		OrderInfo: fmt.Sprintf("Thanh toan don hang %s", txnRef),
		ReturnURL: returnURL,
		ClientIP:  arg.ClientIP,
		CreatedAt: p.now(),
	})
	if err != nil {
		return "", apperr.Wrap(apperr.ExternalServiceCode, err, "cannot build payment url")
	}

	zerolog.Ctx(ctx).Info().Str("txn_ref", txnRef).Str("amount", amount.String()).Msg("payment url created")
	return payURL, nil
}

func classifyResponseCode(code string) (PaymentResult, model.PaymentStatus, string) {
	switch code {
	case vnpay.ResponseCodeSuccess:
		return PaymentResultOK, model.PaymentPaid, "payment success"
	case vnpay.ResponseCodeCancelled:
		return PaymentResultCancelled, model.PaymentCancelled, "payment cancelled by customer"
	}
	return PaymentResultErr, model.PaymentFailed, fmt.Sprintf("payment failed with code %s", code)
}

func (p *PaymentService) redirectURL(result PaymentResult, txnRef string) string {
	if p.cf.ResultURL == "" {
		return ""
	}
	q := url.Values{}
	q.Set("result", string(result))
	q.Set("txnRef", txnRef)
	sep := "?"
	if strings.Contains(p.cf.ResultURL, "?") {
		sep = "&"
	}
	return p.cf.ResultURL + sep + q.Encode()
}

// applyPaymentStatus 一個批次條件更新, 已付款的訂單不會被改回
func (p *PaymentService) applyPaymentStatus(ctx context.Context, ids []string, status model.PaymentStatus) (int64, error) {
	if status == model.PaymentPaid {
		return p.store.MarkOrdersPaid(ctx, ids, p.now())
	}
	return p.store.MarkOrdersPaymentStatus(ctx, ids, status, p.now())
}

// unpaidIDs 更新前仍未付款的訂單, 用來決定要發哪些事件
func unpaidIDs(orders []model.Order, status model.PaymentStatus) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		if !o.IsPaid && o.PaymentStatus != status {
			out = append(out, o.ID)
		}
	}
	return out
}

func (p *PaymentService) publishPayment(ctx context.Context, ids []string, status model.PaymentStatus, txnRef string) {
	evts := make([]event.Event, 0, len(ids))
	for _, id := range ids {
		evts = append(evts, event.NewOrderPaymentEvent(id, status, txnRef, p.now()))
	}
	p.publish(ctx, evts...)
}

// HandleCallback 處理付款閘道回呼, 重送不會重複更新
// 錯誤:
//   - InvalidInputCode: 缺少 vnp_ResponseCode 或 vnp_TxnRef
//   - InvalidReferenceCode: 缺少或錯誤的簽章, TxnRef 內有不合法的訂單 id
//   - NotFoundCode: TxnRef 內任一訂單不存在
func (p *PaymentService) HandleCallback(ctx context.Context, params url.Values) (*CallbackResult, error) {
	code := strings.TrimSpace(params.Get(vnpay.ParamResponseCode))
	txnRef := strings.TrimSpace(params.Get(vnpay.ParamTxnRef))
	if code == "" || txnRef == "" {
		return nil, apperr.Newf(apperr.InvalidInputCode, "%s and %s are required", vnpay.ParamResponseCode, vnpay.ParamTxnRef)
	}

	if err := p.gateway.VerifyCallback(params, p.cf.RequireSignature); err != nil {
		if errors.Is(err, vnpay.ErrMissingSecret) {
			return nil, apperr.Wrap(apperr.InternalCode, err, "")
		}
		return nil, apperr.Wrap(apperr.InvalidReferenceCode, err, "invalid payment signature")
	}

	ids, err := parseOrderIDs(strings.Split(txnRef, ","))
	if err != nil {
		return nil, err
	}
	orders, err := p.loadOrders(ctx, ids)
	if err != nil {
		return nil, err
	}

	result, status, msg := classifyResponseCode(code)
	res := &CallbackResult{
		Result:      result,
		Message:     msg,
		RedirectURL: p.redirectURL(result, txnRef),
	}
	logger := zerolog.Ctx(ctx).With().Str("txn_ref", txnRef).Str("response_code", code).Logger()

	// ledger 只用來標記重送, 批次更新本身是單調的, 每次都要執行
	seenBefore := false
	if p.ledger != nil {
		first, err := p.ledger.MarkProcessed(ctx, txnRef, code)
		if err != nil {
			logger.Warn().Err(err).Msg("payment callback ledger unavailable")
		} else {
			seenBefore = !first
		}
	}

	changed := unpaidIDs(orders, status)
	n, err := p.applyPaymentStatus(ctx, ids, status)
	if err != nil {
		if p.ledger != nil && !seenBefore {
			// 閘道斷線時 request ctx 已取消, 移除標記不能跟著失敗
			if ferr := p.ledger.Forget(context.WithoutCancel(ctx), txnRef, code); ferr != nil {
				logger.Warn().Err(ferr).Msg("forget payment callback failed")
			}
		}
		return nil, notFoundOr(err, "")
	}
	res.Updated = n
	res.Duplicate = seenBefore || n == 0
	if n > 0 {
		p.publishPayment(ctx, changed, status, txnRef)
	}

	logger.Info().Str("result", string(result)).Int64("updated", n).Bool("duplicate", res.Duplicate).Msg("payment callback handled")
	return res, nil
}

// UpdatePaymentStatus 人工對帳用, 與回呼走同一個單調的批次更新
func (p *PaymentService) UpdatePaymentStatus(ctx context.Context, orderIDs []string, isSuccess bool) (int64, error) {
	ids, err := parseOrderIDs(orderIDs)
	if err != nil {
		return 0, err
	}
	orders, err := p.loadOrders(ctx, ids)
	if err != nil {
		return 0, err
	}

	status := model.PaymentFailed
	if isSuccess {
		status = model.PaymentPaid
	}
	changed := unpaidIDs(orders, status)
	n, err := p.applyPaymentStatus(ctx, ids, status)
	if err != nil {
		return 0, notFoundOr(err, "")
	}
	if n > 0 {
		p.publishPayment(ctx, changed, status, "")
	}
	zerolog.Ctx(ctx).Info().Strs("order_ids", ids).Str("status", string(status)).Int64("updated", n).Msg("payment status updated")
	return n, nil
}
