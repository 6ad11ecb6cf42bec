// Package response 所有 API 回應共用 {status, message, data} 格式
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"github.com/rs/zerolog"
)

const (
	StatusOK  = "OK"
	StatusERR = "ERR"
)

type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func SuccessJSON(w http.ResponseWriter, data any, msg string) {
	if msg == "" {
		msg = "SUCCESS"
	}
	writeJSON(w, http.StatusOK, Response{Status: StatusOK, Message: msg, Data: data})
}

func CreatedJSON(w http.ResponseWriter, data any, msg string) {
	if msg == "" {
		msg = "SUCCESS"
	}
	writeJSON(w, http.StatusCreated, Response{Status: StatusOK, Message: msg, Data: data})
}

// ErrorJSON 直接指定 status 與訊息
func ErrorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Response{Status: StatusERR, Message: msg, Data: nil})
}

// WriteError 業務錯誤依 code 決定 status, 其他錯誤只記 log 不外露細節
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperr.CodeOf(err)
	status := apperr.HTTPStatus(code)

	msg := apperr.ErrStrMap[apperr.InternalCode]
	if code != apperr.InternalCode {
		var appErr *apperr.Error
		if errors.As(err, &appErr) && appErr.Message != "" {
			msg = appErr.Message
		} else {
			msg = apperr.ErrStrMap[code]
		}
	}

	logger := zerolog.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("code", string(code)).Msg("request failed")
	} else {
		logger.Debug().Err(err).Str("code", string(code)).Msg("request rejected")
	}

	writeJSON(w, status, Response{
		Status:  StatusERR,
		Message: msg,
		Data:    map[string]string{"code": string(code)},
	})
}

// ErrorDataJSON 失敗但仍需要回傳資料, 例如付款回呼的結果
func ErrorDataJSON(w http.ResponseWriter, status int, msg string, data any) {
	writeJSON(w, status, Response{Status: StatusERR, Message: msg, Data: data})
}
