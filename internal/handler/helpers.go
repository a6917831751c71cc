package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	models "github.com/Schera-ole/phonemetrics/internal/model"
	"github.com/Schera-ole/phonemetrics/internal/sign"
)

// signedResponse is what the phone sends back for every accepted query.
type signedResponse struct {
	Code      int    `json:"code"`
	Msg       string `json:"msg"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
	Sign      string `json:"sign"`
}

// WriteSigned encodes data into a success envelope signed at the clock's
// current time.
func WriteSigned(w http.ResponseWriter, signer *sign.Signer, clock sign.Clock, data any, logger *zap.SugaredLogger) {
	ts := clock.Now()
	resp := signedResponse{
		Code:      models.StatusSuccess,
		Msg:       models.MsgSuccess,
		Data:      data,
		Timestamp: ts,
		Sign:      signer.Sign(ts),
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Errorw("failed to write response", "error", err)
	}
}
