// Package middlewareinternal provides HTTP middleware for the phone simulator.
//
// It includes middleware for logging requests, compressing responses with
// gzip, and rejecting requests whose envelope signature does not verify.
package middlewareinternal

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Schera-ole/phonemetrics/internal/sign"
)

type (
	responseData struct {
		status int
		size   int
	}

	loggingResponseWriter struct {
		http.ResponseWriter
		responseData *responseData
	}
)

func (r *loggingResponseWriter) Write(b []byte) (int, error) {
	if r.responseData.status == 0 {
		r.responseData.status = http.StatusOK
	}
	size, err := r.ResponseWriter.Write(b)
	r.responseData.size += size
	return size, err
}

func (r *loggingResponseWriter) WriteHeader(statusCode int) {
	r.ResponseWriter.WriteHeader(statusCode)
	r.responseData.status = statusCode
}

// LoggingMiddleware logs method, uri, status, duration and size of every request.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			responseData := &responseData{}
			lw := loggingResponseWriter{
				ResponseWriter: w,
				responseData:   responseData,
			}

			next.ServeHTTP(&lw, r)

			logger.Infow("request served",
				"uri", r.RequestURI,
				"method", r.Method,
				"status", responseData.status,
				"duration", time.Since(start),
				"size", responseData.size,
			)
		})
	}
}

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
		return w
	},
}

type gzipWriter struct {
	http.ResponseWriter
	Writer io.Writer
}

func (w gzipWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

// GzipMiddleware compresses responses for clients that accept gzip.
func GzipMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		gzw := gzipWriterPool.Get().(*gzip.Writer)
		gzw.Reset(w)
		defer func() {
			gzw.Close()
			gzipWriterPool.Put(gzw)
		}()
		next.ServeHTTP(gzipWriter{ResponseWriter: w, Writer: gzw}, r)
	})
}

// signedRequest is the part of a request envelope the signature check reads.
type signedRequest struct {
	Timestamp *int64  `json:"timestamp"`
	Sign      *string `json:"sign"`
}

// Rejection is written when a request fails the signature check.
type Rejection struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// SignatureMiddleware rejects requests whose envelope is not signed with the
// shared secret. With maxSkew > 0, timestamps further than maxSkew from clock
// are rejected too. The body is handed on unchanged.
func SignatureMiddleware(signer *sign.Signer, clock sign.Clock, maxSkew time.Duration, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			r.Body.Close()
			if err != nil {
				reject(w, http.StatusBadRequest, "failed to read request body")
				return
			}

			var req signedRequest
			if err := json.Unmarshal(body, &req); err != nil || req.Timestamp == nil || req.Sign == nil {
				logger.Infow("rejected unsigned request", "uri", r.RequestURI)
				reject(w, http.StatusUnauthorized, "missing timestamp or sign")
				return
			}
			if !signer.Verify(*req.Timestamp, *req.Sign) {
				logger.Infow("rejected request with bad sign", "uri", r.RequestURI, "timestamp", *req.Timestamp)
				reject(w, http.StatusUnauthorized, "sign verification failed")
				return
			}
			if maxSkew > 0 {
				skew := time.Duration(clock.Now()-*req.Timestamp) * time.Millisecond
				if skew < 0 {
					skew = -skew
				}
				if skew > maxSkew {
					logger.Infow("rejected stale request", "uri", r.RequestURI, "skew", skew)
					reject(w, http.StatusUnauthorized, "timestamp out of range")
					return
				}
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}

func reject(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Rejection{Code: status, Msg: msg})
}
