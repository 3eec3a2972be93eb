package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/TemirB/bankid-sign/internal/bankid"
	"github.com/TemirB/bankid-sign/internal/domain"
	"github.com/TemirB/bankid-sign/internal/observability"
	"github.com/TemirB/bankid-sign/internal/qr"
)

const (
	minQRSize = 64
	maxQRSize = 1024
)

type startRequest struct {
	PNO string `json:"pno"`
}

type startResponse struct {
	OrderRef       string `json:"orderRef"`
	AutoStartToken string `json:"autoStartToken"`
	LaunchURL      string `json:"launchUrl"`
}

func (s *Server) orderResponse(o *domain.Order) startResponse {
	return startResponse{
		OrderRef:       o.OrderRef,
		AutoStartToken: o.AutoStartToken,
		LaunchURL:      s.signer.LaunchURL(o.AutoStartToken),
	}
}

// startSign opens a new order unless the browser already holds one, in
// which case that order is returned again.
func (s *Server) startSign(w http.ResponseWriter, r *http.Request) {
	if order, err := s.sessions.Load(r); err == nil {
		writeJSON(w, http.StatusOK, s.orderResponse(order))
		return
	}

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.sessions.Clear(w)
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	t0 := time.Now()
	order, err := s.signer.Start(r.Context(), req.PNO, clientIP(r))
	observability.AppendServerTiming(w, "bankid", msSince(t0), "sign")
	if err != nil {
		s.logger.Error("Can't start sign order", zap.Error(err))
		s.sessions.Clear(w)
		writeError(w, err)
		return
	}

	if err := s.sessions.Save(w, order); err != nil {
		s.logger.Error("Can't save order cookie", zap.String("order_ref", order.OrderRef), zap.Error(err))
		s.sessions.Clear(w)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, s.orderResponse(order))
}

func (s *Server) signQR(w http.ResponseWriter, r *http.Request) {
	order, err := s.sessions.Load(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = io.WriteString(w, s.signer.QR(order))
}

func (s *Server) signQRImage(w http.ResponseWriter, r *http.Request) {
	order, err := s.sessions.Load(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	size := qr.DefaultSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < minQRSize || n > maxQRSize {
			http.Error(w, "size must be between 64 and 1024", http.StatusBadRequest)
			return
		}
		size = n
	}

	png, err := qr.PNG(s.signer.QR(order), size)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

// resetSign drops the browser's order, cancelling it at BankID first.
func (s *Server) resetSign(w http.ResponseWriter, r *http.Request) {
	if order, err := s.sessions.Load(r); err == nil {
		if err := s.signer.Cancel(r.Context(), order); err != nil {
			s.logger.Warn("Can't cancel order", zap.String("order_ref", order.OrderRef), zap.Error(err))
		}
	}
	s.sessions.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) collect(w http.ResponseWriter, r *http.Request) {
	order, err := s.sessions.Load(r)
	if err != nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	t0 := time.Now()
	resp, done, err := s.signer.Collect(r.Context(), order)
	observability.AppendServerTiming(w, "bankid", msSince(t0), "collect")
	if err != nil {
		s.logger.Warn("Collect failed", zap.String("order_ref", order.OrderRef), zap.Error(err))
		if orderRejected(err) {
			s.sessions.Clear(w)
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if done {
		s.sessions.Clear(w)
	}
	writeJSON(w, http.StatusOK, resp)
}

// orderRejected reports whether BankID refused the order itself, as opposed
// to being unavailable. Such an order can never be collected again.
func orderRejected(err error) bool {
	var apiErr *bankid.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == bankid.CodeNotFound ||
		apiErr.Status >= http.StatusBadRequest && apiErr.Status < http.StatusInternalServerError &&
			apiErr.Status != http.StatusRequestTimeout
}

// clientIP expects middleware.RealIP to have rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}
