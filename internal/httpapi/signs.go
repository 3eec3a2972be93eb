package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/TemirB/bankid-sign/internal/domain"
	"github.com/TemirB/bankid-sign/internal/observability"
)

type createSignRequest struct {
	OrderRef string `json:"orderRef"`
	Status   string `json:"status"`
	HintCode string `json:"hintCode"`
}

func (s *Server) listSigns(w http.ResponseWriter, r *http.Request) {
	signs, err := s.signs.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, signs)
}

func (s *Server) getSign(w http.ResponseWriter, r *http.Request) {
	id, ok := signID(w, r)
	if !ok {
		return
	}

	sign, st, err := s.signs.GetWithStats(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	observability.AppendServerTiming(w, "cache", st.CacheMs, "")
	observability.AppendServerTiming(w, "store", st.StoreMs, "")
	observability.AppendServerTiming(w, "source", 0, string(st.Source))
	observability.SetSource(w, string(st.Source))
	observability.SetIfPos(w, "X-Cache-Time", st.CacheMs)
	observability.SetIfPos(w, "X-Store-Time", st.StoreMs)

	writeJSON(w, http.StatusOK, sign)
}

func (s *Server) createSign(w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return
	}

	var req createSignRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		s.logger.Warn("Error while decoding JSON", zap.Error(err))
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	sign := &domain.Sign{OrderRef: req.OrderRef, Status: req.Status, HintCode: req.HintCode}
	st, err := s.signs.Create(r.Context(), sign)
	if err != nil {
		writeError(w, err)
		return
	}

	observability.AppendServerTiming(w, "store_write", st.StoreMs, "")
	writeJSON(w, http.StatusCreated, dataResponse{Data: sign})
}

func (s *Server) deleteSign(w http.ResponseWriter, r *http.Request) {
	id, ok := signID(w, r)
	if !ok {
		return
	}
	if err := s.signs.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: map[string]int64{"id": id}})
}

func signID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid sign id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
