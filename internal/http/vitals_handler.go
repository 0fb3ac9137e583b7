package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"medadhere/internal/export"
	"medadhere/internal/models"
	"medadhere/internal/service"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// VitalsHandler 体征记录
type VitalsHandler struct {
	svc    *service.VitalsService
	logger *zap.Logger
}

func NewVitalsHandler(svc *service.VitalsService, logger *zap.Logger) *VitalsHandler {
	return &VitalsHandler{svc: svc, logger: logger}
}

// Create POST /api/vitals
func (h *VitalsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var sample models.VitalsSample
	if err := readBodyJSON(r, maxBodyBytes, &sample); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	rec, err := h.svc.SaveManual(r.Context(), sample, userIDFromRequest(r))
	if err != nil {
		h.logger.Warn("Save vitals failed", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(rec))
}

// List GET /api/vitals?limit=
func (h *VitalsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), service.DefaultListLimit)
	list, err := h.svc.List(r.Context(), userIDFromRequest(r), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

// Delete DELETE /api/vitals/{id}
func (h *VitalsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.svc.Delete(r.Context(), userIDFromRequest(r), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"id": id}))
}

// Export GET /api/vitals/export?limit= 导出 xlsx
func (h *VitalsHandler) Export(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), service.MaxListLimit)
	list, err := h.svc.List(r.Context(), userIDFromRequest(r), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := export.GenerateVitalsExport(list)
	if err != nil {
		h.logger.Error("Failed to generate vitals export", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to generate export"))
		return
	}

	filename := fmt.Sprintf("vitals_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
