package httpapi

import (
	"net/http"

	"medadhere/internal/service"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ScheduleHandler 用药计划
type ScheduleHandler struct {
	svc    *service.ScheduleService
	logger *zap.Logger
}

func NewScheduleHandler(svc *service.ScheduleService, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{svc: svc, logger: logger}
}

func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context(), userIDFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

// Today GET /api/schedules/today
func (h *ScheduleHandler) Today(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Today(r.Context(), userIDFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.ScheduleInput
	if err := readBodyJSON(r, maxBodyBytes, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	sched, err := h.svc.Create(r.Context(), userIDFromRequest(r), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(sched))
}

func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.ScheduleInput
	if err := readBodyJSON(r, maxBodyBytes, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	sched, err := h.svc.Update(r.Context(), userIDFromRequest(r), mux.Vars(r)["id"], in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(sched))
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.svc.Delete(r.Context(), userIDFromRequest(r), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"id": id}))
}
