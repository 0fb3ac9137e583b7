package httpapi

import (
	"context"
	"net/http"
	"strings"

	"medadhere/internal/models"

	"go.uber.org/zap"
)

// MedicationLister fhir.Client 实现
type MedicationLister interface {
	ListMedications(ctx context.Context, patientID string) ([]models.Medication, error)
}

// FHIRHandler 外部 FHIR 用药查询
type FHIRHandler struct {
	client MedicationLister
	logger *zap.Logger
}

func NewFHIRHandler(client MedicationLister, logger *zap.Logger) *FHIRHandler {
	return &FHIRHandler{client: client, logger: logger}
}

// ListMedications GET /api/fhir/medications?patient=<id>
func (h *FHIRHandler) ListMedications(w http.ResponseWriter, r *http.Request) {
	patientID := strings.TrimSpace(r.URL.Query().Get("patient"))
	if patientID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Patient ID is required"})
		return
	}

	meds, err := h.client.ListMedications(r.Context(), patientID)
	if err != nil {
		h.logger.Error("Error fetching FHIR medications", zap.String("patient", patientID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "Failed to fetch medications",
			"details": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"medications": meds,
		"total":       len(meds),
	})
}
