package fhir

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"medadhere/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// DefaultBaseURL SMART on FHIR 公共沙箱
const DefaultBaseURL = "https://r4.smarthealthit.org"

// ErrPatientRequired 缺少 patient 参数
var ErrPatientRequired = errors.New("patient id is required")

// Client FHIR R4 MedicationRequest 查询
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/fhir+json").
		SetHeader("Content-Type", "application/fhir+json")

	return &Client{httpClient: client, logger: logger}
}

type bundle struct {
	ResourceType string `json:"resourceType"`
	Entry        []struct {
		Resource medicationRequest `json:"resource"`
	} `json:"entry"`
}

type medicationRequest struct {
	ID                        string `json:"id"`
	Status                    string `json:"status"`
	MedicationCodeableConcept *struct {
		Text   string `json:"text"`
		Coding []struct {
			Display string `json:"display"`
		} `json:"coding"`
	} `json:"medicationCodeableConcept"`
	DosageInstruction []dosageInstruction `json:"dosageInstruction"`
}

type dosageInstruction struct {
	Text   string `json:"text"`
	Timing *struct {
		Repeat *struct {
			Frequency  float64 `json:"frequency"`
			Period     float64 `json:"period"`
			PeriodUnit string  `json:"periodUnit"`
		} `json:"repeat"`
	} `json:"timing"`
	DoseAndRate []struct {
		DoseQuantity *struct {
			Value float64 `json:"value"`
			Unit  string  `json:"unit"`
		} `json:"doseQuantity"`
	} `json:"doseAndRate"`
}

// ListMedications 查询患者的 MedicationRequest 并展开为扁平列表
func (c *Client) ListMedications(ctx context.Context, patientID string) ([]models.Medication, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, ErrPatientRequired
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("patient", patientID).
		Get("/MedicationRequest")
	if err != nil {
		return nil, fmt.Errorf("FHIR request failed: %w", err)
	}
	if !resp.IsSuccess() {
		c.logger.Warn("FHIR API error",
			zap.String("patient", patientID),
			zap.Int("status", resp.StatusCode()),
		)
		return nil, fmt.Errorf("FHIR API error: %d", resp.StatusCode())
	}

	var b bundle
	if err := json.Unmarshal(resp.Body(), &b); err != nil {
		return nil, fmt.Errorf("failed to decode FHIR bundle: %w", err)
	}

	meds := make([]models.Medication, 0, len(b.Entry))
	for _, e := range b.Entry {
		meds = append(meds, flatten(e.Resource))
	}
	c.logger.Debug("FHIR medications fetched", zap.String("patient", patientID), zap.Int("total", len(meds)))
	return meds, nil
}

func flatten(r medicationRequest) models.Medication {
	m := models.Medication{
		ID:     r.ID,
		Name:   "Unknown Medication",
		Status: r.Status,
	}
	if m.Status == "" {
		m.Status = "unknown"
	}
	if cc := r.MedicationCodeableConcept; cc != nil {
		if cc.Text != "" {
			m.Name = cc.Text
		} else if len(cc.Coding) > 0 && cc.Coding[0].Display != "" {
			m.Name = cc.Coding[0].Display
		}
	}

	if len(r.DosageInstruction) == 0 {
		return m
	}
	d := r.DosageInstruction[0]
	m.Instructions = d.Text

	if len(d.DoseAndRate) > 0 && d.DoseAndRate[0].DoseQuantity != nil {
		q := d.DoseAndRate[0].DoseQuantity
		value := ""
		if q.Value != 0 {
			value = formatNumber(q.Value)
		}
		m.Dosage = strings.TrimSpace(value + " " + q.Unit)
	}

	if d.Timing != nil && d.Timing.Repeat != nil {
		rep := d.Timing.Repeat
		if rep.Frequency != 0 && rep.Period != 0 && rep.PeriodUnit != "" {
			m.Frequency = fmt.Sprintf("%s time(s) per %s %s(s)",
				formatNumber(rep.Frequency), formatNumber(rep.Period), rep.PeriodUnit)
		}
	}
	return m
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
