package models

// Medication FHIR MedicationRequest 扁平化后的药物信息
type Medication struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Dosage       string `json:"dosage,omitempty"`
	Frequency    string `json:"frequency,omitempty"`
	Instructions string `json:"instructions,omitempty"`
	Status       string `json:"status"`
}
