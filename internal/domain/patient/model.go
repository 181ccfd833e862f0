// Package patient manages the patient roster the kiosk and the admin
// screens work from. Patients are looked up by their patient code at
// check-in, so the code is unique among live rows.
package patient

import (
	"time"

	"github.com/google/uuid"
)

type Patient struct {
	ID            uuid.UUID `json:"id"`
	PatientCode   string    `json:"patientCode"`
	Name          string    `json:"name"`
	NameKana      string    `json:"nameKana"`
	VoiceTemplate string    `json:"voiceTemplate,omitempty"`
	PrintTemplate string    `json:"printTemplate,omitempty"`
	IsDeleted     bool      `json:"isDeleted"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
