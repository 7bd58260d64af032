package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WorkArea partitions tasks and workers within a phase.
type WorkArea string

const (
	AreaMaterials    WorkArea = "materials"
	AreaWeldingLabor WorkArea = "weldingLabor"
	AreaSewingLabor  WorkArea = "sewingLabor"
	AreaInstallation WorkArea = "installation"
	AreaPowderCoat   WorkArea = "powderCoat"
)

func (a WorkArea) Valid() bool {
	switch a {
	case AreaMaterials, AreaWeldingLabor, AreaSewingLabor, AreaInstallation, AreaPowderCoat:
		return true
	}
	return false
}

// Phase groups a job's work by area. The per-area sub-records are stored
// as JSONB documents on the phase row.
type Phase struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	JobID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"job_id"`
	PhaseName    string         `gorm:"size:255;not null" json:"phase_name"`
	PhaseNumber  float64        `gorm:"not null" json:"phase_number"`
	Materials    datatypes.JSON `gorm:"type:jsonb" json:"materials"`
	Labor        datatypes.JSON `gorm:"type:jsonb" json:"labor"`
	Installation datatypes.JSON `gorm:"type:jsonb" json:"installation"`
	PowderCoat   datatypes.JSON `gorm:"type:jsonb" json:"powder_coat"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Job          Job            `gorm:"foreignKey:JobID" json:"-"`
}

const InstallationNotStarted = "Not Started"

// InstallationDetail is always present on a phase, defaulted to a
// not-started record when the phase is created.
type InstallationDetail struct {
	Status        string `json:"status"`
	ScheduledDate string `json:"scheduled_date,omitempty"`
	CrewSize      string `json:"crew_size,omitempty"`
}

// PowderCoatDetail is attached only when at least one of its fields was
// provided at phase creation.
type PowderCoatDetail struct {
	Color    string `json:"color,omitempty"`
	Vendor   string `json:"vendor,omitempty"`
	CureDate string `json:"cure_date,omitempty"`
}

func (d PowderCoatDetail) Empty() bool {
	return d.Color == "" && d.Vendor == "" && d.CureDate == ""
}

type MaterialsDetail struct {
	Description string `json:"description,omitempty"`
	OrderedDate string `json:"ordered_date,omitempty"`
}

type LaborDetail struct {
	CrewSize       string `json:"crew_size,omitempty"`
	EstimatedHours string `json:"estimated_hours,omitempty"`
}

// MustJSON marshals a sub-record for storage. The detail structs contain
// only strings, so marshaling cannot fail.
func MustJSON(v interface{}) datatypes.JSON {
	b, _ := json.Marshal(v)
	return datatypes.JSON(b)
}
