package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JudicialStatus represents the authority's verdict on a case
type JudicialStatus string

const (
	StatusPending  JudicialStatus = ""
	StatusAccepted JudicialStatus = "Accepted"
	StatusRejected JudicialStatus = "Rejected"
)

// Decided reports whether a verdict has been committed
func (s JudicialStatus) Decided() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Statute options shared by intake validation and the predictor client.
// Both sides validate against this list so a mismatch fails loudly at the
// boundary instead of silently inside the predictor.
var Statutes = []string{"NDPS", "SCST Act", "PMLA", "CrPC", "IPC"}

// OffenseCategories shared by intake validation and the predictor client
var OffenseCategories = []string{
	"Crimes Against Children",
	"Offences Against the State",
	"Crimes Against Foreigners",
	"Crimes Against SCs and STs",
	"Cyber Crime",
	"Economic Offence",
	"Crimes Against Women",
}

// PenaltyClasses recognized at intake
var PenaltyClasses = []string{"Minor", "Moderate", "Severe"}

// ValidStatute reports whether s is in the shared statute list
func ValidStatute(s string) bool {
	for _, v := range Statutes {
		if v == s {
			return true
		}
	}
	return false
}

// ValidOffenseCategory reports whether c is in the shared category list
func ValidOffenseCategory(c string) bool {
	for _, v := range OffenseCategories {
		if v == c {
			return true
		}
	}
	return false
}

// ValidPenaltyClass reports whether p is a recognized penalty class
func ValidPenaltyClass(p string) bool {
	for _, v := range PenaltyClasses {
		if v == p {
			return true
		}
	}
	return false
}

// RiskFlags are the boolean prediction inputs captured at intake.
// Immutable once a prediction has been requested.
type RiskFlags struct {
	FlightRisk           bool `json:"flight_risk"`
	WitnessInfluenceRisk bool `json:"witness_influence_risk"`
	HalfTermServed       bool `json:"half_term_served"`
	SuretyBondRequired   bool `json:"surety_bond_required"`
	PersonalBondRequired bool `json:"personal_bond_required"`
	FinesApplicable      bool `json:"fines_applicable"`
}

// Value implements driver.Valuer for JSONB
func (r RiskFlags) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner for JSONB
func (r *RiskFlags) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}
	if len(bytes) == 0 {
		return nil
	}
	return json.Unmarshal(bytes, r)
}

// PredictionDetails is the normalized response of the external predictor.
// probability_bail and probability_no_bail come from the predictor
// independently and need not sum to 100; bail_eligibility is passed
// through, never re-derived from the probabilities.
type PredictionDetails struct {
	ProbabilityBail   float64 `json:"probability_bail"`
	ProbabilityNoBail float64 `json:"probability_no_bail"`
	BailEligibility   int     `json:"bail_eligibility"`
	Reason            string  `json:"reason"`
}

// Value implements driver.Valuer for JSONB
func (p PredictionDetails) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB
func (p *PredictionDetails) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}
	if len(bytes) == 0 {
		return nil
	}
	return json.Unmarshal(bytes, p)
}

// AnnotationKind classifies an assistive note
type AnnotationKind string

const (
	AnnotationChat    AnnotationKind = "chat"
	AnnotationSummary AnnotationKind = "summary"
	AnnotationDraft   AnnotationKind = "draft"
)

// Annotation is one assistive note attached to a case: a chat exchange,
// a document summary, or a generated draft. Annotations are append-only.
type Annotation struct {
	Kind      AnnotationKind `json:"kind"`
	Role      string         `json:"role,omitempty"`
	Query     string         `json:"query,omitempty"`
	Text      string         `json:"text"`
	CreatedAt time.Time      `json:"created_at"`
}

// Annotations is the ordered append-only annotation history of a case
type Annotations []Annotation

// Value implements driver.Valuer for JSONB
func (a Annotations) Value() (driver.Value, error) {
	if a == nil {
		return json.Marshal(Annotations{})
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner for JSONB
func (a *Annotations) Scan(value interface{}) error {
	if value == nil {
		*a = make(Annotations, 0)
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*a = make(Annotations, 0)
		return nil
	}
	if len(bytes) == 0 {
		*a = make(Annotations, 0)
		return nil
	}
	return json.Unmarshal(bytes, a)
}

// Case is one bail-eligibility record for one prisoner/incident.
// Descriptive attributes are immutable after intake; each mutable field
// has exactly one writer component (prediction: the eligibility service,
// judicial status: the decision service, annotations: the assistive
// session).
type Case struct {
	ID uuid.UUID `json:"id"`

	// Intake attributes
	PrisonerName     string  `json:"prisoner_name"`
	OffenseCategory  string  `json:"offense_category"`
	Statute          string  `json:"statute"`
	PenaltyClass     string  `json:"penalty_class"`
	Age              int     `json:"age"`
	PriorConvictions int     `json:"prior_convictions"`
	YearsServed      float64 `json:"years_served"`

	RiskFlags RiskFlags `json:"risk_flags"`

	// Set at most once per case; an explicit re-run is required to replace it
	PredictionDetails *PredictionDetails `json:"prediction_details,omitempty"`

	JudicialStatus JudicialStatus `json:"judicial_status"`
	Annotations    Annotations    `json:"annotations"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy so projections and the memory store never
// hand out aliases into shared state.
func (c *Case) Clone() *Case {
	dup := *c
	if c.PredictionDetails != nil {
		pd := *c.PredictionDetails
		dup.PredictionDetails = &pd
	}
	if c.Annotations != nil {
		dup.Annotations = make(Annotations, len(c.Annotations))
		copy(dup.Annotations, c.Annotations)
	}
	return &dup
}
