package service

import (
	"time"

	"bailreckoner-backend/models"

	"github.com/google/uuid"
)

// RedactedField names a case field a redaction policy can withhold from
// a role's view. The policy is an enumerated list per role, not
// per-field conditionals scattered through the projection.
type RedactedField string

const (
	FieldRiskFlags         RedactedField = "risk_flags"
	FieldProbabilityNoBail RedactedField = "probability_no_bail"
	FieldReason            RedactedField = "reason"
	FieldAnnotations       RedactedField = "annotations"
)

// RedactionPolicy maps each role to the fields withheld from its view
type RedactionPolicy map[models.Role][]RedactedField

// DefaultRedactionPolicy withholds internal risk scoring from the
// prisoner and legal-aid audiences. The authority view is never
// redacted.
func DefaultRedactionPolicy() RedactionPolicy {
	return RedactionPolicy{
		models.RolePrisoner: {FieldRiskFlags, FieldProbabilityNoBail},
		models.RoleLegalAid: {FieldRiskFlags},
	}
}

// PredictionView is the role-filtered prediction block
type PredictionView struct {
	ProbabilityBail   float64  `json:"probability_bail"`
	ProbabilityNoBail *float64 `json:"probability_no_bail,omitempty"`
	BailEligibility   int      `json:"bail_eligibility"`
	Reason            string   `json:"reason,omitempty"`
}

// RoleView is one role's view of a case snapshot
type RoleView struct {
	ID              uuid.UUID             `json:"id"`
	Role            models.Role           `json:"role"`
	PrisonerName    string                `json:"prisoner_name"`
	OffenseCategory string                `json:"offense_category"`
	Statute         string                `json:"statute"`
	PenaltyClass    string                `json:"penalty_class"`
	RiskFlags       *models.RiskFlags     `json:"risk_flags,omitempty"`
	Prediction      *PredictionView       `json:"prediction_details,omitempty"`
	JudicialStatus  models.JudicialStatus `json:"judicial_status"`
	Annotations     models.Annotations    `json:"annotations,omitempty"`

	// DecisionAllowed is set on the authority view only. It is a UI
	// affordance; the decision service enforces the real gate.
	DecisionAllowed *bool `json:"decision_allowed,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProjectionService produces per-role views of case snapshots. It is a
// pure function of a snapshot and a role; it holds no case state.
type ProjectionService struct {
	policy RedactionPolicy
}

// ProjectionServiceOption is a functional option for ProjectionService
type ProjectionServiceOption func(*ProjectionService)

// ProjectionWithRedactionPolicy overrides the default redaction policy
func ProjectionWithRedactionPolicy(policy RedactionPolicy) ProjectionServiceOption {
	return func(s *ProjectionService) {
		s.policy = policy
	}
}

// NewProjectionService creates a new projection service
func NewProjectionService(opts ...ProjectionServiceOption) *ProjectionService {
	s := &ProjectionService{policy: DefaultRedactionPolicy()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ForRole projects a case snapshot into the given role's view
func (s *ProjectionService) ForRole(role models.Role, c *models.Case) (*RoleView, error) {
	if !models.ValidRole(role) {
		return nil, ErrUnknownRole
	}

	snapshot := c.Clone()
	view := &RoleView{
		ID:              snapshot.ID,
		Role:            role,
		PrisonerName:    snapshot.PrisonerName,
		OffenseCategory: snapshot.OffenseCategory,
		Statute:         snapshot.Statute,
		PenaltyClass:    snapshot.PenaltyClass,
		RiskFlags:       &snapshot.RiskFlags,
		JudicialStatus:  snapshot.JudicialStatus,
		Annotations:     snapshot.Annotations,
		CreatedAt:       snapshot.CreatedAt,
		UpdatedAt:       snapshot.UpdatedAt,
	}

	if snapshot.PredictionDetails != nil {
		pd := snapshot.PredictionDetails
		noBail := pd.ProbabilityNoBail
		view.Prediction = &PredictionView{
			ProbabilityBail:   pd.ProbabilityBail,
			ProbabilityNoBail: &noBail,
			BailEligibility:   pd.BailEligibility,
			Reason:            pd.Reason,
		}
	}

	for _, field := range s.policy[role] {
		switch field {
		case FieldRiskFlags:
			view.RiskFlags = nil
		case FieldProbabilityNoBail:
			if view.Prediction != nil {
				view.Prediction.ProbabilityNoBail = nil
			}
		case FieldReason:
			if view.Prediction != nil {
				view.Prediction.Reason = ""
			}
		case FieldAnnotations:
			view.Annotations = nil
		}
	}

	if role == models.RoleAuthority {
		allowed := !snapshot.JudicialStatus.Decided()
		view.DecisionAllowed = &allowed
	}

	return view, nil
}

// ForRoleAll projects a list of case snapshots
func (s *ProjectionService) ForRoleAll(role models.Role, cases []*models.Case) ([]*RoleView, error) {
	views := make([]*RoleView, 0, len(cases))
	for _, c := range cases {
		view, err := s.ForRole(role, c)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}
