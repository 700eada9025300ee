package handlers

import (
	"net/http"

	"bailreckoner-backend/models"
	"bailreckoner-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CaseHandler handles HTTP requests for cases and decisions
type CaseHandler struct {
	caseService        *service.CaseService
	eligibilityService *service.EligibilityService
	decisionService    *service.DecisionService
	projectionService  *service.ProjectionService
}

// NewCaseHandler creates a new case handler
func NewCaseHandler(
	caseService *service.CaseService,
	eligibilityService *service.EligibilityService,
	decisionService *service.DecisionService,
	projectionService *service.ProjectionService,
) *CaseHandler {
	return &CaseHandler{
		caseService:        caseService,
		eligibilityService: eligibilityService,
		decisionService:    decisionService,
		projectionService:  projectionService,
	}
}

// IntakeRequest represents the intake form submission. Key casing
// matches the portal client payload.
type IntakeRequest struct {
	PrisonerName            string  `json:"prisonerName"`
	Age                     int     `json:"age"`
	PriorConvictions        int     `json:"priorConvictions"`
	Statute                 string  `json:"statute"`
	OffenseCategory         string  `json:"offenseCategory"`
	Penalty                 string  `json:"penalty"`
	RiskOfEscape            bool    `json:"riskOfEscape"`
	RiskOfInfluence         bool    `json:"riskOfInfluence"`
	ServedHalfTerm          bool    `json:"servedHalfTerm"`
	SuretyBondRequired      bool    `json:"surety_bond_required"`
	PersonalBondRequired    bool    `json:"personal_bond_required"`
	FinesApplicable         bool    `json:"fines_applicable"`
	ImprisonmentServedYears float64 `json:"imprisonment_served_years"`
}

func (r IntakeRequest) features() service.CaseFeatures {
	return service.CaseFeatures{
		PrisonerName:     r.PrisonerName,
		Age:              r.Age,
		PriorConvictions: r.PriorConvictions,
		YearsServed:      r.ImprisonmentServedYears,
		Statute:          r.Statute,
		OffenseCategory:  r.OffenseCategory,
		PenaltyClass:     r.Penalty,
		RiskFlags: models.RiskFlags{
			FlightRisk:           r.RiskOfEscape,
			WitnessInfluenceRisk: r.RiskOfInfluence,
			HalfTermServed:       r.ServedHalfTerm,
			SuretyBondRequired:   r.SuretyBondRequired,
			PersonalBondRequired: r.PersonalBondRequired,
			FinesApplicable:      r.FinesApplicable,
		},
	}
}

// CreateCase handles POST /api/cases
func (h *CaseHandler) CreateCase(c *gin.Context) {
	var req IntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	result, err := h.caseService.CreateCase(c.Request.Context(), service.CreateCaseRequest{
		Features: req.features(),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    result.Case,
	})
}

// SubmitAndPredict handles POST /api/predict: the prisoner portal's
// single-shot intake + eligibility check. When the predictor is down
// the case still exists; the error carries its id so the prediction can
// be re-run.
func (h *CaseHandler) SubmitAndPredict(c *gin.Context) {
	var req IntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	created, err := h.caseService.CreateCase(c.Request.Context(), service.CreateCaseRequest{
		Features: req.features(),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.eligibilityService.Predict(c.Request.Context(), service.PredictRequest{
		CaseID: created.Case.ID,
	})
	if err != nil {
		respondErrorWith(c, err, gin.H{"case_id": created.Case.ID})
		return
	}

	pd := result.Case.PredictionDetails
	message := "Not eligible for bail."
	if pd.BailEligibility == 1 {
		message = "Eligible for bail."
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"case_id":             result.Case.ID,
			"bail_eligibility":    pd.BailEligibility,
			"probability_bail":    pd.ProbabilityBail,
			"probability_no_bail": pd.ProbabilityNoBail,
			"reason":              pd.Reason,
			"message":             message,
		},
	})
}

// RunPredictionRequest represents an explicit prediction run
type RunPredictionRequest struct {
	Rerun bool `json:"rerun"`
}

// RunPrediction handles POST /api/cases/:id/predict
func (h *CaseHandler) RunPrediction(c *gin.Context) {
	id, ok := parseCaseID(c)
	if !ok {
		return
	}

	// The body is optional; an empty body means a first run.
	var req RunPredictionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_REQUEST",
					"message": err.Error(),
				},
			})
			return
		}
	}

	result, err := h.eligibilityService.Predict(c.Request.Context(), service.PredictRequest{
		CaseID: id,
		Rerun:  req.Rerun,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Case,
	})
}

// ListCases handles GET /api/cases
func (h *CaseHandler) ListCases(c *gin.Context) {
	role := models.Role(c.DefaultQuery("role", string(models.RoleAuthority)))

	result, err := h.caseService.ListCases(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	views, err := h.projectionService.ForRoleAll(role, result.Cases)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"cases": views,
		},
	})
}

// GetCase handles GET /api/cases/:id
func (h *CaseHandler) GetCase(c *gin.Context) {
	id, ok := parseCaseID(c)
	if !ok {
		return
	}
	role := models.Role(c.DefaultQuery("role", string(models.RoleAuthority)))

	result, err := h.caseService.GetCase(c.Request.Context(), service.GetCaseRequest{ID: id})
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := h.projectionService.ForRole(role, result.Case)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    view,
	})
}

// DecisionRequest represents the authority's verdict submission
type DecisionRequest struct {
	Status string `json:"status" binding:"required"`
}

// Decide handles POST /api/cases/:id/decision
func (h *CaseHandler) Decide(c *gin.Context) {
	id, ok := parseCaseID(c)
	if !ok {
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	result, err := h.decisionService.Decide(c.Request.Context(), service.DecideRequest{
		CaseID: id,
		Status: models.JudicialStatus(req.Status),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Case,
	})
}

// Reset handles POST /api/cases/:id/reset
func (h *CaseHandler) Reset(c *gin.Context) {
	id, ok := parseCaseID(c)
	if !ok {
		return
	}

	result, err := h.decisionService.Reset(c.Request.Context(), service.ResetRequest{CaseID: id})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Case,
	})
}

// parseCaseID parses the :id path parameter, writing the error response
// itself when the id is malformed
func parseCaseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid case ID format",
			},
		})
		return uuid.Nil, false
	}
	return id, true
}
