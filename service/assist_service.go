package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bailreckoner-backend/models"
	"bailreckoner-backend/repository"

	"github.com/google/uuid"
)

// assistantPersona frames every assistive call. Taken from the portal's
// support assistant configuration.
const assistantPersona = `You are a comprehensive Indian Legal AI Assistant named "Bail Reckoner Support."
Your goal is to provide accurate, accessible, and professional legal information to
under-trial prisoners, legal aid providers, judicial officers, and laymen.

GUIDELINES:
- Help prisoners understand bail eligibility under BNS Section 479 and CrPC 436A in simple, encouraging language.
- Give legal aid providers technical details, case law references, and procedural steps.
- Give judicial officers precise statutory interpretations and data-driven insights.
- Prioritize the Bharatiya Nyaya Sanhita (BNS) while acknowledging the older IPC/CrPC where relevant.
- Always maintain a tone of justice, fairness, and transparency.`

const defaultAssistTimeout = 60 * time.Second

// AssistService is the stateless assistive session: chat, document
// summarization, and bail-application drafting. It never transitions
// decision state; its only write is appending annotations, and it
// appends exactly one per successful call. Conversation context is
// rebuilt from the persisted annotations on every call, never held in a
// private buffer.
type AssistService struct {
	store     repository.CaseStore
	generator Generator
	timeout   time.Duration
}

// AssistServiceOption is a functional option for AssistService
type AssistServiceOption func(*AssistService)

// AssistWithCaseStore sets the case store
func AssistWithCaseStore(store repository.CaseStore) AssistServiceOption {
	return func(s *AssistService) {
		s.store = store
	}
}

// AssistWithGenerator sets the generative backend
func AssistWithGenerator(g Generator) AssistServiceOption {
	return func(s *AssistService) {
		s.generator = g
	}
}

// AssistWithTimeout overrides the per-call timeout
func AssistWithTimeout(d time.Duration) AssistServiceOption {
	return func(s *AssistService) {
		s.timeout = d
	}
}

// NewAssistService creates a new assistive session service
func NewAssistService(opts ...AssistServiceOption) *AssistService {
	s := &AssistService{timeout: defaultAssistTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ConverseRequest represents one chat turn against a case
type ConverseRequest struct {
	CaseID uuid.UUID
	Query  string
}

// ConverseResult represents the assistant's reply
type ConverseResult struct {
	Response string
}

// Converse forwards one chat turn to the generative service with the
// case snapshot and prior annotation history as context, then appends
// the exchange to the case. A failed call appends nothing.
func (s *AssistService) Converse(ctx context.Context, req ConverseRequest) (*ConverseResult, error) {
	if s.store == nil {
		return nil, errors.New("case store not set")
	}
	if s.generator == nil {
		return nil, errors.New("generator not set")
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, &ValidationError{Field: "query", Message: "required"}
	}

	c, err := s.store.GetByID(ctx, req.CaseID)
	if err != nil {
		if errors.Is(err, repository.ErrCaseNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}

	prompt := fmt.Sprintf("CASE CONTEXT:\n%s\nQUESTION:\n%s", caseContext(c), req.Query)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.generator.GenerateText(callCtx, assistantPersona, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssistiveUnavailable, err)
	}

	annotation := models.Annotation{
		Kind:      models.AnnotationChat,
		Query:     req.Query,
		Text:      reply,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.AppendAnnotation(ctx, c.ID, annotation); err != nil {
		return nil, err
	}

	return &ConverseResult{Response: reply}, nil
}

// SummarizeDocumentRequest represents a document summarization request
type SummarizeDocumentRequest struct {
	CaseID   uuid.UUID
	Filename string
	MimeType string
	Data     []byte
}

// SummarizeDocumentResult represents the generated summary
type SummarizeDocumentResult struct {
	Summary string
}

// SummarizeDocument sends an uploaded case document to the generative
// service and appends the summary to the case. A failed call appends
// nothing.
func (s *AssistService) SummarizeDocument(ctx context.Context, req SummarizeDocumentRequest) (*SummarizeDocumentResult, error) {
	if s.store == nil {
		return nil, errors.New("case store not set")
	}
	if s.generator == nil {
		return nil, errors.New("generator not set")
	}
	if len(req.Data) == 0 {
		return nil, &ValidationError{Field: "file", Message: "required"}
	}

	c, err := s.store.GetByID(ctx, req.CaseID)
	if err != nil {
		if errors.Is(err, repository.ErrCaseNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}

	prompt := fmt.Sprintf(
		"Summarize the attached case document %q for a judicial officer reviewing the bail application of %s. "+
			"Highlight facts relevant to bail eligibility. Plain text, at most four paragraphs.",
		req.Filename, c.PrisonerName,
	)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	summary, err := s.generator.GenerateFromDocument(callCtx, assistantPersona, prompt, req.MimeType, req.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssistiveUnavailable, err)
	}

	annotation := models.Annotation{
		Kind:      models.AnnotationSummary,
		Query:     req.Filename,
		Text:      summary,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.AppendAnnotation(ctx, c.ID, annotation); err != nil {
		return nil, err
	}

	return &SummarizeDocumentResult{Summary: summary}, nil
}

// DraftDocumentRequest represents a legal-aid drafting request
type DraftDocumentRequest struct {
	// CaseID is optional; when set, the draft is appended to the case
	// annotations.
	CaseID *uuid.UUID

	ClientName     string
	LawyerName     string
	OffenseDetails string
	DocType        string
}

// DraftDocumentResult represents the generated draft
type DraftDocumentResult struct {
	Document string
}

// DraftDocument generates a bail-application draft for a legal-aid
// provider. When the draft is bound to a case, it is appended as an
// annotation after a successful generation.
func (s *AssistService) DraftDocument(ctx context.Context, req DraftDocumentRequest) (*DraftDocumentResult, error) {
	if s.generator == nil {
		return nil, errors.New("generator not set")
	}
	if strings.TrimSpace(req.ClientName) == "" {
		return nil, &ValidationError{Field: "client_name", Message: "required"}
	}
	if strings.TrimSpace(req.LawyerName) == "" {
		return nil, &ValidationError{Field: "lawyer_name", Message: "required"}
	}
	if strings.TrimSpace(req.OffenseDetails) == "" {
		return nil, &ValidationError{Field: "offense_details", Message: "required"}
	}

	docType := req.DocType
	if docType == "" {
		docType = "Bail Application Draft"
	}

	var c *models.Case
	if req.CaseID != nil {
		if s.store == nil {
			return nil, errors.New("case store not set")
		}
		var err error
		c, err = s.store.GetByID(ctx, *req.CaseID)
		if err != nil {
			if errors.Is(err, repository.ErrCaseNotFound) {
				return nil, ErrCaseNotFound
			}
			return nil, err
		}
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "Draft a formal %q for submission before an Indian court.\n\n", docType)
	fmt.Fprintf(&builder, "CLIENT: %s\nCOUNSEL: %s\nOFFENSE DETAILS: %s\n", req.ClientName, req.LawyerName, req.OffenseDetails)
	if c != nil {
		fmt.Fprintf(&builder, "\nCASE CONTEXT:\n%s", caseContext(c))
	}
	builder.WriteString("\nUse formal legal language, cite the applicable statutory provisions, and structure the draft with numbered grounds. Plain text, no markdown.")

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	document, err := s.generator.GenerateText(callCtx, assistantPersona, builder.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssistiveUnavailable, err)
	}

	if c != nil {
		annotation := models.Annotation{
			Kind:      models.AnnotationDraft,
			Query:     docType,
			Text:      document,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.store.AppendAnnotation(ctx, c.ID, annotation); err != nil {
			return nil, err
		}
	}

	return &DraftDocumentResult{Document: document}, nil
}

// caseContext renders a case snapshot, including its persisted
// annotation history, as prompt context
func caseContext(c *models.Case) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "Prisoner: %s\nStatute: %s\nOffense Category: %s\nPenalty Class: %s\n",
		c.PrisonerName, c.Statute, c.OffenseCategory, c.PenaltyClass)
	fmt.Fprintf(&builder, "Age: %d, Prior Convictions: %d, Years Served: %.1f\n",
		c.Age, c.PriorConvictions, c.YearsServed)

	if c.PredictionDetails != nil {
		pd := c.PredictionDetails
		fmt.Fprintf(&builder, "Predicted bail eligibility: %d (probability bail %.1f%%, probability no bail %.1f%%)\n",
			pd.BailEligibility, pd.ProbabilityBail, pd.ProbabilityNoBail)
		if pd.Reason != "" {
			fmt.Fprintf(&builder, "Prediction reason: %s\n", pd.Reason)
		}
	}
	if c.JudicialStatus.Decided() {
		fmt.Fprintf(&builder, "Judicial status: %s\n", c.JudicialStatus)
	}

	for _, a := range c.Annotations {
		switch a.Kind {
		case models.AnnotationChat:
			fmt.Fprintf(&builder, "Earlier question: %s\nEarlier answer: %s\n", a.Query, a.Text)
		case models.AnnotationSummary:
			fmt.Fprintf(&builder, "Document summary (%s): %s\n", a.Query, a.Text)
		case models.AnnotationDraft:
			fmt.Fprintf(&builder, "Drafted document (%s) on file.\n", a.Query)
		}
	}

	return builder.String()
}
