package explain

import "slices"

// Explanation is the canonical, display-ready form of one agent's
// explanations payload.
type Explanation struct {
	Agent AgentName `json:"agent" yaml:"agent"`

	// GlobalSummary is the top-level summary before suppression. Renderers
	// should call VisibleSummary instead of reading it directly.
	GlobalSummary     *string `json:"global_summary,omitempty" yaml:"global_summary,omitempty"`
	SummarySuppressed bool    `json:"summary_suppressed" yaml:"summary_suppressed"`

	Customer CustomerView      `json:"customer" yaml:"customer"`
	Internal InternalView      `json:"internal" yaml:"internal"`
	Flags    []FlagExplanation `json:"flag_explanations,omitempty" yaml:"flag_explanations,omitempty"`

	Block      BlockKind         `json:"block" yaml:"block"`
	Similarity *SimilarityReport `json:"similarity,omitempty" yaml:"similarity,omitempty"`
	Decision   *DecisionReport   `json:"decision,omitempty" yaml:"decision,omitempty"`
	Document   *DocumentReport   `json:"document,omitempty" yaml:"document,omitempty"`

	HasReadableContent bool `json:"has_readable_content" yaml:"has_readable_content"`

	Payload Payload `json:"payload" yaml:"payload"`
}

// VisibleSummary returns the global summary unless a more specific block
// already shows it.
func (e Explanation) VisibleSummary() (string, bool) {
	if e.GlobalSummary == nil || e.SummarySuppressed {
		return "", false
	}
	return *e.GlobalSummary, true
}

// NeedsDump reports whether the renderer has to fall back to a generic
// key/value dump of the payload.
func (e Explanation) NeedsDump() bool {
	return !e.HasReadableContent && !e.Payload.IsEmpty()
}

// Clone returns a deep copy that shares no mutable state with e.
func (e Explanation) Clone() Explanation {
	out := e
	out.GlobalSummary = cloneString(e.GlobalSummary)
	out.Customer = CustomerView{
		Summary:     cloneString(e.Customer.Summary),
		MainReasons: slices.Clone(e.Customer.MainReasons),
		NextSteps:   slices.Clone(e.Customer.NextSteps),
	}
	out.Internal = InternalView{
		Summary:           cloneString(e.Internal.Summary),
		KeyFactors:        slices.Clone(e.Internal.KeyFactors),
		SupportingSignals: slices.Clone(e.Internal.SupportingSignals),
		PaymentHistory:    cloneString(e.Internal.PaymentHistory),
		RiskLevel:         cloneString(e.Internal.RiskLevel),
	}
	out.Flags = slices.Clone(e.Flags)
	if e.Similarity != nil {
		out.Similarity = e.Similarity.clone()
	}
	if e.Decision != nil {
		out.Decision = e.Decision.clone()
	}
	if e.Document != nil {
		out.Document = e.Document.clone()
	}
	return out
}

func (r *SimilarityReport) clone() *SimilarityReport {
	out := *r
	out.Report = cloneString(r.Report)
	out.TotalCases = clonePtr(r.TotalCases)
	out.Breakdown = Breakdown{OK: clonePtr(r.Breakdown.OK), Default: clonePtr(r.Breakdown.Default), Fraud: clonePtr(r.Breakdown.Fraud)}
	out.Buckets = make([]Bucket, len(r.Buckets))
	for i, b := range r.Buckets {
		out.Buckets[i] = Bucket{
			Label:         b.Label,
			Min:           clonePtr(b.Min),
			Max:           clonePtr(b.Max),
			Count:         clonePtr(b.Count),
			DefaultRate:   clonePtr(b.DefaultRate),
			FraudRate:     clonePtr(b.FraudRate),
			AvgSimilarity: clonePtr(b.AvgSimilarity),
		}
	}
	if r.Buckets == nil {
		out.Buckets = nil
	}
	out.Cases = make([]SimilarCase, len(r.Cases))
	for i, c := range r.Cases {
		out.Cases[i] = SimilarCase{
			CaseID:         c.CaseID,
			SimilarityPct:  clonePtr(c.SimilarityPct),
			Status:         c.Status,
			LoanAmount:     clonePtr(c.LoanAmount),
			LoanDuration:   clonePtr(c.LoanDuration),
			EmploymentType: cloneString(c.EmploymentType),
			ContractType:   cloneString(c.ContractType),
		}
	}
	if r.Cases == nil {
		out.Cases = nil
	}
	s := r.Stats
	out.Stats = SimilarityStats{
		TotalSimilarCases:    clonePtr(s.TotalSimilarCases),
		GoodProfiles:         clonePtr(s.GoodProfiles),
		BadProfiles:          clonePtr(s.BadProfiles),
		FraudCases:           clonePtr(s.FraudCases),
		AverageSimilarity:    clonePtr(s.AverageSimilarity),
		RepaymentSuccessRate: clonePtr(s.RepaymentSuccessRate),
		DefaultRate:          clonePtr(s.DefaultRate),
		FraudRatio:           clonePtr(s.FraudRatio),
		MinSimilarity:        clonePtr(s.MinSimilarity),
		MedianSimilarity:     clonePtr(s.MedianSimilarity),
		MaxSimilarity:        clonePtr(s.MaxSimilarity),
	}
	if r.Analysis != nil {
		a := *r.Analysis
		a.Recommendation = cloneString(a.Recommendation)
		a.RiskLevel = cloneString(a.RiskLevel)
		a.RiskScore = clonePtr(a.RiskScore)
		a.ConfidenceLevel = cloneString(a.ConfidenceLevel)
		a.PointsForts = slices.Clone(a.PointsForts)
		a.PointsFaibles = slices.Clone(a.PointsFaibles)
		a.Conditions = slices.Clone(a.Conditions)
		a.PaymentHistoryNote = cloneString(a.PaymentHistoryNote)
		a.Summary = cloneString(a.Summary)
		a.Reasoning = cloneString(a.Reasoning)
		out.Analysis = &a
	}
	return &out
}

func (r *DecisionReport) clone() *DecisionReport {
	out := *r
	out.Confidence = clonePtr(r.Confidence)
	out.Summary = cloneString(r.Summary)
	out.Reasons = slices.Clone(r.Reasons)
	out.ReviewTriggers = slices.Clone(r.ReviewTriggers)
	out.Conflicts = slices.Clone(r.Conflicts)
	out.RiskIndicators = slices.Clone(r.RiskIndicators)
	return &out
}

func (r *DocumentReport) clone() *DocumentReport {
	out := *r
	out.ConsistencyLevel = clonePtr(r.ConsistencyLevel)
	out.DDSScore = clonePtr(r.DDSScore)
	out.ExtractedFields = ExtractedFields{
		IncomeDocumented:       clonePtr(r.ExtractedFields.IncomeDocumented),
		ContractTypeDetected:   cloneString(r.ExtractedFields.ContractTypeDetected),
		SeniorityDetectedYears: clonePtr(r.ExtractedFields.SeniorityDetectedYears),
	}
	out.MissingDocuments = slices.Clone(r.MissingDocuments)
	out.SuspiciousPatterns = slices.Clone(r.SuspiciousPatterns)
	return &out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneString(p *string) *string { return clonePtr(p) }
