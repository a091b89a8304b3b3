package explain

import (
	"math"
	"strings"

	"github.com/tidwall/gjson"
)

// BlockKind tags the agent-specific block of an Explanation.
type BlockKind int

const (
	BlockNone BlockKind = iota
	BlockSimilarity
	BlockDecision
	BlockDocument
)

func (k BlockKind) String() string {
	switch k {
	case BlockSimilarity:
		return "similarity"
	case BlockDecision:
		return "decision"
	case BlockDocument:
		return "document"
	default:
		return "none"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k BlockKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// CaseStatus is the outcome of a historical case.
type CaseStatus string

const (
	CaseOK      CaseStatus = "OK"
	CaseDefault CaseStatus = "DEFAULT"
	CaseFraud   CaseStatus = "FRAUD"
)

// ParseCaseStatus maps free-form status strings onto the three outcomes.
// Fraud wins over default; anything unrecognised counts as OK.
func ParseCaseStatus(s string) CaseStatus {
	up := strings.ToUpper(s)
	switch {
	case strings.Contains(up, "FRAUD"):
		return CaseFraud
	case strings.Contains(up, "DEFAU"):
		return CaseDefault
	default:
		return CaseOK
	}
}

// ---------------------------------------------------------------------------
// Similarity
// ---------------------------------------------------------------------------

// Breakdown counts similar cases per outcome.
type Breakdown struct {
	OK      *int `json:"ok,omitempty" yaml:"ok,omitempty"`
	Default *int `json:"default,omitempty" yaml:"default,omitempty"`
	Fraud   *int `json:"fraud,omitempty" yaml:"fraud,omitempty"`
}

// Sum adds the known counts. Negative counts count as 0.
func (b Breakdown) Sum() int {
	return count(b.OK) + count(b.Default) + count(b.Fraud)
}

// IsEmpty reports whether no count is known.
func (b Breakdown) IsEmpty() bool {
	return b.OK == nil && b.Default == nil && b.Fraud == nil
}

// Percentages splits the breakdown into the parts of a 100% stacked bar.
// All three are 0 when the total is 0.
func (b Breakdown) Percentages() (okPct, defaultPct, fraudPct float64) {
	total := b.Sum()
	if total <= 0 {
		return 0, 0, 0
	}
	pct := func(x *int) float64 { return float64(count(x)) / float64(total) * 100 }
	return pct(b.OK), pct(b.Default), pct(b.Fraud)
}

// Bucket groups similar cases by similarity range.
type Bucket struct {
	Label         string   `json:"label" yaml:"label"`
	Min           *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max           *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Count         *int     `json:"count,omitempty" yaml:"count,omitempty"`
	DefaultRate   *float64 `json:"default_rate,omitempty" yaml:"default_rate,omitempty"`
	FraudRate     *float64 `json:"fraud_rate,omitempty" yaml:"fraud_rate,omitempty"`
	AvgSimilarity *float64 `json:"avg_similarity,omitempty" yaml:"avg_similarity,omitempty"`
}

// SimilarCase is one historical case close to the current request.
type SimilarCase struct {
	CaseID         string     `json:"case_id" yaml:"case_id"`
	SimilarityPct  *float64   `json:"similarity_pct,omitempty" yaml:"similarity_pct,omitempty"`
	Status         CaseStatus `json:"status" yaml:"status"`
	LoanAmount     *float64   `json:"loan_amount,omitempty" yaml:"loan_amount,omitempty"`
	LoanDuration   *int       `json:"loan_duration,omitempty" yaml:"loan_duration,omitempty"`
	EmploymentType *string    `json:"employment_type,omitempty" yaml:"employment_type,omitempty"`
	ContractType   *string    `json:"contract_type,omitempty" yaml:"contract_type,omitempty"`
}

// SimilarityStats are aggregate figures over the similar cases.
type SimilarityStats struct {
	TotalSimilarCases    *int     `json:"total_similar_cases,omitempty" yaml:"total_similar_cases,omitempty"`
	GoodProfiles         *int     `json:"similar_good_profiles,omitempty" yaml:"similar_good_profiles,omitempty"`
	BadProfiles          *int     `json:"similar_bad_profiles,omitempty" yaml:"similar_bad_profiles,omitempty"`
	FraudCases           *int     `json:"fraud_cases,omitempty" yaml:"fraud_cases,omitempty"`
	AverageSimilarity    *float64 `json:"average_similarity,omitempty" yaml:"average_similarity,omitempty"`
	RepaymentSuccessRate *float64 `json:"repayment_success_rate,omitempty" yaml:"repayment_success_rate,omitempty"`
	DefaultRate          *float64 `json:"default_rate,omitempty" yaml:"default_rate,omitempty"`
	FraudRatio           *float64 `json:"fraud_ratio,omitempty" yaml:"fraud_ratio,omitempty"`
	MinSimilarity        *float64 `json:"min_similarity,omitempty" yaml:"min_similarity,omitempty"`
	MedianSimilarity     *float64 `json:"median_similarity,omitempty" yaml:"median_similarity,omitempty"`
	MaxSimilarity        *float64 `json:"max_similarity,omitempty" yaml:"max_similarity,omitempty"`
}

// IsEmpty reports whether no figure is known.
func (s SimilarityStats) IsEmpty() bool {
	return s == SimilarityStats{}
}

// SimilarityAnalysis is the model's reading of the similar cases.
type SimilarityAnalysis struct {
	Recommendation     *string  `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
	RiskLevel          *string  `json:"risk_level,omitempty" yaml:"risk_level,omitempty"`
	RiskScore          *float64 `json:"risk_score,omitempty" yaml:"risk_score,omitempty"`
	ConfidenceLevel    *string  `json:"confidence_level,omitempty" yaml:"confidence_level,omitempty"`
	PointsForts        []string `json:"points_forts,omitempty" yaml:"points_forts,omitempty"`
	PointsFaibles      []string `json:"points_faibles,omitempty" yaml:"points_faibles,omitempty"`
	Conditions         []string `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	PaymentHistoryNote *string  `json:"payment_history_note,omitempty" yaml:"payment_history_note,omitempty"`
	Summary            *string  `json:"summary,omitempty" yaml:"summary,omitempty"`
	Reasoning          *string  `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
}

// IsEmpty reports whether the analysis carries nothing to display.
func (a SimilarityAnalysis) IsEmpty() bool {
	return a.Recommendation == nil && a.RiskLevel == nil && a.RiskScore == nil &&
		a.ConfidenceLevel == nil && len(a.PointsForts) == 0 && len(a.PointsFaibles) == 0 &&
		len(a.Conditions) == 0 && a.PaymentHistoryNote == nil && a.Summary == nil && a.Reasoning == nil
}

// SimilarityReport is the block shown for the similarity agent.
type SimilarityReport struct {
	Report     *string             `json:"report,omitempty" yaml:"report,omitempty"`
	TotalCases *int                `json:"total_cases,omitempty" yaml:"total_cases,omitempty"`
	Breakdown  Breakdown           `json:"breakdown" yaml:"breakdown"`
	Buckets    []Bucket            `json:"buckets,omitempty" yaml:"buckets,omitempty"`
	Cases      []SimilarCase       `json:"cases,omitempty" yaml:"cases,omitempty"`
	Stats      SimilarityStats     `json:"stats" yaml:"stats"`
	Analysis   *SimilarityAnalysis `json:"analysis,omitempty" yaml:"analysis,omitempty"`
}

// Total is the number of similar cases: the explicit total when given,
// else the breakdown sum, else the number of listed cases.
func (r *SimilarityReport) Total() int {
	if r.TotalCases != nil && *r.TotalCases >= 0 {
		return *r.TotalCases
	}
	if n := r.Breakdown.Sum(); n > 0 {
		return n
	}
	return len(r.Cases)
}

func (r *SimilarityReport) hasContent() bool {
	return r.Report != nil || !r.Stats.IsEmpty() || len(r.Cases) > 0 ||
		len(r.Buckets) > 0 || r.Analysis != nil
}

func extractSimilarity(v gjson.Result) *SimilarityReport {
	obj, ok := objectOrNil(v)
	if !ok {
		return nil
	}
	r := &SimilarityReport{
		Report:  optString(obj.Get("report")),
		Stats:   extractSimilarityStats(obj.Get("stats")),
		Buckets: extractBuckets(obj.Get("buckets")),
		Cases:   extractCases(obj.Get("cases")),
	}
	if a := extractAnalysis(obj.Get("analysis")); !a.IsEmpty() {
		r.Analysis = &a
	}

	if bd := obj.Get("breakdown"); bd.IsObject() {
		r.Breakdown = Breakdown{
			OK:      optCount(bd.Get("ok")),
			Default: optCount(bd.Get("default")),
			Fraud:   optCount(bd.Get("fraud")),
		}
	}
	if r.Breakdown.IsEmpty() {
		r.Breakdown = Breakdown{
			OK:      r.Stats.GoodProfiles,
			Default: r.Stats.BadProfiles,
			Fraud:   r.Stats.FraudCases,
		}
	}
	r.TotalCases = optInt(obj.Get("total_cases"))
	if r.TotalCases == nil {
		r.TotalCases = r.Stats.TotalSimilarCases
	}

	if !r.hasContent() {
		return nil
	}
	return r
}

func extractSimilarityStats(v gjson.Result) SimilarityStats {
	if !v.IsObject() {
		return SimilarityStats{}
	}
	return SimilarityStats{
		TotalSimilarCases:    optInt(v.Get("total_similar_cases")),
		GoodProfiles:         optInt(v.Get("similar_good_profiles")),
		BadProfiles:          optInt(v.Get("similar_bad_profiles")),
		FraudCases:           optInt(v.Get("fraud_cases")),
		AverageSimilarity:    firstFloat(v, "average_similarity", "avg_similarity"),
		RepaymentSuccessRate: optFloat(v.Get("repayment_success_rate")),
		DefaultRate:          optFloat(v.Get("default_rate")),
		FraudRatio:           optFloat(v.Get("fraud_ratio")),
		MinSimilarity:        optFloat(v.Get("min_similarity")),
		MedianSimilarity:     optFloat(v.Get("median_similarity")),
		MaxSimilarity:        optFloat(v.Get("max_similarity")),
	}
}

func extractBuckets(v gjson.Result) []Bucket {
	if !v.IsArray() {
		return nil
	}
	var out []Bucket
	for _, item := range v.Array() {
		if !item.IsObject() {
			continue
		}
		b := Bucket{
			Min:           optFloat(item.Get("min")),
			Max:           optFloat(item.Get("max")),
			Count:         optInt(item.Get("count")),
			DefaultRate:   optFloat(item.Get("default_rate")),
			FraudRate:     optFloat(item.Get("fraud_rate")),
			AvgSimilarity: optFloat(item.Get("avg_similarity")),
		}
		if label := optScalar(item.Get("label")); label != nil {
			b.Label = *label
		}
		out = append(out, b)
	}
	return out
}

func extractCases(v gjson.Result) []SimilarCase {
	if !v.IsArray() {
		return nil
	}
	var out []SimilarCase
	for _, item := range v.Array() {
		if !item.IsObject() {
			continue
		}
		c := SimilarCase{
			SimilarityPct:  optFloat(item.Get("similarity_pct")),
			Status:         ParseCaseStatus(item.Get("status").String()),
			LoanAmount:     optFloat(item.Get("loan_amount")),
			LoanDuration:   optInt(item.Get("loan_duration")),
			EmploymentType: optString(item.Get("employment_type")),
			ContractType:   optString(item.Get("contract_type")),
		}
		if c.SimilarityPct == nil {
			if score := optFloat(item.Get("similarity_score")); score != nil {
				pct := math.Round(*score * 100)
				c.SimilarityPct = &pct
			}
		}
		if id := optScalar(item.Get("case_id")); id != nil {
			c.CaseID = *id
		}
		if item.Get("is_fraud").Type == gjson.True {
			c.Status = CaseFraud
		}
		out = append(out, c)
	}
	return out
}

func extractAnalysis(v gjson.Result) SimilarityAnalysis {
	if !v.IsObject() {
		return SimilarityAnalysis{}
	}
	a := SimilarityAnalysis{
		Recommendation:  optString(v.Get("recommendation")),
		RiskLevel:       optString(v.Get("risk_level")),
		RiskScore:       optFloat(v.Get("risk_score")),
		ConfidenceLevel: optString(v.Get("confidence_level")),
		PointsForts:     stringList(v.Get("points_forts")),
		PointsFaibles:   stringList(v.Get("points_faibles")),
		Conditions:      stringList(v.Get("conditions")),
		Summary:         optString(v.Get("summary")),
		Reasoning:       optString(v.Get("reasoning")),
	}
	a.PaymentHistoryNote = paymentHistoryText(v.Get("payment_history_assessment"))
	if a.PaymentHistoryNote == nil {
		a.PaymentHistoryNote = optString(v.Get("payment_history_note"))
	}
	return a
}

// ---------------------------------------------------------------------------
// Decision
// ---------------------------------------------------------------------------

// Recommendation is the decision agent's verdict.
type Recommendation string

const (
	RecommendApprove Recommendation = "approve"
	RecommendReject  Recommendation = "reject"
	RecommendReview  Recommendation = "review"
)

// ParseRecommendation accepts the English and French spellings agents use.
// Anything unrecognised is a review.
func ParseRecommendation(s string) Recommendation {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approve", "approved", "approuver", "approuvée", "accept":
		return RecommendApprove
	case "reject", "rejected", "refuser", "refusée", "deny":
		return RecommendReject
	default:
		return RecommendReview
	}
}

// Reason is one coded reason behind a decision.
type Reason struct {
	Code  string `json:"code" yaml:"code"`
	Label string `json:"label" yaml:"label"`
}

// Conflict records a disagreement between agents.
type Conflict struct {
	Type        string `json:"type" yaml:"type"`
	Severity    string `json:"severity,omitempty" yaml:"severity,omitempty"`
	Description string `json:"description" yaml:"description"`
}

// DecisionReport is the block shown for the decision agent.
type DecisionReport struct {
	Recommendation      Recommendation `json:"recommendation" yaml:"recommendation"`
	Confidence          *float64       `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	HumanReviewRequired bool           `json:"human_review_required" yaml:"human_review_required"`
	Summary             *string        `json:"summary,omitempty" yaml:"summary,omitempty"`
	Reasons             []Reason       `json:"reasons,omitempty" yaml:"reasons,omitempty"`
	ReviewTriggers      []string       `json:"review_triggers,omitempty" yaml:"review_triggers,omitempty"`
	Conflicts           []Conflict     `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
	RiskIndicators      []string       `json:"risk_indicators,omitempty" yaml:"risk_indicators,omitempty"`
}

func extractDecision(v gjson.Result) *DecisionReport {
	obj, ok := objectOrNil(v)
	if !ok {
		return nil
	}
	r := &DecisionReport{
		Recommendation: ParseRecommendation(obj.Get("recommendation").String()),
		Confidence:     optFloat(obj.Get("confidence")),
		Summary:        optString(obj.Get("summary")),
		ReviewTriggers: stringList(obj.Get("review_triggers")),
		RiskIndicators: stringList(obj.Get("risk_indicators")),
	}
	if b := optBool(obj.Get("human_review_required")); b != nil {
		r.HumanReviewRequired = *b
	}
	for _, item := range obj.Get("reasons").Array() {
		switch {
		case item.IsObject():
			reason := Reason{}
			if s := optScalar(item.Get("code")); s != nil {
				reason.Code = *s
			}
			if s := optString(item.Get("label")); s != nil {
				reason.Label = *s
			} else if reason.Code != "" {
				reason.Label = ResolveLabel(reason.Code, AgentDecision)
			}
			if reason.Code != "" || reason.Label != "" {
				r.Reasons = append(r.Reasons, reason)
			}
		case item.Type == gjson.String && strings.TrimSpace(item.Str) != "":
			code := strings.TrimSpace(item.Str)
			r.Reasons = append(r.Reasons, Reason{Code: code, Label: ResolveLabel(code, AgentDecision)})
		}
	}
	for _, item := range obj.Get("conflicts").Array() {
		switch {
		case item.IsObject():
			c := Conflict{
				Type:        item.Get("type").String(),
				Severity:    item.Get("severity").String(),
				Description: item.Get("description").String(),
			}
			if c.Type != "" || c.Description != "" {
				r.Conflicts = append(r.Conflicts, c)
			}
		case item.Type == gjson.String && strings.TrimSpace(item.Str) != "":
			r.Conflicts = append(r.Conflicts, Conflict{Description: strings.TrimSpace(item.Str)})
		}
	}
	return r
}

// ---------------------------------------------------------------------------
// Document
// ---------------------------------------------------------------------------

// ConsistencyLevel grades how well documents match the declared profile.
type ConsistencyLevel string

const (
	ConsistencyHigh   ConsistencyLevel = "high"
	ConsistencyMedium ConsistencyLevel = "medium"
	ConsistencyLow    ConsistencyLevel = "low"
)

func parseConsistency(v gjson.Result) *ConsistencyLevel {
	s := optString(v)
	if s == nil {
		return nil
	}
	var level ConsistencyLevel
	switch strings.ToLower(*s) {
	case "high", "haute", "elevee", "élevée":
		level = ConsistencyHigh
	case "medium", "moyenne", "modere", "modérée":
		level = ConsistencyMedium
	case "low", "faible", "basse":
		level = ConsistencyLow
	default:
		return nil
	}
	return &level
}

// ExtractedFields are the values read from the uploaded documents.
type ExtractedFields struct {
	IncomeDocumented       *float64 `json:"income_documented,omitempty" yaml:"income_documented,omitempty"`
	ContractTypeDetected   *string  `json:"contract_type_detected,omitempty" yaml:"contract_type_detected,omitempty"`
	SeniorityDetectedYears *float64 `json:"seniority_detected_years,omitempty" yaml:"seniority_detected_years,omitempty"`
}

// DocumentReport is the block shown for the document agent.
type DocumentReport struct {
	ConsistencyLevel   *ConsistencyLevel `json:"consistency_level,omitempty" yaml:"consistency_level,omitempty"`
	DDSScore           *float64          `json:"dds_score,omitempty" yaml:"dds_score,omitempty"`
	ExtractedFields    ExtractedFields   `json:"extracted_fields" yaml:"extracted_fields"`
	MissingDocuments   []string          `json:"missing_documents,omitempty" yaml:"missing_documents,omitempty"`
	SuspiciousPatterns []string          `json:"suspicious_patterns,omitempty" yaml:"suspicious_patterns,omitempty"`
}

func extractDocument(v gjson.Result) *DocumentReport {
	obj, ok := objectOrNil(v)
	if !ok {
		return nil
	}
	r := &DocumentReport{
		ConsistencyLevel:   parseConsistency(obj.Get("consistency_level")),
		DDSScore:           optFloat(obj.Get("dds_score")),
		MissingDocuments:   stringList(obj.Get("missing_documents")),
		SuspiciousPatterns: stringList(obj.Get("suspicious_patterns")),
	}
	if fields := obj.Get("extracted_fields"); fields.IsObject() {
		r.ExtractedFields = ExtractedFields{
			IncomeDocumented:       optFloat(fields.Get("income_documented")),
			ContractTypeDetected:   optString(fields.Get("contract_type_detected")),
			SeniorityDetectedYears: optFloat(fields.Get("seniority_detected_years")),
		}
	}
	return r
}

// ---------------------------------------------------------------------------

func firstFloat(obj gjson.Result, keys ...string) *float64 {
	for _, k := range keys {
		if f := optFloat(obj.Get(k)); f != nil {
			return f
		}
	}
	return nil
}
