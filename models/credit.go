package models

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// RequestStatus is the lifecycle state of a credit request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusInReview RequestStatus = "in_review"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// Decided reports whether a banker has closed the request.
func (s RequestStatus) Decided() bool {
	return s == StatusApproved || s == StatusRejected
}

// Role is the kind of user behind a session.
type Role string

const (
	RoleClient Role = "client"
	RoleBanker Role = "banker"
)

// DecisionValue is a banker (or automatic) verdict.
type DecisionValue string

const (
	DecisionApprove DecisionValue = "approve"
	DecisionReject  DecisionValue = "reject"
	DecisionReview  DecisionValue = "review"
)

// Timestamp decodes the backend's ISO dates, which may lack a zone.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses s with every layout the backend is known to emit.
// Zone-less values are taken as UTC.
func ParseTimestamp(s string) (Timestamp, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{t}, true
		}
	}
	return Timestamp{}, false
}

// UnmarshalJSON implements json.Unmarshaler. Unparseable values decode to
// the zero time rather than failing the whole record.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		t.Time = time.Time{}
		return nil
	}
	parsed, _ := ParseTimestamp(s)
	*t = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// AgentResult is one agent's output for one credit request. Explanations is
// kept raw; internal/explain normalizes it.
type AgentResult struct {
	Name         string          `json:"name"`
	Score        *float64        `json:"score,omitempty"`
	Confidence   *float64        `json:"confidence,omitempty"`
	Flags        []string        `json:"flags,omitempty"`
	Explanations json.RawMessage `json:"explanations,omitempty"`
}

// AgentBundle holds the results of every agent that ran on a request.
type AgentBundle struct {
	Document    *AgentResult `json:"document,omitempty"`
	Similarity  *AgentResult `json:"similarity,omitempty"`
	Fraud       *AgentResult `json:"fraud,omitempty"`
	Decision    *AgentResult `json:"decision,omitempty"`
	Explanation *AgentResult `json:"explanation,omitempty"`
	Behavior    *AgentResult `json:"behavior,omitempty"`
	Image       *AgentResult `json:"image,omitempty"`
}

// Get returns the result of the named agent, or nil.
func (b *AgentBundle) Get(name string) *AgentResult {
	if b == nil {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "document":
		return b.Document
	case "similarity":
		return b.Similarity
	case "fraud":
		return b.Fraud
	case "decision":
		return b.Decision
	case "explanation":
		return b.Explanation
	case "behavior":
		return b.Behavior
	case "image":
		return b.Image
	default:
		return nil
	}
}

// Results lists the present results in bundle order. A result missing its
// name gets the bundle key.
func (b *AgentBundle) Results() []AgentResult {
	if b == nil {
		return nil
	}
	var out []AgentResult
	for _, name := range []string{"document", "similarity", "fraud", "decision", "explanation", "behavior", "image"} {
		r := b.Get(name)
		if r == nil {
			continue
		}
		res := *r
		if res.Name == "" {
			res.Name = name
		}
		out = append(out, res)
	}
	return out
}

// DocumentInfo describes an uploaded supporting document.
type DocumentInfo struct {
	DocumentID   int       `json:"document_id"`
	DocumentType string    `json:"document_type"`
	FilePath     string    `json:"file_path"`
	FileHash     string    `json:"file_hash"`
	UploadedAt   Timestamp `json:"uploaded_at"`
}

// UnmarshalJSON accepts either a document object or a bare file name, which
// older backends send.
func (d *DocumentInfo) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*d = DocumentInfo{DocumentType: name, FilePath: name}
		return nil
	}
	type plain DocumentInfo
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*d = DocumentInfo(p)
	return nil
}

// Comment is a banker note on a request.
type Comment struct {
	AuthorID  string    `json:"author_id"`
	Message   string    `json:"message"`
	CreatedAt Timestamp `json:"created_at"`
	IsPublic  *bool     `json:"is_public,omitempty"`
}

// DecisionInfo is the recorded decision on a request.
type DecisionInfo struct {
	Decision    DecisionValue  `json:"decision"`
	Confidence  *float64       `json:"confidence,omitempty"`
	ReasonCodes map[string]any `json:"reason_codes,omitempty"`
	Note        string         `json:"note,omitempty"`
	DecidedBy   string         `json:"decided_by,omitempty"`
	DecidedAt   *Timestamp     `json:"decided_at,omitempty"`
}

// LoanInfo is the loan created once a request is approved.
type LoanInfo struct {
	LoanID          int        `json:"loan_id"`
	UserID          int        `json:"user_id"`
	CaseID          *int       `json:"case_id,omitempty"`
	PrincipalAmount float64    `json:"principal_amount"`
	InterestRate    float64    `json:"interest_rate"`
	TermMonths      int        `json:"term_months"`
	Status          string     `json:"status"`
	ApprovedAt      *Timestamp `json:"approved_at,omitempty"`
	StartDate       *Timestamp `json:"start_date,omitempty"`
	EndDate         *Timestamp `json:"end_date,omitempty"`
	CreatedAt       Timestamp  `json:"created_at"`
}

// InstallmentInfo is one scheduled repayment.
type InstallmentInfo struct {
	InstallmentID     int        `json:"installment_id"`
	LoanID            int        `json:"loan_id"`
	InstallmentNumber int        `json:"installment_number"`
	DueDate           Timestamp  `json:"due_date"`
	AmountDue         float64    `json:"amount_due"`
	Status            string     `json:"status"`
	AmountPaid        float64    `json:"amount_paid"`
	PaidAt            *Timestamp `json:"paid_at,omitempty"`
	DaysLate          *int       `json:"days_late,omitempty"`
	CreatedAt         Timestamp  `json:"created_at"`
}

// PaymentInfo is one money movement against a loan.
type PaymentInfo struct {
	PaymentID     int       `json:"payment_id"`
	LoanID        int       `json:"loan_id"`
	InstallmentID *int      `json:"installment_id,omitempty"`
	PaymentDate   Timestamp `json:"payment_date"`
	Amount        float64   `json:"amount"`
	Channel       string    `json:"channel"`
	Status        string    `json:"status"`
	IsReversal    bool      `json:"is_reversal"`
	ReversalOf    *int      `json:"reversal_of,omitempty"`
	CreatedAt     Timestamp `json:"created_at"`
}

// PaymentBehaviorSummary aggregates a client's repayment history.
type PaymentBehaviorSummary struct {
	SummaryID          int        `json:"summary_id"`
	UserID             int        `json:"user_id"`
	TotalLoans         int        `json:"total_loans"`
	TotalInstallments  int        `json:"total_installments"`
	OnTimeInstallments int        `json:"on_time_installments"`
	LateInstallments   int        `json:"late_installments"`
	MissedInstallments int        `json:"missed_installments"`
	OnTimeRate         float64    `json:"on_time_rate"`
	AvgDaysLate        float64    `json:"avg_days_late"`
	MaxDaysLate        int        `json:"max_days_late"`
	AvgPaymentAmount   float64    `json:"avg_payment_amount"`
	LastPaymentDate    *Timestamp `json:"last_payment_date,omitempty"`
	UpdatedAt          Timestamp  `json:"updated_at"`
}

// RequestCore holds the fields shared by the client and banker views of a
// credit request.
type RequestCore struct {
	ID                     string                  `json:"id"`
	Status                 RequestStatus           `json:"status"`
	CreatedAt              Timestamp               `json:"created_at"`
	UpdatedAt              Timestamp               `json:"updated_at"`
	ClientID               string                  `json:"client_id"`
	Summary                string                  `json:"summary,omitempty"`
	Agents                 *AgentBundle            `json:"agents,omitempty"`
	Decision               *DecisionInfo           `json:"decision,omitempty"`
	Comments               []Comment               `json:"comments,omitempty"`
	AutoDecision           string                  `json:"auto_decision,omitempty"`
	AutoDecisionConfidence *float64                `json:"auto_decision_confidence,omitempty"`
	AutoReviewRequired     *bool                   `json:"auto_review_required,omitempty"`
	Loan                   *LoanInfo               `json:"loan,omitempty"`
	Installments           []InstallmentInfo       `json:"installments,omitempty"`
	Payments               []PaymentInfo           `json:"payments,omitempty"`
	PaymentBehaviorSummary *PaymentBehaviorSummary `json:"payment_behavior_summary,omitempty"`
}

// CreditRequest is the client's view of a request.
type CreditRequest struct {
	RequestCore
	CustomerExplanation string `json:"customer_explanation,omitempty"`
}

// BankerRequest is the banker's view of a request, including the declared
// profile and uploaded documents.
type BankerRequest struct {
	RequestCore
	Amount           *float64       `json:"amount,omitempty"`
	DurationMonths   *int           `json:"duration_months,omitempty"`
	MonthlyIncome    *float64       `json:"monthly_income,omitempty"`
	OtherIncome      *float64       `json:"other_income,omitempty"`
	MonthlyCharges   *float64       `json:"monthly_charges,omitempty"`
	EmploymentType   string         `json:"employment_type,omitempty"`
	ContractType     string         `json:"contract_type,omitempty"`
	SeniorityYears   *float64       `json:"seniority_years,omitempty"`
	MaritalStatus    string         `json:"marital_status,omitempty"`
	NumberOfChildren *int           `json:"number_of_children,omitempty"`
	SpouseEmployed   *bool          `json:"spouse_employed,omitempty"`
	HousingStatus    string         `json:"housing_status,omitempty"`
	IsPrimaryHolder  *bool          `json:"is_primary_holder,omitempty"`
	Documents        []DocumentInfo `json:"documents,omitempty"`
}

// SplitByStatus separates banker requests into pending work (pending or
// in_review) and decided requests (approved or rejected). Both groups are
// sorted by UpdatedAt, most recent first. Requests created before since are
// dropped when since is non-zero, and so are requests in any other status.
func SplitByStatus(reqs []BankerRequest, since time.Time) (pending, decided []BankerRequest) {
	for _, r := range reqs {
		if !since.IsZero() && r.CreatedAt.Before(since) {
			continue
		}
		switch r.Status {
		case StatusPending, StatusInReview:
			pending = append(pending, r)
		case StatusApproved, StatusRejected:
			decided = append(decided, r)
		}
	}
	byUpdatedDesc := func(list []BankerRequest) {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].UpdatedAt.After(list[j].UpdatedAt.Time)
		})
	}
	byUpdatedDesc(pending)
	byUpdatedDesc(decided)
	return pending, decided
}

// CreditRequestCreate is the body of a new or resubmitted request.
type CreditRequestCreate struct {
	Amount            float64           `json:"amount" validate:"required,gt=0"`
	DurationMonths    int               `json:"duration_months" validate:"required,min=1,max=480"`
	MonthlyIncome     float64           `json:"monthly_income" validate:"gte=0"`
	MonthlyCharges    float64           `json:"monthly_charges" validate:"gte=0"`
	EmploymentType    string            `json:"employment_type" validate:"required"`
	ContractType      string            `json:"contract_type" validate:"required"`
	SeniorityYears    float64           `json:"seniority_years" validate:"gte=0"`
	FamilyStatus      string            `json:"family_status" validate:"required"`
	Documents         []string          `json:"documents"`
	OtherIncome       *float64          `json:"other_income,omitempty" validate:"omitempty,gte=0"`
	MaritalStatus     string            `json:"marital_status,omitempty"`
	NumberOfChildren  *int              `json:"number_of_children,omitempty" validate:"omitempty,gte=0,lte=20"`
	SpouseEmployed    *bool             `json:"spouse_employed,omitempty"`
	HousingStatus     string            `json:"housing_status,omitempty"`
	IsPrimaryHolder   *bool             `json:"is_primary_holder,omitempty"`
	Telemetry         map[string]any    `json:"telemetry,omitempty"`
	DocumentsPayloads []map[string]any  `json:"documents_payloads,omitempty"`
	DocumentTexts     map[string]string `json:"document_texts,omitempty"`
	TransactionFlags  []string          `json:"transaction_flags,omitempty"`
	ImageFlags        []string          `json:"image_flags,omitempty"`
	FreeText          []string          `json:"free_text,omitempty"`
	DeclaredProfile   map[string]any    `json:"declared_profile,omitempty"`
}

// CommentCreate is the body of a new comment.
type CommentCreate struct {
	Message string `json:"message" validate:"required,min=1,max=4000"`
}

// DecisionCreate is the body of a banker decision.
type DecisionCreate struct {
	Decision DecisionValue `json:"decision" validate:"required,oneof=approve reject review"`
	Note     string        `json:"note,omitempty" validate:"max=4000"`
}

// LoginRequest is the body of a login call.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the backend's answer to a successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Role   Role   `json:"role"`
	UserID string `json:"user_id"`
}

// AgentChatMessage is one turn of a banker/agent conversation.
type AgentChatMessage struct {
	Role             string          `json:"role"`
	Content          string          `json:"content"`
	CreatedAt        Timestamp       `json:"created_at"`
	StructuredOutput json.RawMessage `json:"structured_output,omitempty"`
}

// AgentChatRequest asks an agent a follow-up question.
type AgentChatRequest struct {
	AgentName string `json:"agent_name" validate:"required,oneof=document similarity fraud decision explanation behavior image"`
	Message   string `json:"message" validate:"required,min=1"`
}

// RerunResponse is returned after the agents ran again on a request.
type RerunResponse struct {
	Status string       `json:"status"`
	Agents *AgentBundle `json:"agents,omitempty"`
}

// DecisionResponse is returned after a decision is recorded.
type DecisionResponse struct {
	Status RequestStatus `json:"status"`
	Note   string        `json:"note,omitempty"`
}

// AgentChatResponse is the full transcript with one agent.
type AgentChatResponse struct {
	AgentName string             `json:"agent_name"`
	Messages  []AgentChatMessage `json:"messages"`
}
