package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/josephgoksu/CreditDesk/internal/explain"
	"github.com/josephgoksu/CreditDesk/models"
)

// RenderOptions tunes agent rendering.
type RenderOptions struct {
	// MaxItems bounds list lengths and each level of the raw dump.
	MaxItems int
	// Width is the available terminal width. Zero means unbounded.
	Width int
	// Customer limits the panel to what an applicant may see.
	Customer bool
}

func (o RenderOptions) maxItems() int {
	if o.MaxItems <= 0 {
		return DefaultMaxItems
	}
	return o.MaxItems
}

// AgentTitle is the French heading for an agent.
func AgentTitle(name explain.AgentName) string {
	switch name {
	case explain.AgentDocument:
		return "Analyse documentaire"
	case explain.AgentSimilarity:
		return "Dossiers similaires"
	case explain.AgentFraud:
		return "Détection de fraude"
	case explain.AgentDecision:
		return "Décision"
	case explain.AgentExplanation:
		return "Explication"
	case explain.AgentBehavior:
		return "Comportement de paiement"
	case explain.AgentImage:
		return "Analyse d'images"
	default:
		return "Agent"
	}
}

// RenderAgent renders one agent result and its normalized explanation.
func RenderAgent(r models.AgentResult, e explain.Explanation, opts RenderOptions) string {
	var sb strings.Builder

	title := AgentTitle(e.Agent)
	if e.Agent == explain.AgentUnknown && r.Name != "" {
		title = r.Name
	}
	header := []string{StyleHeader.Render(title)}
	if r.Score != nil {
		header = append(header, StyleBadge.Render("Score: "+FormatScore(r.Score)))
	}
	if r.Confidence != nil {
		header = append(header, StyleBadge.Render("Confiance: "+FormatPercent(r.Confidence)))
	}
	sb.WriteString(strings.Join(header, " ") + "\n")

	if len(r.Flags) > 0 && !opts.Customer {
		labels := make([]string, 0, len(r.Flags))
		for _, code := range r.Flags {
			labels = append(labels, flagLabel(code, explain.ResolveLabel(code, e.Agent)))
		}
		sb.WriteString(StyleLabel.Render("Signaux: ") + strings.Join(labels, ", ") + "\n")
	}

	sb.WriteString(RenderExplanation(e, opts))
	return sb.String()
}

// RenderExplanation renders the body of a normalized explanation.
func RenderExplanation(e explain.Explanation, opts RenderOptions) string {
	w := &section{max: opts.maxItems(), width: opts.Width}

	if s, ok := e.VisibleSummary(); ok {
		w.para(s)
	}

	if c := e.Customer; !c.IsEmpty() {
		w.field("Client", c.Summary)
		w.list("Raisons client", c.MainReasons)
		w.list("Prochaines étapes", c.NextSteps)
	}

	if opts.Customer {
		return w.String()
	}

	if in := e.Internal; !in.IsEmpty() {
		w.field("Interne", in.Summary)
		w.list("Facteurs clés", in.KeyFactors)
		w.list("Signaux complémentaires", in.SupportingSignals)
		w.field("Historique de paiement", in.PaymentHistory)
		w.field("Niveau de risque", in.RiskLevel)
	}

	if len(e.Flags) > 0 {
		w.title("Détails")
		for i, f := range e.Flags {
			if i >= w.max {
				w.more(len(e.Flags)-w.max, "éléments")
				break
			}
			w.line("• " + StyleLabel.Render(flagLabel(f.Code, f.Label)+":") + " " + f.Text)
		}
	}

	switch e.Block {
	case explain.BlockSimilarity:
		renderSimilarity(w, e.Similarity)
	case explain.BlockDecision:
		renderDecision(w, e.Decision)
	case explain.BlockDocument:
		renderDocument(w, e.Document)
	}

	if e.NeedsDump() {
		w.title("Sortie brute")
		w.raw(RenderDump(e.Payload.Value(), w.max))
	} else if !e.HasReadableContent {
		w.line(StyleSubtle.Render("Aucune explication disponible."))
	}
	return w.String()
}

func flagLabel(code, label string) string {
	if label == "" || label == code {
		return code
	}
	return label + " (" + code + ")"
}

func renderSimilarity(w *section, r *explain.SimilarityReport) {
	if r == nil {
		return
	}
	w.title("Dossiers similaires")
	w.line(StyleLabel.Render("Cas similaires: ") + strconv.Itoa(r.Total()))

	okPct, defPct, fraudPct := r.Breakdown.Percentages()
	w.line(StackedBar(r.Breakdown, 30))
	w.line(fmt.Sprintf("OK %.0f%% (%d) · Défaut %.0f%% (%d) · Fraude %.0f%% (%d)",
		okPct, intOr(r.Breakdown.OK), defPct, intOr(r.Breakdown.Default), fraudPct, intOr(r.Breakdown.Fraud)))

	if len(r.Buckets) > 0 {
		t := &Table{Headers: []string{"Tranche", "Cas", "Défaut", "Fraude", "Similarité moy."}, MaxWidth: columnWidth(w.width, 5)}
		for i, b := range r.Buckets {
			if i >= w.max {
				break
			}
			t.Rows = append(t.Rows, []string{b.Label, intText(b.Count), FormatPercent(b.DefaultRate), FormatPercent(b.FraudRate), FormatPercent(b.AvgSimilarity)})
		}
		w.raw(t.Render())
		if len(r.Buckets) > w.max {
			w.more(len(r.Buckets)-w.max, "éléments")
		}
	}

	if len(r.Cases) > 0 {
		t := &Table{Headers: []string{"Cas", "Similarité", "Statut", "Montant", "Durée", "Emploi", "Contrat"}, MaxWidth: columnWidth(w.width, 7)}
		for i, c := range r.Cases {
			if i >= w.max {
				break
			}
			sim := Placeholder
			if c.SimilarityPct != nil {
				sim = fmt.Sprintf("%.0f%%", *c.SimilarityPct)
			}
			duration := Placeholder
			if c.LoanDuration != nil {
				duration = fmt.Sprintf("%d mois", *c.LoanDuration)
			}
			t.Rows = append(t.Rows, []string{c.CaseID, sim, string(c.Status), FormatAmount(c.LoanAmount), duration, strOr(c.EmploymentType), strOr(c.ContractType)})
		}
		w.raw(t.Render())
		if len(r.Cases) > w.max {
			w.more(len(r.Cases)-w.max, "éléments")
		}
	}

	if s := r.Stats; !s.IsEmpty() {
		w.title("Statistiques")
		w.pct("Similarité moyenne", s.AverageSimilarity)
		w.pct("Taux de remboursement", s.RepaymentSuccessRate)
		w.pct("Taux de défaut", s.DefaultRate)
		w.pct("Ratio de fraude", s.FraudRatio)
		if s.MinSimilarity != nil || s.MedianSimilarity != nil || s.MaxSimilarity != nil {
			w.line(StyleLabel.Render("Similarité min / médiane / max: ") +
				FormatPercent(s.MinSimilarity) + " / " + FormatPercent(s.MedianSimilarity) + " / " + FormatPercent(s.MaxSimilarity))
		}
	}

	if a := r.Analysis; a != nil {
		w.title("Analyse")
		w.field("Recommandation", a.Recommendation)
		w.field("Niveau de risque", a.RiskLevel)
		if a.RiskScore != nil {
			w.line(StyleLabel.Render("Score de risque: ") + FormatScore(a.RiskScore))
		}
		w.field("Confiance", a.ConfidenceLevel)
		w.list("Points forts", a.PointsForts)
		w.list("Points faibles", a.PointsFaibles)
		w.list("Conditions", a.Conditions)
		w.field("Historique de paiement", a.PaymentHistoryNote)
		w.field("Synthèse", a.Summary)
		w.field("Raisonnement", a.Reasoning)
	}

	if r.Report != nil {
		w.title("Rapport")
		w.para(*r.Report)
	}
}

func renderDecision(w *section, d *explain.DecisionReport) {
	if d == nil {
		return
	}
	w.title("Décision")
	rec := StyleBadge.Render(DecisionLabel(string(d.Recommendation)))
	if d.Confidence != nil {
		rec += " " + StyleSubtle.Render("confiance "+FormatPercent(d.Confidence))
	}
	w.line(StyleLabel.Render("Recommandation: ") + rec)
	if d.HumanReviewRequired {
		w.line(StyleWarning.Render("⚠ Revue humaine requise."))
	}
	if d.Summary != nil {
		w.para(*d.Summary)
	}
	if len(d.Reasons) > 0 {
		labels := make([]string, len(d.Reasons))
		for i, r := range d.Reasons {
			labels[i] = flagLabel(r.Code, r.Label)
		}
		w.list("Motifs", labels)
	}
	if len(d.ReviewTriggers) > 0 {
		labels := make([]string, len(d.ReviewTriggers))
		for i, code := range d.ReviewTriggers {
			labels[i] = explain.ResolveLabel(code, explain.AgentDecision)
		}
		w.list("Déclencheurs de revue", labels)
	}
	if len(d.Conflicts) > 0 {
		items := make([]string, len(d.Conflicts))
		for i, c := range d.Conflicts {
			var sb strings.Builder
			if c.Severity != "" {
				sb.WriteString("[" + c.Severity + "] ")
			}
			if c.Type != "" {
				sb.WriteString(c.Type + ": ")
			}
			sb.WriteString(c.Description)
			items[i] = sb.String()
		}
		w.list("Conflits entre agents", items)
	}
	w.list("Indicateurs de risque", d.RiskIndicators)
}

func renderDocument(w *section, d *explain.DocumentReport) {
	if d == nil {
		return
	}
	w.title("Documents")
	if d.ConsistencyLevel != nil {
		w.line(StyleLabel.Render("Cohérence: ") + consistencyLabel(*d.ConsistencyLevel))
	}
	if d.DDSScore != nil {
		w.line(StyleLabel.Render("Score DDS: ") + FormatScore(d.DDSScore))
	}
	f := d.ExtractedFields
	if f.IncomeDocumented != nil {
		w.line(StyleLabel.Render("Revenu justifié: ") + FormatAmount(f.IncomeDocumented))
	}
	w.field("Contrat détecté", f.ContractTypeDetected)
	if f.SeniorityDetectedYears != nil {
		w.line(StyleLabel.Render("Ancienneté détectée: ") + strconv.FormatFloat(*f.SeniorityDetectedYears, 'f', -1, 64) + " ans")
	}
	missing := make([]string, len(d.MissingDocuments))
	for i, code := range d.MissingDocuments {
		missing[i] = explain.ResolveLabel(code, explain.AgentDocument)
	}
	w.list("Documents manquants", missing)
	w.list("Motifs suspects", d.SuspiciousPatterns)
}

func consistencyLabel(l explain.ConsistencyLevel) string {
	switch l {
	case explain.ConsistencyHigh:
		return StyleSuccess.Render("élevée")
	case explain.ConsistencyMedium:
		return StyleWarning.Render("moyenne")
	case explain.ConsistencyLow:
		return StyleError.Render("faible")
	default:
		return string(l)
	}
}

// StackedBar draws the OK/default/fraud split as a bar of width cells.
func StackedBar(b explain.Breakdown, width int) string {
	if width <= 0 {
		return ""
	}
	total := b.Sum()
	if total <= 0 {
		return StyleSubtle.Render(strings.Repeat("░", width))
	}
	okPct, defPct, _ := b.Percentages()
	okCells := clampCells(int(okPct/100*float64(width)+0.5), width)
	defCells := clampCells(int((okPct+defPct)/100*float64(width)+0.5)-okCells, width-okCells)
	fraudCells := width - okCells - defCells
	return StyleSuccess.Render(strings.Repeat("█", okCells)) +
		StyleWarning.Render(strings.Repeat("█", defCells)) +
		StyleError.Render(strings.Repeat("█", fraudCells))
}

func clampCells(n, width int) int {
	return max(0, min(n, width))
}

func intOr(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func intText(p *int) string {
	if p == nil {
		return Placeholder
	}
	return strconv.Itoa(*p)
}

func strOr(p *string) string {
	if p == nil {
		return Placeholder
	}
	return *p
}

// section accumulates rendered lines with consistent indentation.
type section struct {
	sb    strings.Builder
	max   int
	width int
}

func (s *section) String() string { return s.sb.String() }

func (s *section) line(text string) {
	s.sb.WriteString(text + "\n")
}

func (s *section) raw(text string) {
	s.sb.WriteString(text)
	if text != "" && !strings.HasSuffix(text, "\n") {
		s.sb.WriteString("\n")
	}
}

func (s *section) para(text string) {
	if s.width > 0 {
		text = WrapText(text, s.width)
	}
	s.line(text)
}

func (s *section) title(text string) {
	s.line("")
	s.line(StyleSectionTitle.Render(text))
}

func (s *section) field(label string, value *string) {
	if value == nil {
		return
	}
	s.para(StyleLabel.Render(label+":") + " " + *value)
}

func (s *section) pct(label string, value *float64) {
	if value == nil {
		return
	}
	s.line(StyleLabel.Render(label+": ") + FormatPercent(value))
}

func (s *section) list(label string, items []string) {
	if len(items) == 0 {
		return
	}
	s.line(StyleLabel.Render(label + ":"))
	for i, item := range items {
		if i >= s.max {
			s.more(len(items)-s.max, "éléments")
			return
		}
		s.line("  • " + item)
	}
}

func (s *section) more(n int, noun string) {
	s.line(StyleSubtle.Render(fmt.Sprintf("  … %d %s supplémentaires", n, noun)))
}
