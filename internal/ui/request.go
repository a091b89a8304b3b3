package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/josephgoksu/CreditDesk/internal/explain"
	"github.com/josephgoksu/CreditDesk/models"
)

// ScheduleLimit bounds the installment and payment lists.
const ScheduleLimit = 12

// RenderBankerLists renders the pending and decided sections of the banker
// inbox.
func RenderBankerLists(pending, decided []models.BankerRequest, since, lastSync time.Time, width int) string {
	var sb strings.Builder

	filter := "Tous les dossiers"
	if !since.IsZero() {
		filter = "Depuis le " + FormatDateTime(since)
	}
	sync := "Sync: " + Placeholder
	if !lastSync.IsZero() {
		sync = "Sync: " + FormatDateTime(lastSync)
	}
	sb.WriteString(StyleLabel.Render("Filtre des dossiers") + "  " + filter + "  " + StyleSubtle.Render(sync) + "\n\n")

	sb.WriteString(renderBankerSection("Demandes non traitées", pending, width))
	sb.WriteString("\n")
	sb.WriteString(renderBankerSection("Demandes traitées", decided, width))
	return sb.String()
}

func renderBankerSection(title string, reqs []models.BankerRequest, width int) string {
	var sb strings.Builder
	sb.WriteString(StyleSectionTitle.Render(title) + " " + StyleSubtle.Render(fmt.Sprintf("(%d)", len(reqs))) + "\n")
	if len(reqs) == 0 {
		sb.WriteString(StyleSubtle.Render("Aucune demande.") + "\n")
		return sb.String()
	}
	t := &Table{Headers: []string{"Demande", "Client", "Montant", "Durée", "Statut", "Créée le"}, MaxWidth: columnWidth(width, 6)}
	for _, r := range reqs {
		t.Rows = append(t.Rows, []string{
			r.ID,
			r.ClientID,
			FormatAmount(r.Amount),
			months(r.DurationMonths),
			StatusLabel(r.Status),
			FormatDateTime(r.CreatedAt.Time),
		})
	}
	sb.WriteString(t.Render())
	return sb.String()
}

// RenderClientList renders the client's own requests.
func RenderClientList(reqs []models.CreditRequest, width int) string {
	if len(reqs) == 0 {
		return StyleSubtle.Render("Aucune demande pour le moment.") + "\n"
	}
	t := &Table{Headers: []string{"Demande", "Statut", "Verdict", "Créée le", "Mise à jour"}, MaxWidth: columnWidth(width, 5)}
	for _, r := range reqs {
		t.Rows = append(t.Rows, []string{
			r.ID,
			StatusLabel(r.Status),
			Verdict(r.AutoDecision),
			FormatDateTime(r.CreatedAt.Time),
			FormatDateTime(r.UpdatedAt.Time),
		})
	}
	return t.Render()
}

// RenderClientRequest renders the applicant's view of a request. Only the
// explanation agent is shown, in customer mode.
func RenderClientRequest(req *models.CreditRequest, cache *explain.Cache, opts RenderOptions) string {
	var sb strings.Builder
	sb.WriteString(StyleHeader.Render("Demande #"+req.ID) + "\n\n")

	var verdict strings.Builder
	verdict.WriteString(VerdictBadge(req.AutoDecision) + "\n")
	if req.AutoDecisionConfidence != nil {
		verdict.WriteString("Confiance: " + FormatPercent(req.AutoDecisionConfidence) + "\n")
	}
	if req.AutoReviewRequired != nil && *req.AutoReviewRequired {
		verdict.WriteString(StyleWarning.Render("Revue humaine requise.") + "\n")
	}
	sb.WriteString(RenderPanel("Verdict automatique", verdict.String()) + "\n")

	status := StatusStyle(string(req.Status)).Render(StatusLabel(req.Status))
	if req.CustomerExplanation != "" {
		status += "\n" + WrapText(req.CustomerExplanation, panelWidth(opts.Width))
	}
	sb.WriteString(RenderPanel("Statut", status) + "\n")

	writeCore(&sb, req.RequestCore, opts)

	if r := req.Agents.Get(string(explain.AgentExplanation)); r != nil {
		customer := opts
		customer.Customer = true
		e := cache.Normalize(r.Name, r.Explanations)
		sb.WriteString(RenderPanel("", RenderAgent(*r, e, customer)) + "\n")
	}
	return sb.String()
}

// RenderBankerRequest renders the full banker view of a request: profile,
// documents, comments, decision and every agent panel.
func RenderBankerRequest(req *models.BankerRequest, cache *explain.Cache, opts RenderOptions) string {
	var sb strings.Builder
	sb.WriteString(StyleHeader.Render("Demande #"+req.ID) + " " + StatusStyle(string(req.Status)).Render(StatusLabel(req.Status)) + "\n\n")

	var profile strings.Builder
	kv := func(label, value string) {
		profile.WriteString(StyleLabel.Render(label+": ") + value + "\n")
	}
	kv("Client", req.ClientID)
	kv("Montant", FormatAmount(req.Amount))
	kv("Durée", months(req.DurationMonths))
	kv("Revenu mensuel", FormatAmount(req.MonthlyIncome))
	if req.OtherIncome != nil {
		kv("Autres revenus", FormatAmount(req.OtherIncome))
	}
	kv("Charges mensuelles", FormatAmount(req.MonthlyCharges))
	kv("Emploi", orPlaceholder(req.EmploymentType))
	kv("Contrat", orPlaceholder(req.ContractType))
	if req.SeniorityYears != nil {
		kv("Ancienneté", strconv.FormatFloat(*req.SeniorityYears, 'f', -1, 64)+" ans")
	}
	if req.MaritalStatus != "" {
		kv("Situation familiale", req.MaritalStatus)
	}
	if req.NumberOfChildren != nil {
		kv("Enfants", strconv.Itoa(*req.NumberOfChildren))
	}
	if req.HousingStatus != "" {
		kv("Logement", req.HousingStatus)
	}
	kv("Verdict automatique", Verdict(req.AutoDecision))
	if req.AutoDecisionConfidence != nil {
		kv("Confiance", FormatPercent(req.AutoDecisionConfidence))
	}
	kv("Créée le", FormatDateTime(req.CreatedAt.Time))
	kv("Mise à jour", FormatDateTime(req.UpdatedAt.Time))
	sb.WriteString(RenderPanel("Profil déclaré", profile.String()) + "\n")

	if len(req.Documents) > 0 {
		t := &Table{Headers: []string{"Type", "Fichier", "Déposé le"}, MaxWidth: columnWidth(opts.Width, 3)}
		for _, d := range req.Documents {
			t.Rows = append(t.Rows, []string{orPlaceholder(d.DocumentType), orPlaceholder(d.FilePath), FormatDateTime(d.UploadedAt.Time)})
		}
		sb.WriteString(StyleSectionTitle.Render("Documents") + "\n" + t.Render() + "\n")
	}

	writeCore(&sb, req.RequestCore, opts)

	for _, r := range req.Agents.Results() {
		e := cache.Normalize(r.Name, r.Explanations)
		sb.WriteString(RenderPanel("", RenderAgent(r, e, opts)) + "\n")
	}
	return sb.String()
}

// writeCore renders the sections both audiences share.
func writeCore(sb *strings.Builder, core models.RequestCore, opts RenderOptions) {
	if d := core.Decision; d != nil {
		var body strings.Builder
		body.WriteString(StyleBadge.Render(DecisionLabel(string(d.Decision))) + "\n")
		if d.Note != "" {
			body.WriteString(d.Note + "\n")
		}
		if d.DecidedAt != nil {
			body.WriteString(StyleSubtle.Render("Décidé le "+FormatTimestamp(d.DecidedAt)) + "\n")
		}
		sb.WriteString(RenderPanel("Décision", body.String()) + "\n")
	}

	summary := core.Summary
	if summary == "" {
		summary = StyleSubtle.Render("Résumé non disponible")
	}
	sb.WriteString(RenderPanel("Résumé", WrapText(summary, panelWidth(opts.Width))) + "\n")

	if l := core.Loan; l != nil {
		rate := l.InterestRate * 100
		body := fmt.Sprintf("Montant: %s\nTaux: %.2f%%\nDurée: %d mois\nStatut: %s\nDébut: %s\nFin: %s",
			FormatAmount(&l.PrincipalAmount), rate, l.TermMonths, l.Status, dateOf(l.StartDate), dateOf(l.EndDate))
		sb.WriteString(RenderPanel("Prêt", body) + "\n")
	}

	if s := core.PaymentBehaviorSummary; s != nil {
		body := fmt.Sprintf("Taux à l'heure: %s\nRetard moyen: %.1f jours\nRetard max: %d jours\nTranches manquées: %d\nDernier paiement: %s",
			FormatPercent(&s.OnTimeRate), s.AvgDaysLate, s.MaxDaysLate, s.MissedInstallments, dateOf(s.LastPaymentDate))
		sb.WriteString(RenderPanel("Historique de paiement", body) + "\n")
	}

	if len(core.Installments) > 0 {
		sb.WriteString(StyleSectionTitle.Render("Tranches prévues") + "\n")
		sb.WriteString(InstallmentsTable(core.Installments, ScheduleLimit).Render())
		if extra := len(core.Installments) - ScheduleLimit; extra > 0 {
			sb.WriteString(StyleSubtle.Render(fmt.Sprintf("%d tranches supplémentaires…", extra)) + "\n")
		}
		sb.WriteString("\n")
	}

	if len(core.Payments) > 0 {
		sb.WriteString(StyleSectionTitle.Render("Paiements réalisés") + "\n")
		sb.WriteString(PaymentsTable(core.Payments, ScheduleLimit).Render())
		if extra := len(core.Payments) - ScheduleLimit; extra > 0 {
			sb.WriteString(StyleSubtle.Render(fmt.Sprintf("%d paiements supplémentaires…", extra)) + "\n")
		}
		sb.WriteString("\n")
	}

	if len(core.Comments) > 0 {
		var body strings.Builder
		for _, c := range core.Comments {
			body.WriteString(StyleLabel.Render(c.AuthorID) + ": " + c.Message + "\n")
		}
		sb.WriteString(RenderPanel("Commentaires du banquier", body.String()) + "\n")
	}
}

// InstallmentsTable lists at most limit installments.
func InstallmentsTable(items []models.InstallmentInfo, limit int) *Table {
	t := &Table{Headers: []string{"#", "Échéance", "Montant", "Statut", "Retard", "Payé"}}
	for i, inst := range items {
		if i >= limit {
			break
		}
		late := ""
		if inst.DaysLate != nil && *inst.DaysLate > 0 {
			late = fmt.Sprintf("%dj", *inst.DaysLate)
		}
		paid := ""
		if inst.AmountPaid != 0 {
			paid = FormatAmount(&inst.AmountPaid)
		}
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(inst.InstallmentNumber),
			FormatDate(inst.DueDate.Time),
			FormatAmount(&inst.AmountDue),
			inst.Status,
			late,
			paid,
		})
	}
	return t
}

// PaymentsTable lists at most limit payments.
func PaymentsTable(items []models.PaymentInfo, limit int) *Table {
	t := &Table{Headers: []string{"Date", "Montant", "Canal", "Statut"}}
	for i, p := range items {
		if i >= limit {
			break
		}
		status := p.Status
		if p.IsReversal {
			status += " (reversal)"
		}
		t.Rows = append(t.Rows, []string{FormatDate(p.PaymentDate.Time), FormatAmount(&p.Amount), p.Channel, status})
	}
	return t
}

func months(n *int) string {
	if n == nil {
		return Placeholder
	}
	return fmt.Sprintf("%d mois", *n)
}

func dateOf(t *models.Timestamp) string {
	if t == nil {
		return Placeholder
	}
	return FormatDate(t.Time)
}

func orPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}

func panelWidth(width int) int {
	if width <= 0 {
		return 0
	}
	if width-4 < 20 {
		return 20
	}
	return width - 4
}
