package ui

import (
	"fmt"
	"time"

	"github.com/josephgoksu/CreditDesk/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Placeholder is shown for missing values.
const Placeholder = "—"

// DisplayLocation is the zone dates are shown in.
var DisplayLocation = time.Local

var frPrinter = message.NewPrinter(language.French)

// FormatCurrency formats an amount with French grouping and two decimals.
func FormatCurrency(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return frPrinter.Sprintf("%.2f", *v)
}

// FormatAmount is FormatCurrency with the euro sign.
func FormatAmount(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return FormatCurrency(v) + " €"
}

// FormatPercent renders a ratio in [0,1] as a whole percentage.
func FormatPercent(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return fmt.Sprintf("%.0f%%", *v*100)
}

// FormatScore renders an agent score with two decimals.
func FormatScore(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return fmt.Sprintf("%.2f", *v)
}

// FormatDate renders the day part of t as dd/mm/yyyy.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return Placeholder
	}
	return t.In(DisplayLocation).Format("02/01/2006")
}

// FormatDateTime renders t as dd/mm/yyyy hh:mm:ss.
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return Placeholder
	}
	return t.In(DisplayLocation).Format("02/01/2006 15:04:05")
}

// FormatTimestamp is FormatDateTime for optional backend timestamps.
func FormatTimestamp(t *models.Timestamp) string {
	if t == nil {
		return Placeholder
	}
	return FormatDateTime(t.Time)
}

// StatusLabel is the French label of a request status.
func StatusLabel(status models.RequestStatus) string {
	switch status {
	case models.StatusPending:
		return "En attente"
	case models.StatusInReview:
		return "En revue"
	case models.StatusApproved:
		return "Approuvée"
	case models.StatusRejected:
		return "Refusée"
	case "":
		return Placeholder
	default:
		return string(status)
	}
}

// DecisionLabel is the French label of a decision value.
func DecisionLabel(d string) string {
	switch d {
	case "approve":
		return "Approuver"
	case "reject":
		return "Refuser"
	case "review":
		return "Revue"
	case "":
		return Placeholder
	default:
		return d
	}
}

// Verdict maps the automatic decision to the client traffic light.
func Verdict(autoDecision string) string {
	switch autoDecision {
	case "approve":
		return "Vert (faible risque)"
	case "reject":
		return "Rouge (risque élevé)"
	default:
		return "Orange (revue)"
	}
}

// VerdictBadge renders Verdict in its color.
func VerdictBadge(autoDecision string) string {
	style := StyleBadge.Foreground(ColorWarning)
	switch autoDecision {
	case "approve":
		style = StyleBadge.Foreground(ColorSuccess)
	case "reject":
		style = StyleBadge.Foreground(ColorError)
	}
	return style.Render(Verdict(autoDecision))
}
