package explain

import "strings"

// flagLabels holds the display label of every flag code an agent is known to
// emit. Only four agents have tables; the other agents' codes are shown as-is.
// The maps are never written after initialization.
var flagLabels = map[AgentName]map[string]string{
	AgentDocument: {
		"MISSING_DOCUMENTS":        "Documents manquants",
		"MISSING_KEY_FIELDS":       "Champs clés manquants",
		"INCOME_MISMATCH":          "Revenus incohérents avec les justificatifs",
		"INCOME_NOT_DOCUMENTED":    "Revenus non justifiés",
		"CONTRACT_MISMATCH":        "Type de contrat incohérent",
		"SENIORITY_MISMATCH":       "Ancienneté incohérente",
		"LOW_DOCUMENT_CONSISTENCY": "Faible cohérence documentaire",
		"SUSPICIOUS_PATTERN":       "Motif suspect détecté",
		"UNREADABLE_DOCUMENT":      "Document illisible",
		"DOCUMENT_EXPIRED":         "Document expiré",
		"DUPLICATE_DOCUMENT":       "Document en double",
	},
	AgentBehavior: {
		"NO_PAYMENT_HISTORY":        "Aucun historique de paiement",
		"LOW_ON_TIME_RATE":          "Taux de paiements à l'heure faible",
		"LATE_PAYMENTS_AVG":         "Retards de paiement fréquents",
		"MAX_LATE_HIGH":             "Retard maximal élevé",
		"MISSED_INSTALLMENTS":       "Échéances impayées",
		"REPEATED_MISSES":           "Impayés répétés",
		"PAYMENT_HISTORY_EXCELLENT": "Historique de paiement excellent",
		"MISSING_TELEMETRY":         "Télémétrie du formulaire absente",
		"RAPID_SUBMISSION":          "Soumission anormalement rapide",
		"LONG_HESITATION":           "Hésitation prolongée",
		"MULTIPLE_EDITS":            "Modifications multiples",
		"INCOME_REWRITES":           "Revenus ressaisis plusieurs fois",
		"DOCUMENT_REUPLOADS":        "Documents rechargés plusieurs fois",
		"BACK_AND_FORTH":            "Allers-retours dans le formulaire",
	},
	AgentSimilarity: {
		"LOW_AVG_SIMILARITY":     "Similarité moyenne faible",
		"HIGH_DEFAULT_RATE":      "Taux de défaut élevé parmi les cas similaires",
		"HIGH_FRAUD_RATIO":       "Proportion de fraudes élevée parmi les cas similaires",
		"FEW_SIMILAR_CASES":      "Peu de cas similaires",
		"NO_SIMILAR_CASES":       "Aucun cas similaire",
		"SIMILARITY_UNAVAILABLE": "Recherche de similarité indisponible",
		"AI_ANALYSIS_FALLBACK":   "Analyse automatique indisponible",
	},
	AgentDecision: {
		"HUMAN_REVIEW_REQUIRED": "Revue humaine requise",
		"AGENT_CONFLICT":        "Conflit entre agents",
		"HIGH_RISK_SCORE":       "Score de risque élevé",
		"LOW_CONFIDENCE":        "Confiance faible",
		"PAYMENT_HISTORY_BAD":   "Historique de paiement défavorable",
		"PAYMENT_HISTORY_GOOD":  "Historique de paiement favorable",
		"PAYMENT_HISTORY_MIXED": "Historique de paiement mitigé",
		"FRAUD_SUSPECTED":       "Suspicion de fraude",
		"DOCUMENTS_INCOMPLETE":  "Dossier documentaire incomplet",
	},
}

// ResolveLabel returns the display label for a flag code emitted by agent.
// Codes are matched case-insensitively. Unknown agents and unknown codes
// resolve to the code itself, unmodified.
func ResolveLabel(code string, agent AgentName) string {
	table, ok := flagLabels[agent]
	if !ok {
		return code
	}
	if label, ok := table[strings.ToUpper(code)]; ok {
		return label
	}
	return code
}
