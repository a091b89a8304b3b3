package cmd

import "encoding/json"

func decodeFixture(raw string) map[string]any {
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		panic(err)
	}
	return out
}

// bankerRequestFixture needs a human review according to its decision agent.
func bankerRequestFixture() map[string]any {
	return decodeFixture(`{
		"id": "42",
		"status": "in_review",
		"created_at": "2026-03-02T09:00:00",
		"updated_at": "2026-03-03T10:30:00",
		"client_id": "c-7",
		"summary": "Dossier complet, revenus stables.",
		"auto_decision": "review",
		"auto_review_required": true,
		"amount": 15000,
		"duration_months": 48,
		"monthly_income": 3200,
		"monthly_charges": 900,
		"employment_type": "salarie",
		"contract_type": "CDI",
		"documents": ["bulletin.pdf"],
		"agents": {
			"decision": {
				"name": "decision",
				"score": 0.61,
				"flags": ["HUMAN_REVIEW_REQUIRED"],
				"explanations": {
					"global_summary": "Revue conseillée.",
					"decision_details": {
						"recommendation": "review",
						"confidence": 0.61,
						"human_review_required": true,
						"review_triggers": ["Revenus récents"]
					}
				}
			},
			"fraud": {
				"name": "fraud",
				"explanations": "{\"flags\": {\"IBAN_MISMATCH\": \"IBAN différent\"}, \"summary\": \"Signal faible\"}"
			}
		},
		"comments": [{"author_id": "b-1", "message": "Vu avec le client", "created_at": "2026-03-03T10:00:00"}]
	}`)
}

func decidedRequestFixture() map[string]any {
	return decodeFixture(`{
		"id": "41",
		"status": "approved",
		"created_at": "2026-03-01T08:00:00",
		"updated_at": "2026-03-01T12:00:00",
		"client_id": "c-3",
		"amount": 8000
	}`)
}

func oldRequestFixture() map[string]any {
	return decodeFixture(`{
		"id": "7",
		"status": "pending",
		"created_at": "2025-01-10T08:00:00",
		"updated_at": "2025-01-10T08:00:00",
		"client_id": "c-1"
	}`)
}

func clientRequestFixture() map[string]any {
	return decodeFixture(`{
		"id": "42",
		"status": "pending",
		"created_at": "2026-03-02T09:00:00",
		"updated_at": "2026-03-02T09:00:00",
		"client_id": "c-7",
		"summary": "Analyse en cours.",
		"auto_decision": "review",
		"agents": {
			"explanation": {
				"name": "explanation",
				"explanations": {
					"customer_explanation": {
						"summary": "Votre dossier est en cours d'étude.",
						"next_steps": ["Fournir le dernier avis d'imposition"]
					},
					"internal_explanation": {"summary": "Ne pas afficher au client"}
				}
			}
		}
	}`)
}
