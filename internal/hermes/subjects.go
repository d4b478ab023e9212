package hermes

import "strings"

const (
	SubjectWeightsAll = "stratix.weights.>"
	// SubjectWeightsSavedAll matches saved-weight events of every tenant and item.
	SubjectWeightsSavedAll = "stratix.weights.*.*.saved"

	// QueueGroup load-balances subscriptions across service replicas.
	QueueGroup = "stratix"

	StreamName   = "STRATIX_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

// StreamSubjects are the subjects persisted in StreamName.
var StreamSubjects = []string{"stratix.kpi.>", SubjectWeightsAll}

func SubjectKPISummary(tenantID string) string { return "stratix.kpi." + tenantID + ".summary" }

func SubjectStrategicRisk(tenantID string) string { return "stratix.kpi." + tenantID + ".strategic" }

func SubjectWeightsSaved(tenantID, itemID string) string {
	return "stratix.weights." + tenantID + "." + itemID + ".saved"
}

func SubjectWeightsInvalid(tenantID, itemID string) string {
	return "stratix.weights." + tenantID + "." + itemID + ".invalid"
}

// TenantFromSubject extracts the tenant token from a stratix.kpi or
// stratix.weights subject.
func TenantFromSubject(subject string) (string, bool) {
	parts := strings.Split(subject, ".")
	if len(parts) < 4 || parts[0] != "stratix" {
		return "", false
	}
	return parts[2], parts[2] != ""
}
