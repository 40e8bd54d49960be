package domain

// PolicyInput summarizes a seal request for admission policy evaluation.
// Evidence bytes are never handed to the policy engine.
type PolicyInput struct {
	EvidenceCount     int      `json:"evidence_count"`
	MediaTypes        []string `json:"media_types"`
	TotalBytes        int64    `json:"total_bytes"`
	GeolocationStatus string   `json:"geolocation_status"`
}

type PolicyDecision struct {
	Allow   bool     `json:"allow"`
	Reasons []string `json:"reasons,omitempty"`
}
