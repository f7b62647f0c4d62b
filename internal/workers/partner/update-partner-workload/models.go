// internal/workers/partner/update-partner-workload/models.go
package updatepartnerworkload

type Input struct {
	PartnerID string `json:"partnerId"`
	Workload  *int   `json:"workload"`
}

type Output struct {
	PartnerID         string `json:"partnerId"`
	Workload          int    `json:"workload"`
	AvailableCapacity int    `json:"availableCapacity"`
}
