package client

import (
	"context"
	"net/http"
)

// DashboardStats is the role-shaped stats payload. The backend tags the
// response with the role it computed for and only populates the fields
// that role gets; everything optional is a pointer so absent and zero stay
// distinguishable.
type DashboardStats struct {
	Role string `json:"role"`

	// Admin and staff.
	TotalReports      *int `json:"totalReports"`
	VerifiedReports   *int `json:"verifiedReports"`
	UnverifiedReports *int `json:"unverifiedReports"`

	// Admin only.
	ClinicUsers  *int `json:"clinicUsers"`
	MedisysStaff *int `json:"medisysStaff"`

	// Staff only.
	ReportByTestType map[string]int `json:"reportByTestType"`

	// Clinic users.
	TotalUploads      *int    `json:"totalUploads"`
	VerifiedUploads   *int    `json:"verifiedUploads"`
	UnverifiedUploads *int    `json:"unverifiedUploads"`
	LastUploadTime    *string `json:"lastUploadTime"`

	// Derived locally for admins, never sent by the backend.
	TotalUsers *int `json:"-"`
}

// DashboardStats fetches the stats for the caller's role. For admin
// responses the total account count is derived from the two group counts,
// treating a missing count as zero.
func (c *Client) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	if err := c.request(ctx, http.MethodGet, "/get-dashboard-stats", nil, &stats); err != nil {
		return nil, err
	}
	if stats.Role == "Admin" {
		total := intOrZero(stats.ClinicUsers) + intOrZero(stats.MedisysStaff)
		stats.TotalUsers = &total
	}
	return &stats, nil
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
