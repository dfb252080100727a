package portal

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/medisys/secure-portal/client"
)

// StatCard is one dashboard figure ready for display.
type StatCard struct {
	Label string
	Value string
}

// DashboardShow renders the landing page with role-shaped stats. A stats
// failure degrades to an error banner; the page itself always renders.
func (a *Controller) DashboardShow(c *fiber.Ctx) error {
	data := fiber.Map{
		"cards":             []StatCard{},
		"by_test_type":      map[string]int{},
		"stats_unavailable": false,
	}

	stats, err := a.api(c).DashboardStats(c.Context())
	if err != nil {
		a.Logger.Error("dashboard stats fetch failed", "error", err)
		data["error"] = client.ErrorMessage(err)
		return c.Render(a.Views.Dashboard, ViewContext(c, data))
	}

	cards, byTestType, known := statCards(stats)
	data["cards"] = cards
	data["by_test_type"] = byTestType
	data["stats_unavailable"] = !known

	return c.Render(a.Views.Dashboard, ViewContext(c, data))
}

// statCards shapes the stats payload for the template. The backend tags
// the payload with the role it computed for; an unrecognized tag renders
// as stats-not-available rather than a broken page.
func statCards(stats *client.DashboardStats) ([]StatCard, map[string]int, bool) {
	switch stats.Role {
	case string(RoleAdmin):
		return []StatCard{
			{Label: "Total Reports", Value: formatCount(stats.TotalReports)},
			{Label: "Verified Reports", Value: formatCount(stats.VerifiedReports)},
			{Label: "Unverified Reports", Value: formatCount(stats.UnverifiedReports)},
			{Label: "Clinic Users", Value: formatCount(stats.ClinicUsers)},
			{Label: "Medisys Staff", Value: formatCount(stats.MedisysStaff)},
			{Label: "Total Users", Value: formatCount(stats.TotalUsers)},
		}, nil, true
	case string(RoleStaff):
		return []StatCard{
			{Label: "Total Reports", Value: formatCount(stats.TotalReports)},
			{Label: "Verified Reports", Value: formatCount(stats.VerifiedReports)},
			{Label: "Unverified Reports", Value: formatCount(stats.UnverifiedReports)},
		}, stats.ReportByTestType, true
	case string(RoleClinicUser):
		return []StatCard{
			{Label: "Total Uploads", Value: formatCount(stats.TotalUploads)},
			{Label: "Verified Uploads", Value: formatCount(stats.VerifiedUploads)},
			{Label: "Unverified Uploads", Value: formatCount(stats.UnverifiedUploads)},
			{Label: "Last Upload", Value: formatText(stats.LastUploadTime)},
		}, nil, true
	default:
		return []StatCard{}, nil, false
	}
}

func formatCount(v *int) string {
	if v == nil {
		return "0"
	}
	return strconv.Itoa(*v)
}

func formatText(v *string) string {
	if v == nil || *v == "" {
		return "No uploads yet"
	}
	return *v
}

// ProfileShow renders the signed-in account's details.
func (a *Controller) ProfileShow(c *fiber.Ctx) error {
	session := SessionFromCtx(c)
	return c.Render(a.Views.Profile, ViewContext(c, fiber.Map{
		"email":  session.Identity.Email,
		"groups": session.Identity.Roles,
	}))
}
