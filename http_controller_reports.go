package portal

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/medisys/secure-portal/client"
)

// MyReportsShow renders the caller's own uploads.
func (a *Controller) MyReportsShow(c *fiber.Ctx) error {
	data := fiber.Map{
		"reports": []client.Report{},
	}

	reports, err := a.api(c).MyReports(c.Context())
	if err != nil {
		a.Logger.Error("my reports fetch failed", "error", err)
		data["error"] = client.ErrorMessage(err)
		return c.Render(a.Views.MyReports, ViewContext(c, data))
	}

	data["reports"] = reports
	return c.Render(a.Views.MyReports, ViewContext(c, data))
}

// AllReportsShow renders every report with per-row verify controls. Verify
// actions go through VerifyReport as fetch calls so the table never
// reloads mid-review.
func (a *Controller) AllReportsShow(c *fiber.Ctx) error {
	data := fiber.Map{
		"reports":    []client.Report{},
		"verify_url": RouteAllReports,
	}

	reports, err := a.api(c).AllReports(c.Context())
	if err != nil {
		a.Logger.Error("all reports fetch failed", "error", err)
		data["error"] = client.ErrorMessage(err)
		return c.Render(a.Views.AllReports, ViewContext(c, data))
	}

	data["reports"] = reports
	return c.Render(a.Views.AllReports, ViewContext(c, data))
}

// VerifyReport marks one report verified. Always JSON: the page script
// flips the single affected row on success and surfaces the message on
// failure, leaving every other row alone.
func (a *Controller) VerifyReport(c *fiber.Ctx) error {
	reportID := c.Params("id")
	if reportID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing report id",
		})
	}

	ack, err := a.api(c).VerifyReport(c.Context(), reportID)
	if err != nil {
		a.Logger.Error("verify failed", "report", reportID, "error", err)
		return c.Status(apiErrorStatus(err)).JSON(fiber.Map{
			"error": client.ErrorMessage(err),
		})
	}

	a.Logger.Info("report verified", "report", reportID)

	return c.JSON(fiber.Map{
		"success": true,
		"message": ack.Message,
	})
}

// apiErrorStatus maps a client error onto the status this server answers
// with. Backend statuses pass through; anything else is a bad gateway.
func apiErrorStatus(err error) int {
	var statusErr *client.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status
	}
	return fiber.StatusBadGateway
}
