package portal

import (
	"encoding/base64"
	"io"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"

	"github.com/medisys/secure-portal/client"
)

// TestTypes are the report categories the upload form offers.
var TestTypes = []string{
	"Blood Test",
	"Urine Test",
	"X-Ray",
	"MRI",
	"CT Scan",
	"Other",
}

// MaxUploadBytes bounds the report file size before encoding.
const MaxUploadBytes = 5 * 1024 * 1024

// UploadShow renders the upload form.
func (a *Controller) UploadShow(c *fiber.Ctx) error {
	return c.Render(a.Views.Upload, ViewContext(c, fiber.Map{
		"test_types": TestTypes,
		"upload_url": RouteUpload,
	}))
}

// UploadRequest is the validated upload submission.
type UploadRequest struct {
	FileName   string
	TestType   string
	FileBase64 string
}

// Validate will run validation rules
func (r UploadRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FileName, validation.Required),
		validation.Field(&r.TestType, validation.Required, validation.In(toAny(TestTypes)...)),
		validation.Field(&r.FileBase64, validation.Required),
	)
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// UploadCreate accepts a multipart submission, encodes the file, and
// forwards it to the backend. Always JSON: the page script keeps the
// selected file in place on failure so the user can retry without
// re-picking it.
func (a *Controller) UploadCreate(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "a report file is required",
		})
	}
	if header.Size > MaxUploadBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": "file exceeds the 5MB limit",
		})
	}

	file, err := header.Open()
	if err != nil {
		a.Logger.Error("upload: cannot open submitted file", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "could not read the submitted file",
		})
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		a.Logger.Error("upload: cannot read submitted file", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "could not read the submitted file",
		})
	}

	payload := UploadRequest{
		FileName:   header.Filename,
		TestType:   c.FormValue("test_type"),
		FileBase64: base64.StdEncoding.EncodeToString(raw),
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	ack, err := a.api(c).UploadReport(c.Context(), client.UploadReportPayload{
		FileName:   payload.FileName,
		TestType:   payload.TestType,
		FileBase64: payload.FileBase64,
	})
	if err != nil {
		a.Logger.Error("upload forward failed", "file", payload.FileName, "error", err)
		return c.Status(apiErrorStatus(err)).JSON(fiber.Map{
			"error": client.ErrorMessage(err),
		})
	}

	a.Logger.Info("report uploaded", "file", payload.FileName, "test_type", payload.TestType)

	return c.JSON(fiber.Map{
		"success": true,
		"message": ack.Message,
	})
}
