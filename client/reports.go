package client

import (
	"context"
	"net/http"
	"net/url"
)

// Report is a single test report row as the backend returns it. Field
// casing mirrors the API payload.
type Report struct {
	ID         string `json:"ReportId"`
	TestType   string `json:"TestType"`
	Result     string `json:"Result"`
	UploadTime string `json:"UploadTime"`
	Verified   bool   `json:"Verified"`
	UploadedBy string `json:"UploadedBy"`
}

// UploadReportPayload is the body for an upload request. FileBase64 is the
// standard base64 encoding of the file bytes.
type UploadReportPayload struct {
	FileName   string `json:"fileName"`
	TestType   string `json:"testType"`
	FileBase64 string `json:"fileBase64"`
}

// ActionResponse is the backend's generic acknowledgement body.
type ActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// MyReports lists reports the caller uploaded.
func (c *Client) MyReports(ctx context.Context) ([]Report, error) {
	var reports []Report
	if err := c.request(ctx, http.MethodGet, "/my-reports", nil, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// AllReports lists every report in the system. Requires an admin or staff
// token; the backend rejects everyone else.
func (c *Client) AllReports(ctx context.Context) ([]Report, error) {
	var reports []Report
	if err := c.request(ctx, http.MethodGet, "/all-reports", nil, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// VerifyReport marks a single report as verified.
func (c *Client) VerifyReport(ctx context.Context, reportID string) (*ActionResponse, error) {
	var ack ActionResponse
	path := "/verify-report/" + url.PathEscape(reportID)
	if err := c.request(ctx, http.MethodPut, path, nil, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// UploadReport submits a new report file.
func (c *Client) UploadReport(ctx context.Context, payload UploadReportPayload) (*ActionResponse, error) {
	var ack ActionResponse
	if err := c.request(ctx, http.MethodPost, "/upload-report", &payload, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}
