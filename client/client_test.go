package client_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisys/secure-portal/client"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, token string) *client.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return client.New(srv.URL, client.WithTokenSource(func() string { return token }))
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("[]"))
	}, "identity-token")

	_, err := c.MyReports(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer identity-token", gotAuth)
}

func TestClientOmitsAuthorizationWithoutToken(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("[]"))
	}, "")

	_, err := c.MyReports(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClientStatusErrorCarriesBackendMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"not found"}`))
	}, "tok")

	_, err := c.MyReports(context.Background())
	require.Error(t, err)

	var statusErr *client.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Status)
	assert.Equal(t, "not found", statusErr.Message)
	assert.Equal(t, "not found", client.ErrorMessage(err))
}

func TestClientStatusErrorWithoutMessageField(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail":"nope"}`))
	}, "tok")

	_, err := c.AllReports(context.Background())
	require.Error(t, err)

	var statusErr *client.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, "API error: 403", statusErr.Message)
}

func TestClientStatusErrorUnparsableBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<html>boom</html>"))
	}, "tok")

	_, err := c.AllReports(context.Background())
	require.Error(t, err)

	var statusErr *client.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, "An unknown error occurred", statusErr.Message)
}

func TestClientEmptySuccessBodyIsEmptyResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, "tok")

	reports, err := c.MyReports(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestClientMalformedSuccessBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not-json"))
	}, "tok")

	_, err := c.MyReports(context.Background())
	require.Error(t, err)
	assert.True(t, client.IsMalformedResponse(err))

	var statusErr *client.StatusError
	assert.False(t, errors.As(err, &statusErr), "malformed body must not be a status error")
}

func TestClientDecodesReports(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/my-reports", r.URL.Path)
		w.Write([]byte(`[
			{"ReportId":"r-1","TestType":"Blood Test","Result":"Normal","UploadTime":"2026-08-30T10:00:00Z","Verified":true,"UploadedBy":"user@clinic.example"},
			{"ReportId":"r-2","TestType":"X-Ray","Result":"Pending","UploadTime":"2026-08-31T09:00:00Z","Verified":false,"UploadedBy":"user@clinic.example"}
		]`))
	}, "tok")

	reports, err := c.MyReports(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "r-1", reports[0].ID)
	assert.True(t, reports[0].Verified)
	assert.Equal(t, "X-Ray", reports[1].TestType)
	assert.False(t, reports[1].Verified)
}

func TestClientVerifyReportEscapesID(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		assert.Equal(t, http.MethodPut, r.Method)
		w.Write([]byte(`{"success":true,"message":"Report verified"}`))
	}, "tok")

	ack, err := c.VerifyReport(context.Background(), "id/with spaces")
	require.NoError(t, err)
	assert.True(t, ack.Success)
	assert.Equal(t, "Report verified", ack.Message)
	assert.Equal(t, "/verify-report/id%2Fwith%20spaces", gotPath)
}

func TestClientUploadReportPostsPayload(t *testing.T) {
	var gotBody []byte
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/upload-report", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		buf, readErr := io.ReadAll(r.Body)
		assert.NoError(t, readErr)
		gotBody = buf
		w.Write([]byte(`{"success":true,"message":"uploaded"}`))
	}, "tok")

	ack, err := c.UploadReport(context.Background(), client.UploadReportPayload{
		FileName:   "scan.pdf",
		TestType:   "X-Ray",
		FileBase64: "aGVsbG8=",
	})
	require.NoError(t, err)
	assert.True(t, ack.Success)
	assert.JSONEq(t, `{"fileName":"scan.pdf","testType":"X-Ray","fileBase64":"aGVsbG8="}`, string(gotBody))
}
