package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/repricing/internal/domain"
	"github.com/Domenick1991/repricing/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	method string
	path   string
	query  string
	auth   string
	reqID  string
	body   map[string]string
}

func newTestServer(t *testing.T, status int, response string, got *captured) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.query = r.URL.RawQuery
		got.auth = r.Header.Get("Authorization")
		got.reqID = r.Header.Get("X-Request-ID")
		_ = json.NewDecoder(r.Body).Decode(&got.body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

var impersonating = gateway.Auth{Token: "tok", ImpersonationID: "c-9"}

func TestClient_ApproveSendsImpersonationAsQuery(t *testing.T) {
	var got captured
	c := newTestServer(t, http.StatusOK, `{"success":true}`, &got)

	require.NoError(t, c.ApproveHotel(context.Background(), impersonating, "rs-1"))

	assert.Equal(t, "/api/hotel-rp/approved", got.path)
	assert.Equal(t, "impersonationId=c-9", got.query)
	assert.Equal(t, "Bearer tok", got.auth)
	assert.Equal(t, "rs-1", got.body["repricing_session_id"])
	assert.NotEmpty(t, got.reqID)
}

func TestClient_PaymentLink(t *testing.T) {
	var got captured
	c := newTestServer(t, http.StatusOK, `{"stripe_link_url":"https://stripe/pay"}`, &got)

	link, err := c.PaymentLink(context.Background(), impersonating, "rs-1", "https://app/rp-success/HT001")

	require.NoError(t, err)
	assert.Equal(t, "https://stripe/pay", link)
	assert.Equal(t, "impersonationId=c-9", got.query)
	assert.Equal(t, "https://app/rp-success/HT001", got.body["redirect_url"])
}

func TestClient_FlightApprovalSendsImpersonationInBody(t *testing.T) {
	var got captured
	c := newTestServer(t, http.StatusOK, `{}`, &got)

	require.NoError(t, c.SubmitFlightApproval(context.Background(), impersonating, "rs-2", "US"))

	assert.Empty(t, got.query)
	assert.Equal(t, "c-9", got.body["impersonate_user_id"])
	assert.Equal(t, "US", got.body["citizenship"])
}

func TestClient_NoImpersonationByDefault(t *testing.T) {
	var got captured
	c := newTestServer(t, http.StatusOK, `[]`, &got)

	bookings, err := c.FetchTrips(context.Background(), gateway.Auth{Token: "tok"})

	require.NoError(t, err)
	assert.Empty(t, bookings)
	assert.Empty(t, got.query)
}

func TestClient_UnauthorizedCarriesRedirect(t *testing.T) {
	var got captured
	c := newTestServer(t, http.StatusUnauthorized,
		`{"error":"Unauthorized","redirect":"/auth/phone-login?redirect=%2Fuser-rps","success":false}`, &got)

	_, err := c.FetchTrips(context.Background(), gateway.Auth{})

	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	redirect, ok := LoginRedirect(err)
	assert.True(t, ok)
	assert.Equal(t, "/auth/phone-login?redirect=%2Fuser-rps", redirect)
	assert.Empty(t, got.auth)
}

func TestClient_ErrorMessageRelayed(t *testing.T) {
	var got captured
	c := newTestServer(t, http.StatusConflict, `{"error":"Session already paid","success":false}`, &got)

	_, err := c.PaymentLink(context.Background(), gateway.Auth{Token: "tok"}, "rs-1", "")

	ue, ok := gateway.AsUpstreamError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, ue.Status)
	assert.Equal(t, "Session already paid", ue.Message)
}

func TestClient_GatewayTimeout(t *testing.T) {
	var got captured
	c := newTestServer(t, http.StatusGatewayTimeout, `{"error":"Upstream timeout","success":false}`, &got)

	err := c.VerifyHotelOTP(context.Background(), "rs-1", "123456")

	assert.ErrorIs(t, err, gateway.ErrTimeout)
}

func TestClient_FetchProfileAndVerify(t *testing.T) {
	var got captured
	c := newTestServer(t, http.StatusOK, `{"first_name":"Ada","last_name":"Lovelace","citizenship":"US","date_of_birth":"1990-01-01"}`, &got)

	p, err := c.FetchProfile(context.Background(), gateway.Auth{Token: "tok"})

	require.NoError(t, err)
	assert.True(t, p.Complete())
	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "/api/user/me", got.path)
}

func TestClient_VerifyPhoneOTP(t *testing.T) {
	var got captured
	c := newTestServer(t, http.StatusOK, `{"success":true,"message":"OTP verified successfully","token":"tok","customer_id":"c-1"}`, &got)

	v, err := c.VerifyPhoneOTP(context.Background(), "15551234567", "123456", "")

	require.NoError(t, err)
	assert.Equal(t, "tok", v.Token)
	assert.Equal(t, "c-1", v.CustomerID)
	assert.Equal(t, "15551234567", got.body["phone_number"])
}
