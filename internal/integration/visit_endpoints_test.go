//go:build dev && integration

package integration

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/verisite/visit-service/internal/dtos"
	"github.com/verisite/visit-service/internal/routes"
	"github.com/verisite/visit-service/internal/services"
	"github.com/verisite/visit-service/internal/utils"
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

type testDevice struct {
	key *rsa.PrivateKey
	pub string
}

func newTestDevice(t *testing.T) *testDevice {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return &testDevice{key: key, pub: base64.StdEncoding.EncodeToString(der)}
}

func (d *testDevice) sign(t *testing.T, req *dtos.SubmitEventRequest) {
	t.Helper()
	payload := services.CanonicalPayload(services.CanonicalFields{
		ChallengeNonce: req.ChallengeNonce,
		EventType:      req.EventType,
		VendorName:     req.VendorName,
		Latitude:       req.Latitude.String(),
		Longitude:      req.Longitude.String(),
		AccuracyMeters: req.AccuracyMeters.String(),
		CapturedAt:     req.CapturedAt,
		PhotoDigest:    req.PhotoDigest,
	})
	digest := sha256.Sum256(payload)
	sig, err := rsa.SignPKCS1v15(rand.Reader, d.key, crypto.SHA256, digest[:])
	require.NoError(t, err)
	req.DevicePublicKey = d.pub
	req.Signature = base64.StdEncoding.EncodeToString(sig)
}

func uploadPhoto(t *testing.T, content string) dtos.PhotoUploadResponse {
	t.Helper()
	resp, err := httpClient.Post(baseURL+routes.Photos, "image/jpeg", strings.NewReader(content))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out dtos.PhotoUploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func issueChallenge(t *testing.T) dtos.ChallengeResponse {
	t.Helper()
	resp, err := httpClient.Post(baseURL+routes.AttestationChallenge, "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dtos.ChallengeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// submitEvent posts the event and returns the decoded response or the
// error body, along with the HTTP status.
func submitEvent(t *testing.T, req dtos.SubmitEventRequest) (int, *dtos.SubmitEventResponse, *utils.ErrorResponse) {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	resp, err := httpClient.Post(baseURL+routes.AttestationEvents, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var out dtos.SubmitEventResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return resp.StatusCode, &out, nil
	}
	var errBody utils.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errBody))
	return resp.StatusCode, nil, &errBody
}

func buildEvent(t *testing.T, dev *testDevice, eventType, vendor string, c dtos.ChallengeResponse, photo dtos.PhotoUploadResponse) dtos.SubmitEventRequest {
	t.Helper()
	req := dtos.SubmitEventRequest{
		EventType:      eventType,
		VendorName:     vendor,
		Latitude:       json.Number("35.9251"),
		Longitude:      json.Number("-84.0054"),
		AccuracyMeters: json.Number("8"),
		CapturedAt:     time.Now().UTC().Format(time.RFC3339),
		PhotoRef:       photo.PhotoRef.String(),
		PhotoDigest:    photo.Digest,
		ChallengeID:    c.ChallengeID.String(),
		ChallengeNonce: c.Nonce,
	}
	dev.sign(t, &req)
	return req
}

func uniqueVendor(prefix string) string {
	return fmt.Sprintf("%s %d", prefix, time.Now().UnixNano())
}

func TestVisitLifecycleEndToEnd(t *testing.T) {
	dev := newTestDevice(t)
	vendor := uniqueVendor("Riverside Market")

	// Check in.
	checkIn := buildEvent(t, dev, "CHECK_IN", vendor,
		issueChallenge(t), uploadPhoto(t, "check-in photo "+vendor))
	status, opened, _ := submitEvent(t, checkIn)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, opened)

	// Replay of the same request burns on the spent challenge.
	status, _, errBody := submitEvent(t, checkIn)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, utils.ErrCodeChallengeAlreadyUsed, errBody.Code)

	// The visit is open and holds the CHECK_IN event.
	var visit dtos.VisitDTO
	getJSON(t, baseURL+"/api/v1/visits/"+opened.VisitID.String(), &visit)
	require.Equal(t, "open", visit.State)
	require.Len(t, visit.Events, 1)

	// A second check-in for the same vendor name, any casing, loses.
	dupe := buildEvent(t, dev, "CHECK_IN", strings.ToUpper(vendor),
		issueChallenge(t), uploadPhoto(t, "dupe photo "+vendor))
	status, _, errBody = submitEvent(t, dupe)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, utils.ErrCodeDuplicateVendor, errBody.Code)

	// Check out.
	checkOut := buildEvent(t, dev, "CHECK_OUT", vendor,
		issueChallenge(t), uploadPhoto(t, "check-out photo "+vendor))
	checkOut.VisitID = opened.VisitID.String()
	dev.sign(t, &checkOut)
	status, closed, _ := submitEvent(t, checkOut)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, opened.VisitID, closed.VisitID)

	getJSON(t, baseURL+"/api/v1/visits/"+opened.VisitID.String(), &visit)
	require.Equal(t, "closed", visit.State)
	require.Len(t, visit.Events, 2)

	// Closing twice is rejected.
	again := buildEvent(t, dev, "CHECK_OUT", vendor,
		issueChallenge(t), uploadPhoto(t, "late photo "+vendor))
	again.VisitID = opened.VisitID.String()
	dev.sign(t, &again)
	status, _, errBody = submitEvent(t, again)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, utils.ErrCodeVisitAlreadyClosed, errBody.Code)
}

func TestVendorWhitespaceDistinctOverHTTP(t *testing.T) {
	dev := newTestDevice(t)
	vendor := uniqueVendor("Spacing Shop")

	first := buildEvent(t, dev, "CHECK_IN", vendor,
		issueChallenge(t), uploadPhoto(t, "first photo "+vendor))
	status, _, _ := submitEvent(t, first)
	require.Equal(t, http.StatusOK, status)

	// A leading space is part of the vendor name; the LOWER(vendor_name)
	// index treats it as a different vendor, and so must the pre-check.
	second := buildEvent(t, dev, "CHECK_IN", " "+vendor,
		issueChallenge(t), uploadPhoto(t, "second photo "+vendor))
	status, opened, errBody := submitEvent(t, second)
	require.Nil(t, errBody)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, opened)
}

func TestTamperedSignatureRejectedOverHTTP(t *testing.T) {
	dev := newTestDevice(t)
	vendor := uniqueVendor("Tamper Shop")

	req := buildEvent(t, dev, "CHECK_IN", vendor,
		issueChallenge(t), uploadPhoto(t, "tamper photo "+vendor))
	req.VendorName = vendor + " Ltd" // signed name no longer matches

	status, _, errBody := submitEvent(t, req)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, utils.ErrCodeSignatureInvalid, errBody.Code)
}

func TestPhotoRoundTripOverHTTP(t *testing.T) {
	content := "photo bytes " + uniqueVendor("x")
	photo := uploadPhoto(t, content)

	resp, err := httpClient.Get(baseURL + "/api/v1/photos/" + photo.PhotoRef.String())
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	sum := sha256.Sum256([]byte(content))
	require.Equal(t, fmt.Sprintf("%x", sum), photo.Digest)
}

func TestExportsOverHTTP(t *testing.T) {
	resp, err := httpClient.Get(baseURL + routes.VisitsExportCSV)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/csv", resp.Header.Get("Content-Type"))

	resp, err = httpClient.Get(baseURL + routes.VisitsExportGeoJSON)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))
}

func getJSON(t *testing.T, url string, out any) {
	t.Helper()
	resp, err := httpClient.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}
