package httpserver

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPages_RedirectWithoutSession(t *testing.T) {
	ts := newTestServer(t)
	for _, p := range []string{"/", "/documents", "/media"} {
		rec := ts.do(t, httptest.NewRequest(http.MethodGet, p, nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code, p)
		assert.Equal(t, "/sign-in", rec.Header().Get("Location"))
	}
}

func TestPages_SignUpFlow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/sign-up", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sign Up")

	rec = ts.do(t, formRequest("/sign-up", map[string]string{"fullName": "Ada", "email": url.QueryEscape("ada@example.com")}))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Enter your OTP")

	accountID := between(body, `name="accountId" value="`, `"`)
	require.NotEmpty(t, accountID)

	rec = ts.do(t, formRequest("/verify", map[string]string{"accountId": accountID, "passcode": "000000x"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to verify OTP")

	rec = ts.do(t, formRequest("/verify", map[string]string{"accountId": accountID, "passcode": ts.mailer.code(t, "ada@example.com")}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/sign-in", nil), cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code, "signed-in users skip the sign-in page")

	rec = ts.do(t, formRequest("/sign-out", nil), cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/sign-in", rec.Header().Get("Location"))
}

func TestPages_SignInUnknownUser(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, formRequest("/sign-in", map[string]string{"email": url.QueryEscape("ghost@example.com")}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "User not found")
}

func TestPages_DashboardAndListing(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signUp(t, "Alice", "alice@example.com")

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/", nil), alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Available Storage")
	assert.Contains(t, rec.Body.String(), "No files uploaded")
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("If-None-Match", etag)
	rec = ts.do(t, req, alice)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	rec = ts.do(t, uploadRequest(t, "/files/upload", "cat.png", pngBytes(t), "/images"), alice)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/images", rec.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("If-None-Match", etag)
	rec = ts.do(t, req, alice)
	require.Equal(t, http.StatusOK, rec.Code, "upload invalidates the dashboard")
	assert.Contains(t, rec.Body.String(), "cat.png")

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/images?sort=name-asc", nil), alice)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "cat.png")
	assert.Contains(t, body, `value="name-asc" selected`)

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/documents", nil), alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "cat.png")

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/images?query=dog", nil), alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No files uploaded")
}

func TestPages_FileActions(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signUp(t, "Alice", "alice@example.com")

	rec := ts.do(t, uploadRequest(t, "/api/files", "draft.md", []byte("#"), "/documents"), alice)
	require.Equal(t, 201, rec.Code)
	id := between(rec.Body.String(), `"id":"`, `"`)
	require.NotEmpty(t, id)

	rec = ts.do(t, formRequest("/files/"+id+"/rename", map[string]string{"name": "final", "extension": "md", "path": "/documents"}), alice)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/documents", rec.Header().Get("Location"))

	rec = ts.do(t, formRequest("/files/"+id+"/share", map[string]string{"emails": url.QueryEscape("bob@example.com, carol@example.com"), "path": "/documents"}), alice)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/documents", nil), alice)
	body := rec.Body.String()
	assert.Contains(t, body, "final.md")
	assert.Contains(t, body, "bob@example.com, carol@example.com")

	rec = ts.do(t, formRequest("/files/"+id+"/delete", map[string]string{"path": "/documents"}), alice)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/documents", nil), alice)
	assert.NotContains(t, rec.Body.String(), "final.md")
}

func TestPages_ListingETagFollowsContent(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signUp(t, "Alice", "alice@example.com")
	bob := ts.signUp(t, "Bob", "bob@example.com")

	get := func(target, etag string, cookie *http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		if etag != "" {
			req.Header.Set("If-None-Match", etag)
		}
		return ts.do(t, req, cookie)
	}

	rec := get("/documents", "", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	rec = get("/documents", etag, alice)
	require.Equal(t, http.StatusNotModified, rec.Code)

	rec = ts.do(t, uploadRequest(t, "/files/upload", "report.pdf", []byte("%PDF-1.4"), "/"), alice)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = get("/documents", etag, alice)
	require.Equal(t, http.StatusOK, rec.Code, "upload from the dashboard changes the documents listing")
	assert.Contains(t, rec.Body.String(), "report.pdf")

	rec = ts.do(t, uploadRequest(t, "/api/files", "notes.txt", []byte("hi"), "/"), alice)
	require.Equal(t, 201, rec.Code)
	id := between(rec.Body.String(), `"id":"`, `"`)
	require.NotEmpty(t, id)

	rec = ts.do(t, formRequest("/files/"+id+"/share", map[string]string{"emails": url.QueryEscape("bob@example.com"), "path": "/"}), alice)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = get("/documents", "", bob)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "notes.txt")
	shared := rec.Header().Get("ETag")

	rec = ts.do(t, formRequest("/files/"+id+"/share", map[string]string{"emails": "", "path": "/"}), alice)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = get("/documents", shared, bob)
	require.Equal(t, http.StatusOK, rec.Code, "unsharing from the dashboard changes the grantee's listing")
	assert.NotContains(t, rec.Body.String(), "notes.txt")
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "-", formatDate(time.Time{}))
	d := time.Date(2024, 3, 7, 15, 4, 0, 0, time.Local)
	assert.Equal(t, "3:04pm, 7 Mar", formatDate(d))
}

func between(s, start, end string) string {
	i := strings.Index(s, start)
	if i < 0 {
		return ""
	}
	s = s[i+len(start):]
	j := strings.Index(s, end)
	if j < 0 {
		return ""
	}
	return s[:j]
}
