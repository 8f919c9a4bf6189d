package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestTokenMaker_RoundTrip(t *testing.T) {
	tm := NewTokenMaker(secret, time.Hour)

	tok, err := tm.New("sid-1")
	require.NoError(t, err)

	c, err := tm.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "sid-1", c.SessionID)
}

func TestTokenMaker_Rejects(t *testing.T) {
	tm := NewTokenMaker(secret, time.Hour)

	other, err := NewTokenMaker("ffffffffffffffffffffffffffffffff", time.Hour).New("sid-1")
	require.NoError(t, err)
	_, err = tm.Parse(other)
	assert.Error(t, err, "wrong secret")

	expired, err := NewTokenMaker(secret, -time.Minute).New("sid-1")
	require.NoError(t, err)
	_, err = tm.Parse(expired)
	assert.Error(t, err, "expired")

	_, err = tm.Parse("not-a-jwt")
	assert.Error(t, err)
}

func echoSession(w http.ResponseWriter, r *http.Request) {
	id, _ := IDFromContext(r.Context())
	if IsNew(r.Context()) {
		w.Header().Set("X-New-Session", "1")
	}
	_, _ = w.Write([]byte(id))
}

func TestMiddleware_IssuesAndReusesSession(t *testing.T) {
	tm := NewTokenMaker(secret, time.Hour)
	h := Middleware(tm, nil)(http.HandlerFunc(echoSession))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))

	first := rec.Body.String()
	require.NotEmpty(t, first)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, "1", rec.Header().Get("X-New-Session"))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, first, rec.Body.String())
	assert.Empty(t, rec.Result().Cookies(), "valid session is not reissued")
	assert.Empty(t, rec.Header().Get("X-New-Session"))
}

func TestMiddleware_BearerToken(t *testing.T) {
	tm := NewTokenMaker(secret, time.Hour)
	h := Middleware(tm, nil)(http.HandlerFunc(echoSession))

	tok, err := tm.New("from-header")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "from-header", rec.Body.String())
}

func TestKey(t *testing.T) {
	assert.Equal(t, "@RocketShoes:cart:abc", Key("@RocketShoes:cart", "abc"))
}
