package router

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/google"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ManuelReschke/Postify/app/controllers"
	"github.com/ManuelReschke/Postify/internal/pkg/cache"
	"github.com/ManuelReschke/Postify/internal/pkg/config"
	"github.com/ManuelReschke/Postify/internal/pkg/oauth"
	"github.com/ManuelReschke/Postify/internal/pkg/postgen"
	"github.com/ManuelReschke/Postify/internal/pkg/session"
)

const completionJSON = `{"id":"chatcmpl-1","object":"chat.completion","created":1700000000,"model":"llama3-70b-8192",
	"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Big day! 🚀"}}]}`

var csrfPattern = regexp.MustCompile(`name="_csrf" value="([^"]+)"`)

type upstreams struct {
	tokenCalls   atomic.Int32
	profileCalls atomic.Int32
	modelCalls   atomic.Int32
	tokenBody    atomic.Value
}

type browser struct {
	t    *testing.T
	app  *fiber.App
	jar  *cookiejar.Jar
	base *url.URL
	up   *upstreams
}

func newBrowser(t *testing.T) *browser {
	t.Helper()

	up := &upstreams{}
	up.tokenBody.Store(`{"access_token":"tok1","expires_in":5184000}`)

	idp := http.NewServeMux()
	idp.HandleFunc("/oauth/v2/accessToken", func(w http.ResponseWriter, r *http.Request) {
		up.tokenCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(up.tokenBody.Load().(string)))
	})
	idp.HandleFunc("/v2/userinfo", func(w http.ResponseWriter, r *http.Request) {
		up.profileCalls.Add(1)
		_, _ = w.Write([]byte(`{"sub":"u1","given_name":"Ada","family_name":"Lovelace","picture":"http://x/p.png"}`))
	})
	idpServer := httptest.NewServer(idp)
	t.Cleanup(idpServer.Close)

	modelServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up.modelCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionJSON))
	}))
	t.Cleanup(modelServer.Close)

	cfg, err := config.LoadFrom(map[string]string{
		"APP_ENV":                   "dev",
		"SECRET_KEY":                "s3cr3t",
		"GOOGLE_CLIENT_ID":          "google-id",
		"GOOGLE_CLIENT_SECRET":      "google-secret",
		"LINKEDIN_CLIENT_ID":        "linkedin-id",
		"LINKEDIN_CLIENT_SECRET":    "linkedin-secret",
		"LINKEDIN_TOKEN_URL":        idpServer.URL + "/oauth/v2/accessToken",
		"LINKEDIN_USERINFO_URL":     idpServer.URL + "/v2/userinfo",
		"GROQ_API_KEY":              "groq-key",
		"GROQ_BASE_URL":             modelServer.URL + "/openai/v1/",
		"GENERATION_SEARCH_ENABLED": "false",
	})
	require.NoError(t, err)

	sessions := session.NewManager(session.NewStorage(nil, cache.DBSessions), false)
	providers, err := oauth.Setup(cfg, session.NewStorage(nil, cache.DBOAuthSession))
	require.NoError(t, err)
	generator, err := postgen.New(cfg.Generation, nil, zap.NewNop())
	require.NoError(t, err)
	ctrl := controllers.New(sessions, providers, generator, nil, zap.NewNop(), true)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	base, err := url.Parse(cfg.App.BaseURL())
	require.NoError(t, err)

	return &browser{
		t:    t,
		app:  NewApplication(cfg, ctrl, sessions),
		jar:  jar,
		base: base,
		up:   up,
	}
}

func (b *browser) do(method, target string, form url.Values) (*http.Response, string) {
	b.t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	u := b.base.ResolveReference(&url.URL{Path: strings.SplitN(target, "?", 2)[0]})
	if i := strings.Index(target, "?"); i >= 0 {
		u.RawQuery = target[i+1:]
	}

	req := httptest.NewRequest(method, u.String(), body)
	if form != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	}
	for _, c := range b.jar.Cookies(u) {
		req.AddCookie(c)
	}

	resp, err := b.app.Test(req, -1)
	require.NoError(b.t, err)
	b.jar.SetCookies(u, resp.Cookies())

	raw, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp, string(raw)
}

func (b *browser) get(target string) (*http.Response, string) {
	return b.do(http.MethodGet, target, nil)
}

// loginWithLinkedIn walks the consent redirect and the callback.
func (b *browser) loginWithLinkedIn(code string) *http.Response {
	b.t.Helper()

	resp, _ := b.get("/linkedin/login")
	require.Equal(b.t, fiber.StatusSeeOther, resp.StatusCode)
	consent, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(b.t, err)

	resp, _ = b.get("/linkedin/callback?code=" + code + "&state=" + url.QueryEscape(consent.Query().Get("state")))
	return resp
}

// hostRewrite sends every request to target, keeping the path.
type hostRewrite struct {
	target *url.URL
}

func (h hostRewrite) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.URL.Scheme = h.target.Scheme
	r.URL.Host = h.target.Host
	r.Host = h.target.Host
	return http.DefaultTransport.RoundTrip(r)
}

// fakeGoogle serves Google's token and userinfo endpoints and points goth's
// Google provider at them.
func (b *browser) fakeGoogle() *atomic.Int32 {
	b.t.Helper()

	var tokenCalls atomic.Int32
	mux := http.NewServeMux()
	token := func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		assert.Equal(b.t, "abc123", r.FormValue("code"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"g-tok","token_type":"Bearer","expires_in":3600}`))
	}
	mux.HandleFunc("/token", token)
	mux.HandleFunc("/o/oauth2/token", token)
	mux.HandleFunc("/oauth2/v2/userinfo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(b.t, "g-tok", r.URL.Query().Get("access_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"g1","email":"grace@example.com","name":"Grace Hopper","given_name":"Grace","family_name":"Hopper","picture":"http://x/g.png"}`))
	})
	srv := httptest.NewServer(mux)
	b.t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	require.NoError(b.t, err)
	p, err := goth.GetProvider("google")
	require.NoError(b.t, err)
	p.(*google.Provider).HTTPClient = &http.Client{Transport: hostRewrite{target: target}}
	return &tokenCalls
}

// beginGoogleLogin follows /google/login and returns the issued state.
func (b *browser) beginGoogleLogin() string {
	b.t.Helper()

	resp, _ := b.get("/google/login")
	require.Equal(b.t, fiber.StatusSeeOther, resp.StatusCode)
	consent, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(b.t, err)
	state := consent.Query().Get("state")
	require.NotEmpty(b.t, state)
	return state
}

func (b *browser) csrfToken(page string) string {
	b.t.Helper()
	m := csrfPattern.FindStringSubmatch(page)
	require.Len(b.t, m, 2, "csrf token not found in page")
	return m[1]
}

func TestBeginLogin_RedirectsToProvider(t *testing.T) {
	b := newBrowser(t)

	tests := []struct {
		provider string
		host     string
	}{
		{provider: "google", host: "accounts.google.com"},
		{provider: "linkedin", host: "www.linkedin.com"},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			resp, _ := b.get("/" + tt.provider + "/login")
			require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

			loc, err := url.Parse(resp.Header.Get("Location"))
			require.NoError(t, err)
			assert.Equal(t, tt.host, loc.Host)
			assert.Equal(t, "http://localhost:5000/"+tt.provider+"/callback", loc.Query().Get("redirect_uri"))
		})
	}
}

func TestLinkedInLogin_EndToEnd(t *testing.T) {
	b := newBrowser(t)

	resp := b.loginWithLinkedIn("abc123")
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
	assert.Equal(t, int32(1), b.up.tokenCalls.Load())
	assert.Equal(t, int32(1), b.up.profileCalls.Load())

	resp, page := b.get("/dashboard")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, page, "Ada Lovelace")
	assert.Contains(t, page, "http://x/p.png")

	// the username segment is cosmetic
	resp, page = b.get("/dashboard/Ada Lovelace")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, page, "Ada Lovelace")
}

func TestGoogleLogin_AnonymousBrowser(t *testing.T) {
	b := newBrowser(t)
	tokenCalls := b.fakeGoogle()

	state := b.beginGoogleLogin()
	resp, body := b.get("/google/callback?code=abc123&state=" + url.QueryEscape(state))
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode, body)
	assert.Equal(t, "/dashboard/Grace%20Hopper", resp.Header.Get("Location"))
	assert.Equal(t, int32(1), tokenCalls.Load())

	resp, page := b.get("/dashboard")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, page, "Grace Hopper")
	assert.Contains(t, page, "http://x/g.png")
}

func TestGoogleLogin_AfterLinkedInLogin(t *testing.T) {
	b := newBrowser(t)
	tokenCalls := b.fakeGoogle()
	require.Equal(t, fiber.StatusSeeOther, b.loginWithLinkedIn("abc123").StatusCode)

	state := b.beginGoogleLogin()
	resp, body := b.get("/google/callback?code=abc123&state=" + url.QueryEscape(state))
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode, body)
	assert.Equal(t, int32(1), tokenCalls.Load())

	_, page := b.get("/dashboard")
	assert.Contains(t, page, "Grace Hopper")
	assert.NotContains(t, page, "Ada Lovelace")
}

func TestGoogleCallback_ForgedState(t *testing.T) {
	b := newBrowser(t)
	tokenCalls := b.fakeGoogle()

	b.beginGoogleLogin()
	resp, body := b.get("/google/callback?code=abc123&state=forged")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "state token mismatch")
	assert.NotContains(t, body, "could not find a matching session")
	assert.Equal(t, int32(0), tokenCalls.Load())
}

func TestLinkedInCallback_MissingCode(t *testing.T) {
	b := newBrowser(t)

	resp, body := b.get("/linkedin/callback?state=whatever")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Authorization code not found!", body)
	assert.Equal(t, int32(0), b.up.tokenCalls.Load())
}

func TestLinkedInCallback_TokenExchangeFailure(t *testing.T) {
	b := newBrowser(t)
	b.up.tokenBody.Store(`{"error":"invalid_grant","error_description":"code expired"}`)

	resp := b.loginWithLinkedIn("abc123")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, int32(0), b.up.profileCalls.Load())

	resp, _ = b.get("/dashboard")
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestLinkedInCallback_TokenExchangeFailureBody(t *testing.T) {
	b := newBrowser(t)
	raw := `{"error":"invalid_grant","error_description":"code expired"}`
	b.up.tokenBody.Store(raw)

	resp, _ := b.get("/linkedin/login")
	consent, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)

	resp, body := b.get("/linkedin/callback?code=abc123&state=" + url.QueryEscape(consent.Query().Get("state")))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Failed to get access token: "+raw, body)
}

func TestLinkedInCallback_ForgedState(t *testing.T) {
	b := newBrowser(t)

	resp, _ := b.get("/linkedin/login")
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	resp, body := b.get("/linkedin/callback?code=abc123&state=forged")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid OAuth state", body)
	assert.Equal(t, int32(0), b.up.tokenCalls.Load())
}

func TestLinkedInCallback_CodeWithoutState(t *testing.T) {
	b := newBrowser(t)

	resp, _ := b.get("/linkedin/login")
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	resp, body := b.get("/linkedin/callback?code=abc123")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid OAuth state", body)
	assert.Equal(t, int32(0), b.up.tokenCalls.Load())
}

func TestGeneratePost_EndToEnd(t *testing.T) {
	b := newBrowser(t)
	require.Equal(t, fiber.StatusSeeOther, b.loginWithLinkedIn("abc123").StatusCode)

	_, page := b.get("/dashboard")
	token := b.csrfToken(page)
	tokenCalls, profileCalls := b.up.tokenCalls.Load(), b.up.profileCalls.Load()

	resp, page := b.do(http.MethodPost, "/generate_post", url.Values{
		"_csrf":         {token},
		"user_input":    {"launch day"},
		"writing_style": {"casual"},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, page, "Big day! 🚀")
	assert.Equal(t, int32(1), b.up.modelCalls.Load())
	// no provider endpoint is touched while generating
	assert.Equal(t, tokenCalls, b.up.tokenCalls.Load())
	assert.Equal(t, profileCalls, b.up.profileCalls.Load())
}

func TestGeneratePost_EmptyInputSkipsModel(t *testing.T) {
	b := newBrowser(t)
	require.Equal(t, fiber.StatusSeeOther, b.loginWithLinkedIn("abc123").StatusCode)

	_, page := b.get("/dashboard")
	resp, body := b.do(http.MethodPost, "/generate_post", url.Values{
		"_csrf":         {b.csrfToken(page)},
		"user_input":    {""},
		"writing_style": {"casual"},
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No input provided", body)
	assert.Equal(t, int32(0), b.up.modelCalls.Load())
}

func TestGeneratePost_RequiresCSRFToken(t *testing.T) {
	b := newBrowser(t)
	require.Equal(t, fiber.StatusSeeOther, b.loginWithLinkedIn("abc123").StatusCode)
	b.get("/dashboard")

	resp, _ := b.do(http.MethodPost, "/generate_post", url.Values{"user_input": {"launch day"}})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, int32(0), b.up.modelCalls.Load())
}

func TestGeneratePost_Unauthenticated(t *testing.T) {
	b := newBrowser(t)

	resp, body := b.do(http.MethodPost, "/generate_post", url.Values{"user_input": {"launch day"}})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Authentication required", body)
	assert.Equal(t, int32(0), b.up.modelCalls.Load())
}

func TestLogout_ClearsSession(t *testing.T) {
	b := newBrowser(t)
	require.Equal(t, fiber.StatusSeeOther, b.loginWithLinkedIn("abc123").StatusCode)

	for i := 0; i < 2; i++ {
		resp, _ := b.get("/logout")
		require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))
	}

	resp, page := b.get("/")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotContains(t, page, "Ada Lovelace")

	resp, _ = b.get("/dashboard")
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestRoutes_Anonymous(t *testing.T) {
	b := newBrowser(t)

	tests := []struct {
		path     string
		status   int
		location string
	}{
		{path: "/", status: fiber.StatusOK},
		{path: "/login", status: fiber.StatusOK},
		{path: "/healthz", status: fiber.StatusOK},
		{path: "/assets/images/logo/postify-logo.svg", status: fiber.StatusOK},
		{path: "/dashboard", status: fiber.StatusSeeOther, location: "/login"},
		// dashboard routes win over the provider catch-all
		{path: "/dashboard/login", status: fiber.StatusSeeOther, location: "/login"},
		{path: "/dashboard/callback", status: fiber.StatusSeeOther, location: "/login"},
		{path: "/myspace/login", status: fiber.StatusNotFound},
		{path: "/myspace/callback", status: fiber.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, _ := b.get(tt.path)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.location != "" {
				assert.Equal(t, tt.location, resp.Header.Get("Location"))
			}
		})
	}
}

func TestCookieKey(t *testing.T) {
	key := CookieKey("s3cr3t")
	assert.Len(t, key, 44)
	assert.Equal(t, key, CookieKey("s3cr3t"))
	assert.NotEqual(t, key, CookieKey("other"))
}
