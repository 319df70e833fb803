package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/celebstyle/celebstyle-cli/pkg/account"
	"github.com/celebstyle/celebstyle-cli/pkg/apikey"
	"github.com/celebstyle/celebstyle-cli/pkg/auth"
	"github.com/celebstyle/celebstyle-cli/pkg/httpclient"
	"github.com/celebstyle/celebstyle-cli/pkg/payment"
)

func TestReorderArgs(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "flag after positional",
			in:   []string{"cstyle", "outfits", "show", "abc", "--limit", "5"},
			want: []string{"cstyle", "outfits", "show", "--limit", "5", "abc"},
		},
		{
			name: "global flag after command",
			in:   []string{"cstyle", "apikey", "status", "--json"},
			want: []string{"cstyle", "--json", "apikey", "status"},
		},
		{
			name: "leading global flags stay",
			in:   []string{"cstyle", "--api-url", "http://x", "plans", "upgrade", "pro", "--wait", "1m"},
			want: []string{"cstyle", "--api-url", "http://x", "plans", "upgrade", "--wait", "1m", "pro"},
		},
		{
			name: "command flag value",
			in:   []string{"cstyle", "apikey", "reveal", "--password", "list"},
			want: []string{"cstyle", "apikey", "reveal", "--password", "list"},
		},
		{
			name: "double dash",
			in:   []string{"cstyle", "outfits", "show", "--", "-odd-id"},
			want: []string{"cstyle", "outfits", "show", "--", "-odd-id"},
		},
		{
			name: "program only",
			in:   []string{"cstyle"},
			want: []string{"cstyle"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reorderArgs(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("reorderArgs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	apiErr := &httpclient.APIError{Status: 400, Message: "insufficient info"}
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"api error", fmt.Errorf("create order: %w", apiErr), "create order: insufficient info"},
		{"network", fmt.Errorf("get api key stats: %w", httpclient.ErrNetwork), httpclient.NetworkFailureMessage},
		{"plain", errors.New("boom"), "boom"},
		{
			"verify",
			&payment.VerifyError{OrderID: "order_1", PaymentID: "pay_1", Err: httpclient.ErrNetwork},
			"payment verification failed: " + httpclient.NetworkFailureMessage + ". If you were charged, contact support with order order_1 and payment pay_1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorMessage(tt.err); got != tt.want {
				t.Errorf("errorMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func makeJWT(t *testing.T, claims map[string]interface{}) string {
	t.Helper()
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".signature"
}

// fakeAPI serves the endpoints the commands call and records every request.
type fakeAPI struct {
	t      *testing.T
	planID string
	noKey  bool

	mu       sync.Mutex
	requests []string
}

func (f *fakeAPI) called(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r == route {
			n++
		}
	}
	return n
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route := r.Method + " " + r.URL.Path
	f.mu.Lock()
	f.requests = append(f.requests, route)
	f.mu.Unlock()

	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"success":false,"message":"Not authorized"}`)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch route {
	case "GET /api/user/profile":
		fmt.Fprint(w, `{"success":true,"user":{"_id":"u1","name":"Asha","email":"asha@example.com","role":"user"}}`)
	case "GET /api/user/apikey/stats":
		if f.noKey {
			fmt.Fprint(w, `{"success":true,"hasKey":false}`)
			return
		}
		fmt.Fprintf(w, `{"success":true,"hasKey":true,"stats":{"isActive":true,"keyPrefix":"cs_live_ab","totalHits":1234,"monthUsed":40,"freeQuota":100,"purchasedQuota":0,"planId":%q}}`, f.planID)
	case "POST /api/user/apikey/reveal":
		var body struct{ Password string }
		json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"success":false,"message":"Incorrect password"}`)
			return
		}
		fmt.Fprint(w, `{"success":true,"apiKey":{"key":"cs_live_abcdef123456"}}`)
	case "GET /api/user-outfits/o1":
		fmt.Fprint(w, `{"success":true,"outfit":{"_id":"o1","title":"Red carpet","favouritesCount":3}}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"success":false,"message":"not found"}`)
	}
}

type harness struct {
	api    *fakeAPI
	server *httptest.Server
}

func newHarness(t *testing.T, planID string) *harness {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CELEBSTYLE_TOKEN", "")
	t.Setenv("CELEBSTYLE_API_URL", "")
	t.Setenv("CELEBSTYLE_CONFIG", "")
	t.Setenv("CELEBSTYLE_PASSWORD", "")

	api := &fakeAPI{t: t, planID: planID}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)
	return &harness{api: api, server: server}
}

// login stores credentials for a token with the given role.
func (h *harness) login(t *testing.T, role string) {
	t.Helper()
	token := makeJWT(t, map[string]interface{}{
		"id":    "u1",
		"email": "asha@example.com",
		"role":  role,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	creds := auth.FromToken(token)
	creds.APIURL = h.server.URL
	if err := auth.SaveCredentials(creds); err != nil {
		t.Fatalf("save credentials: %v", err)
	}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var out, errOut bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &errOut
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run(reorderArgs(append([]string{"cstyle"}, args...)))
	return out.String(), err
}

func TestLoginAndWhoami(t *testing.T) {
	h := newHarness(t, "free")
	token := makeJWT(t, map[string]interface{}{"id": "u1", "exp": time.Now().Add(time.Hour).Unix()})

	if _, err := h.run(t, "--api-url", h.server.URL, "login", "--token", token); err != nil {
		t.Fatalf("login: %v", err)
	}
	if h.api.called("GET /api/user/profile") != 1 {
		t.Error("login should verify the token against the profile endpoint")
	}

	out, err := h.run(t, "whoami", "--json")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	var who map[string]interface{}
	if err := json.Unmarshal([]byte(out), &who); err != nil {
		t.Fatalf("whoami output is not JSON: %v\n%s", err, out)
	}
	// Email came from the profile since the token carried none
	if who["email"] != "asha@example.com" || who["api_url"] != h.server.URL {
		t.Errorf("unexpected whoami output: %v", who)
	}

	if _, err := h.run(t, "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := h.run(t, "whoami"); !errors.Is(err, auth.ErrNotLoggedIn) {
		t.Errorf("expected ErrNotLoggedIn after logout, got %v", err)
	}
}

func TestLogin_RequiresToken(t *testing.T) {
	h := newHarness(t, "free")
	if _, err := h.run(t, "login"); err == nil {
		t.Error("expected an error without --token")
	}
}

func TestApikeyStatus_JSON(t *testing.T) {
	h := newHarness(t, "free")
	h.login(t, "user")

	out, err := h.run(t, "apikey", "status", "--json")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var v statsView
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if v.State != "active" || v.Plan != "free" {
		t.Errorf("unexpected state/plan: %+v", v)
	}
	if v.Total != 100 || v.Used != 40 || v.Remaining != 60 || v.Percent != 40 {
		t.Errorf("unexpected quota: %+v", v)
	}
	if v.Key != apikey.Mask("cs_live_ab") {
		t.Errorf("key must be masked, got %q", v.Key)
	}
}

func TestApikeyStatus_Text(t *testing.T) {
	h := newHarness(t, "pro")
	h.login(t, "user")

	out, err := h.run(t, "apikey", "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"active", "Pro", "40 of 100", "1,234"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "cs_live_abcdef") {
		t.Error("status must not print the plaintext key")
	}
}

func TestApikeyReveal(t *testing.T) {
	h := newHarness(t, "free")
	h.login(t, "user")

	_, err := h.run(t, "apikey", "reveal", "--password", "wrong")
	if err == nil || !strings.Contains(err.Error(), "Incorrect password") {
		t.Fatalf("expected the server message, got %v", err)
	}

	out, err := h.run(t, "apikey", "reveal", "--password", "secret", "--json")
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if !strings.Contains(out, "cs_live_abcdef123456") {
		t.Errorf("expected plaintext key, got %s", out)
	}
}

func TestApikeyReveal_PasswordRequired(t *testing.T) {
	h := newHarness(t, "free")
	h.login(t, "user")

	if _, err := h.run(t, "apikey", "reveal"); !errors.Is(err, apikey.ErrPasswordRequired) {
		t.Fatalf("expected ErrPasswordRequired, got %v", err)
	}
	if h.api.called("POST /api/user/apikey/reveal") != 0 {
		t.Error("reveal must not be sent without a password")
	}
}

func TestApikeyRevoke_NeedsConfirmation(t *testing.T) {
	h := newHarness(t, "free")
	h.login(t, "user")

	if _, err := h.run(t, "apikey", "revoke", "--password", "secret"); err == nil {
		t.Fatal("expected revoke to refuse without --yes when not interactive")
	}
	if h.api.called("POST /api/user/apikey/revoke") != 0 {
		t.Error("revoke must not be sent without confirmation")
	}
}

func TestPlansUpgrade_IneligibleMakesNoOrder(t *testing.T) {
	tests := []struct {
		current string
		target  string
		want    error
	}{
		{"pro", "pro", payment.ErrCurrentPlan},
		{"pro", "starter", payment.ErrDowngrade},
	}

	for _, tt := range tests {
		t.Run(tt.current+"->"+tt.target, func(t *testing.T) {
			h := newHarness(t, tt.current)
			h.login(t, "user")

			_, err := h.run(t, "plans", "upgrade", tt.target)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if n := h.api.called("POST /api/user/apikey/payment/create-order"); n != 0 {
				t.Errorf("expected no create-order call, got %d", n)
			}
		})
	}
}

func TestPlansUpgrade_RequiresKey(t *testing.T) {
	h := newHarness(t, "free")
	h.api.noKey = true
	h.login(t, "user")

	if _, err := h.run(t, "plans", "upgrade", "starter"); !errors.Is(err, apikey.ErrNoKey) {
		t.Fatalf("expected ErrNoKey, got %v", err)
	}
	if n := h.api.called("POST /api/user/apikey/payment/create-order"); n != 0 {
		t.Errorf("expected no create-order call, got %d", n)
	}
}

func TestUpgradeFailure(t *testing.T) {
	verifyAtDeadline := &payment.VerifyError{OrderID: "order_9", PaymentID: "pay_9", Err: context.DeadlineExceeded}

	tests := []struct {
		name    string
		err     error
		wantErr func(error) bool
		wantOut string
	}{
		{
			name:    "verify failure wrapping a deadline keeps support details",
			err:     verifyAtDeadline,
			wantErr: func(err error) bool { return err == error(verifyAtDeadline) },
			wantOut: "pay_9",
		},
		{
			name:    "cancelled checkout is not an error",
			err:     payment.ErrCheckoutCancelled,
			wantErr: func(err error) bool { return err == nil },
			wantOut: "Payment cancelled",
		},
		{
			name:    "interrupt",
			err:     fmt.Errorf("checkout: %w", context.Canceled),
			wantErr: func(err error) bool { return err != nil && strings.Contains(err.Error(), "interrupted") },
		},
		{
			name:    "checkout timeout passes through",
			err:     payment.ErrCheckoutTimeout,
			wantErr: func(err error) bool { return errors.Is(err, payment.ErrCheckoutTimeout) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			e := &cliEnv{out: &out}
			err := upgradeFailure(e, tt.err)
			if !tt.wantErr(err) {
				t.Fatalf("unexpected error %v", err)
			}
			if !strings.Contains(out.String(), tt.wantOut) {
				t.Errorf("output %q missing %q", out.String(), tt.wantOut)
			}
		})
	}

	msg := errorMessage(verifyAtDeadline)
	if !strings.Contains(msg, "contact support") || !strings.Contains(msg, "order_9") {
		t.Errorf("verify failure message lost: %q", msg)
	}
}

func TestPlansUpgrade_UnknownPlan(t *testing.T) {
	h := newHarness(t, "free")
	h.login(t, "user")

	if _, err := h.run(t, "plans", "upgrade", "platinum"); err == nil || !strings.Contains(err.Error(), "unknown plan") {
		t.Fatalf("expected unknown plan error, got %v", err)
	}
}

func TestPlansList(t *testing.T) {
	h := newHarness(t, "starter")

	// Logged out: the catalog without eligibility
	out, err := h.run(t, "plans", "list", "--json")
	if err != nil {
		t.Fatalf("plans list: %v", err)
	}
	var anon []planView
	if err := json.Unmarshal([]byte(out), &anon); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(anon) != 4 || anon[0].Eligibility != "" {
		t.Errorf("unexpected anonymous listing: %+v", anon)
	}

	h.login(t, "user")
	out, err = h.run(t, "plans", "list", "--json")
	if err != nil {
		t.Fatalf("plans list: %v", err)
	}
	var views []planView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []string{"Downgrade not available", "Current plan", "Upgrade to Pro", "Upgrade to Ultra"}
	for i, v := range views {
		if v.Eligibility != want[i] {
			t.Errorf("%s: eligibility %q, want %q", v.ID, v.Eligibility, want[i])
		}
	}
}

func TestAccountPassword_ValidatesLocally(t *testing.T) {
	h := newHarness(t, "free")
	h.login(t, "user")

	_, err := h.run(t, "account", "password", "--current", "old-secret", "--new", "short")
	if !errors.Is(err, account.ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if n := h.api.called("POST /api/auth/user/update-password"); n != 0 {
		t.Errorf("invalid input must not reach the API, got %d calls", n)
	}
}

func TestOutfitsShow(t *testing.T) {
	h := newHarness(t, "free")
	h.login(t, "user")

	out, err := h.run(t, "outfits", "show", "o1", "--json")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, `"title": "Red carpet"`) {
		t.Errorf("unexpected output: %s", out)
	}

	if _, err := h.run(t, "outfits", "show"); err == nil {
		t.Error("expected an error without an id")
	}
}

func TestAdmin_RequiresSuperAdmin(t *testing.T) {
	h := newHarness(t, "free")
	h.login(t, "user")

	_, err := h.run(t, "admin", "users", "list")
	if err == nil || !strings.Contains(err.Error(), "superadmin") {
		t.Fatalf("expected role error, got %v", err)
	}
	if len(h.api.requests) != 0 {
		t.Errorf("expected no requests, got %v", h.api.requests)
	}
}

func TestReadBody(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"object", []string{"--data", `{"name":"Zendaya"}`}, false},
		{"array", []string{"--data", `[1,2]`}, true},
		{"invalid", []string{"--data", `{`}, true},
		{"missing", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &cli.App{
				Flags: bodyFlags(),
				Action: func(c *cli.Context) error {
					_, err := readBody(c)
					return err
				},
			}
			err := app.Run(append([]string{"test"}, tt.args...))
			if (err != nil) != tt.wantErr {
				t.Errorf("readBody() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
