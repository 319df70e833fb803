package account

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/celebstyle/celebstyle-cli/pkg/httpclient"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, func()) {
	t.Helper()
	server := httptest.NewServer(h)
	base := httpclient.NewBaseClient(server.URL, 5*time.Second)
	base.SetTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "session"}))
	return NewClient(base), server.Close
}

func TestProfile(t *testing.T) {
	client, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/user/profile" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"success":true,"user":{"_id":"u1","name":"Asha","email":"asha@example.com","role":"user"}}`))
	})
	defer done()

	p, err := client.Profile(context.Background())
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.ID != "u1" || p.Name != "Asha" || p.Email != "asha@example.com" {
		t.Errorf("unexpected profile %+v", p)
	}
}

func TestUpdateProfile_SendsOnlySetFields(t *testing.T) {
	var body map[string]interface{}
	client, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"success":true,"profile":{"_id":"u1","name":"Asha","bio":"Stylist"}}`))
	})
	defer done()

	bio := "Stylist"
	p, err := client.UpdateProfile(context.Background(), ProfileUpdate{Bio: &bio})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if len(body) != 1 || body["bio"] != "Stylist" {
		t.Errorf("unexpected body %v", body)
	}
	if p.Bio != "Stylist" {
		t.Errorf("unexpected profile %+v", p)
	}
}

func TestUploadAvatar(t *testing.T) {
	client, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/user/profile/avatar" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		f, hdr, err := r.FormFile("avatar")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		data, _ := io.ReadAll(f)
		if hdr.Filename != "me.png" || string(data) != "png-bytes" {
			t.Errorf("unexpected upload %s %q", hdr.Filename, data)
		}
		w.Write([]byte(`{"success":true,"avatar":"https://cdn.example.test/me.png"}`))
	})
	defer done()

	p, err := client.UploadAvatar(context.Background(), "me.png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("UploadAvatar: %v", err)
	}
	if p.Avatar != "https://cdn.example.test/me.png" {
		t.Errorf("unexpected avatar %q", p.Avatar)
	}
}

func TestUpdatePassword_Validation(t *testing.T) {
	calls := 0
	client, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"success":true}`))
	})
	defer done()

	tests := []struct {
		name string
		in   PasswordChange
		want error
	}{
		{"missing current", PasswordChange{New: "longenough", Confirm: "longenough"}, ErrCurrentPasswordRequired},
		{"mismatch", PasswordChange{Current: "old", New: "longenough", Confirm: "longenougH"}, ErrPasswordMismatch},
		{"too short", PasswordChange{Current: "old", New: "short", Confirm: "short"}, ErrPasswordTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := client.UpdatePassword(context.Background(), tt.in); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if calls != 0 {
		t.Errorf("invalid forms must not reach the server, got %d calls", calls)
	}
}

func TestUpdatePassword_ServerMessage(t *testing.T) {
	var body map[string]string
	client, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/user/update-password" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"message":"Current password is incorrect"}`))
	})
	defer done()

	err := client.UpdatePassword(context.Background(), PasswordChange{Current: "old", New: "brandnew1", Confirm: "brandnew1"})
	if got := httpclient.MessageOf(err, ""); got != "Current password is incorrect" {
		t.Errorf("unexpected message %q", got)
	}
	if body["currentPassword"] != "old" || body["newPassword"] != "brandnew1" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestDeleteAccount(t *testing.T) {
	var body map[string]string
	client, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/user/account" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"success":true,"message":"Account deleted"}`))
	})
	defer done()

	if err := client.DeleteAccount(context.Background(), ""); !errors.Is(err, ErrPasswordRequired) {
		t.Errorf("expected ErrPasswordRequired, got %v", err)
	}
	if err := client.DeleteAccount(context.Background(), "secret"); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if body["password"] != "secret" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestActivity(t *testing.T) {
	client, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Errorf("expected limit 5, got %q", got)
		}
		w.Write([]byte(`{"success":true,"activities":[{"_id":"a1","type":"login","description":"Signed in","createdAt":"2026-10-01T10:00:00Z"}]}`))
	})
	defer done()

	items, err := client.Activity(context.Background(), 5)
	if err != nil {
		t.Fatalf("Activity: %v", err)
	}
	if len(items) != 1 || items[0].Type != "login" || items[0].CreatedAt.Year() != 2026 {
		t.Errorf("unexpected activity %+v", items)
	}
}
