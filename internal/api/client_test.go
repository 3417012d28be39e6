package api

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
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...ClientOption) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL+"/api/ghl", opts...)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestCallReturnsJSONBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ghl/ping/" {
			t.Errorf("path = %q, want /api/ghl/ping/", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"success":true,"message":"ok"}`)
	})

	raw, err := c.Call(context.Background(), EndpointPing, nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !env.Success || env.Message != "ok" {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestCallHeaderMerging(t *testing.T) {
	var got http.Header
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = io.WriteString(w, `{}`)
	}, WithHeaders(map[string]string{"X-Tenant": "clinic-a", "Accept": "text/plain"}))

	_, err := c.Call(context.Background(), EndpointPing, &Options{
		Headers: map[string]string{"Content-Type": "application/vnd.custom+json", "X-Tenant": "clinic-b"},
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}

	if v := got.Get("Content-Type"); v != "application/vnd.custom+json" {
		t.Errorf("Content-Type = %q, caller value should win", v)
	}
	if v := got.Get("Accept"); v != "text/plain" {
		t.Errorf("Accept = %q, configured value should replace default", v)
	}
	if v := got.Values("X-Tenant"); len(v) != 1 || v[0] != "clinic-b" {
		t.Errorf("X-Tenant = %v, want [clinic-b]", v)
	}
	if got.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID not set")
	}
}

func TestCallDefaultHeaders(t *testing.T) {
	var got http.Header
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = io.WriteString(w, `{}`)
	})
	if _, err := c.Call(context.Background(), EndpointPing, nil); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got.Get("Content-Type") != "application/json" || got.Get("Accept") != "application/json" {
		t.Fatalf("default headers missing: %v", got)
	}
}

func TestCallPostsBody(t *testing.T) {
	var method string
	var body map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = io.WriteString(w, `{"success":true}`)
	})

	_, err := c.Call(context.Background(), EndpointCreateContact, &Options{
		Method: http.MethodPost,
		Body:   CreateContactRequest{FirstName: "Ana", Email: "ana@example.com"},
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if method != http.MethodPost {
		t.Errorf("method = %s, want POST", method)
	}
	if body["firstName"] != "Ana" || body["email"] != "ana@example.com" {
		t.Errorf("body = %v", body)
	}
}

func TestCallHTTPErrorUsesServerMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"not found"}`)
	})

	_, err := c.Call(context.Background(), "/missing/", nil)
	var he *HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("err = %v, want *HTTPError", err)
	}
	if he.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", he.StatusCode)
	}
	if he.Message != "not found" || err.Error() != "not found" {
		t.Errorf("message = %q, want %q", he.Message, "not found")
	}
}

func TestCallHTTPErrorGenericMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"json without message", `{"error":"boom"}`},
		{"empty body", ``},
		{"html body", `<html>oops</html>`},
		{"non-string message", `{"message":{"detail":"x"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := c.Call(context.Background(), EndpointPing, nil)
			var he *HTTPError
			if !errors.As(err, &he) {
				t.Fatalf("err = %v, want *HTTPError", err)
			}
			if he.Message != "HTTP error, status 500" {
				t.Errorf("message = %q", he.Message)
			}
		})
	}
}

func TestCallNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewClient(url)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = c.Call(context.Background(), EndpointPing, nil)
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("err = %v, want *NetworkError", err)
	}
	if ne.Err == nil || ne.Error() == "" {
		t.Fatal("network error carries no transport message")
	}
	if strings.Contains(ne.Error(), "HTTP error") {
		t.Errorf("network error looks like an HTTP error: %q", ne.Error())
	}
}

func TestCallCancelled(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		<-release
		_, _ = io.WriteString(w, `{}`)
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Call(ctx, EndpointPing, nil)
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("err = %v, want *NetworkError", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want to wrap context.DeadlineExceeded", err)
	}
}

func TestCallInvalidJSONOnSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `not json`)
	})
	_, err := c.Call(context.Background(), EndpointPing, nil)
	if !errors.Is(err, ErrInvalidJSON) {
		t.Fatalf("err = %v, want ErrInvalidJSON", err)
	}
}

type recordingObserver struct {
	outcomes []string
}

func (r *recordingObserver) ObserveRequest(_, outcome string, _ time.Duration) {
	r.outcomes = append(r.outcomes, outcome)
}

func TestCallReportsToObserver(t *testing.T) {
	obs := &recordingObserver{}
	status := http.StatusOK
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{}`)
	}, WithObserver(obs))

	_, _ = c.Call(context.Background(), EndpointPing, nil)
	status = http.StatusBadRequest
	_, _ = c.Call(context.Background(), EndpointPing, nil)

	if len(obs.outcomes) != 2 || obs.outcomes[0] != "success" || obs.outcomes[1] != "http_error" {
		t.Fatalf("outcomes = %v", obs.outcomes)
	}
}

func TestNewClientRejectsBadURL(t *testing.T) {
	if _, err := NewClient("ftp://example.com"); err == nil {
		t.Fatal("expected error for non-http scheme")
	}
	c, err := NewClient("")
	if err != nil {
		t.Fatalf("NewClient(\"\"): %v", err)
	}
	if c.BaseURL() != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want default", c.BaseURL())
	}
}

func TestUserMessage(t *testing.T) {
	ve := &ValidationError{}
	ve.Add("end", "end time must be after start time")
	tests := []struct {
		err  error
		want string
	}{
		{&HTTPError{StatusCode: 400, Message: "bad"}, "bad"},
		{&NetworkError{Err: errors.New("connection refused")}, "connection refused"},
		{ve, "validation failed: end time must be after start time"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := UserMessage(tt.err); got != tt.want {
			t.Errorf("UserMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
