package maxitaxi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestSendPreflightRejectsWithoutToken(t *testing.T) {
	srv := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	engine, _ := newTestEngine(t, srv.URL, nil)

	_, err := engine.Send(context.Background(), "rides", map[string]int{"rideId": 7})
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if srv.hitCount() != 0 {
		t.Fatalf("preflight rejection must not reach the network, saw %d requests", srv.hitCount())
	}
	if got := engine.metrics.Value(MetricPreflightRejected); got != 1 {
		t.Fatalf("expected 1 preflight rejection, got %d", got)
	}
}

func TestSendExpiredStoredTokenRejectedLocally(t *testing.T) {
	srv := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	engine, _ := newTestEngine(t, srv.URL, nil)

	ctx := context.Background()
	expired := makeToken(t, 1, 2, "rider@maxitaxi.example", time.Now().Add(-time.Minute))
	if err := engine.store.SetToken(ctx, expired); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	_, err := engine.Get(ctx, "profile")
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if srv.hitCount() != 0 {
		t.Fatalf("expired token must be rejected before the network call")
	}

	tok, _ := engine.store.Token(ctx)
	if tok != "" {
		t.Fatalf("forced logout must clear the stored token, got %q", tok)
	}
}

func TestSendExemptEndpointWithoutToken(t *testing.T) {
	var sawAuth string
	var payload json.RawMessage
	srv := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		sawAuth = r.Header.Get("Authorization")
		payload = decryptRequestEnvelope(t, r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	engine, _ := newTestEngine(t, srv.URL, nil)

	resp, err := engine.Send(context.Background(), "login", map[string]string{"email": "a@b.c", "password": "x"})
	if err != nil {
		t.Fatalf("exempt endpoint failed: %v", err)
	}
	if sawAuth != "" {
		t.Fatalf("expected no Authorization header, got %q", sawAuth)
	}
	var decoded map[string]string
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("request payload did not round trip: %v", err)
	}
	if decoded["email"] != "a@b.c" {
		t.Fatalf("unexpected decrypted payload %v", decoded)
	}
	if string(resp.Body) != `{"ok":true}` {
		t.Fatalf("unexpected response body %s", resp.Body)
	}
}

func TestUnauthorizedResponseForcesLogout(t *testing.T) {
	srv := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"token revoked"}`))
	})
	engine, events := newTestEngine(t, srv.URL, nil)

	ctx := context.Background()
	tok := makeToken(t, 1, 2, "rider@maxitaxi.example", time.Now().Add(time.Hour))
	if err := engine.store.SetToken(ctx, tok); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	engine.authed.Store(true)

	_, err := engine.Get(ctx, "profile")
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired on 401, got %v", err)
	}

	stored, _ := engine.store.Token(ctx)
	if stored != "" {
		t.Fatalf("401 must clear stored token, got %q", stored)
	}
	if engine.State() != StateExpired {
		t.Fatalf("expected StateExpired after 401, got %s", engine.State())
	}
	got := events.list()
	if len(got) != 1 || got[0] != false {
		t.Fatalf("expected one unauthenticated transition, got %v", got)
	}
	if engine.metrics.Value(MetricForcedLogout) != 1 {
		t.Fatalf("expected exactly one forced logout")
	}
}

func TestErrorResponseWithJSONMessage(t *testing.T) {
	srv := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"ride already assigned"}`))
	})
	engine, _ := newTestEngine(t, srv.URL, nil)
	seedValidToken(t, engine)

	_, err := engine.Send(context.Background(), "rides", map[string]int{"rideId": 7})
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected *RequestError, got %v", err)
	}
	if reqErr.StatusCode != http.StatusConflict || reqErr.Message != "ride already assigned" {
		t.Fatalf("unexpected request error %+v", reqErr)
	}
}

func TestErrorResponseWithErrorField(t *testing.T) {
	srv := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"missing pickup point"}`))
	})
	engine, _ := newTestEngine(t, srv.URL, nil)
	seedValidToken(t, engine)

	_, err := engine.Send(context.Background(), "rides", map[string]int{"rideId": 7})
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected *RequestError, got %v", err)
	}
	if reqErr.Message != "missing pickup point" {
		t.Fatalf("unexpected message %q", reqErr.Message)
	}
}

func TestErrorResponseNonJSONSynthesizesMessage(t *testing.T) {
	srv := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("maintenance window"))
	})
	engine, _ := newTestEngine(t, srv.URL, nil)
	seedValidToken(t, engine)

	_, err := engine.Get(context.Background(), "drivers")
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected *RequestError, got %v", err)
	}
	if !strings.Contains(reqErr.Message, "503") || !strings.Contains(reqErr.Message, "maintenance window") {
		t.Fatalf("synthesized message missing detail: %q", reqErr.Message)
	}
}

func TestEnvelopeResponseIsDecrypted(t *testing.T) {
	srv := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelopeJSON(t, w, map[string]any{"driverId": 9, "status": "en_route"})
	})
	engine, _ := newTestEngine(t, srv.URL, nil)
	seedValidToken(t, engine)

	resp, err := engine.Get(context.Background(), "rides/active")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !resp.Encrypted {
		t.Fatalf("expected envelope response to be flagged encrypted")
	}
	var body map[string]any
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		t.Fatalf("decrypted body is not JSON: %v", err)
	}
	if body["status"] != "en_route" {
		t.Fatalf("unexpected decrypted body %v", body)
	}
}

func TestPlainJSONResponsePassesThrough(t *testing.T) {
	srv := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"version":"2.4.1"}`))
	})
	engine, _ := newTestEngine(t, srv.URL, nil)
	seedValidToken(t, engine)

	resp, err := engine.Get(context.Background(), "meta")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if resp.Encrypted {
		t.Fatalf("plain JSON must not be flagged encrypted")
	}
	if string(resp.Body) != `{"version":"2.4.1"}` {
		t.Fatalf("unexpected body %s", resp.Body)
	}
}

func TestTextResponsePassesThrough(t *testing.T) {
	srv := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("pong"))
	})
	engine, _ := newTestEngine(t, srv.URL, nil)
	seedValidToken(t, engine)

	resp, err := engine.Get(context.Background(), "ping")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if resp.Text != "pong" || resp.Body != nil {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestCorruptedEnvelopeResponse(t *testing.T) {
	srv := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		env, err := testCodec(t).Encrypt(map[string]int{"a": 1})
		if err != nil {
			t.Errorf("server-side encrypt failed: %v", err)
		}
		env.Data[0] ^= 0xff
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(env)
	})
	engine, _ := newTestEngine(t, srv.URL, nil)
	seedValidToken(t, engine)

	ctx := context.Background()
	_, err := engine.Get(ctx, "profile")
	if !errors.Is(err, ErrDecryption) {
		t.Fatalf("expected ErrDecryption, got %v", err)
	}

	// Decryption failures are not a logout trigger.
	tok, _ := engine.store.Token(ctx)
	if tok == "" {
		t.Fatalf("decryption failure must not clear the session")
	}
}

func TestRequestIDHeaderPropagation(t *testing.T) {
	var sawID string
	srv := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		sawID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})
	engine, _ := newTestEngine(t, srv.URL, nil)
	seedValidToken(t, engine)

	ctx := WithRequestID(context.Background(), "rid-42")
	if _, err := engine.Get(ctx, "profile"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if sawID != "rid-42" {
		t.Fatalf("expected propagated request id, got %q", sawID)
	}

	if _, err := engine.Get(context.Background(), "profile"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if sawID == "" || sawID == "rid-42" {
		t.Fatalf("expected generated request id, got %q", sawID)
	}
}

func seedValidToken(t *testing.T, engine *Engine) {
	t.Helper()
	tok := makeToken(t, 1, 2, "rider@maxitaxi.example", time.Now().Add(time.Hour))
	if err := engine.store.SetToken(context.Background(), tok); err != nil {
		t.Fatalf("seed token: %v", err)
	}
}
