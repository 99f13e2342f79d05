package maxitaxi

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/JakubNatonek/MaxiTaxi-sub000/envelope"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// makeToken assembles an unsigned-but-well-framed JWT with the claim set the
// server issues. Claims parsing never verifies signatures, so a fixed filler
// segment is enough.
func makeToken(t *testing.T, id int64, roleID int, email string, exp time.Time) string {
	t.Helper()

	header, err := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	if err != nil {
		t.Fatalf("marshal header: %v", err)
	}
	body, err := json.Marshal(map[string]any{
		"id":     id,
		"roleId": roleID,
		"email":  email,
		"exp":    exp.Unix(),
	})
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	enc := base64.RawURLEncoding
	return enc.EncodeToString(header) + "." + enc.EncodeToString(body) + "." + enc.EncodeToString([]byte("filler"))
}

func testCodec(t *testing.T) *envelope.Codec {
	t.Helper()

	c, err := envelope.NewCodec(testSecret)
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}
	return c
}

// authEvents records AuthListener transitions.
type authEvents struct {
	mu     sync.Mutex
	events []bool
}

func (a *authEvents) listener() AuthListener {
	return func(authenticated bool) {
		a.mu.Lock()
		defer a.mu.Unlock()
		a.events = append(a.events, authenticated)
	}
}

func (a *authEvents) list() []bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]bool(nil), a.events...)
}

// newTestEngine builds an engine against base with a memory store and nop
// logger. The clock is not started; tests drive checks directly.
func newTestEngine(t *testing.T, base string, mutate func(*Builder)) (*Engine, *authEvents) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.BaseURL = base
	cfg.Secret = testSecret

	events := &authEvents{}
	b := New().WithConfig(cfg).WithAuthListener(events.listener())
	if mutate != nil {
		mutate(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, events
}

// countingServer wraps an httptest server and counts the requests it saw.
type countingServer struct {
	*httptest.Server
	mu   sync.Mutex
	hits int
}

func newCountingServer(t *testing.T, handler http.HandlerFunc) *countingServer {
	t.Helper()

	cs := &countingServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.mu.Lock()
		cs.hits++
		cs.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(cs.Close)
	return cs
}

func (cs *countingServer) hitCount() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.hits
}

// writeEnvelopeJSON encrypts payload and writes it as an envelope response.
func writeEnvelopeJSON(t *testing.T, w http.ResponseWriter, payload any) {
	t.Helper()

	env, err := testCodec(t).Encrypt(payload)
	if err != nil {
		t.Fatalf("server-side encrypt failed: %v", err)
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(env); err != nil {
		t.Fatalf("server-side encode failed: %v", err)
	}
}

// decryptRequestEnvelope reads and decrypts an envelope request body.
func decryptRequestEnvelope(t *testing.T, r *http.Request) json.RawMessage {
	t.Helper()

	var env envelope.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		t.Fatalf("request body is not an envelope: %v", err)
	}
	plain, err := testCodec(t).Decrypt(env)
	if err != nil {
		t.Fatalf("request envelope decrypt failed: %v", err)
	}
	return plain
}
