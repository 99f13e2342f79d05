package maxitaxi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/JakubNatonek/MaxiTaxi-sub000/envelope"
	"github.com/JakubNatonek/MaxiTaxi-sub000/store"
	"github.com/JakubNatonek/MaxiTaxi-sub000/token"
)

// dispatcher is the single chokepoint for authenticated network calls:
// preflight, envelope encryption, bearer attachment, and response
// interpretation all happen here and nowhere else.
type dispatcher struct {
	baseURL string
	client  *http.Client
	codec   *envelope.Codec
	store   store.Store
	exempt  map[string]struct{}
	metrics *Metrics
	log     zerolog.Logger
	now     func() time.Time

	// unauthorized is the forced-logout hook, wired to the engine after
	// construction. Invoked on preflight rejection and on every 401.
	unauthorized func(context.Context)
}

func newDispatcher(cfg Config, client *http.Client, codec *envelope.Codec, st store.Store, metrics *Metrics, log zerolog.Logger) *dispatcher {
	exempt := make(map[string]struct{}, len(cfg.Dispatcher.ExemptEndpoints))
	for _, e := range cfg.Dispatcher.ExemptEndpoints {
		exempt[strings.Trim(e, "/")] = struct{}{}
	}
	return &dispatcher{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  client,
		codec:   codec,
		store:   st,
		exempt:  exempt,
		metrics: metrics,
		log:     log,
		now:     time.Now,
	}
}

// Send encrypts payload into an envelope and dispatches it to endpoint.
func (d *dispatcher) Send(ctx context.Context, endpoint string, payload any, method string) (*Response, error) {
	bearer, err := d.preflight(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	env, err := d.codec.Encrypt(payload)
	if err != nil {
		return nil, fmt.Errorf("encrypt payload for %s: %w", endpoint, err)
	}
	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope for %s: %w", endpoint, err)
	}

	return d.do(ctx, method, endpoint, bearer, bytes.NewReader(body))
}

// Get dispatches a body-less call to endpoint.
func (d *dispatcher) Get(ctx context.Context, endpoint string) (*Response, error) {
	bearer, err := d.preflight(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return d.do(ctx, http.MethodGet, endpoint, bearer, nil)
}

// postBearer issues the refresh call: explicit bearer, empty body, raw
// status and body back. It bypasses preflight on purpose: the refresh
// token is soon-to-expire but not yet expired, and the refresh flow owns
// the failure policy.
func (d *dispatcher) postBearer(ctx context.Context, endpoint, bearer string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url(endpoint), nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("X-Request-ID", d.requestID(ctx))

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, raw, nil
}

// preflight enforces local session validity before any network call. The
// returned bearer may be empty only for exempt endpoints.
func (d *dispatcher) preflight(ctx context.Context, endpoint string) (string, error) {
	tok, err := d.store.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("read session store: %w", err)
	}

	if _, ok := d.exempt[strings.Trim(endpoint, "/")]; ok {
		return tok, nil
	}

	if tok == "" {
		d.reject(ctx, endpoint, "no stored token")
		return "", ErrSessionExpired
	}
	claims, err := token.Decode(tok)
	if err != nil {
		d.reject(ctx, endpoint, "stored token unparsable")
		return "", ErrSessionExpired
	}
	if claims.Expired(d.now()) {
		d.reject(ctx, endpoint, "stored token expired")
		return "", ErrSessionExpired
	}
	return tok, nil
}

func (d *dispatcher) reject(ctx context.Context, endpoint, reason string) {
	d.metrics.Inc(MetricPreflightRejected)
	d.log.Debug().Str("endpoint", endpoint).Str("reason", reason).Msg("preflight rejected")
	if d.unauthorized != nil {
		d.unauthorized(ctx)
	}
}

func (d *dispatcher) do(ctx context.Context, method, endpoint, bearer string, body io.Reader) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, d.url(endpoint), body)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", endpoint, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.Header.Set("X-Request-ID", d.requestID(ctx))

	resp, err := d.client.Do(req)
	if err != nil {
		d.metrics.Inc(MetricDispatchFailure)
		return nil, fmt.Errorf("dispatch %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		d.metrics.Inc(MetricDispatchFailure)
		return nil, fmt.Errorf("read response from %s: %w", endpoint, err)
	}

	return d.interpret(ctx, endpoint, resp.StatusCode, resp.Header.Get("Content-Type"), raw)
}

// interpret applies the response taxonomy. A 401 always wins regardless of
// body content.
func (d *dispatcher) interpret(ctx context.Context, endpoint string, status int, contentType string, raw []byte) (*Response, error) {
	if status == http.StatusUnauthorized {
		d.metrics.Inc(MetricDispatchUnauthorized)
		d.log.Info().Str("endpoint", endpoint).Msg("server rejected bearer token")
		if d.unauthorized != nil {
			d.unauthorized(ctx)
		}
		return nil, ErrSessionExpired
	}

	if status < 200 || status > 299 {
		d.metrics.Inc(MetricDispatchFailure)
		return nil, &RequestError{StatusCode: status, Message: errorMessage(status, raw)}
	}

	d.metrics.Inc(MetricDispatchSuccess)

	if !isJSONContentType(contentType) {
		return &Response{StatusCode: status, Text: string(raw)}, nil
	}

	if envelope.Detect(raw) {
		var env envelope.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
		}
		plain, err := d.codec.Decrypt(env)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
		}
		return &Response{StatusCode: status, Body: plain, Encrypted: true}, nil
	}

	return &Response{StatusCode: status, Body: json.RawMessage(raw)}, nil
}

func (d *dispatcher) url(endpoint string) string {
	return d.baseURL + "/" + strings.Trim(endpoint, "/")
}

func (d *dispatcher) requestID(ctx context.Context) string {
	if id := requestIDFromContext(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

func isJSONContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// errorMessage extracts the server's message field when the error body is
// JSON, otherwise synthesizes one from the status and raw text.
func errorMessage(status int, raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}

	text := strings.TrimSpace(string(raw))
	if len(text) > 256 {
		text = text[:256]
	}
	if text == "" {
		return fmt.Sprintf("status %d %s", status, http.StatusText(status))
	}
	return fmt.Sprintf("status %d: %s", status, text)
}
