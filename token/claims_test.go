package token

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

// buildToken assembles an unsigned-but-well-framed JWT. Decode never checks
// the signature, so a fixed filler segment is enough.
func buildToken(t *testing.T, claims map[string]any) string {
	t.Helper()

	header, err := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	if err != nil {
		t.Fatalf("marshal header: %v", err)
	}
	body, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	enc := base64.RawURLEncoding
	return enc.EncodeToString(header) + "." + enc.EncodeToString(body) + "." + enc.EncodeToString([]byte("filler"))
}

func TestDecodeExtractsClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	tok := buildToken(t, map[string]any{
		"id":     int64(42),
		"roleId": 3,
		"email":  "driver@maxitaxi.example",
		"exp":    exp,
	})

	c, err := Decode(tok)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if c.SubjectID != 42 {
		t.Fatalf("expected subject 42, got %d", c.SubjectID)
	}
	if c.RoleID != 3 {
		t.Fatalf("expected role 3, got %d", c.RoleID)
	}
	if c.Email != "driver@maxitaxi.example" {
		t.Fatalf("unexpected email %q", c.Email)
	}
	if c.Exp != exp {
		t.Fatalf("expected exp %d, got %d", exp, c.Exp)
	}
}

func TestDecodeAcceptsLegacyRoleKey(t *testing.T) {
	tok := buildToken(t, map[string]any{
		"id":      1,
		"role_id": 2,
		"email":   "rider@maxitaxi.example",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	c, err := Decode(tok)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if c.RoleID != 2 {
		t.Fatalf("expected role 2 from role_id fallback, got %d", c.RoleID)
	}
}

func TestDecodeRejectsMissingClaims(t *testing.T) {
	base := map[string]any{
		"id":     1,
		"roleId": 2,
		"email":  "rider@maxitaxi.example",
		"exp":    time.Now().Add(time.Hour).Unix(),
	}

	for _, missing := range []string{"id", "roleId", "email", "exp"} {
		claims := map[string]any{}
		for k, v := range base {
			if k != missing {
				claims[k] = v
			}
		}
		tok := buildToken(t, claims)
		if _, err := Decode(tok); !errors.Is(err, ErrMalformed) {
			t.Fatalf("missing %q: expected ErrMalformed, got %v", missing, err)
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, tok := range []string{"", "not-a-token", "a.b", "a.b.c.d", "notb64.notb64.notb64"} {
		if _, err := Decode(tok); !errors.Is(err, ErrMalformed) {
			t.Fatalf("token %q: expected ErrMalformed, got %v", tok, err)
		}
	}
}

func TestExpiryHelpers(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	live := &Claims{Exp: now.Add(5 * time.Minute).Unix()}
	if live.Expired(now) {
		t.Fatalf("token with 5m left reported expired")
	}
	if got := live.TimeToExpiry(now); got != 5*time.Minute {
		t.Fatalf("expected 5m to expiry, got %s", got)
	}

	dead := &Claims{Exp: now.Unix()}
	if !dead.Expired(now) {
		t.Fatalf("token expiring exactly now must count as expired")
	}

	past := &Claims{Exp: now.Add(-time.Minute).Unix()}
	if got := past.TimeToExpiry(now); got != -time.Minute {
		t.Fatalf("expected -1m to expiry, got %s", got)
	}
}
