package sso

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testKeyID = "test-key"

// fakeProvider is a minimal OpenID Connect provider issuing RS256 ID tokens
type fakeProvider struct {
	*httptest.Server

	t        *testing.T
	key      *rsa.PrivateKey
	clientID string

	mu sync.Mutex
	// advertise end_session_endpoint
	endSession bool
	// expires_in sent with tokens; zero omits it
	expiresIn int
	// exp claim of issued access tokens
	accessTTL time.Duration
	// issue a refresh token with the first grant
	refresh bool
	// overrides the nonce of issued ID tokens
	nonce string

	grants    map[string]grant
	issued    int
	refreshes int
}

type grant struct {
	nonce       string
	challenge   string
	redirectURI string
}

func newFakeProvider(t *testing.T, clientID string) *fakeProvider {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	p := &fakeProvider{
		t:         t,
		key:       key,
		clientID:  clientID,
		accessTTL: time.Hour,
		grants:    make(map[string]grant),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", p.discovery)
	mux.HandleFunc("/.well-known/jwks.json", p.jwks)
	mux.HandleFunc("/oauth/token", p.token)
	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Close)

	return p
}

func (p *fakeProvider) discovery(w http.ResponseWriter, _ *http.Request) {
	doc := map[string]interface{}{
		"issuer":                                p.URL,
		"authorization_endpoint":                p.URL + "/authorize",
		"token_endpoint":                        p.URL + "/oauth/token",
		"jwks_uri":                              p.URL + "/.well-known/jwks.json",
		"id_token_signing_alg_values_supported": []string{"RS256"},
	}
	p.mu.Lock()
	if p.endSession {
		doc["end_session_endpoint"] = p.URL + "/oidc/logout"
	}
	p.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

func (p *fakeProvider) jwks(w http.ResponseWriter, _ *http.Request) {
	pub := p.key.Public().(*rsa.PublicKey)
	jwk := map[string]string{
		"kty": "RSA",
		"use": "sig",
		"alg": "RS256",
		"kid": testKeyID,
		"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"keys": []interface{}{jwk}})
}

// authorize plays the user approving the login started with authURL and
// returns the callback URL the provider would redirect to
func (p *fakeProvider) authorize(authURL string) string {
	u, err := url.Parse(authURL)
	require.NoError(p.t, err)
	q := u.Query()

	p.mu.Lock()
	p.issued++
	code := fmt.Sprintf("code-%d", p.issued)
	p.grants[code] = grant{
		nonce:       q.Get("nonce"),
		challenge:   q.Get("code_challenge"),
		redirectURI: q.Get("redirect_uri"),
	}
	p.mu.Unlock()

	callback, err := url.Parse(q.Get("redirect_uri"))
	require.NoError(p.t, err)
	cq := callback.Query()
	cq.Set("code", code)
	cq.Set("state", q.Get("state"))
	callback.RawQuery = cq.Encode()
	return callback.String()
}

func (p *fakeProvider) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		g, ok := p.grants[r.PostForm.Get("code")]
		delete(p.grants, r.PostForm.Get("code"))
		if !ok {
			writeOAuthError(w, "invalid_grant")
			return
		}
		sum := sha256.Sum256([]byte(r.PostForm.Get("code_verifier")))
		if base64.RawURLEncoding.EncodeToString(sum[:]) != g.challenge {
			writeOAuthError(w, "invalid_grant")
			return
		}
		if r.PostForm.Get("redirect_uri") != g.redirectURI {
			writeOAuthError(w, "invalid_grant")
			return
		}
		nonce := g.nonce
		if p.nonce != "" {
			nonce = p.nonce
		}
		p.writeTokens(w, "access-1", p.idToken(nonce))

	case "refresh_token":
		if r.PostForm.Get("refresh_token") != "refresh-1" {
			writeOAuthError(w, "invalid_grant")
			return
		}
		p.refreshes++
		p.writeTokens(w, fmt.Sprintf("access-%d", p.refreshes+1), "")

	default:
		writeOAuthError(w, "unsupported_grant_type")
	}
}

// writeTokens must be called with p.mu held
func (p *fakeProvider) writeTokens(w http.ResponseWriter, subject, idToken string) {
	resp := map[string]interface{}{
		"access_token": p.accessToken(subject),
		"token_type":   "Bearer",
	}
	if idToken != "" {
		resp["id_token"] = idToken
	}
	if p.expiresIn != 0 {
		resp["expires_in"] = p.expiresIn
	}
	if p.refresh {
		resp["refresh_token"] = "refresh-1"
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// accessToken must be called with p.mu held
func (p *fakeProvider) accessToken(id string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"jti": id,
		"aud": "https://ssd.example.com",
		"exp": time.Now().Add(p.accessTTL).Unix(),
	})
	signed, err := token.SignedString([]byte("api-secret"))
	require.NoError(p.t, err)
	return signed
}

func (p *fakeProvider) idToken(nonce string) string {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":            p.URL,
		"aud":            p.clientID,
		"sub":            "auth0|42",
		"iat":            now.Unix(),
		"exp":            now.Add(time.Hour).Unix(),
		"nonce":          nonce,
		"name":           "Ada Lovelace",
		"nickname":       "ada",
		"email":          "ada@example.com",
		"email_verified": true,
		"picture":        "https://example.com/ada.png",
		"updated_at":     "2024-03-01T10:00:00.000Z",
	})
	token.Header["kid"] = testKeyID
	signed, err := token.SignedString(p.key)
	require.NoError(p.t, err)
	return signed
}

// jti returns the id of an access token issued by the provider
func jti(t *testing.T, accessToken string) string {
	t.Helper()
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(accessToken, claims)
	require.NoError(t, err)
	return claims["jti"].(string)
}

func writeOAuthError(w http.ResponseWriter, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]string{"error": code})
}
