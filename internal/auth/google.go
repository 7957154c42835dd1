package auth

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Google publishes two distinct rotating x509 cert sets, keyed by kid.
// End-user identity tokens are signed with the securetoken set; OAuth2
// service-account identity tokens with the federated-signon set. The
// issuers differ likewise, so each token flavour needs its own verifier.
const (
	firebaseCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"
	oauth2CertsURL   = "https://www.googleapis.com/oauth2/v1/certs"

	oauth2Issuer = "https://accounts.google.com"
)

// GoogleVerifier verifies RS256 identity tokens issued for a Google
// identity project. Signing certificates are fetched lazily and cached
// until the max-age the certs endpoint advertises.
type GoogleVerifier struct {
	projectID string
	issuer    string
	certsURL  string
	client    *http.Client

	mu           sync.Mutex
	keys         map[string]*rsa.PublicKey
	keysFreshFor time.Time
}

// NewGoogleVerifier creates a verifier for end-user identity tokens of
// the given project.
func NewGoogleVerifier(projectID string) *GoogleVerifier {
	return &GoogleVerifier{
		projectID: projectID,
		issuer:    "https://securetoken.google.com/" + projectID,
		certsURL:  firebaseCertsURL,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// NewGoogleOAuth2Verifier creates a verifier for OAuth2 service-account
// identity tokens addressed to the given project. Peer services mint
// these for inter-service calls.
func NewGoogleOAuth2Verifier(projectID string) *GoogleVerifier {
	return &GoogleVerifier{
		projectID: projectID,
		issuer:    oauth2Issuer,
		certsURL:  oauth2CertsURL,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type googleClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	PhoneNumber   string `json:"phone_number"`
	jwt.RegisteredClaims
}

func (v *GoogleVerifier) Verify(ctx context.Context, rawToken string) (*TokenClaims, error) {
	claims := &googleClaims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token has no kid header")
		}
		return v.signingKey(ctx, kid)
	},
		jwt.WithAudience(v.projectID),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("verifying identity token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("identity token is not valid")
	}

	return &TokenClaims{
		Subject:       claims.Subject,
		Audience:      claims.Audience,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		PhoneNumber:   claims.PhoneNumber,
	}, nil
}

// signingKey returns the public key for kid, refreshing the cached cert
// set when it is stale or does not know the kid (rotation).
func (v *GoogleVerifier) signingKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if key, ok := v.keys[kid]; ok && time.Now().Before(v.keysFreshFor) {
		return key, nil
	}

	if err := v.refreshKeysLocked(ctx); err != nil {
		return nil, err
	}

	key, ok := v.keys[kid]
	if !ok {
		return nil, fmt.Errorf("no signing certificate for kid %q", kid)
	}
	return key, nil
}

func (v *GoogleVerifier) refreshKeysLocked(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.certsURL, nil)
	if err != nil {
		return fmt.Errorf("building certs request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching signing certificates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching signing certificates: status %d", resp.StatusCode)
	}

	var certs map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&certs); err != nil {
		return fmt.Errorf("decoding signing certificates: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(certs))
	for kid, certPEM := range certs {
		key, err := parseRSAPublicKey(certPEM)
		if err != nil {
			return fmt.Errorf("parsing certificate %q: %w", kid, err)
		}
		keys[kid] = key
	}

	v.keys = keys
	v.keysFreshFor = time.Now().Add(certsMaxAge(resp.Header.Get("Cache-Control")))
	return nil
}

func parseRSAPublicKey(certPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(certPEM))
	if block == nil {
		return nil, fmt.Errorf("no pem block in certificate")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("certificate key is not rsa")
	}
	return key, nil
}

// certsMaxAge extracts max-age from a Cache-Control header, with a
// conservative floor so a missing header does not hammer the endpoint.
func certsMaxAge(cacheControl string) time.Duration {
	for _, directive := range strings.Split(cacheControl, ",") {
		directive = strings.TrimSpace(directive)
		if rest, ok := strings.CutPrefix(directive, "max-age="); ok {
			if secs, err := strconv.Atoi(rest); err == nil && secs > 0 {
				return time.Duration(secs) * time.Second
			}
		}
	}
	return 5 * time.Minute
}

var _ TokenVerifier = (*GoogleVerifier)(nil)
