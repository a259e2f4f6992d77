package token

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/parnurzeal/gorequest"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/psirt-checker/config"
	"github.com/aquasecurity/psirt-checker/utils"
)

// AuthenticationError is returned when the credential exchange does not
// produce a usable bearer token.
type AuthenticationError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *AuthenticationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("authentication failed: %s: status code %d: %s", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("authentication failed: %s: %s", e.URL, e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

type response struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type option func(*Acquirer)

func WithURL(url string) option {
	return func(a *Acquirer) { a.url = url }
}

func WithProxy(proxy string) option {
	return func(a *Acquirer) { a.proxy = proxy }
}

func WithVerifyTLS(verify bool) option {
	return func(a *Acquirer) { a.verifyTLS = verify }
}

// Acquirer performs a single OAuth client-credentials exchange.
type Acquirer struct {
	url       string
	proxy     string
	verifyTLS bool
}

func NewAcquirer(opts ...option) Acquirer {
	a := Acquirer{
		url:       config.DefaultTokenURL,
		verifyTLS: true,
	}
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

// Acquire exchanges the client credentials for a bearer token. The token is
// neither cached nor refreshed.
func (a Acquirer) Acquire(ctx context.Context, clientID, clientSecret string) (*oauth2.Token, error) {
	if clientID == "" || clientSecret == "" {
		return nil, &AuthenticationError{URL: a.url, Err: xerrors.New("empty client credentials")}
	}

	tr, err := utils.NewTransport(a.proxy, a.verifyTLS)
	if err != nil {
		return nil, &AuthenticationError{URL: a.url, Err: err}
	}

	log.Debugf("Requesting API token from %s", a.url)

	agent := gorequest.New().Post(a.url).
		Type(gorequest.TypeForm).
		Param("client_id", clientID).
		Param("client_secret", clientSecret).
		Send("grant_type=client_credentials")
	if len(agent.Errors) > 0 {
		return nil, &AuthenticationError{URL: a.url, Err: agent.Errors[0]}
	}
	req, err := agent.MakeRequest()
	if err != nil {
		return nil, &AuthenticationError{URL: a.url, Err: xerrors.Errorf("failed to build token request: %w", err)}
	}

	client := &http.Client{Transport: tr}
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, &AuthenticationError{URL: a.url, Err: xerrors.Errorf("HTTP error: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &AuthenticationError{URL: a.url, StatusCode: resp.StatusCode, Err: xerrors.New(http.StatusText(resp.StatusCode))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &AuthenticationError{URL: a.url, Err: xerrors.Errorf("failed to read token response: %w", err)}
	}

	var r response
	if err = json.Unmarshal(body, &r); err != nil {
		return nil, &AuthenticationError{URL: a.url, Err: xerrors.Errorf("failed to decode token response: %w", err)}
	}
	if r.AccessToken == "" {
		return nil, &AuthenticationError{URL: a.url, Err: xerrors.New("no access_token in response")}
	}
	if r.TokenType != "" && !strings.EqualFold(r.TokenType, "bearer") {
		log.Debugf("Ignoring token_type %q, requests always use Bearer", r.TokenType)
	}

	// The advisory API only accepts "Authorization: Bearer".
	tok := &oauth2.Token{
		AccessToken: r.AccessToken,
		TokenType:   "Bearer",
	}
	if r.ExpiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return tok, nil
}
