// Package auth builds Authorization headers for composed requests.
package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/postboy/postboy/pkg/core"
)

// HeaderName is the header every helper fills in.
const HeaderName = "Authorization"

// Bearer returns "Authorization: Bearer <token>".
func Bearer(token string) (core.KeyValuePair, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return core.KeyValuePair{}, fmt.Errorf("bearer token is required")
	}
	return core.NewPair(HeaderName, "Bearer "+token), nil
}

// Basic returns "Authorization: Basic <base64(user:pass)>".
func Basic(username, password string) (core.KeyValuePair, error) {
	if username == "" {
		return core.KeyValuePair{}, fmt.Errorf("username is required")
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return core.NewPair(HeaderName, "Basic "+encoded), nil
}

// ParseBasic splits a "user:pass" flag value.
func ParseBasic(credentials string) (string, string, error) {
	user, pass, ok := strings.Cut(credentials, ":")
	if !ok || user == "" {
		return "", "", fmt.Errorf("invalid credentials %q (expected user:pass)", credentials)
	}
	return user, pass, nil
}

// DecodeBasic reverses Basic. The "Basic " prefix is optional.
func DecodeBasic(header string) (string, string, error) {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(strings.TrimSpace(header), "Basic "))
	if err != nil {
		return "", "", fmt.Errorf("failed to decode Basic auth: %w", err)
	}
	user, pass, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return "", "", fmt.Errorf("invalid Basic auth format (expected username:password)")
	}
	return user, pass, nil
}

// ClientCredentialsConfig describes an OAuth2 client_credentials grant.
type ClientCredentialsConfig struct {
	TokenURL     string   `mapstructure:"token_url"`
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	Scopes       []string `mapstructure:"scopes"`
	// HTTPClient is used for the token call when set
	HTTPClient *http.Client `mapstructure:"-"`
}

// ClientCredentials fetches a token and returns it as a bearer header.
func ClientCredentials(ctx context.Context, cfg ClientCredentialsConfig) (core.KeyValuePair, error) {
	if cfg.TokenURL == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return core.KeyValuePair{}, fmt.Errorf("token_url, client_id and client_secret are required")
	}
	if cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, cfg.HTTPClient)
	}

	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       cfg.Scopes,
	}
	token, err := cc.Token(ctx)
	if err != nil {
		return core.KeyValuePair{}, fmt.Errorf("OAuth2 client_credentials flow failed: %w", err)
	}
	return tokenHeader(token), nil
}

// Password runs the resource owner password grant.
func Password(ctx context.Context, cfg ClientCredentialsConfig, username, password string) (core.KeyValuePair, error) {
	if username == "" || password == "" {
		return core.KeyValuePair{}, fmt.Errorf("username and password are required for password flow")
	}
	if cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, cfg.HTTPClient)
	}

	oc := oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
		Scopes:       cfg.Scopes,
	}
	token, err := oc.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		return core.KeyValuePair{}, fmt.Errorf("OAuth2 password flow failed: %w", err)
	}
	return tokenHeader(token), nil
}

func tokenHeader(token *oauth2.Token) core.KeyValuePair {
	kind := token.Type()
	return core.NewPair(HeaderName, kind+" "+token.AccessToken)
}

// Claims is the decoded, unverified content of a JWT.
type Claims struct {
	Header  map[string]any
	Payload map[string]any
}

// ParseJWT decodes a JWT without verifying its signature.
func ParseJWT(token string) (*Claims, error) {
	parts := strings.Split(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "), ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid JWT format (expected 3 parts, got %d)", len(parts))
	}

	var claims Claims
	if err := decodeSegment(parts[0], &claims.Header); err != nil {
		return nil, fmt.Errorf("failed to decode JWT header: %w", err)
	}
	if err := decodeSegment(parts[1], &claims.Payload); err != nil {
		return nil, fmt.Errorf("failed to decode JWT payload: %w", err)
	}
	return &claims, nil
}

func decodeSegment(seg string, out *map[string]any) error {
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(seg, "="))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
