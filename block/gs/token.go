package gs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cast"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// Token string values with a special meaning. Any other string is a JSON document or a
// path to a service account key file.
const (
	TokenAnonymous     = "anon"
	TokenGoogleDefault = "google_default"
	TokenCloud         = "cloud"

	accessTokenField = "access_token"
	typeField        = "type"
)

var scopes = []string{storage.ScopeReadWrite}

// tokenOptions maps the token parameter to client options, see ClientOptions.
func tokenOptions(token interface{}) ([]option.ClientOption, error) {
	switch t := token.(type) {
	case nil:
		return nil, nil
	case string:
		return stringTokenOptions(t)
	}
	m, err := cast.ToStringMapE(token)
	if err != nil {
		return nil, fmt.Errorf("gcs: unsupported token type %T", token)
	}
	if len(m) == 0 {
		return nil, nil
	}
	if accessToken, ok := m[accessTokenField]; ok {
		if _, hasType := m[typeField]; !hasType {
			tok := &oauth2.Token{AccessToken: cast.ToString(accessToken)}
			if tok.AccessToken == "" {
				return nil, fmt.Errorf("gcs: empty %s", accessTokenField)
			}
			return []option.ClientOption{option.WithTokenSource(oauth2.StaticTokenSource(tok))}, nil
		}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("gcs: encode token: %w", err)
	}
	return credentialsJSONOptions(data)
}

func stringTokenOptions(token string) ([]option.ClientOption, error) {
	switch strings.TrimSpace(token) {
	case "", TokenGoogleDefault, TokenCloud:
		return nil, nil
	case TokenAnonymous:
		return []option.ClientOption{option.WithoutAuthentication()}, nil
	}
	if strings.HasPrefix(strings.TrimSpace(token), "{") {
		return credentialsJSONOptions([]byte(token))
	}
	p, err := homedir.Expand(token)
	if err != nil {
		return nil, fmt.Errorf("gcs: token path: %w", err)
	}
	return []option.ClientOption{option.WithCredentialsFile(p)}, nil
}

func credentialsJSONOptions(data []byte) ([]option.ClientOption, error) {
	creds, err := google.CredentialsFromJSON(context.Background(), data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("gcs: parse credentials: %w", err)
	}
	return []option.ClientOption{option.WithCredentials(creds)}, nil
}
