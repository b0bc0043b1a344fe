// Package secrets retrieves operator credentials from Infisical. The only
// secret the tool needs today is the SSH key passphrase for encrypted fleet
// keys; anything configured locally takes precedence and skips the lookup.
package secrets

import (
	"context"
	"fmt"
	"os"

	infisical "github.com/infisical/go-sdk"
)

const defaultSiteURL = "https://app.infisical.com"

// Client wraps an authenticated Infisical session.
type Client struct {
	client    infisical.InfisicalClientInterface
	projectID string
	env       string
}

// NewClient authenticates with the machine identity from the environment.
// Returns nil without error when no identity is configured; callers treat a
// nil client as "no remote secrets available".
func NewClient(ctx context.Context) (*Client, error) {
	clientID := os.Getenv("TESTDECK_INFISICAL_CLIENT_ID")
	clientSecret := os.Getenv("TESTDECK_INFISICAL_CLIENT_SECRET")
	projectID := os.Getenv("TESTDECK_INFISICAL_PROJECT_ID")
	if clientID == "" || clientSecret == "" || projectID == "" {
		return nil, nil
	}

	siteURL := os.Getenv("TESTDECK_INFISICAL_SITE_URL")
	if siteURL == "" {
		siteURL = defaultSiteURL
	}

	client := infisical.NewInfisicalClient(ctx, infisical.Config{
		SiteUrl:          siteURL,
		AutoTokenRefresh: true,
		SilentMode:       true,
	})

	if _, err := client.Auth().UniversalAuthLogin(clientID, clientSecret); err != nil {
		return nil, fmt.Errorf("infisical authentication failed: %v", err)
	}

	env := os.Getenv("TESTDECK_INFISICAL_ENV")
	if env == "" {
		env = "prod"
	}

	return &Client{client: client, projectID: projectID, env: env}, nil
}

// SSHPassphrase fetches the fleet SSH key passphrase.
func (c *Client) SSHPassphrase() (string, error) {
	secret, err := c.client.Secrets().Retrieve(infisical.RetrieveSecretOptions{
		SecretKey:   "SSH_KEY_PASSPHRASE",
		Environment: c.env,
		ProjectID:   c.projectID,
		SecretPath:  "/",
	})
	if err != nil {
		return "", fmt.Errorf("error retrieving SSH passphrase: %v", err)
	}
	return secret.SecretValue, nil
}
