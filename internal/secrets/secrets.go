package secrets

import (
	"context"
	"fmt"
	"os"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// GetSecret retrieves a secret from Google Secret Manager
func GetSecret(ctx context.Context, secretName string) (string, error) {
	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if projectID == "" {
		return "", fmt.Errorf("GOOGLE_CLOUD_PROJECT environment variable is required")
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create secret manager client: %w", err)
	}
	defer func() { _ = client.Close() }()

	req := &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, secretName),
	}

	result, err := client.AccessSecretVersion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to access secret version: %w", err)
	}

	return string(result.Payload.Data), nil
}

// GetServiceAccountJSON returns the admin SDK service account
// credentials. The GOOGLE_APPLICATION_CREDENTIALS file takes
// precedence; otherwise the JSON is fetched from Secret Manager under
// SECRET_SERVICE_ACCOUNT_NAME (default "amanah-service-account").
func GetServiceAccountJSON(ctx context.Context) ([]byte, error) {
	if path := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		return data, nil
	}

	secretName := os.Getenv("SECRET_SERVICE_ACCOUNT_NAME")
	if secretName == "" {
		secretName = "amanah-service-account"
	}

	payload, err := GetSecret(ctx, secretName)
	if err != nil {
		return nil, fmt.Errorf("failed to get service account secret: %w", err)
	}

	return []byte(payload), nil
}
