package sandbox

import (
	"errors"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// ErrMissingCredentials is returned when no sandbox credentials are available.
var ErrMissingCredentials = errors.New("sandbox credentials are not set (AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY)")

// Credentials authenticate a session with the remote interpreter service.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string // optional
}

// Valid reports whether both required parts are present.
func (c Credentials) Valid() bool {
	return strings.TrimSpace(c.AccessKeyID) != "" && strings.TrimSpace(c.SecretAccessKey) != ""
}

// CredentialsFromEnv reads the standard AWS variables. It is called per
// invocation so keys exported after startup are picked up.
func CredentialsFromEnv() Credentials {
	return Credentials{
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
	}
}

func (c Credentials) aws() aws.Credentials {
	return aws.Credentials{
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		SessionToken:    c.SessionToken,
		Source:          "toolchat",
	}
}
