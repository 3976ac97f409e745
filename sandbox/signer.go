package sandbox

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

// SigningService is the SigV4 service name of the code interpreter API.
const SigningService = "bedrock-agentcore"

// signingTransport signs every request with AWS SigV4. The secret key never
// leaves the process; only the derived signature is sent.
type signingTransport struct {
	base    http.RoundTripper
	signer  *v4.Signer
	creds   Credentials
	region  string
	service string
	now     func() time.Time
}

func newSigningTransport(creds Credentials, region string) *signingTransport {
	return &signingTransport{
		base:    http.DefaultTransport,
		signer:  v4.NewSigner(),
		creds:   creds,
		region:  region,
		service: SigningService,
		now:     time.Now,
	}
}

func (t *signingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())

	hash, err := hashBody(req)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body for signing: %w", err)
	}
	if err := t.signer.SignHTTP(req.Context(), t.creds.aws(), req, hash, t.service, t.region, t.now()); err != nil {
		return nil, fmt.Errorf("failed to sign sandbox request: %w", err)
	}
	return t.base.RoundTrip(req)
}

// hashBody returns the hex SHA-256 of the request body and leaves the body
// readable again.
func hashBody(req *http.Request) (string, error) {
	var body []byte
	if req.Body != nil && req.Body != http.NoBody {
		var err error
		body, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return "", err
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
		req.ContentLength = int64(len(body))
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}

// CheckEndpoint accepts https URLs, and plain http only for loopback hosts.
func CheckEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid sandbox endpoint: %w", err)
	}
	switch u.Scheme {
	case "https":
		return nil
	case "http":
		if isLoopback(u.Hostname()) {
			return nil
		}
		return fmt.Errorf("sandbox endpoint %q must use https", endpoint)
	default:
		return fmt.Errorf("sandbox endpoint %q: unsupported scheme %q", endpoint, u.Scheme)
	}
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
