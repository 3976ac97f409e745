package sandbox

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"toolchat/config"
)

const (
	// ExecuteTool is the interpreter service's code execution tool.
	ExecuteTool = "executeCode"

	DefaultTimeout = 60 * time.Second
)

// Conn is the part of an MCP client a session uses. *client.Client
// implements it.
type Conn interface {
	Start(ctx context.Context) error
	Initialize(ctx context.Context, req mcptypes.InitializeRequest) (*mcptypes.InitializeResult, error)
	CallTool(ctx context.Context, req mcptypes.CallToolRequest) (*mcptypes.CallToolResult, error)
	Close() error
}

// Dialer opens a connection to endpoint. The returned Conn has not been
// started or initialized yet.
type Dialer func(ctx context.Context, endpoint string, creds Credentials) (Conn, error)

// SigV4Dialer connects over MCP streamable HTTP with every request signed
// for region.
func SigV4Dialer(region string) Dialer {
	return func(ctx context.Context, endpoint string, creds Credentials) (Conn, error) {
		httpClient := &http.Client{Transport: newSigningTransport(creds, region)}
		c, err := client.NewStreamableHttpClient(endpoint, transport.WithHTTPBasicClient(httpClient))
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Client submits Python code to a remote sandboxed interpreter. Every Run
// opens its own session and closes it before returning.
type Client struct {
	Endpoint    string
	Timeout     time.Duration
	Credentials func() Credentials
	Dial        Dialer
}

// NewClient returns a client that reads credentials from the environment on
// each call and signs its requests for region.
func NewClient(endpoint, region string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		Endpoint:    endpoint,
		Timeout:     timeout,
		Credentials: CredentialsFromEnv,
		Dial:        SigV4Dialer(region),
	}
}

// Run executes code in a fresh session and returns the collected output.
func (c *Client) Run(ctx context.Context, code string) (Output, error) {
	creds := c.Credentials()
	if !creds.Valid() {
		return Output{}, ErrMissingCredentials
	}
	if c.Endpoint == "" {
		return Output{}, fmt.Errorf("sandbox endpoint is not configured")
	}
	if err := CheckEndpoint(c.Endpoint); err != nil {
		return Output{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	session, err := c.acquire(ctx, creds)
	if err != nil {
		return Output{}, err
	}
	defer session.release()

	return session.submit(ctx, code)
}

type session struct {
	client   Conn
	endpoint string
}

func (c *Client) acquire(ctx context.Context, creds Credentials) (*session, error) {
	mcpClient, err := c.Dial(ctx, c.Endpoint, creds)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sandbox: %w", err)
	}
	s := &session{client: mcpClient, endpoint: c.Endpoint}

	// From here on the client holds resources; release on any failure.
	if err := mcpClient.Start(ctx); err != nil {
		s.release()
		return nil, fmt.Errorf("failed to start sandbox transport: %w", err)
	}

	initReq := mcptypes.InitializeRequest{
		Params: mcptypes.InitializeParams{
			ProtocolVersion: "2025-06-18",
			Capabilities:    mcptypes.ClientCapabilities{},
			ClientInfo: mcptypes.Implementation{
				Name:    "toolchat",
				Version: "1.0.0",
			},
		},
	}
	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		s.release()
		return nil, fmt.Errorf("failed to initialize sandbox session: %w", err)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Sandbox] Session opened at %s", c.Endpoint)
	}
	return s, nil
}

func (s *session) submit(ctx context.Context, code string) (Output, error) {
	result, err := s.client.CallTool(ctx, mcptypes.CallToolRequest{
		Params: mcptypes.CallToolParams{
			Name: ExecuteTool,
			Arguments: map[string]any{
				"language": "python",
				"code":     code,
			},
		},
	})
	if err != nil {
		return Output{}, fmt.Errorf("sandbox execution failed: %w", err)
	}

	var out Output
	out.collect(result)
	return out, nil
}

func (s *session) release() {
	if err := s.client.Close(); err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[Sandbox] Failed to close session at %s: %v", s.endpoint, err)
		return
	}
	if config.DebugLog != nil {
		config.DebugLog.Printf("[Sandbox] Session closed at %s", s.endpoint)
	}
}
