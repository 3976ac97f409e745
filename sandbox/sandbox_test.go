package sandbox

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

var testCreds = Credentials{AccessKeyID: "AKIDEXAMPLE", SecretAccessKey: "secret"}

// newInterpreter returns an MCP server whose executeCode tool answers with
// whatever respond builds from the submitted code.
func newInterpreter(respond func(code string) *mcp.CallToolResult) *server.MCPServer {
	srv := server.NewMCPServer("interpreter", "1.0.0", server.WithToolCapabilities(false))
	srv.AddTool(
		mcp.NewTool(ExecuteTool,
			mcp.WithString("language", mcp.Required()),
			mcp.WithString("code", mcp.Required()),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return respond(req.GetString("code", "")), nil
		},
	)
	return srv
}

func structured(stdout, stderr string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content:           []mcp.Content{mcp.NewTextContent("ignored when structured output exists")},
		StructuredContent: map[string]any{"stdout": stdout, "stderr": stderr},
	}
}

// trackedConn wraps a real client to count releases and inject failures.
type trackedConn struct {
	*client.Client
	mu       sync.Mutex
	closed   int
	failCall error
	failInit error
}

func (c *trackedConn) Initialize(ctx context.Context, req mcp.InitializeRequest) (*mcp.InitializeResult, error) {
	if c.failInit != nil {
		return nil, c.failInit
	}
	return c.Client.Initialize(ctx, req)
}

func (c *trackedConn) CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if c.failCall != nil {
		return nil, c.failCall
	}
	return c.Client.CallTool(ctx, req)
}

func (c *trackedConn) Close() error {
	c.mu.Lock()
	c.closed++
	c.mu.Unlock()
	return c.Client.Close()
}

func newTestClient(t *testing.T, srv *server.MCPServer, conn *trackedConn) *Client {
	t.Helper()
	return &Client{
		Endpoint:    "https://sandbox.test/mcp",
		Timeout:     5 * time.Second,
		Credentials: func() Credentials { return testCreds },
		Dial: func(ctx context.Context, endpoint string, creds Credentials) (Conn, error) {
			c, err := client.NewInProcessClient(srv)
			if err != nil {
				return nil, err
			}
			conn.Client = c
			return conn, nil
		},
	}
}

func TestRunOutputPolicy(t *testing.T) {
	tests := []struct {
		name   string
		result *mcp.CallToolResult
		want   string
	}{
		{"stdout", structured("14\n", ""), "14"},
		{"stdout wins over stderr", structured("partial", "warning"), "partial"},
		{"stderr only", structured("", "Traceback: ZeroDivisionError"), "error:\nTraceback: ZeroDivisionError"},
		{"no output", structured("  ", ""), "execution finished (no output)"},
		{"text chunks", &mcp.CallToolResult{Content: []mcp.Content{mcp.NewTextContent("a"), mcp.NewTextContent("b")}}, "a\nb"},
		{"error text chunks", &mcp.CallToolResult{IsError: true, Content: []mcp.Content{mcp.NewTextContent("boom")}}, "error:\nboom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &trackedConn{}
			srv := newInterpreter(func(string) *mcp.CallToolResult { return tt.result })

			out, err := newTestClient(t, srv, conn).Run(context.Background(), "print(2+3*4)")
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if got := out.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
			if conn.closed != 1 {
				t.Errorf("session closed %d times, want 1", conn.closed)
			}
		})
	}
}

func TestRunSubmitsCode(t *testing.T) {
	var got string
	srv := newInterpreter(func(code string) *mcp.CallToolResult {
		got = code
		return structured("ok", "")
	})

	if _, err := newTestClient(t, srv, &trackedConn{}).Run(context.Background(), "print('hi')"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got != "print('hi')" {
		t.Errorf("submitted code = %q", got)
	}
}

func TestRunReleasesOnFailure(t *testing.T) {
	tests := []struct {
		name string
		conn *trackedConn
	}{
		{"submission fails", &trackedConn{failCall: errors.New("stream reset")}},
		{"initialize fails", &trackedConn{failInit: errors.New("unauthorized")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newInterpreter(func(string) *mcp.CallToolResult { return structured("unused", "") })

			_, err := newTestClient(t, srv, tt.conn).Run(context.Background(), "print(1)")
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.conn.closed != 1 {
				t.Errorf("session closed %d times, want 1", tt.conn.closed)
			}
		})
	}
}

func TestRunMissingCredentials(t *testing.T) {
	dialed := false
	c := &Client{
		Endpoint:    "https://sandbox.invalid/mcp",
		Timeout:     time.Second,
		Credentials: func() Credentials { return Credentials{AccessKeyID: "only-id"} },
		Dial: func(ctx context.Context, endpoint string, creds Credentials) (Conn, error) {
			dialed = true
			return nil, errors.New("should not dial")
		},
	}

	_, err := c.Run(context.Background(), "print(1)")
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("error = %v, want ErrMissingCredentials", err)
	}
	if dialed {
		t.Error("dialed without credentials")
	}
}

func TestRunSignsRequests(t *testing.T) {
	srv := newInterpreter(func(string) *mcp.CallToolResult { return structured("remote", "") })
	streamable := server.NewStreamableHTTPServer(srv)

	var mu sync.Mutex
	var reqs []http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		reqs = append(reqs, r.Header.Clone())
		mu.Unlock()
		streamable.ServeHTTP(w, r)
	}))
	defer ts.Close()

	creds := Credentials{AccessKeyID: "AKIDEXAMPLE", SecretAccessKey: "wJalrXUtnFEMI/K7MDENG", SessionToken: "session-token"}
	c := NewClient(ts.URL+"/mcp", "us-west-2", 5*time.Second)
	c.Credentials = func() Credentials { return creds }

	out, err := c.Run(context.Background(), "print('remote')")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Text() != "remote" {
		t.Errorf("Text() = %q, want remote", out.Text())
	}

	mu.Lock()
	defer mu.Unlock()
	if len(reqs) == 0 {
		t.Fatal("no requests reached the server")
	}
	wantScope := "Credential=AKIDEXAMPLE/"
	for i, h := range reqs {
		auth := h.Get("Authorization")
		if !strings.HasPrefix(auth, "AWS4-HMAC-SHA256 ") || !strings.Contains(auth, wantScope) ||
			!strings.Contains(auth, "/us-west-2/"+SigningService+"/aws4_request") || !strings.Contains(auth, "Signature=") {
			t.Errorf("request %d Authorization = %q", i, auth)
		}
		if h.Get("X-Amz-Date") == "" || h.Get("X-Amz-Security-Token") != creds.SessionToken {
			t.Errorf("request %d missing SigV4 headers: %v", i, h)
		}
		for name, values := range h {
			for _, v := range values {
				if strings.Contains(v, creds.SecretAccessKey) {
					t.Errorf("request %d header %s carries the secret key", i, name)
				}
			}
		}
	}
}

func TestHashBodyKeepsBodyReadable(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "https://sandbox.test/mcp", strings.NewReader(`{"jsonrpc":"2.0"}`))

	hash, err := hashBody(req)
	if err != nil {
		t.Fatal(err)
	}
	sum := sha256.Sum256([]byte(`{"jsonrpc":"2.0"}`))
	if hash != hex.EncodeToString(sum[:]) {
		t.Errorf("hash = %s", hash)
	}
	body, _ := io.ReadAll(req.Body)
	if string(body) != `{"jsonrpc":"2.0"}` {
		t.Errorf("body after hashing = %q", body)
	}

	empty := httptest.NewRequest(http.MethodGet, "https://sandbox.test/mcp", nil)
	if hash, _ := hashBody(empty); hash != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("empty body hash = %s", hash)
	}
}

func TestCheckEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		ok       bool
	}{
		{"https://bedrock-agentcore.us-west-2.amazonaws.com/mcp", true},
		{"http://localhost:8080/mcp", true},
		{"http://127.0.0.1:9000/mcp", true},
		{"http://[::1]:9000/mcp", true},
		{"http://sandbox.example.com/mcp", false},
		{"ftp://sandbox.example.com/mcp", false},
		{"sandbox.example.com/mcp", false},
	}
	for _, tt := range tests {
		err := CheckEndpoint(tt.endpoint)
		if (err == nil) != tt.ok {
			t.Errorf("CheckEndpoint(%q) error = %v, want ok=%v", tt.endpoint, err, tt.ok)
		}
	}
}

func TestRunRejectsPlainHTTP(t *testing.T) {
	dialed := false
	c := NewClient("http://sandbox.example.com/mcp", "us-west-2", time.Second)
	c.Credentials = func() Credentials { return testCreds }
	c.Dial = func(ctx context.Context, endpoint string, creds Credentials) (Conn, error) {
		dialed = true
		return nil, errors.New("should not dial")
	}

	if _, err := c.Run(context.Background(), "print(1)"); err == nil || !strings.Contains(err.Error(), "must use https") {
		t.Fatalf("Run() error = %v", err)
	}
	if dialed {
		t.Error("dialed a plain http endpoint")
	}
}

func TestCredentialsValid(t *testing.T) {
	tests := []struct {
		creds Credentials
		want  bool
	}{
		{testCreds, true},
		{Credentials{AccessKeyID: "id"}, false},
		{Credentials{SecretAccessKey: "s"}, false},
		{Credentials{AccessKeyID: "  ", SecretAccessKey: "s"}, false},
	}
	for _, tt := range tests {
		if got := tt.creds.Valid(); got != tt.want {
			t.Errorf("%+v.Valid() = %v, want %v", tt.creds, got, tt.want)
		}
	}
}
