package sandbox

import (
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// Output is the collected result of one code submission.
type Output struct {
	Stdout []string
	Stderr []string
}

// Text applies the display policy: stdout if there is any, otherwise the
// error output, otherwise a fixed "no output" notice.
func (o Output) Text() string {
	switch {
	case len(o.Stdout) > 0:
		return strings.Join(o.Stdout, "\n")
	case len(o.Stderr) > 0:
		return "error:\n" + strings.Join(o.Stderr, "\n")
	default:
		return "execution finished (no output)"
	}
}

// collect folds a tool result into o. Structured stdout/stderr is preferred;
// plain text chunks are used when the service sends none.
func (o *Output) collect(result *mcptypes.CallToolResult) {
	if result == nil {
		return
	}

	if structured, ok := result.StructuredContent.(map[string]any); ok {
		appendTrimmed(&o.Stdout, structured["stdout"])
		appendTrimmed(&o.Stderr, structured["stderr"])
		return
	}

	for _, content := range result.Content {
		var text string
		switch c := content.(type) {
		case mcptypes.TextContent:
			text = c.Text
		case *mcptypes.TextContent:
			text = c.Text
		default:
			continue
		}
		if result.IsError {
			appendTrimmed(&o.Stderr, text)
		} else {
			appendTrimmed(&o.Stdout, text)
		}
	}
}

func appendTrimmed(dst *[]string, v any) {
	s, _ := v.(string)
	if s = strings.TrimSpace(s); s != "" {
		*dst = append(*dst, s)
	}
}
