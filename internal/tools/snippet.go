package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/voyantlabs/codegraph/internal/store"
)

func (s *Server) handleGetCodeSnippet(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	repo, err := s.resolveRepo(getStringArg(args, "repository"))
	if err != nil {
		return errResult(err.Error()), nil
	}
	qn := getStringArg(args, "qualified_name")
	if qn == "" {
		return errResult("qualified_name is required"), nil
	}

	payload, err := snippetPayload(s.store, repo.ID, qn)
	if err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(payload), nil
}

// snippetPayload builds the snippet response from stored content. The file's
// stored text is preferred so the snippet matches what was indexed, even when
// the working tree has moved on.
func snippetPayload(s *store.Store, repoID int64, qn string) (map[string]any, error) {
	sym, err := s.FindSymbolByQN(repoID, qn)
	if err != nil {
		return nil, fmt.Errorf("find symbol: %w", err)
	}
	if sym == nil {
		return nil, fmt.Errorf("symbol not found: %s", qn)
	}
	file, err := s.GetFileByID(sym.FileID)
	if err != nil {
		return nil, fmt.Errorf("load file: %w", err)
	}

	source := sym.SourceCode
	filePath := ""
	if file != nil {
		filePath = file.RelPath
		if file.Content != "" {
			if lines := sliceLines(file.Content, sym.StartLine, sym.EndLine); lines != "" {
				source = lines
			}
		}
	}

	return map[string]any{
		"qualified_name": sym.QualifiedName,
		"name":           sym.Name,
		"kind":           sym.Kind,
		"file_path":      filePath,
		"start_line":     sym.StartLine,
		"end_line":       sym.EndLine,
		"source":         numberLines(source, sym.StartLine),
	}, nil
}

// sliceLines returns lines startLine..endLine (1-based, inclusive) of text.
func sliceLines(text string, startLine, endLine int) string {
	if startLine < 1 || endLine < startLine {
		return ""
	}
	lines := strings.Split(text, "\n")
	if startLine > len(lines) {
		return ""
	}
	if endLine > len(lines) {
		endLine = len(lines)
	}
	return strings.Join(lines[startLine-1:endLine], "\n")
}

// numberLines prefixes each line with its 1-based file line number.
func numberLines(source string, startLine int) string {
	if startLine < 1 {
		startLine = 1
	}
	var sb strings.Builder
	for i, line := range strings.Split(source, "\n") {
		fmt.Fprintf(&sb, "%4d | %s\n", startLine+i, line)
	}
	return sb.String()
}
