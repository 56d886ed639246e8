package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"noteferry/internal/application"
	"noteferry/internal/domain"
	"noteferry/internal/ports"
)

// Deps carries the collaborators the import tools run against.
type Deps struct {
	Fetcher  ports.Fetcher
	Index    *application.Index
	Importer *application.Importer
}

// RegisterImportTools adds the import tools to the MCP server. Tools never
// prompt: conflicts resolve to skip and are reported in the result, which
// is what AutoResolver enforces.
func RegisterImportTools(s *server.MCPServer, deps Deps) {
	s.AddTool(checkTool(), checkHandler(deps))
	s.AddTool(importTool(), importHandler(deps))
	s.AddTool(failuresTool(), failuresHandler(deps))
}

// AutoResolver answers every conflict with skip so headless surfaces never
// suspend on a human decision.
type AutoResolver struct{}

// Resolve implements ports.ConflictResolver.
func (AutoResolver) Resolve(_ context.Context, c ports.Conflict) (domain.Resolution, error) {
	return domain.SkipResolution("conflict requires interactive resolution: " + c.Status.Reason), nil
}

// --- check_documents ---

func checkTool() mcp.Tool {
	return mcp.NewTool("check_documents",
		mcp.WithDescription("Fetch the remote document batch and classify each document against the vault (new, exists, updated, conflict) without writing anything."),
	)
}

func checkHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		docs, err := deps.Fetcher.FetchDocuments(ctx)
		if err != nil {
			return toolError(err)
		}
		if err := deps.Index.Refresh(ctx); err != nil {
			return toolError(err)
		}
		statuses, err := deps.Index.CheckDocuments(ctx, docs)
		if err != nil {
			return toolError(err)
		}

		var b strings.Builder
		fmt.Fprintf(&b, "%d documents:\n", len(docs))
		for _, doc := range docs {
			status := statuses[doc.ID]
			fmt.Fprintf(&b, "- %s %q: %s (%s)\n", doc.ID, doc.Title, status.Kind, status.Reason)
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}

// --- import_documents ---

func importTool() mcp.Tool {
	return mcp.NewTool("import_documents",
		mcp.WithDescription("Fetch the remote batch and import documents into the vault. Conflicts are skipped and reported, never resolved automatically."),
		mcp.WithString("ids",
			mcp.Description("Comma-separated document ids to import. Omit to import the whole batch."),
		),
		mcp.WithBoolean("skip_empty",
			mcp.Description("Skip documents with no meaningful content."),
		),
	)
}

func importHandler(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		docs, err := deps.Fetcher.FetchDocuments(ctx)
		if err != nil {
			return toolError(err)
		}

		selection := selectMetas(docs, req.GetString("ids", ""))
		opts := application.Options{
			SkipEmpty:      req.GetBool("skip_empty", false),
			ExistsStrategy: application.ExistsSkip,
		}

		run, err := deps.Importer.ImportDocuments(ctx, selection, docs, opts)
		if err != nil {
			return toolError(err)
		}

		var b strings.Builder
		fmt.Fprintf(&b, "imported %d, skipped %d, failed %d of %d\n",
			run.Completed, run.Skipped, run.Failed, run.Total)
		for _, d := range deps.Importer.GetAllDocumentProgress() {
			switch d.State {
			case domain.StateSkipped:
				fmt.Fprintf(&b, "- skipped %s %q: %s\n", d.ID, d.Title, d.Message)
			case domain.StateFailed:
				fmt.Fprintf(&b, "- failed %s %q: %s\n", d.ID, d.Title, d.Error)
			}
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}

// selectMetas builds the selection from an optional comma-separated id
// list; an empty list selects the whole batch.
func selectMetas(docs []domain.RemoteDocument, ids string) []domain.DocumentMeta {
	wanted := make(map[string]bool)
	for _, id := range strings.Split(ids, ",") {
		if id = strings.TrimSpace(id); id != "" {
			wanted[id] = true
		}
	}

	var metas []domain.DocumentMeta
	for _, doc := range docs {
		if len(wanted) == 0 || wanted[doc.ID] {
			metas = append(metas, doc.Meta())
		}
	}
	return metas
}

// --- list_failures ---

func failuresTool() mcp.Tool {
	return mcp.NewTool("list_failures",
		mcp.WithDescription("List documents that failed in earlier imports and are retained for retry."),
	)
}

func failuresHandler(deps Deps) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		records := deps.Importer.GetFailedDocuments()
		if len(records) == 0 {
			return mcp.NewToolResultText("no failed imports"), nil
		}

		sort.Slice(records, func(i, j int) bool { return records[i].At.Before(records[j].At) })
		var b strings.Builder
		fmt.Fprintf(&b, "%d failed imports:\n", len(records))
		for _, rec := range records {
			fmt.Fprintf(&b, "- %s %q: %s (%s)\n",
				rec.Document.ID, rec.Document.Title, rec.Message, rec.At.Format("2006-01-02 15:04:05"))
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}
