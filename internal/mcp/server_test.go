package mcp_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/metafirst/supervisor/internal/app"
	"github.com/metafirst/supervisor/internal/domain/completeness"
	"github.com/metafirst/supervisor/internal/domain/extraction"
	"github.com/metafirst/supervisor/internal/domain/ingest"
	"github.com/metafirst/supervisor/internal/domain/project"
	"github.com/metafirst/supervisor/internal/domain/rdmp"
	"github.com/metafirst/supervisor/internal/domain/release"
	"github.com/metafirst/supervisor/internal/domain/sample"
	"github.com/metafirst/supervisor/internal/mcp"
	"github.com/metafirst/supervisor/internal/sqlite"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

const planDocument = `title: qPCR plan
roles:
  - name: researcher
    permissions:
      can_edit_metadata: true
      can_edit_paths: true
fields:
  - key: cell_line
    type: text
    required: true
  - key: od600
    type: number
`

func newApp(t *testing.T) *app.App {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { _ = db.Close() })
	return app.New(db, app.Options{})
}

// connect opens a client session acting as actor against a fresh server.
func connect(t *testing.T, a *app.App, actor string) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := mcp.NewServer(mcp.Config{
		Services:      a.MCPServices(),
		TransportMode: "stdio",
		LocalActor:    actor,
	})
	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func callTool(t *testing.T, cs *sdkmcp.ClientSession, name string, args map[string]any, out any) {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.False(t, res.IsError, "%s failed: %s", name, resultText(t, res))
	if out != nil {
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), out))
	}
}

func callToolError(t *testing.T, cs *sdkmcp.ClientSession, name string, args map[string]any) mcp.APIError {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.True(t, res.IsError, "%s unexpectedly succeeded", name)
	var apiErr mcp.APIError
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &apiErr))
	return apiErr
}

func resultText(t *testing.T, res *sdkmcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestServer_ListsToolsAndDocs(t *testing.T) {
	ctx := context.Background()
	cs := connect(t, newApp(t), "pi")

	tools, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	require.Len(t, tools.Tools, 26)

	readOnly := map[string]bool{}
	for _, tool := range tools.Tools {
		readOnly[tool.Name] = tool.Annotations != nil && tool.Annotations.ReadOnlyHint
	}
	require.True(t, readOnly["list_samples"])
	require.False(t, readOnly["assign_ingest"])
	require.True(t, readOnly["get_release"])
	require.False(t, readOnly["create_release"])

	doc, err := cs.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "supervisor://docs/extraction"})
	require.NoError(t, err)
	require.Len(t, doc.Contents, 1)
	require.Contains(t, doc.Contents[0].Text, "Classification never assigns")
}

func TestServer_RDMPAndSampleFlow(t *testing.T) {
	a := newApp(t)
	pi := connect(t, a, "pi")
	ana := connect(t, a, "ana")
	mallory := connect(t, a, "mallory")

	var proj project.Project
	callTool(t, pi, "create_project", map[string]any{
		"name":             "qPCR runs",
		"extraction_rules": []map[string]any{{"pattern": `(QPCR-\d+)`}},
	}, &proj)
	require.Nil(t, proj.ActiveRDMPVersionID)

	var draft rdmp.Version
	callTool(t, pi, "create_rdmp_draft", map[string]any{
		"project_id": proj.ID,
		"document":   planDocument,
	}, &draft)
	require.Equal(t, rdmp.StateDraft, draft.State)
	require.Equal(t, int64(1), draft.VersionInt)

	apiErr := callToolError(t, pi, "create_sample", map[string]any{
		"project_id":        proj.ID,
		"sample_identifier": "QPCR-001",
	})
	require.Equal(t, mcp.CodeNoActiveSchema, apiErr.Code)

	apiErr = callToolError(t, ana, "activate_rdmp", map[string]any{"version_id": draft.ID})
	require.Equal(t, mcp.CodePermission, apiErr.Code)

	var active rdmp.Version
	callTool(t, pi, "activate_rdmp", map[string]any{"version_id": draft.ID}, &active)
	require.Equal(t, rdmp.StateActive, active.State)

	callTool(t, pi, "add_member", map[string]any{
		"project_id": proj.ID,
		"user_id":    "ana",
		"role":       "researcher",
	}, nil)

	var view sample.View
	callTool(t, ana, "create_sample", map[string]any{
		"project_id":        proj.ID,
		"sample_identifier": "QPCR-001",
	}, &view)
	require.Equal(t, completeness.StatusIncomplete, view.Completeness.Status)
	require.Equal(t, []string{"cell_line"}, view.Completeness.Result.MissingFields)

	apiErr = callToolError(t, ana, "set_field_value", map[string]any{
		"sample_id": view.ID,
		"key":       "od600",
		"value":     "abc",
	})
	require.Equal(t, mcp.CodeFieldType, apiErr.Code)
	require.Equal(t, "od600", apiErr.Field)

	callTool(t, ana, "set_field_value", map[string]any{
		"sample_id": view.ID,
		"key":       "cell_line",
		"value":     "HEK293",
	}, &view)
	require.Equal(t, completeness.StatusComplete, view.Completeness.Status)

	var listed mcp.ListSamplesResponse
	callTool(t, ana, "list_samples", map[string]any{
		"project_id": proj.ID,
		"status":     "complete",
	}, &listed)
	require.Len(t, listed.Samples, 1)
	require.Equal(t, "QPCR-001", listed.Samples[0].Identifier)

	apiErr = callToolError(t, mallory, "list_samples", map[string]any{"project_id": proj.ID})
	require.Equal(t, mcp.CodePermission, apiErr.Code)

	var activity mcp.GetRecentActivityResponse
	callTool(t, pi, "get_recent_activity", map[string]any{"project_id": proj.ID}, &activity)
	require.NotEmpty(t, activity.Activity)
}

func TestServer_IngestAssignment(t *testing.T) {
	ctx := context.Background()
	a := newApp(t)
	pi := connect(t, a, "pi")

	proj, err := a.Projects.Create(ctx, "pi", project.CreateRequest{
		Name:            "qPCR runs",
		ExtractionRules: []extraction.Rule{{Pattern: `(QPCR-\d+)`}},
	})
	require.NoError(t, err)
	root, err := a.Projects.CreateStorageRoot(ctx, proj.ID, "pi", "raw", "")
	require.NoError(t, err)

	var draft rdmp.Version
	callTool(t, pi, "create_rdmp_draft", map[string]any{"project_id": proj.ID, "document": planDocument}, &draft)
	callTool(t, pi, "activate_rdmp", map[string]any{"version_id": draft.ID}, nil)

	first, err := a.Samples.Create(ctx, proj.ID, "pi", sample.CreateRequest{Identifier: "QPCR-001"})
	require.NoError(t, err)
	second, err := a.Samples.Create(ctx, proj.ID, "pi", sample.CreateRequest{Identifier: "QPCR-002"})
	require.NoError(t, err)

	ing, err := a.Ingests.Report(ctx, "pi", ingest.FileEvent{
		ProjectID:     proj.ID,
		StorageRootID: root.ID,
		RelativePath:  "runs/QPCR-001/plate.csv",
		FileSizeBytes: 64,
		ObservedAt:    time.Now(),
	})
	require.NoError(t, err)
	require.Equal(t, ingest.StatusMatched, ing.Status)

	var explanation ingest.Explanation
	callTool(t, pi, "explain_extraction", map[string]any{
		"project_id":    proj.ID,
		"relative_path": "runs/QPCR-001/plate.csv",
	}, &explanation)
	require.Equal(t, string(ingest.StatusMatched), explanation.Outcome)
	require.Equal(t, first.ID, *explanation.MatchedSampleID)
	require.Len(t, explanation.Attempts, 1)
	require.True(t, explanation.Attempts[0].Selected)

	var pending mcp.ListPendingIngestsResponse
	callTool(t, pi, "list_pending_ingests", map[string]any{
		"project_id": proj.ID,
		"statuses":   []string{"MATCHED"},
	}, &pending)
	require.Len(t, pending.Ingests, 1)

	var assigned mcp.AssignIngestResponse
	callTool(t, pi, "assign_ingest", map[string]any{"ingest_id": ing.ID, "sample_id": first.ID}, &assigned)
	require.Equal(t, ingest.StatusAssigned, assigned.Ingest.Status)
	require.Equal(t, first.ID, *assigned.Ingest.SampleID)

	callTool(t, pi, "assign_ingest", map[string]any{"ingest_id": ing.ID, "sample_id": first.ID}, &assigned)
	require.Equal(t, ingest.StatusAssigned, assigned.Ingest.Status)

	apiErr := callToolError(t, pi, "assign_ingest", map[string]any{"ingest_id": ing.ID, "sample_id": second.ID})
	require.Equal(t, mcp.CodeAlreadyAssigned, apiErr.Code)

	apiErr = callToolError(t, pi, "ignore_ingest", map[string]any{"ingest_id": ing.ID, "reason": "duplicate"})
	require.Equal(t, mcp.CodeInvalidState, apiErr.Code)
}

func TestServer_TemplateAndReleaseFlow(t *testing.T) {
	ctx := context.Background()
	a := newApp(t)
	pi := connect(t, a, "pi")
	ana := connect(t, a, "ana")

	var tmpl rdmp.Template
	callTool(t, pi, "create_rdmp_template", map[string]any{
		"name":     "qPCR",
		"document": planDocument,
	}, &tmpl)
	require.Len(t, tmpl.Versions, 1)

	apiErr := callToolError(t, ana, "create_rdmp_template", map[string]any{"name": "qPCR", "document": planDocument})
	require.Equal(t, mcp.CodeValidation, apiErr.Code)

	var templates mcp.ListRDMPTemplatesResponse
	callTool(t, ana, "list_rdmp_templates", nil, &templates)
	require.Len(t, templates.Templates, 1)

	proj, err := a.Projects.Create(ctx, "pi", project.CreateRequest{Name: "qPCR runs"})
	require.NoError(t, err)
	_, err = a.Projects.AddMember(ctx, proj.ID, "pi", "ana", "researcher")
	require.NoError(t, err)

	var draft rdmp.Version
	callTool(t, pi, "create_rdmp_draft", map[string]any{
		"project_id":          proj.ID,
		"template_version_id": tmpl.Versions[0].ID,
	}, &draft)
	require.Equal(t, "qPCR plan", draft.Title)
	require.Equal(t, tmpl.Versions[0].ID, *draft.TemplateVersionID)
	callTool(t, pi, "activate_rdmp", map[string]any{"version_id": draft.ID}, nil)

	_, err = a.Samples.Create(ctx, proj.ID, "pi", sample.CreateRequest{Identifier: "QPCR-001"})
	require.NoError(t, err)

	// The plan grants researchers no can_create_release
	apiErr = callToolError(t, ana, "create_release", map[string]any{"project_id": proj.ID, "release_tag": "v1"})
	require.Equal(t, mcp.CodePermission, apiErr.Code)

	var rel release.Release
	callTool(t, pi, "create_release", map[string]any{"project_id": proj.ID, "release_tag": "v1"}, &rel)
	require.Equal(t, release.Summary{Samples: 1}, rel.Summary)
	require.Equal(t, draft.ID, rel.RDMPVersionID)

	apiErr = callToolError(t, pi, "create_release", map[string]any{"project_id": proj.ID, "release_tag": "v1"})
	require.Equal(t, mcp.CodeValidation, apiErr.Code)

	var listed mcp.ListReleasesResponse
	callTool(t, ana, "list_releases", map[string]any{"project_id": proj.ID}, &listed)
	require.Len(t, listed.Releases, 1)
	require.Nil(t, listed.Releases[0].Snapshot)

	var got release.Release
	callTool(t, ana, "get_release", map[string]any{"release_id": rel.ID}, &got)
	require.Len(t, got.Snapshot.Samples, 1)
	require.Equal(t, "QPCR-001", got.Snapshot.Samples[0].Identifier)
	require.False(t, got.Snapshot.Samples[0].Completeness.IsComplete)
}
