package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `metaFirst supervisor governs research data: Projects → RDMP versions → Samples ← Pending ingests.

Core concepts:
- Project: owns RDMP versions, samples, storage roots and extraction rules. Non-operational until an RDMP version is ACTIVE.
- RDMP version: the project's field schema and role permissions. DRAFT → ACTIVE → SUPERSEDED. At most one ACTIVE; only DRAFTs are editable.
- Sample: identified by sample_identifier (unique per project). Field values are checked against the ACTIVE version.
- Completeness: derived, never stored. Recomputed against the current ACTIVE version every time a sample is read.
- Pending ingest: a file a watcher reported. PENDING or MATCHED until a human assigns or ignores it. ASSIGNED is final.
- RDMP template: a shared, versioned starting point for drafts. Drafts remember the template version they came from.
- Release: an immutable snapshot of samples, completeness and assigned files, pinned to the ACTIVE version.

Workflow:
1) create_project, then create_storage_root and set_extraction_rules.
2) create_rdmp_draft (optionally from a template_version_id), then activate_rdmp (PI only). Nothing else works before this.
3) create_sample / set_field_value; list_samples with status=incomplete to find gaps.
4) list_pending_ingests; explain_extraction to see why a path matched; assign_ingest or ignore_ingest.
5) create_release to freeze the current state; pass parent_release_id to publish a correction.

Errors come back as tool errors with a code: VALIDATION_ERROR, PERMISSION_DENIED, INVALID_STATE,
FIELD_TYPE_ERROR, NO_ACTIVE_SCHEMA, RULE_DEFINITION_ERROR, NOT_FOUND, ALREADY_ASSIGNED.

Docs:
- supervisor://docs/rdmp
- supervisor://docs/extraction
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "supervisor://docs/rdmp",
		Name:        "docs_rdmp",
		Title:       "RDMP documents",
		Description: "How to write an RDMP version: field types, roles and permissions.",
		Content: `# RDMP documents

create_rdmp_draft accepts a YAML document:

` + "```yaml" + `
title: qPCR plan v2
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
  - key: harvested
    type: date
  - key: medium
    type: categorical
    allowed_values: [DMEM, RPMI]
` + "```" + `

## Field types

- text: any string. "string" is accepted as an alias.
- number: a JSON number or a numeric string.
- date: YYYY-MM-DD.
- categorical: one of allowed_values, matched exactly.

## Permissions

can_edit_metadata, can_edit_paths, can_create_release, can_manage_rdmp.
A permission missing from a role is false. The PI role is held through
project membership and may do everything; only a PI can activate a version.

## Versions

Version numbers increase per project and are never reused. Activating a
DRAFT supersedes the previous ACTIVE version in the same transaction.
Samples keep the version they were created under, but completeness always
uses the current ACTIVE version.

## Templates

create_rdmp_template stores the same content as a draft under a unique name;
add_rdmp_template_version appends the next version. Pass template_version_id
to create_rdmp_draft to copy a template version into a project. The draft
stays editable and records template_version_id.

## Releases

create_release needs can_create_release. It stores every sample with its
field values, completeness against the ACTIVE version, and the files
assigned to it. Tags are unique per project. Releases are never edited; a
correction is a new release naming its parent_release_id.
`,
	},
	{
		URI:         "supervisor://docs/extraction",
		Name:        "docs_extraction",
		Title:       "Extraction rules",
		Description: "How sample identifiers are inferred from file paths.",
		Content: `# Extraction rules

Rules are tried in order against the path relative to the storage root. The
first rule whose pattern matches with a non-empty capture wins; the capture
is the inferred sample identifier, taken literally.

- Capture what the sample is called. For samples named "QPCR-003" use
  ` + "`(QPCR-\\d+)`" + `, not ` + "`QPCR-(\\d+)`" + `.
- Name the group with group: "name" or "1", or call it "id".
- Ignore patterns are regular expressions; a matching path becomes IGNORED.

Classification never assigns. A file whose identifier matches an existing
sample is MATCHED and still needs assign_ingest. Projects without an ACTIVE
RDMP version leave files PENDING and blocked until one is activated.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
