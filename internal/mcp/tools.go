package mcp

// ToolDefinition describes a callable tool.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
	ReadOnly    bool           `json:"-"`
}

func object(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func str(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func integer(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}

func boolean(description string) map[string]any {
	return map[string]any{"type": "boolean", "description": description}
}

func stringArray(description string, enum ...string) map[string]any {
	items := map[string]any{"type": "string"}
	if len(enum) > 0 {
		items["enum"] = enum
	}
	return map[string]any{"type": "array", "description": description, "items": items}
}

var ruleArray = map[string]any{
	"type":        "array",
	"description": "Ordered extraction rules; the first rule whose pattern matches wins",
	"items": object(map[string]any{
		"pattern":     str("Regular expression with a capture group for the sample identifier"),
		"group":       str("Capture group name or 1-based index (default: group named 'id' or the only group)"),
		"description": str("Human-readable note"),
	}, "pattern"),
}

var fieldArray = map[string]any{
	"type":        "array",
	"description": "Ordered field definitions",
	"items": object(map[string]any{
		"key":            str("Field key, unique within the version"),
		"label":          str("Display label"),
		"type":           map[string]any{"type": "string", "enum": []string{"text", "number", "date", "categorical"}},
		"required":       boolean("Whether completeness requires a value"),
		"allowed_values": stringArray("Allowed values for categorical fields"),
	}, "key", "type"),
}

var roleArray = map[string]any{
	"type":        "array",
	"description": "Roles and the actions they grant",
	"items": object(map[string]any{
		"name": str("Membership role name"),
		"permissions": map[string]any{
			"type":                 "object",
			"description":          "can_edit_metadata, can_edit_paths, can_create_release, can_manage_rdmp",
			"additionalProperties": map[string]any{"type": "boolean"},
		},
	}, "name"),
}

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		// Projects
		{
			Name:        "create_project",
			Description: "Create a project. The caller becomes its PI. The project is not operational until an RDMP version is activated",
			InputSchema: object(map[string]any{
				"id":               str("Project identifier (optional, generated if omitted)"),
				"name":             str("Project display name"),
				"description":      str("Project description"),
				"supervisor_id":    str("Supervisor that owns the project"),
				"extraction_rules": ruleArray,
				"ignore_patterns":  stringArray("Regular expressions for paths that are never ingested"),
			}, "name"),
		},
		{
			Name:        "list_projects",
			Description: "List the projects the caller is a member of",
			InputSchema: object(map[string]any{}),
			ReadOnly:    true,
		},
		{
			Name:        "get_project",
			Description: "Get a project with its members and storage roots",
			InputSchema: object(map[string]any{
				"id": str("Project ID"),
			}, "id"),
			ReadOnly: true,
		},
		{
			Name:        "add_member",
			Description: "Add a user to a project or change their role (PI only)",
			InputSchema: object(map[string]any{
				"project_id": str("Project ID"),
				"user_id":    str("User to add"),
				"role":       str("Role name: PI or a role defined by the active RDMP"),
			}, "project_id", "user_id", "role"),
		},
		{
			Name:        "set_extraction_rules",
			Description: "Replace the project's extraction rules and optionally its ignore patterns (PI only). Rules are validated before storing",
			InputSchema: object(map[string]any{
				"project_id":       str("Project ID"),
				"extraction_rules": ruleArray,
				"ignore_patterns":  stringArray("Replacement ignore patterns; omit to keep the current ones"),
			}, "project_id", "extraction_rules"),
		},
		{
			Name:        "create_storage_root",
			Description: "Register a storage root whose files watchers report (PI only)",
			InputSchema: object(map[string]any{
				"project_id":  str("Project ID"),
				"name":        str("Root name, unique within the project"),
				"description": str("Where the root lives"),
			}, "project_id", "name"),
		},

		// RDMP lifecycle
		{
			Name:        "create_rdmp_draft",
			Description: "Create the project's next RDMP version as a DRAFT, from fields and roles, a YAML document or a template version",
			InputSchema: object(map[string]any{
				"project_id":          str("Project ID"),
				"title":               str("Version title"),
				"fields":              fieldArray,
				"roles":               roleArray,
				"document":            str("YAML RDMP definition with title, roles and fields; overrides the other arguments"),
				"template_version_id": str("Copy title, fields and roles from this template version; overrides the other arguments"),
			}, "project_id"),
		},
		{
			Name:        "activate_rdmp",
			Description: "Activate a DRAFT version (PI only). The previous ACTIVE version becomes SUPERSEDED",
			InputSchema: object(map[string]any{
				"version_id": str("DRAFT version ID"),
			}, "version_id"),
		},
		{
			Name:        "discard_rdmp_draft",
			Description: "Delete a DRAFT version. Its version number is not reused",
			InputSchema: object(map[string]any{
				"version_id": str("DRAFT version ID"),
			}, "version_id"),
		},
		{
			Name:        "get_active_rdmp",
			Description: "Get the project's ACTIVE RDMP version",
			InputSchema: object(map[string]any{
				"project_id": str("Project ID"),
			}, "project_id"),
			ReadOnly: true,
		},
		{
			Name:        "list_rdmp_versions",
			Description: "List every RDMP version of a project, newest first",
			InputSchema: object(map[string]any{
				"project_id": str("Project ID"),
			}, "project_id"),
			ReadOnly: true,
		},

		// Templates
		{
			Name:        "create_rdmp_template",
			Description: "Create a shared RDMP template with its first version. Template names are unique",
			InputSchema: object(map[string]any{
				"name":        str("Template name"),
				"description": str("What the template is for"),
				"title":       str("Title copied into drafts"),
				"fields":      fieldArray,
				"roles":       roleArray,
				"document":    str("YAML RDMP definition used instead of title, fields and roles"),
			}, "name"),
		},
		{
			Name:        "add_rdmp_template_version",
			Description: "Add the next version to a template. Drafts made from earlier versions are unaffected",
			InputSchema: object(map[string]any{
				"template_id": str("Template ID"),
				"title":       str("Title copied into drafts"),
				"fields":      fieldArray,
				"roles":       roleArray,
				"document":    str("YAML RDMP definition used instead of title, fields and roles"),
			}, "template_id"),
		},
		{
			Name:        "list_rdmp_templates",
			Description: "List RDMP templates by name, each with its versions newest first",
			InputSchema: object(map[string]any{}),
			ReadOnly:    true,
		},

		// Samples
		{
			Name:        "create_sample",
			Description: "Register a sample under the ACTIVE RDMP version with optional initial field values",
			InputSchema: object(map[string]any{
				"project_id":        str("Project ID"),
				"sample_identifier": str("Identifier, unique within the project"),
				"field_values": map[string]any{
					"type":        "object",
					"description": "Initial values keyed by field key",
				},
			}, "project_id", "sample_identifier"),
		},
		{
			Name:        "get_sample",
			Description: "Get a sample with completeness computed against the current ACTIVE version",
			InputSchema: object(map[string]any{
				"id":                str("Sample ID"),
				"project_id":        str("Project ID, with sample_identifier"),
				"sample_identifier": str("Sample identifier, with project_id"),
			}),
			ReadOnly: true,
		},
		{
			Name:        "list_samples",
			Description: "List a project's samples ordered by identifier, optionally filtered by completeness",
			InputSchema: object(map[string]any{
				"project_id": str("Project ID"),
				"status": map[string]any{
					"type": "string",
					"enum": []string{"complete", "incomplete", "not_evaluable"},
				},
				"limit":  integer("Maximum number of results"),
				"offset": integer("Offset for pagination"),
			}, "project_id"),
			ReadOnly: true,
		},
		{
			Name:        "set_field_value",
			Description: "Set or clear one field value. The value is checked against the ACTIVE version; a rejected value leaves the stored one unchanged",
			InputSchema: object(map[string]any{
				"sample_id": str("Sample ID"),
				"key":       str("Field key"),
				"value": map[string]any{
					"description": "New value; null or empty string clears the field",
				},
			}, "sample_id", "key"),
		},

		// Ingests
		{
			Name:        "list_pending_ingests",
			Description: "List files reported by watchers for a project",
			InputSchema: object(map[string]any{
				"project_id": str("Project ID"),
				"statuses":   stringArray("Filter by status", "PENDING", "MATCHED", "ASSIGNED", "IGNORED"),
			}, "project_id"),
			ReadOnly: true,
		},
		{
			Name:        "assign_ingest",
			Description: "Bind a reported file to a sample. Re-assigning the same sample is a no-op; a different sample is rejected",
			InputSchema: object(map[string]any{
				"ingest_id":         str("Pending ingest ID"),
				"sample_id":         str("Target sample ID"),
				"create_sample":     boolean("Create the sample first, named sample_identifier or the inferred identifier"),
				"sample_identifier": str("Identifier for the new sample when create_sample is set"),
				"field_values": map[string]any{
					"type":        "object",
					"description": "Initial values for the new sample",
				},
			}, "ingest_id"),
		},
		{
			Name:        "ignore_ingest",
			Description: "Mark a reported file IGNORED. ASSIGNED files cannot be ignored",
			InputSchema: object(map[string]any{
				"ingest_id": str("Pending ingest ID"),
				"reason":    str("Why the file is ignored"),
			}, "ingest_id"),
		},
		{
			Name:        "explain_extraction",
			Description: "Show how a path would be classified, with each extraction rule's result, without storing anything",
			InputSchema: object(map[string]any{
				"project_id":    str("Project ID"),
				"relative_path": str("Path relative to a storage root"),
			}, "project_id", "relative_path"),
			ReadOnly: true,
		},

		// Releases
		{
			Name:        "create_release",
			Description: "Freeze the project's samples, completeness and assigned files under the ACTIVE RDMP version. Requires can_create_release",
			InputSchema: object(map[string]any{
				"project_id":        str("Project ID"),
				"release_tag":       str("Tag, unique within the project"),
				"description":       str("Release notes"),
				"parent_release_id": str("Release this one corrects"),
			}, "project_id", "release_tag"),
		},
		{
			Name:        "list_releases",
			Description: "List a project's releases with summary counts, newest first",
			InputSchema: object(map[string]any{
				"project_id": str("Project ID"),
			}, "project_id"),
			ReadOnly: true,
		},
		{
			Name:        "get_release",
			Description: "Get a release with its frozen snapshot",
			InputSchema: object(map[string]any{
				"release_id": str("Release ID"),
			}, "release_id"),
			ReadOnly: true,
		},

		// Audit
		{
			Name:        "get_recent_activity",
			Description: "List a project's audit log, newest first",
			InputSchema: object(map[string]any{
				"project_id": str("Project ID"),
				"limit":      integer("Maximum number of entries (default 50)"),
				"offset":     integer("Offset for pagination"),
				"actor_id":   str("Only entries by this user"),
				"target_id":  str("Only entries about this entity"),
				"action":     str("Only entries of this action"),
			}, "project_id"),
			ReadOnly: true,
		},
	}
}
