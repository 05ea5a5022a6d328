package llm

import "strings"

func collectTextParts(parts []Part) string {
	var b strings.Builder
	for _, part := range parts {
		if part.Type == PartText {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

func collectToolResultText(parts []Part) string {
	var b strings.Builder
	for _, part := range parts {
		if part.Type == PartToolResult && part.ToolResult != nil {
			b.WriteString(toolResultTextContent(part.ToolResult))
		}
	}
	return b.String()
}

// truncate shortens s to at most n runes for debug-log previews, appending
// an ellipsis marker when it cuts anything off.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "...[truncated]"
}

func flattenSystemUser(messages []Message) (string, string) {
	var systemParts []string
	var userParts []string
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			systemParts = append(systemParts, collectTextParts(msg.Parts))
		case RoleUser:
			userParts = append(userParts, collectTextParts(msg.Parts))
		case RoleTool:
			userParts = append(userParts, collectToolResultText(msg.Parts))
		}
	}
	return strings.Join(systemParts, "\n\n"), strings.Join(userParts, "\n\n")
}

// chooseModel prefers a per-request model override, falling back to the
// provider's configured default when the request leaves it blank.
func chooseModel(reqModel, providerModel string) string {
	if reqModel != "" {
		return reqModel
	}
	return providerModel
}

// schemaRequired reads the "required" array out of a tool's JSON schema,
// tolerating the two shapes encountered across providers: a []string built
// directly in Go, or a []interface{} decoded from JSON.
func schemaRequired(schema map[string]interface{}) []string {
	raw, ok := schema["required"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// normalizeSchemaForOpenAI walks a JSON-schema tree and rewrites every
// object node to satisfy OpenAI's strict function-calling mode: every
// property must be listed in "required", and additionalProperties must be
// false unless it's already a schema (used to describe a free-form map,
// e.g. an "env" parameter), which must be preserved rather than clobbered.
func normalizeSchemaForOpenAI(schema map[string]interface{}) map[string]interface{} {
	if schema == nil {
		return nil
	}
	result := make(map[string]interface{}, len(schema))
	for k, v := range schema {
		result[k] = v
	}

	if props, ok := result["properties"].(map[string]interface{}); ok {
		normalized := make(map[string]interface{}, len(props))
		required := make([]string, 0, len(props))
		for name, propSchema := range props {
			if nested, ok := propSchema.(map[string]interface{}); ok {
				normalized[name] = normalizeSchemaForOpenAI(nested)
			} else {
				normalized[name] = propSchema
			}
			required = append(required, name)
		}
		result["properties"] = normalized
		result["required"] = required

		if _, hasAP := result["additionalProperties"]; !hasAP {
			result["additionalProperties"] = false
		} else if ap, ok := result["additionalProperties"].(bool); ok && ap {
			result["additionalProperties"] = false
		}
		// A map-valued additionalProperties describes a free-form map and is
		// left untouched.
	}

	return result
}
