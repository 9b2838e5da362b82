package tools

// Schema helpers for building JSON Schema definitions.

// ObjectSchema creates an object schema with the given properties.
func ObjectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// StringProperty creates a string property with a description.
func StringProperty(description string) map[string]any {
	return map[string]any{
		"type":        "string",
		"description": description,
	}
}

// IntegerProperty creates an integer property with a description.
func IntegerProperty(description string) map[string]any {
	return map[string]any{
		"type":        "integer",
		"description": description,
	}
}

// BooleanProperty creates a boolean property with a description.
func BooleanProperty(description string) map[string]any {
	return map[string]any{
		"type":        "boolean",
		"description": description,
	}
}

// WithExplanation adds the shared "explanation" parameter to a schema,
// optionally marking it required.
func WithExplanation(schema map[string]any, require bool) map[string]any {
	result := make(map[string]any, len(schema))
	for k, v := range schema {
		result[k] = v
	}

	props, ok := result["properties"].(map[string]any)
	if !ok {
		props = make(map[string]any)
	} else {
		clone := make(map[string]any, len(props)+1)
		for k, v := range props {
			clone[k] = v
		}
		props = clone
	}
	props["explanation"] = StringProperty("Brief explanation of what this call does and why")
	result["properties"] = props

	if require {
		required, _ := result["required"].([]string)
		result["required"] = append(append([]string{}, required...), "explanation")
	}
	return result
}
