package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func emptySchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Selection
		{
			Name:        "asset_select",
			Description: "Select a file for analysis. Replaces the current selection, clears any previous analysis result, and creates a preview when the file is an image. Empty files are rejected.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "preview_release",
			Description: "Release the current preview. The selected file stays selected. Safe to call when no preview exists.",
			InputSchema: emptySchema(),
		},

		// Analysis
		{
			Name:        "analysis_submit",
			Description: "Submit the selected file to the helmet detection service. Ignored when nothing is selected or an analysis is already running.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"wait": map[string]interface{}{
						"type":        "boolean",
						"description": "Block until the analysis completes. Default false",
						"default":     false,
					},
				},
			},
		},
		{
			Name:        "analysis_status",
			Description: "Get the analysis state and, after a successful analysis, the compliance metrics and overlay geometry.",
			InputSchema: emptySchema(),
		},

		// Rendering
		{
			Name:        "preview_render",
			Description: "Render the preview as base64-encoded PNG. After a successful analysis the detected subject is outlined and labelled with the detection confidence.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"max_dimension": map[string]interface{}{
						"type":        "integer",
						"description": "Fit the output inside a square of this many pixels. 0 renders at source size. Defaults to the configured value",
					},
				},
			},
		},
		{
			Name:        "preview_crop_subject",
			Description: "Crop the detected subject from the preview and return it as base64-encoded PNG. Requires a successful analysis with a bounding box.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"padding": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels added around the bounding box. Default 0",
						"default":     0,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
			},
		},

		// Service
		{
			Name:        "service_health",
			Description: "Check whether the helmet detection service is reachable.",
			InputSchema: emptySchema(),
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
