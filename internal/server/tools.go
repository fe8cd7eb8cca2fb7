package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name: "plate_locate",
			Description: "Find rows of license-plate characters in an image. Returns every accepted cluster with the " +
				"measured and normalized bounding box of each character, in left-to-right join order.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"match_policy": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"all", "first", "best"},
						"description": "What to do when a character matches several open groups. Default: server setting",
					},
					"min_char_num": map[string]interface{}{
						"type":        "integer",
						"description": "Minimum number of characters in an accepted cluster. Default: server setting",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "plate_edge_map",
			Description: "Compute the binary edge map the outline tracer runs on (blur, sharpen, Canny) and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "plate_outlines",
			Description: "List the traced outlines of an image with their bounding boxes and parent outline IDs.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"candidates_only": map[string]interface{}{
						"type":        "boolean",
						"description": "Only list outlines that pass the character size and aspect filter. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name: "plate_annotate",
			Description: "Draw every accepted cluster onto a copy of the image. Writes the result to output_path when " +
				"given, otherwise returns it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional absolute path of the annotated image; the format follows the extension",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "plate_crop",
			Description: "Crop the region covered by one accepted cluster and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"cluster": map[string]interface{}{
						"type":        "integer",
						"description": "1-based cluster number as reported by plate_locate. Default 1",
						"default":     1,
					},
					"padding": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels added on every side. Default 4",
						"default":     4,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path"},
			},
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
