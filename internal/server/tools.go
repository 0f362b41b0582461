package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "document_load",
			Description: "Load an image file and return its dimensions, format and color information. The decoded image is cached for subsequent calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "document_detect",
			Description: "Detect the boundary of a document (page, receipt, card) in an image. Runs Canny, adaptive threshold, edge projection and gradient detectors and returns the best candidate in a detections list; the list is empty when no boundary is found.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"min_boundary_area": map[string]interface{}{
						"type":        "integer",
						"description": "Smallest accepted boundary area in square pixels. Default 1000",
					},
					"combine_results": map[string]interface{}{
						"type":        "boolean",
						"description": "Report every detector that produced a candidate. Default true",
					},
					"include_contour": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the simplified boundary polygon. Default false",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "document_edge_map",
			Description: "Run Canny edge detection and return the binary edge map as a base64-encoded PNG. Useful to understand why a boundary was or was not found.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"threshold_low": map[string]interface{}{
						"type":        "number",
						"description": "Hysteresis low threshold. Default 50",
					},
					"threshold_high": map[string]interface{}{
						"type":        "number",
						"description": "Hysteresis high threshold. Default 150",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "document_preprocess",
			Description: "Render one OCR preprocessing variant of an image (or a region of it) and return it as a base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"method": map[string]interface{}{
						"type":        "string",
						"description": "Variant to render",
						"enum":        []string{"original", "enhanced", "adaptive-binary", "high-contrast", "denoised"},
						"default":     "adaptive-binary",
					},
					"region": map[string]interface{}{
						"type":        "object",
						"description": "Optional region {x, y, width, height} to render instead of the whole image",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "document_extract_text",
			Description: "Detect the document boundary, crop it and extract its text. Each preprocessing variant is recognized separately and the best result is selected by confidence and text quality. Returns success=false with an error when no variant produced text.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"detect": map[string]interface{}{
						"type":        "boolean",
						"description": "Crop to the detected boundary first. When false, or when no boundary is found, the whole image is used. Default true",
					},
					"fast_mode": map[string]interface{}{
						"type":        "boolean",
						"description": "Run only the adaptive-binary variant on a downscaled image",
					},
					"spell_check": map[string]interface{}{
						"type":        "boolean",
						"description": "Apply spell correction to the winning text",
					},
					"confidence_threshold": map[string]interface{}{
						"type":        "number",
						"description": "Minimum engine confidence (0-100) for an attempt to be eligible",
					},
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code, e.g. eng",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "document_overlay",
			Description: "Detect the document boundary and return the image with the boundary outline drawn on it as a base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Outline color as hex. Default #00ff00",
					},
					"opacity": map[string]interface{}{
						"type":        "number",
						"description": "Outline opacity 0-1. Default 1",
					},
					"thickness": map[string]interface{}{
						"type":        "integer",
						"description": "Outline thickness in pixels. Default 2",
					},
					"show_confidence": map[string]interface{}{
						"type":        "boolean",
						"description": "Label the outline with the detection confidence. Default true",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "document_unload",
			Description: "Drop a cached image so the next call reads the file from disk again. Use after the file has changed.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Path previously passed to another document tool",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "ocr_info",
			Description: "Report whether the OCR engine is available and which version is installed.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
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
