package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/ocr"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "document_detect").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Debug("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "document_load":
		return s.handleDocumentLoad(args)
	case "document_detect":
		return s.handleDocumentDetect(ctx, args)
	case "document_edge_map":
		return s.handleDocumentEdgeMap(args)
	case "document_preprocess":
		return s.handleDocumentPreprocess(args)
	case "document_extract_text":
		return s.handleDocumentExtractText(ctx, args)
	case "document_overlay":
		return s.handleDocumentOverlay(ctx, args)
	case "document_unload":
		return s.handleDocumentUnload(args)
	case "ocr_info":
		return s.info(), nil
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Response Envelope ===

// Detection is one detected boundary in the detection envelope.
type Detection struct {
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Score  float64 `json:"score"`
	Label  string  `json:"label"`
}

// DetectResponse is the result of document_detect.
type DetectResponse struct {
	Success      bool                     `json:"success"`
	Detections   []Detection              `json:"detections"`
	Error        string                   `json:"error,omitempty"`
	Contributors []detection.Contribution `json:"contributors,omitempty"`
	Contour      []detection.Point        `json:"contour,omitempty"`
	ImageWidth   int                      `json:"image_width"`
	ImageHeight  int                      `json:"image_height"`

	// ProcessingTimeMS is the detection time in milliseconds.
	ProcessingTimeMS float64 `json:"processing_time_ms"`
}

// ExtractResponse is the result of document_extract_text.
type ExtractResponse struct {
	Success        bool           `json:"success"`
	Detections     []Detection    `json:"detections"`
	Error          string         `json:"error,omitempty"`
	Text           string         `json:"text,omitempty"`
	Confidence     float64        `json:"confidence,omitempty"`
	Method         string         `json:"method,omitempty"`
	SpellCorrected bool           `json:"spell_corrected"`
	Selection      *ocr.Selection `json:"selection,omitempty"`
}

// PreprocessResponse is the result of document_preprocess.
type PreprocessResponse struct {
	imaging.EncodedImage
	Method string `json:"method"`
}

func detectionsOf(res *detection.DetectionResult) []Detection {
	if !res.Found() {
		return []Detection{}
	}
	c := res.Candidate
	return []Detection{{
		X:      c.BoundingBox.X,
		Y:      c.BoundingBox.Y,
		Width:  c.BoundingBox.Width,
		Height: c.BoundingBox.Height,
		Score:  c.Confidence,
		Label:  c.Method.String(),
	}}
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// === Handlers ===

type documentLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleDocumentLoad(args json.RawMessage) (interface{}, error) {
	var a documentLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.pipeline.Cache(), a.Path)
}

// UnloadResponse is the result of document_unload.
type UnloadResponse struct {
	Path     string `json:"path"`
	Unloaded bool   `json:"unloaded"`
}

func (s *Server) handleDocumentUnload(args json.RawMessage) (interface{}, error) {
	var a documentLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	return &UnloadResponse{Path: a.Path, Unloaded: s.pipeline.Unload(a.Path)}, nil
}

type documentDetectArgs struct {
	Path            string `json:"path"`
	MinBoundaryArea *int   `json:"min_boundary_area"`
	CombineResults  *bool  `json:"combine_results"`
	IncludeContour  bool   `json:"include_contour"`
}

func (s *Server) handleDocumentDetect(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a documentDetectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	opts := s.pipeline.Options().Detection
	if a.MinBoundaryArea != nil {
		opts.MinBoundaryArea = *a.MinBoundaryArea
	}
	if a.CombineResults != nil {
		opts.CombineResults = *a.CombineResults
	}

	img, err := s.pipeline.Load(a.Path)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := s.pipeline.WithDetection(opts).Detect(ctx, img)
	if err != nil {
		return nil, err
	}

	resp := &DetectResponse{
		Success:          true,
		Detections:       detectionsOf(res),
		Contributors:     res.Contributors,
		ImageWidth:       img.Bounds().Dx(),
		ImageHeight:      img.Bounds().Dy(),
		ProcessingTimeMS: milliseconds(time.Since(start)),
	}
	if a.IncludeContour && res.Found() {
		resp.Contour = res.Candidate.Contour.Points
	}
	return resp, nil
}

type documentEdgeMapArgs struct {
	Path          string  `json:"path"`
	ThresholdLow  float64 `json:"threshold_low"`
	ThresholdHigh float64 `json:"threshold_high"`
}

func (s *Server) handleDocumentEdgeMap(args json.RawMessage) (interface{}, error) {
	var a documentEdgeMapArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	opts := s.pipeline.Options().Detection
	if a.ThresholdLow == 0 {
		a.ThresholdLow = opts.CannyLow
	}
	if a.ThresholdHigh == 0 {
		a.ThresholdHigh = opts.CannyHigh
	}
	buf, err := s.pipeline.Cache().LoadBuffer(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.EncodeEdgeMap(imaging.Canny(imaging.Grayscale(buf), a.ThresholdLow, a.ThresholdHigh))
}

type regionArgs struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type documentPreprocessArgs struct {
	Path   string      `json:"path"`
	Method string      `json:"method"`
	Region *regionArgs `json:"region"`
}

func (s *Server) handleDocumentPreprocess(args json.RawMessage) (interface{}, error) {
	var a documentPreprocessArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Method == "" {
		a.Method = ocr.MethodAdaptiveBinary.String()
	}
	method, err := ocr.ParseMethod(a.Method)
	if err != nil {
		return nil, err
	}

	img, err := s.pipeline.Load(a.Path)
	if err != nil {
		return nil, err
	}
	if a.Region != nil {
		r := image.Rect(a.Region.X, a.Region.Y, a.Region.X+a.Region.Width, a.Region.Y+a.Region.Height)
		if img, err = imaging.CropRegion(img, r.Add(img.Bounds().Min), 0); err != nil {
			return nil, err
		}
	}

	opts := s.pipeline.Options().OCR
	variant, err := ocr.Render(method, img, opts.BlockSize, opts.ThresholdC)
	if err != nil {
		return nil, err
	}
	enc, err := imaging.EncodePNG(variant)
	if err != nil {
		return nil, err
	}
	return &PreprocessResponse{EncodedImage: *enc, Method: method.String()}, nil
}

type documentExtractTextArgs struct {
	Path                string   `json:"path"`
	Detect              *bool    `json:"detect"`
	FastMode            *bool    `json:"fast_mode"`
	SpellCheck          *bool    `json:"spell_check"`
	ConfidenceThreshold *float64 `json:"confidence_threshold"`
	Language            string   `json:"language"`
}

func (s *Server) handleDocumentExtractText(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a documentExtractTextArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	opts := s.pipeline.Options().OCR
	if a.FastMode != nil {
		opts.FastMode = *a.FastMode
	}
	if a.SpellCheck != nil {
		opts.SpellCheck = *a.SpellCheck
	}
	if a.ConfidenceThreshold != nil {
		opts.ConfidenceThreshold = *a.ConfidenceThreshold
	}
	if a.Language != "" {
		opts.Language = a.Language
	}
	p := s.pipeline.WithOCR(opts)

	img, err := p.Load(a.Path)
	if err != nil {
		return nil, err
	}

	resp := &ExtractResponse{Success: true, Detections: []Detection{}}
	var box *detection.BoundingBox
	if a.Detect == nil || *a.Detect {
		res, err := p.Detect(ctx, img)
		if err != nil {
			return nil, err
		}
		resp.Detections = detectionsOf(res)
		if res.Found() {
			box = &res.Candidate.BoundingBox
		}
	}

	sel, err := p.Extract(ctx, img, box)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	case err != nil:
		resp.Success = false
		resp.Error = err.Error()
		return resp, nil
	}

	resp.Selection = sel
	resp.Text = sel.Best.Text
	resp.Confidence = sel.Best.Confidence
	resp.Method = sel.Best.Method.String()
	resp.SpellCorrected = sel.SpellCorrected
	return resp, nil
}

type documentOverlayArgs struct {
	Path           string  `json:"path"`
	Color          string  `json:"color"`
	Opacity        float64 `json:"opacity"`
	Thickness      int     `json:"thickness"`
	ShowConfidence *bool   `json:"show_confidence"`
}

// OverlayResponse is the result of document_overlay.
type OverlayResponse struct {
	*imaging.OverlayResult
	Detections []Detection `json:"detections"`
}

func (s *Server) handleDocumentOverlay(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a documentOverlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Color == "" {
		a.Color = imaging.DefaultOverlayColor
	}
	if a.Thickness == 0 {
		a.Thickness = 2
	}

	img, err := s.pipeline.Load(a.Path)
	if err != nil {
		return nil, err
	}
	res, err := s.pipeline.Detect(ctx, img)
	if err != nil {
		return nil, err
	}
	if !res.Found() {
		return nil, errors.New("no document boundary found")
	}

	c := res.Candidate
	polygon := c.Contour.ImagePoints()
	for i := range polygon {
		polygon[i] = polygon[i].Add(img.Bounds().Min)
	}
	label := ""
	if a.ShowConfidence == nil || *a.ShowConfidence {
		label = fmt.Sprintf("%.0f%%", c.Confidence*100)
	}
	overlay, err := imaging.Overlay(img, polygon, a.Color, a.Opacity, a.Thickness, label)
	if err != nil {
		return nil, err
	}
	return &OverlayResponse{OverlayResult: overlay, Detections: detectionsOf(res)}, nil
}
