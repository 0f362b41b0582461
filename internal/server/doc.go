// Package server implements the MCP (Model Context Protocol) server for the
// document tools.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - document_load: Load an image and report its metadata
//   - document_detect: Find the document boundary
//   - document_edge_map: Render the Canny edge map used by detection
//   - document_preprocess: Render one OCR preprocessing variant
//   - document_extract_text: Detect, crop and run multi-variant OCR
//   - document_overlay: Draw the detected boundary on the image
//   - document_unload: Drop a cached image
//   - ocr_info: Report the OCR backend and its version
//
// document_detect and document_extract_text answer with a success flag and a
// detections list of {x, y, width, height, score, label} boxes. Finding no
// boundary yields an empty list, not an error. When every OCR variant fails,
// document_extract_text answers success=false with the error text.
//
// # Image Caching
//
// Images are cached by path in the pipeline's bounded LRU cache and reused
// across tool calls until evicted or dropped with document_unload.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	p := pipeline.New(engine, pipeline.DefaultOptions(), logger)
//	defer p.Close()
//	srv := server.New(p, engine.Info, logger, version)
//	if err := srv.Run(ctx); err != nil {
//	    logger.Error("server error", "error", err)
//	}
package server
