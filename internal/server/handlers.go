package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/helmet-detect-mcp/internal/analysis"
	"github.com/ironsheep/helmet-detect-mcp/internal/imaging"
	"github.com/ironsheep/helmet-detect-mcp/internal/selection"
)

var (
	errNoPreview = errors.New("no preview available: select an image first")
	errNoSubject = errors.New("no subject bounding box: run a successful analysis first")
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "asset_select", "analysis_submit").
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
		s.logger.Debug("tool failed", "tool", params.Name, "error", err)
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
	// Selection
	case "asset_select":
		return s.handleAssetSelect(args)
	case "preview_release":
		return s.handlePreviewRelease()

	// Analysis
	case "analysis_submit":
		return s.handleAnalysisSubmit(ctx, args)
	case "analysis_status":
		return s.handleAnalysisStatus()

	// Rendering
	case "preview_render":
		return s.handlePreviewRender(args)
	case "preview_crop_subject":
		return s.handlePreviewCropSubject(args)

	// Service
	case "service_health":
		return s.handleServiceHealth(ctx)

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
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals optional tool arguments. Missing arguments are
// treated as an empty object.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// === Selection Handlers ===

type assetInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	IsImage     bool   `json:"is_image"`
}

type previewInfo struct {
	ID      string             `json:"id"`
	URL     string             `json:"url"`
	AssetID string             `json:"asset_id"`
	Image   *imaging.ImageInfo `json:"image,omitempty"`
	Error   string             `json:"error,omitempty"`
}

type selectResult struct {
	Accepted bool            `json:"accepted"`
	Reason   string          `json:"reason,omitempty"`
	Asset    *assetInfo      `json:"asset,omitempty"`
	Preview  *previewInfo    `json:"preview,omitempty"`
	State    analysis.State  `json:"state"`
	Previews selection.Stats `json:"previews"`
}

type assetSelectArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleAssetSelect(args json.RawMessage) (interface{}, error) {
	var a assetSelectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}

	in, err := selection.ReadFile(a.Path)
	if err != nil {
		return nil, err
	}

	res := &selectResult{Accepted: s.selection.Select(in)}
	if !res.Accepted {
		res.Reason = "file is empty"
	}

	if asset, ok := s.selection.Current(); ok {
		res.Asset = describeAsset(asset)
	}
	if p, ok := s.selection.Preview(); ok {
		res.Preview = describePreview(p)
	}
	res.State = s.analysis.State()
	res.Previews = s.selection.Stats()
	return res, nil
}

func describeAsset(a *selection.Asset) *assetInfo {
	return &assetInfo{
		ID:          a.ID.String(),
		Name:        a.Name,
		ContentType: a.ContentType,
		SizeBytes:   a.Size(),
		IsImage:     a.IsImage(),
	}
}

func describePreview(p *selection.Preview) *previewInfo {
	info := &previewInfo{
		ID:      p.ID.String(),
		URL:     p.URL,
		AssetID: p.AssetID().String(),
	}
	img, err := p.Info()
	if err != nil {
		info.Error = err.Error()
	} else {
		info.Image = img
	}
	return info
}

func (s *Server) handlePreviewRelease() (interface{}, error) {
	s.selection.ReleasePreview()
	return map[string]interface{}{
		"released": true,
		"previews": s.selection.Stats(),
	}, nil
}

// === Analysis Handlers ===

type statusResult struct {
	State           analysis.State           `json:"state"`
	SubmitEnabled   bool                     `json:"submit_enabled"`
	Asset           *assetInfo               `json:"asset,omitempty"`
	Metrics         *analysis.DisplayMetrics `json:"metrics,omitempty"`
	Compliant       *bool                    `json:"compliant,omitempty"`
	ComplianceColor *imaging.ColorResult     `json:"compliance_color,omitempty"`
}

func (s *Server) status() *statusResult {
	res := &statusResult{
		State:         s.analysis.State(),
		SubmitEnabled: s.analysis.SubmitEnabled(),
	}
	if asset, ok := s.selection.Current(); ok {
		res.Asset = describeAsset(asset)
	}
	if m, ok := s.analysis.Metrics(); ok {
		compliant := m.Compliant()
		c := imaging.ComplianceColor(m.ComplianceRate)
		res.Metrics = &m
		res.Compliant = &compliant
		res.ComplianceColor = &c
	}
	return res
}

type analysisSubmitArgs struct {
	Wait bool `json:"wait"`
}

type submitResult struct {
	Accepted bool `json:"accepted"`
	*statusResult
}

func (s *Server) handleAnalysisSubmit(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a analysisSubmitArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	accepted := s.analysis.Submit(ctx)
	if accepted && a.Wait {
		if err := s.analysis.Wait(ctx); err != nil {
			return nil, err
		}
	}

	return &submitResult{Accepted: accepted, statusResult: s.status()}, nil
}

func (s *Server) handleAnalysisStatus() (interface{}, error) {
	return s.status(), nil
}

// === Rendering Handlers ===

type previewRenderArgs struct {
	MaxDimension *int `json:"max_dimension"`
}

type renderResult struct {
	PreviewURL string `json:"preview_url"`
	Overlay    bool   `json:"overlay"`
	*imaging.RenderResult
}

func (s *Server) handlePreviewRender(args json.RawMessage) (interface{}, error) {
	var a previewRenderArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	p, ok := s.selection.Preview()
	if !ok {
		return nil, errNoPreview
	}
	img, err := p.Image()
	if err != nil {
		return nil, err
	}

	opts := imaging.OverlayOptions{
		Color:        s.preview.OverlayColor,
		Thickness:    s.preview.OverlayThickness,
		MaxDimension: s.preview.MaxDimension,
	}
	if a.MaxDimension != nil {
		opts.MaxDimension = *a.MaxDimension
	}

	var box *imaging.Box
	if m, ok := s.analysis.Metrics(); ok && m.Overlay != nil {
		box = overlayBox(m.Overlay)
		opts.Label = m.ConfidenceLabel()
	}

	rendered, err := imaging.RenderOverlay(img, box, opts)
	if err != nil {
		return nil, err
	}
	return &renderResult{PreviewURL: p.URL, Overlay: box != nil, RenderResult: rendered}, nil
}

type previewCropSubjectArgs struct {
	Padding int     `json:"padding"`
	Scale   float64 `json:"scale"`
}

func (s *Server) handlePreviewCropSubject(args json.RawMessage) (interface{}, error) {
	var a previewCropSubjectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}

	p, ok := s.selection.Preview()
	if !ok {
		return nil, errNoPreview
	}
	m, ok := s.analysis.Metrics()
	if !ok || m.Overlay == nil {
		return nil, errNoSubject
	}
	img, err := p.Image()
	if err != nil {
		return nil, err
	}

	return imaging.CropSubject(img, *overlayBox(m.Overlay), a.Padding, a.Scale)
}

func overlayBox(r *analysis.OverlayRect) *imaging.Box {
	return &imaging.Box{Left: r.Left, Top: r.Top, Width: r.Width, Height: r.Height}
}

// === Service Handlers ===

func (s *Server) handleServiceHealth(ctx context.Context) (interface{}, error) {
	res := map[string]interface{}{
		"url":     s.detector.URL(),
		"healthy": true,
	}
	if err := s.detector.Health(ctx); err != nil {
		res["healthy"] = false
		res["error"] = err.Error()
	}
	return res, nil
}
