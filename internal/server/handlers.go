package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"

	"github.com/ironsheep/plate-locator/internal/imaging"
	"github.com/ironsheep/plate-locator/internal/plate"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "plate_locate").
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
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
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
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "plate_locate":
		return s.handlePlateLocate(args)
	case "plate_edge_map":
		return s.handlePlateEdgeMap(args)
	case "plate_outlines":
		return s.handlePlateOutlines(args)
	case "plate_annotate":
		return s.handlePlateAnnotate(args)
	case "plate_crop":
		return s.handlePlateCrop(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{Code: code, Message: message}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   e,
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

type pathArgs struct {
	Path string `json:"path"`
}

func (a pathArgs) validate() error {
	if a.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

// load decodes args into dst and returns the cached image named by its path.
func (s *Server) load(args json.RawMessage, dst interface{ validate() error }, path func() string) (image.Image, error) {
	if err := json.Unmarshal(args, dst); err != nil {
		return nil, err
	}
	if err := dst.validate(); err != nil {
		return nil, err
	}
	return s.cache.Load(path())
}

// analyze runs the clustering pass on img with cfg instead of the server's
// default thresholds.
func (s *Server) analyze(img image.Image, cfg plate.Config) (*plate.Result, error) {
	_, outlines, err := s.proc.Outlines(img)
	if err != nil {
		return nil, err
	}
	return plate.Analyze(outlines, cfg)
}

// === Locate ===

type plateLocateArgs struct {
	pathArgs
	MatchPolicy string `json:"match_policy"`
	MinCharNum  int    `json:"min_char_num"`
}

// LocateResult is the plate_locate response.
type LocateResult struct {
	Path       string        `json:"path"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	Characters int           `json:"characters"`
	Result     *plate.Result `json:"result"`
	Bounds     []plate.Rect  `json:"bounds"`
}

func (s *Server) handlePlateLocate(args json.RawMessage) (interface{}, error) {
	var a plateLocateArgs
	img, err := s.load(args, &a, func() string { return a.Path })
	if err != nil {
		return nil, err
	}

	cfg := s.proc.Config()
	if a.MatchPolicy != "" {
		cfg.MatchPolicy = plate.MatchPolicy(a.MatchPolicy)
	}
	if a.MinCharNum != 0 {
		cfg.MinCharNum = a.MinCharNum
	}

	res, err := s.analyze(img, cfg)
	if err != nil {
		return nil, err
	}

	bounds := make([]plate.Rect, 0, len(res.Clusters))
	for _, c := range res.Clusters {
		r, err := imaging.ClusterBounds(c, 0)
		if err != nil {
			return nil, err
		}
		bounds = append(bounds, r)
	}

	b := img.Bounds()
	return &LocateResult{
		Path:       a.Path,
		Width:      b.Dx(),
		Height:     b.Dy(),
		Characters: res.CharacterCount(),
		Result:     res,
		Bounds:     bounds,
	}, nil
}

// === Edge map ===

func (s *Server) handlePlateEdgeMap(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	img, err := s.load(args, &a, func() string { return a.Path })
	if err != nil {
		return nil, err
	}
	return imaging.EncodeEdgeMap(s.proc.EdgeMap(img))
}

// === Outlines ===

type plateOutlinesArgs struct {
	pathArgs
	CandidatesOnly bool `json:"candidates_only"`
}

// OutlinesResult is the plate_outlines response.
type OutlinesResult struct {
	Total    int             `json:"total"`
	Count    int             `json:"count"`
	Outlines []plate.Outline `json:"outlines"`
}

func (s *Server) handlePlateOutlines(args json.RawMessage) (interface{}, error) {
	var a plateOutlinesArgs
	img, err := s.load(args, &a, func() string { return a.Path })
	if err != nil {
		return nil, err
	}

	_, outlines, err := s.proc.Outlines(img)
	if err != nil {
		return nil, err
	}
	listed := outlines
	if a.CandidatesOnly {
		listed = plate.FilterCandidates(outlines, s.proc.Config())
	}
	if listed == nil {
		listed = []plate.Outline{}
	}
	return &OutlinesResult{
		Total:    len(outlines),
		Count:    len(listed),
		Outlines: listed,
	}, nil
}

// === Annotate ===

type plateAnnotateArgs struct {
	pathArgs
	OutputPath string `json:"output_path"`
}

// AnnotateResult is the plate_annotate response. Either OutputPath or
// ImageBase64 is set.
type AnnotateResult struct {
	Clusters    int    `json:"clusters"`
	Characters  int    `json:"characters"`
	OutputPath  string `json:"output_path,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
}

func (s *Server) handlePlateAnnotate(args json.RawMessage) (interface{}, error) {
	var a plateAnnotateArgs
	img, err := s.load(args, &a, func() string { return a.Path })
	if err != nil {
		return nil, err
	}

	res, err := s.analyze(img, s.proc.Config())
	if err != nil {
		return nil, err
	}
	annotated := imaging.Annotate(img, res.Clusters)

	out := &AnnotateResult{
		Clusters:   len(res.Clusters),
		Characters: res.CharacterCount(),
	}
	if a.OutputPath != "" {
		if err := imaging.Save(annotated, a.OutputPath); err != nil {
			return nil, err
		}
		// a later call may load the file just written
		s.cache.Evict(a.OutputPath)
		out.OutputPath = a.OutputPath
		return out, nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, annotated); err != nil {
		return nil, fmt.Errorf("failed to encode annotated image: %w", err)
	}
	out.ImageBase64 = base64.StdEncoding.EncodeToString(buf.Bytes())
	out.MimeType = "image/png"
	return out, nil
}

// === Crop ===

type plateCropArgs struct {
	pathArgs
	Cluster int     `json:"cluster"`
	Padding *int    `json:"padding"`
	Scale   float64 `json:"scale"`
}

func (s *Server) handlePlateCrop(args json.RawMessage) (interface{}, error) {
	var a plateCropArgs
	img, err := s.load(args, &a, func() string { return a.Path })
	if err != nil {
		return nil, err
	}
	if a.Cluster == 0 {
		a.Cluster = 1
	}
	pad := 4
	if a.Padding != nil {
		pad = *a.Padding
	}
	if pad < 0 {
		return nil, fmt.Errorf("padding must not be negative, got %d", pad)
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}

	res, err := s.analyze(img, s.proc.Config())
	if err != nil {
		return nil, err
	}
	if a.Cluster < 1 || a.Cluster > len(res.Clusters) {
		return nil, fmt.Errorf("cluster %d out of range: image has %d clusters", a.Cluster, len(res.Clusters))
	}
	return imaging.CropCluster(img, res.Clusters[a.Cluster-1], pad, a.Scale)
}
