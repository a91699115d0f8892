package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tsawler/uilayout/detection"
	"github.com/tsawler/uilayout/export"
	"github.com/tsawler/uilayout/layout"
	"github.com/tsawler/uilayout/model"
	"github.com/tsawler/uilayout/observability"
)

func (s *Server) registerLayoutTools() {
	// ── analyze_layout ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("analyze_layout",
		mcp.WithDescription("Reconstruct the layout of a GUI screenshot from element detections. "+
			"Returns a flat component list (ids c-N, with group-id g-N and list-id l-N) and a block tree (ids b-N)."),
		mcp.WithString("detections",
			mcp.Description(`Detection JSON: {"img_shape":[h,w,c],"compos":[{"class":"Text"|label,"position":{"column_min","row_min","column_max","row_max"},"text_content"}]}`),
			mcp.Required(),
		),
		mcp.WithNumber("width",
			mcp.Description("Screen width in pixels, used when the detections carry no img_shape"),
		),
		mcp.WithNumber("height",
			mcp.Description("Screen height in pixels, used when the detections carry no img_shape"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: json (default), jsonl, csv, tsv or html"),
		),
		mcp.WithBoolean("save",
			mcp.Description("Archive the result and return its id"),
		),
	), s.handleAnalyzeLayout)

	// ── default_config ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("default_config",
		mcp.WithDescription("Show the analyzer configuration with all thresholds"),
	), s.handleDefaultConfig)
}

func (s *Server) registerArchiveTools() {
	// ── get_layout ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_layout",
		mcp.WithDescription("Fetch an archived layout by id"),
		mcp.WithString("id",
			mcp.Description("ID returned by analyze_layout with save=true"),
			mcp.Required(),
		),
	), s.handleGetLayout)

	// ── list_layouts ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_layouts",
		mcp.WithDescription("List archived layouts, newest first"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of entries (default 50)"),
		),
	), s.handleListLayouts)

	// ── delete_layout ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_layout",
		mcp.WithDescription("Remove an archived layout"),
		mcp.WithString("id",
			mcp.Description("ID of the layout to remove"),
			mcp.Required(),
		),
	), s.handleDeleteLayout)
}

func (s *Server) handleAnalyzeLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log := s.logger.With(observability.String("request", uuid.New().String()))

	data := req.GetString("detections", "")
	if strings.TrimSpace(data) == "" {
		return nil, fmt.Errorf("detections is required")
	}
	format, err := export.ParseFormat(req.GetString("format", "json"))
	if err != nil {
		return nil, err
	}
	fallback := model.Screen{
		Width:  req.GetFloat("width", 0),
		Height: req.GetFloat("height", 0),
	}

	in, err := detection.DecodeUIEDWithScreen(strings.NewReader(data), fallback)
	if err != nil {
		return nil, fmt.Errorf("decode detections: %w", err)
	}

	analysis, err := s.analyzer.Analyze(in)
	if err != nil && !errors.Is(err, layout.ErrDetectionEmpty) {
		log.Error("analysis failed", observability.Error("error", err))
		return nil, fmt.Errorf("analyze: %w", err)
	}
	log.Info("analyzed layout",
		observability.Int("components", len(analysis.Components)),
		observability.Int("lists", len(analysis.Lists)),
		observability.Int("blocks", analysis.Root.Count()),
	)

	out, err := export.NewExporterWithConfig(export.ConfigFor(format)).ExportToString(analysis)
	if err != nil {
		return nil, err
	}
	if !req.GetBool("save", false) {
		return textResult(out), nil
	}

	if s.archive == nil {
		return nil, fmt.Errorf("no archive configured")
	}
	id, err := s.archive.Save(ctx, "mcp", export.NewDocument(analysis))
	if err != nil {
		return nil, err
	}
	log.Debug("archived layout", observability.String("id", id))
	return textResult(out, "id: "+id), nil
}

func (s *Server) handleDefaultConfig(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.analyzer.Config())
}

func (s *Server) handleGetLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return nil, fmt.Errorf("id is required")
	}
	record, err := s.archive.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return jsonResult(record)
}

func (s *Server) handleListLayouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.archive.List(ctx, req.GetInt("limit", 0))
	if err != nil {
		return nil, err
	}
	return jsonResult(entries)
}

func (s *Server) handleDeleteLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return nil, fmt.Errorf("id is required")
	}
	if err := s.archive.Delete(ctx, id); err != nil {
		return nil, err
	}
	s.logger.Info("deleted layout", observability.String("id", id))
	return textResult("deleted " + id), nil
}
