package sources

import (
	"context"

	"github.com/thebtf/worklog/internal/config"
	"github.com/thebtf/worklog/pkg/models"
)

// OpenCodeReader reads flat OpenCode session files of {role, content, timestamp} lines.
type OpenCodeReader struct{}

func NewOpenCodeReader() *OpenCodeReader { return &OpenCodeReader{} }

func (*OpenCodeReader) Name() models.SourceType { return models.SourceOpenCode }

func (*OpenCodeReader) Read(ctx context.Context, r models.DateRange, cfg *config.Config) ([]models.WorkItem, error) {
	return readSessions(ctx, models.SourceOpenCode, cfg.SourcePath("opencode"), false, r, parseOpenCode)
}

func parseOpenCode(path string, r models.DateRange) (models.WorkItem, bool, error) {
	s := newSession(r, path)
	err := scanJSONL(path, func(line map[string]any) {
		ts, ok := parseTimestamp(line["timestamp"])
		if !ok {
			return
		}
		if role, _ := line["role"].(string); role == "user" {
			s.addPrompt(ts, extractTextContent(line["content"], "text"))
			return
		}
		s.observe(ts)
	})
	if err != nil {
		return models.WorkItem{}, false, err
	}
	item, ok := s.item(models.SourceOpenCode, "OpenCode")
	return item, ok, nil
}

// ClaudeReader reads Claude Code project transcripts.
type ClaudeReader struct{}

func NewClaudeReader() *ClaudeReader { return &ClaudeReader{} }

func (*ClaudeReader) Name() models.SourceType { return models.SourceClaude }

func (*ClaudeReader) Read(ctx context.Context, r models.DateRange, cfg *config.Config) ([]models.WorkItem, error) {
	return readSessions(ctx, models.SourceClaude, cfg.SourcePath("claude"), true, r, parseClaude)
}

func parseClaude(path string, r models.DateRange) (models.WorkItem, bool, error) {
	s := newSession(r, path)
	err := scanJSONL(path, func(line map[string]any) {
		ts, ok := parseTimestamp(line["timestamp"])
		if !ok {
			return
		}
		if cwd, _ := line["cwd"].(string); cwd != "" {
			if _, set := s.metadata["cwd"]; !set {
				s.setMeta("cwd", cwd)
			}
		}
		if id, _ := line["sessionId"].(string); id != "" {
			s.setMeta("sessionId", id)
		}

		msg, _ := line["message"].(map[string]any)
		lineType, _ := line["type"].(string)
		isMeta, _ := line["isMeta"].(bool)
		if lineType != "user" || isMeta || msg == nil {
			s.observe(ts)
			return
		}
		if role, _ := msg["role"].(string); role != "user" {
			s.observe(ts)
			return
		}
		s.addPrompt(ts, extractTextContent(msg["content"], "text"))
	})
	if err != nil {
		return models.WorkItem{}, false, err
	}
	item, ok := s.item(models.SourceClaude, "Claude")
	return item, ok, nil
}

// CodexReader reads Codex CLI rollout files.
type CodexReader struct{}

func NewCodexReader() *CodexReader { return &CodexReader{} }

func (*CodexReader) Name() models.SourceType { return models.SourceCodex }

func (*CodexReader) Read(ctx context.Context, r models.DateRange, cfg *config.Config) ([]models.WorkItem, error) {
	return readSessions(ctx, models.SourceCodex, cfg.SourcePath("codex"), true, r, parseCodex)
}

func parseCodex(path string, r models.DateRange) (models.WorkItem, bool, error) {
	s := newSession(r, path)
	err := scanJSONL(path, func(line map[string]any) {
		ts, ok := parseTimestamp(line["timestamp"])
		if !ok {
			return
		}
		payload, _ := line["payload"].(map[string]any)
		lineType, _ := line["type"].(string)

		switch lineType {
		case "session_meta":
			if payload != nil {
				cwd, _ := payload["cwd"].(string)
				id, _ := payload["id"].(string)
				s.setMeta("cwd", cwd)
				s.setMeta("sessionId", id)
			}
			s.observe(ts)
		case "response_item":
			if payload == nil {
				s.observe(ts)
				return
			}
			itemType, _ := payload["type"].(string)
			role, _ := payload["role"].(string)
			if itemType == "message" && role == "user" {
				s.addPrompt(ts, extractTextContent(payload["content"], "input_text", "text"))
				return
			}
			s.observe(ts)
		default:
			s.observe(ts)
		}
	})
	if err != nil {
		return models.WorkItem{}, false, err
	}
	item, ok := s.item(models.SourceCodex, "Codex")
	return item, ok, nil
}

// FactoryReader reads Factory droid session files.
type FactoryReader struct{}

func NewFactoryReader() *FactoryReader { return &FactoryReader{} }

func (*FactoryReader) Name() models.SourceType { return models.SourceFactory }

func (*FactoryReader) Read(ctx context.Context, r models.DateRange, cfg *config.Config) ([]models.WorkItem, error) {
	return readSessions(ctx, models.SourceFactory, cfg.SourcePath("factory"), true, r, parseFactory)
}

func parseFactory(path string, r models.DateRange) (models.WorkItem, bool, error) {
	s := newSession(r, path)
	err := scanJSONL(path, func(line map[string]any) {
		lineType, _ := line["type"].(string)
		if lineType == "session_start" {
			cwd, _ := line["cwd"].(string)
			s.setMeta("cwd", cwd)
		}
		ts, ok := parseTimestamp(line["timestamp"])
		if !ok {
			return
		}

		msg, _ := line["message"].(map[string]any)
		if lineType != "message" || msg == nil {
			s.observe(ts)
			return
		}
		if role, _ := msg["role"].(string); role != "user" {
			s.observe(ts)
			return
		}
		s.addPrompt(ts, extractTextContent(msg["content"], "text"))
	})
	if err != nil {
		return models.WorkItem{}, false, err
	}
	item, ok := s.item(models.SourceFactory, "Factory")
	return item, ok, nil
}
