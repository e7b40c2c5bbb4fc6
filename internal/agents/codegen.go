package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ButterFlowQ/DesignGen/internal/llm"
)

// GeneratedFile is one source file produced by a code-generation agent.
type GeneratedFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

var fileFields = map[string]string{
	RoleUpdatedElement: "file content",
	RoleMessage:        "communication",
}

// processFanOut is the code-generation turn: one structured call plans the
// file list, then a bounded worker pool generates each file's content against
// the frozen document snapshot. All results are collected before the element
// is assembled; any per-file failure fails the turn as an aggregate error.
func (a *Agent) processFanOut(ctx context.Context, turns []Turn) (Result, error) {
	messages, err := a.assembleHistory(turns)
	if err != nil {
		return Result{}, err
	}
	out, err := a.completer.Respond(ctx, messages, a.desc.Fields)
	if err != nil {
		return Result{}, fmt.Errorf("plan files: %w", err)
	}

	paths, err := filePlan(out[RoleUpdatedElement])
	if err != nil {
		return Result{}, err
	}
	raw, _ := out[llm.RawTextKey].(string)
	res := Result{
		Raw:     raw,
		Message: fmt.Sprint(out[RoleMessage]),
	}

	files, err := a.generateFiles(ctx, latestSnapshot(turns), paths)
	if err != nil {
		return Result{}, err
	}
	res.Element, err = json.Marshal(files)
	if err != nil {
		return Result{}, fmt.Errorf("encode generated files: %w", err)
	}
	return res, nil
}

func filePlan(v any) ([]string, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("file plan is not a list: %T", v)
	}
	paths := make([]string, 0, len(list))
	for _, item := range list {
		path, ok := item.(string)
		if !ok || strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("file plan entry %v is not a path", item)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (a *Agent) generateFiles(ctx context.Context, elements map[string]json.RawMessage, paths []string) ([]GeneratedFile, error) {
	files := make([]GeneratedFile, len(paths))
	errs := make([]error, len(paths))

	sem := make(chan struct{}, a.workers)
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			content, err := a.generateFile(ctx, elements, path)
			if err != nil {
				errs[i] = fmt.Errorf("generate %s: %w", path, err)
				return
			}
			files[i] = GeneratedFile{Path: path, Content: content}
		}(i, path)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("file generation failed: %w", err)
	}
	log.Debug().Str("agent", string(a.desc.Type)).Int("files", len(files)).Msg("fan-out complete")
	return files, nil
}

func (a *Agent) generateFile(ctx context.Context, elements map[string]json.RawMessage, path string) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"document":  a.scopedDocument(elements),
		"file name": path,
	})
	if err != nil {
		return "", fmt.Errorf("serialize document snapshot: %w", err)
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: a.desc.FileInstruction},
		{Role: llm.RoleUser, Content: string(payload)},
	}
	out, err := a.completer.Respond(ctx, messages, fileFields)
	if err != nil {
		return "", err
	}
	content, ok := out[RoleUpdatedElement].(string)
	if !ok {
		return "", fmt.Errorf("file content is not a string")
	}
	return content, nil
}
