// Package prompts maps each generation tool to its fixed instruction
// template. Templates live in the embedded instructions/ directory so the
// wording can be adjusted without touching Go code.
package prompts

import (
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/cgirard/profeval/internal/model"
)

//go:embed instructions/*.txt
var instructionFS embed.FS

var instructionFiles = map[model.ToolKind]string{
	model.ToolCodeEvaluation:      "instructions/code_evaluation.txt",
	model.ToolCodeEvaluationGrade: "instructions/code_evaluation_grade.txt",
	model.ToolCodeAnalysis:        "instructions/code_analysis.txt",
	model.ToolQCMGenerator:        "instructions/qcm_generator.txt",
}

var (
	loadOnce     sync.Once
	loadErr      error
	instructions map[model.ToolKind]string
)

func load() error {
	loadOnce.Do(func() {
		instructions = make(map[model.ToolKind]string, len(instructionFiles))
		for tool, file := range instructionFiles {
			data, err := instructionFS.ReadFile(file)
			if err != nil {
				loadErr = fmt.Errorf("read instruction file %s: %w", file, err)
				return
			}
			instructions[tool] = strings.TrimSpace(string(data))
		}
	})
	return loadErr
}

// InstructionFor returns the system instruction for a tool. The second return
// is false for any unrecognized tool: the composer treats that as "no system
// instruction", not as an error, so an unknown tool degrades to an
// unconstrained chat request.
func InstructionFor(tool model.ToolKind) (string, bool) {
	if err := load(); err != nil {
		slog.Error("failed to load instruction templates", "error", err)
		return "", false
	}
	text, ok := instructions[tool]
	return text, ok
}

// Tools lists the known tool kinds.
func Tools() []model.ToolKind {
	return []model.ToolKind{
		model.ToolCodeEvaluation,
		model.ToolCodeEvaluationGrade,
		model.ToolCodeAnalysis,
		model.ToolQCMGenerator,
	}
}

// IsValidTool checks whether a tool name is one of the known kinds.
func IsValidTool(tool string) bool {
	_, ok := instructionFiles[model.ToolKind(tool)]
	return ok
}
