// Package interpret turns raw model output into typed artifacts. The
// upstream model is asked for JSON but nothing guarantees it complies, so
// every entry point degrades to a raw-text artifact instead of failing.
package interpret

import (
	"encoding/json"
	"strings"

	"github.com/cgirard/profeval/internal/model"
)

// Kind tags the variant carried by an Artifact.
type Kind string

const (
	KindQuestionSet Kind = "question_set"
	KindGrading     Kind = "grading"
	KindAnalysis    Kind = "analysis"
	KindQCMBank     Kind = "qcm_bank"
	KindRaw         Kind = "raw"
)

// Artifact is a tagged union over the possible generation outputs. Exactly
// one payload field matching Kind is set; KindRaw means the response did not
// match the expected shape and Raw holds the model text untouched.
type Artifact struct {
	Kind        Kind
	QuestionSet *model.QuestionSet
	Grading     *model.Grading
	Analysis    *model.AnalysisReport
	QCMBank     *model.QCMBank
	Raw         string
}

// MarshalJSON renders the artifact as the bare payload, matching the wire
// shape the front-end consumes: a raw artifact becomes {"content": text}.
func (a Artifact) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case KindQuestionSet:
		return json.Marshal(a.QuestionSet)
	case KindGrading:
		return json.Marshal(a.Grading)
	case KindAnalysis:
		return json.Marshal(a.Analysis)
	case KindQCMBank:
		return json.Marshal(a.QCMBank)
	default:
		return json.Marshal(map[string]string{"content": a.Raw})
	}
}

// Interpret parses raw model text into the artifact shape expected for the
// tool. It never fails: malformed JSON, or well-formed JSON missing the
// tool's structural markers, yields a KindRaw artifact wrapping the text.
// An empty or unknown tool always yields KindRaw.
func Interpret(tool model.ToolKind, rawText string) Artifact {
	raw := Artifact{Kind: KindRaw, Raw: rawText}
	payload := []byte(stripFences(rawText))

	switch tool {
	case model.ToolCodeEvaluation:
		var qs model.QuestionSet
		if err := json.Unmarshal(payload, &qs); err != nil || qs.Questions == nil {
			return raw
		}
		return Artifact{Kind: KindQuestionSet, QuestionSet: &qs}
	case model.ToolCodeEvaluationGrade:
		var g model.Grading
		if err := json.Unmarshal(payload, &g); err != nil || g.Evaluations == nil {
			return raw
		}
		return Artifact{Kind: KindGrading, Grading: &g}
	case model.ToolCodeAnalysis:
		var ar model.AnalysisReport
		if err := json.Unmarshal(payload, &ar); err != nil || !hasAnalysisMarkers(ar) {
			return raw
		}
		return Artifact{Kind: KindAnalysis, Analysis: &ar}
	case model.ToolQCMGenerator:
		var bank model.QCMBank
		if err := json.Unmarshal(payload, &bank); err != nil || bank.Questions == nil {
			return raw
		}
		return Artifact{Kind: KindQCMBank, QCMBank: &bank}
	default:
		return raw
	}
}

// hasAnalysisMarkers checks that at least one structural section of an
// analysis report is present; an empty object is not a usable report.
func hasAnalysisMarkers(ar model.AnalysisReport) bool {
	return ar.Analysis.Strengths != nil ||
		ar.Analysis.Weaknesses != nil ||
		ar.Analysis.Suggestions != nil ||
		ar.Compliance.Details != "" ||
		ar.HelpQuestions != nil
}

// stripFences removes a surrounding markdown code fence if present. Models
// often wrap JSON in ```json blocks even when told not to.
func stripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
