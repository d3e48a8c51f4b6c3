// Package report packages generated artifacts into exportable documents.
// It performs no validation; the export mechanism (file download on the
// front-end, stdout via the CLI) is a collaborator concern.
package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/cgirard/profeval/internal/model"
)

// Assemble wraps an artifact with its inputs and a timestamp for export.
func Assemble(kind model.ExportKind, inputs map[string]any, artifact any) model.ExportDocument {
	return model.ExportDocument{
		ID:        uuid.NewString(),
		Kind:      kind,
		Timestamp: time.Now().UTC(),
		Inputs:    inputs,
		Artifact:  artifact,
	}
}

// AssembleBank builds the QCM database document the front-end downloads.
func AssembleBank(bank model.QCMBank) model.BankExport {
	return model.BankExport{
		Timestamp:      time.Now().UTC(),
		Metadata:       bank.Metadata,
		Questions:      bank.Questions,
		TotalQuestions: len(bank.Questions),
	}
}
