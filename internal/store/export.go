package store

import (
	"fmt"

	"github.com/cgirard/profeval/internal/model"
	"github.com/cgirard/profeval/internal/report"
)

// ExportAllBanks builds export-ready documents for every stored QCM bank.
func (s *Store) ExportAllBanks() ([]model.ExportDocument, error) {
	banks, err := s.ListBanks()
	if err != nil {
		return nil, fmt.Errorf("list banks: %w", err)
	}

	var docs []model.ExportDocument
	for _, sb := range banks {
		doc := report.Assemble(model.ExportQCMBank,
			map[string]any{"subject": sb.Subject, "bank_id": sb.ID},
			report.AssembleBank(sb.Bank),
		)
		docs = append(docs, doc)
	}
	return docs, nil
}
