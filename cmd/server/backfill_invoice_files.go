package main

// Helper: go run ./cmd/server -backfill-invoice-files
// Re-renders invoices whose PDF is missing from the files folder.

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/vidanatural/farmacia-web/internal/models"
	"github.com/vidanatural/farmacia-web/internal/pdf"
	"github.com/vidanatural/farmacia-web/internal/services"
)

var backfillFlag = flag.Bool("backfill-invoice-files", false, "Re-render missing invoice files and exit")

func backfillInvoiceFiles(ctx context.Context, txns *services.TransactionService, files *pdf.Renderer) (int, error) {
	all, err := txns.List(ctx, "")
	if err != nil {
		return 0, err
	}
	restored := 0
	for _, t := range all {
		if !missingFile(t.Invoice, files) {
			continue
		}
		path, err := txns.Regenerate(ctx, t.ID)
		if err != nil {
			log.Printf("backfill: transaction %d: %v", t.ID, err)
			continue
		}
		log.Printf("backfill: transaction %d -> %s", t.ID, path)
		restored++
	}
	return restored, nil
}

func missingFile(inv *models.Invoice, files *pdf.Renderer) bool {
	if inv == nil {
		return false
	}
	local, ok := files.Resolve(inv.FilePath)
	if !ok {
		return true
	}
	_, err := os.Stat(local)
	return err != nil
}
