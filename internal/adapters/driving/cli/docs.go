package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage ingested documents",
	Long:  `List, inspect, re-ingest or delete ingested documents.`,
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	Args:  cobra.NoArgs,
	RunE:  runDocsList,
}

var docsShowCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Show document details",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsShow,
}

var docsReingestCmd = &cobra.Command{
	Use:   "reingest [doc-id]",
	Short: "Re-run the pipeline for a document",
	Long: `Deletes the document's chunks and index entries and re-runs
conversion, chunking and embedding from the stored raw bytes. Use this
after a failed ingestion or after changing the embedding model.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocsReingest,
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its index entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsDelete,
}

func init() {
	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsShowCmd)
	docsCmd.AddCommand(docsReingestCmd)
	docsCmd.AddCommand(docsDeleteCmd)
	rootCmd.AddCommand(docsCmd)
}

func runDocsList(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	docs, err := ingestService.ListDocuments(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents ingested yet.")
		return nil
	}

	for i := range docs {
		doc := &docs[i]
		cmd.Printf("  %s\n", doc.ID)
		cmd.Printf("    File:    %s\n", doc.Filename)
		if doc.Title != "" {
			cmd.Printf("    Title:   %s\n", doc.Title)
		}
		cmd.Printf("    Status:  %s", doc.Status)
		if doc.FailedStage != "" {
			cmd.Printf(" (stage: %s)", doc.FailedStage)
		}
		cmd.Println()
		cmd.Printf("    Updated: %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocsShow(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	doc, err := ingestService.GetDocument(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  File:     %s\n", doc.Filename)
	cmd.Printf("  Type:     %s\n", doc.MIMEType)
	cmd.Printf("  Title:    %s\n", doc.Title)
	cmd.Printf("  Status:   %s\n", doc.Status)
	if doc.FailedStage != "" {
		cmd.Printf("  Failed:   %s stage: %s\n", doc.FailedStage, doc.FailureReason)
	}
	cmd.Printf("  Created:  %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:  %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runDocsReingest(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	doc, err := ingestService.Reingest(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to re-ingest document: %w", err)
	}

	cmd.Printf("Document %s re-ingested (%s).\n", doc.ID, doc.Status)
	return nil
}

func runDocsDelete(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	if err := ingestService.DeleteDocument(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Document %s deleted.\n", args[0])
	return nil
}
