package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// contentType overrides sniffing for ingest
var contentType string

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVar(&contentType, "content-type", "", "content type (sniffed when empty)")
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Extract, chunk and index documents",
	Long: `Extract the text of each file, split it into chunks and index them.

Examples:
  # Ingest a PDF
  pdfchatctl ingest invoice.pdf

  # Ingest several files with the docker config
  pdfchatctl --env docker ingest a.pdf b.html notes.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

type ingestOutput struct {
	DocumentID    string `json:"document_id"`
	Filename      string `json:"filename"`
	ChunksCreated int    `json:"chunks_created"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer closeClient(client)

	results := make([]ingestOutput, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", path, err)
		}

		res, err := client.IngestFile(ctx, filepath.Base(path), contentType, data)
		if err != nil {
			log.Error("ingest failed", zap.String("file", path), zap.Error(err))
			return fmt.Errorf("ingest %s: %w", path, err)
		}
		log.Info("ingested", zap.String("file", path), zap.String("document_id", res.DocumentID))
		results = append(results, ingestOutput{
			DocumentID:    res.DocumentID,
			Filename:      res.Filename,
			ChunksCreated: res.ChunksCreated,
		})
	}

	if outputJSON {
		return printJSON(cmd.OutOrStdout(), results)
	}
	w := newTable(cmd.OutOrStdout())
	fmt.Fprintln(w, "DOCUMENT ID\tFILENAME\tCHUNKS")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%d\n", r.DocumentID, r.Filename, r.ChunksCreated)
	}
	return w.Flush()
}
