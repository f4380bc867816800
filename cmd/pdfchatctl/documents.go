package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/pdfchat"
)

// listLimit caps the documents printed by list
var listLimit int

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(healthCmd)
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "maximum number of documents (0 = server maximum)")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show <document-id>",
	Short: "Show one document's metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check configured storage and providers",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer closeClient(client)

	docs, err := client.ListDocuments(ctx, listLimit)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	if outputJSON {
		return printJSON(cmd.OutOrStdout(), documentsOutput(docs))
	}
	return printDocuments(cmd.OutOrStdout(), docs)
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer closeClient(client)

	doc, err := client.GetDocument(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}
	if outputJSON {
		return printJSON(cmd.OutOrStdout(), documentsOutput([]pdfchat.Document{doc})[0])
	}
	return printDocuments(cmd.OutOrStdout(), []pdfchat.Document{doc})
}

func runHealth(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer closeClient(client)

	h := client.Health(ctx)
	if outputJSON {
		if err := printJSON(cmd.OutOrStdout(), h); err != nil {
			return err
		}
	} else {
		w := newTable(cmd.OutOrStdout())
		fmt.Fprintf(w, "STATUS\t%s\n", h.Status)
		for _, name := range sortedKeys(h.Checks) {
			fmt.Fprintf(w, "%s\t%s\n", name, h.Checks[name])
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	if h.Status != "ok" {
		return fmt.Errorf("health: %s", h.Status)
	}
	return nil
}

type documentOutput struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	FileSize   int64  `json:"file_size"`
	FileType   string `json:"file_type"`
	UploadedAt string `json:"uploaded_at"`
	Chunks     int    `json:"chunks"`
}

func documentsOutput(docs []pdfchat.Document) []documentOutput {
	out := make([]documentOutput, len(docs))
	for i, d := range docs {
		out[i] = documentOutput{
			ID:         d.ID,
			Filename:   d.Filename,
			FileSize:   d.FileSize,
			FileType:   d.FileType,
			UploadedAt: d.UploadedAt.UTC().Format(time.RFC3339),
			Chunks:     d.Chunks,
		}
	}
	return out
}

func printDocuments(out io.Writer, docs []pdfchat.Document) error {
	if len(docs) == 0 {
		_, err := fmt.Fprintln(out, "No documents.")
		return err
	}
	w := newTable(out)
	fmt.Fprintln(w, "ID\tFILENAME\tTYPE\tSIZE\tCHUNKS\tUPLOADED")
	for _, d := range docs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			d.ID, d.Filename, d.FileType, humanSize(d.FileSize), d.Chunks,
			d.UploadedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}
