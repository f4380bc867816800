// Package pdfchat embeds the document chat engine in a Go program: ingest
// documents, then ask questions that an agent answers from their content.
//
// Backends default to in-process memory. Redis, SQLite, chromem and Qdrant
// are selected with options, the same way the HTTP server selects them from
// its config file.
//
//	client, _ := pdfchat.New(ctx,
//	    pdfchat.WithOpenAIEmbeddings(os.Getenv("MISTRAL_API_KEY"), "https://api.mistral.ai/v1", "mistral-embed", 1024),
//	    pdfchat.WithGeminiChat(os.Getenv("GOOGLE_API_KEY"), "gemini-1.5-flash"),
//	    pdfchat.WithSQLite("data/pdfchat.db"),
//	)
//	defer client.Close()
//
//	res, _ := client.IngestFile(ctx, "invoice.pdf", "application/pdf", data)
//	answer, _ := client.Ask(ctx, "thread-1", res.DocumentID, "What is the total?")
//	fmt.Println(answer.Text)
package pdfchat
