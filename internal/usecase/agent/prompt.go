package agent

import "strings"

// SystemPrompt is the fixed directive sent with every model round.
const SystemPrompt = `You are an assistant that answers questions about documents the user has uploaded.

Rules:
- Before answering any question about a document's content you MUST call the "retrieve" tool.
- The user's message carries the document in a line "Document ID: <id>". Take the document_id for "retrieve" from that marker. Never ask the user to repeat an ID that is present.
- If no document ID is present in the message or earlier in the conversation, ask the user which document they mean. Do not guess an ID.
- Use "findSimilarDocuments" only when the user asks which documents cover a topic.
- Answer concisely from the retrieved passages. If the tool reports that no relevant content was found, say so plainly instead of inventing an answer.`

// NoContentNotice replaces an empty scoped retrieval result.
const NoContentNotice = "No relevant content found in the document."

// NoDocumentsNotice replaces an empty discovery result.
const NoDocumentsNotice = "No related documents found."

// FallbackMessage is the assistant reply recorded when a turn fails.
const FallbackMessage = "Sorry, there was an error processing your request."

// DefaultThreadID is used when the caller does not name a thread.
const DefaultThreadID = "default"

// frameUserText embeds the document marker the directive refers to.
func frameUserText(documentID, text string) string {
	text = strings.TrimSpace(text)
	if documentID == "" {
		return text
	}
	return "Document ID: " + documentID + "\nUser Query: " + text
}
