package models

const (
	// PreviewBytes is how much of each chunk is stored as retrievable
	// metadata alongside the vector.
	PreviewBytes = 200

	// DefaultTopK is the number of nearest chunks pulled at query time.
	DefaultTopK = 3

	// DefaultNamespace scopes every vector written by one deployment.
	DefaultNamespace = "default"
)

const (
	// SystemPrompt constrains answers to the retrieved context.
	SystemPrompt = "You are a helpful assistant designed to answer questions based on the indexed documents. " +
		"Retrieve relevant information from the provided context and give a concise, accurate answer. " +
		"If the answer cannot be found in the provided context, say 'I cannot find the answer in the available resources.'"

	// NotFoundAnswer is returned without calling the LLM when retrieval
	// produces no usable context.
	NotFoundAnswer = "I cannot find the answer in the available resources."
)

// Vector metadata field names, shared by every store backend.
const (
	MetaDocumentID = "document_id"
	MetaFileName   = "file_name"
	MetaChunkIndex = "chunk_index"
	MetaText       = "text"
)
