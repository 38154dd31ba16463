package domain

// DefaultKeyPrefix namespaces every key the service writes.
const DefaultKeyPrefix = "ckh:"

// DefaultDocumentInstruction is prepended to resource text before embedding.
const DefaultDocumentInstruction = "Represent this infrastructure transparency resource for retrieval: "
