package kernel

import "context"

type ctxKey int

const (
	documentIDKey ctxKey = iota
	jobIDKey
)

// WithDocumentID stores the document being processed in ctx
func WithDocumentID(ctx context.Context, id DocumentID) context.Context {
	return context.WithValue(ctx, documentIDKey, id)
}

// DocumentIDFrom returns the document stored by WithDocumentID
func DocumentIDFrom(ctx context.Context) (DocumentID, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(documentIDKey).(DocumentID)
	return id, ok && !id.IsEmpty()
}

// WithJobID stores the job being executed in ctx
func WithJobID(ctx context.Context, id JobID) context.Context {
	return context.WithValue(ctx, jobIDKey, id)
}

// JobIDFrom returns the job stored by WithJobID
func JobIDFrom(ctx context.Context) (JobID, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(jobIDKey).(JobID)
	return id, ok && !id.IsEmpty()
}
