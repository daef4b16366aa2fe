package docjob

import "github.com/Abraxas-365/pagelift/pkg/errx"

var docjobErrors = errx.NewRegistry("DOCJOB")

var (
	ErrMissingFile    = docjobErrors.Register("MISSING_FILE", errx.TypeValidation, 400, "A non-empty file is required")
	ErrInvalidRequest = docjobErrors.Register("INVALID_REQUEST", errx.TypeValidation, 400, "Invalid extraction request")
	ErrResultNotReady = docjobErrors.Register("RESULT_NOT_READY", errx.TypeConflict, 409, "Document has not finished processing")
	ErrEnqueue        = docjobErrors.Register("ENQUEUE", errx.TypeExternal, 503, "Could not schedule the extraction")
	ErrInvalidPayload = docjobErrors.Register("INVALID_PAYLOAD", errx.TypeValidation, 400, "Invalid extraction job payload")
)
