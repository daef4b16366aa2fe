package slide

import "time"

// OutputKind is the file type a renderer will produce from the document
type OutputKind string

const (
	OutputPPTX OutputKind = "pptx"
	OutputDOCX OutputKind = "docx"
	OutputPDF  OutputKind = "pdf"
)

// ParseOutputKind maps user input to an OutputKind, defaulting to pptx
func ParseOutputKind(s string) (OutputKind, bool) {
	switch OutputKind(s) {
	case OutputPPTX, "":
		return OutputPPTX, true
	case OutputDOCX:
		return OutputDOCX, true
	case OutputPDF:
		return OutputPDF, true
	default:
		return OutputPPTX, false
	}
}

// Page is one page of the assembled document. Width and Height are the
// pixel dimensions of the raster the elements were extracted from.
type Page struct {
	Index  int `json:"index"`
	Width  int `json:"width"`
	Height int `json:"height"`
	PageResult
}

// Warning codes recorded during extraction
const (
	WarningFirstPageEmpty     = "FIRST_PAGE_EMPTY"
	WarningOCRNoTextLayer     = "OCR_FAILED_NO_TEXT_LAYER"
	WarningOCRRateLimited     = "OCR_RATE_LIMITED"
	WarningPageFailed         = "PAGE_FAILED"
	WarningPageLimitTruncated = "PAGE_LIMIT_TRUNCATED"
)

// Warning is a user-visible note. Page is -1 for document-level warnings.
type Warning struct {
	Page    int    `json:"page"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Document is the structured output handed to renderers.
type Document struct {
	ID         string     `json:"id"`
	Filename   string     `json:"filename"`
	Language   string     `json:"language"`
	OutputKind OutputKind `json:"outputKind"`
	Pages      []Page     `json:"pages"`
	Warnings   []Warning  `json:"warnings"`
	CreatedAt  time.Time  `json:"createdAt"`
}
