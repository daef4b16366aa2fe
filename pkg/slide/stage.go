package slide

// Stage is a progress marker of document processing
type Stage string

const (
	StageIdle             Stage = "idle"
	StageLoading          Stage = "loading"
	StageRenderingPages   Stage = "rendering-pages"
	StageExtractingImages Stage = "extracting-images"
	StageOCRProcessing    Stage = "ocr-processing"
	StageComplete         Stage = "complete"
)

var stageOrder = map[Stage]int{
	StageIdle:             0,
	StageLoading:          1,
	StageRenderingPages:   2,
	StageExtractingImages: 3,
	StageOCRProcessing:    4,
	StageComplete:         5,
}

// Ordinal returns the position of the stage in the processing sequence,
// -1 for unknown stages
func (s Stage) Ordinal() int {
	if n, ok := stageOrder[s]; ok {
		return n
	}
	return -1
}

// Progress is a snapshot of the processing stage and page counters.
// Current is 1-based; it is 0 before the first page starts.
type Progress struct {
	Stage   Stage `json:"stage"`
	Current int   `json:"current"`
	Total   int   `json:"total"`
}

// Percent returns the share of pages reached, 100 once complete
func (p Progress) Percent() float64 {
	if p.Stage == StageComplete {
		return 100
	}
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Current) / float64(p.Total) * 100
}
