package kernel

import "github.com/google/uuid"

type DocumentID string

func NewDocumentID() DocumentID     { return DocumentID(uuid.NewString()) }
func (d DocumentID) String() string { return string(d) }
func (d DocumentID) IsEmpty() bool  { return string(d) == "" }

// ParseDocumentID accepts only uuid-shaped ids
func ParseDocumentID(id string) (DocumentID, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", err
	}
	return DocumentID(id), nil
}

type JobID string

func NewJobID(id string) JobID { return JobID(id) }
func (j JobID) String() string { return string(j) }
func (j JobID) IsEmpty() bool  { return string(j) == "" }
