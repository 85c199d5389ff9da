package editor

import "github.com/dacweb/dac/pkg/models"

type ListRecordsQuery struct {
	Limit  int     `query:"limit" json:"limit,omitempty" default:"100" validate:"min=1,max=500"`
	Offset int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Search *string `query:"search" json:"search,omitempty" validate:"omitempty,max=100"`
}

type RecordPayload struct {
	Values map[string]interface{} `json:"values" validate:"required"`
}

type ListTablesResponse struct {
	Tables []*models.ContentTable `json:"tables"`
}

type ListRecordsResponse struct {
	Records []*Record `json:"records"`
	Total   int       `json:"total"`
}

type RecordResponse struct {
	Record *Record `json:"record"`
	Form   Form    `json:"form"`
}
