package types

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

type Validater interface {
	Validate() map[string]string
}

type QueryParams struct {
	Query string `json:"query" validate:"required"`
	TopK  int    `json:"top_k" validate:"omitempty,min=1,max=20"`
}

type SummarizeTextParams struct {
	Text string `json:"text" validate:"required"`
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

func (params *QueryParams) Validate() map[string]string {
	return validateStruct(params)
}

func (params *SummarizeTextParams) Validate() map[string]string {
	return validateStruct(params)
}

func validateStruct(s any) map[string]string {
	validate := validator.New()
	if err := validate.Struct(s); err != nil {
		errs := err.(validator.ValidationErrors)
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}

type UploadResponse struct {
	DocID   string `json:"doc_id"`
	Message string `json:"message"`
	Status  Status `json:"status"`
}

type StatusResponse struct {
	DocID     string    `json:"doc_id"`
	Status    Status    `json:"status"`
	Filename  string    `json:"filename,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	Message   string    `json:"message,omitempty"`
}

type DocumentListResponse struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
}

type QueryResponse struct {
	Answer      string `json:"answer"`
	Query       string `json:"query"`
	ContextUsed bool   `json:"context_used"`
}

type SummarizeResponse struct {
	Summary        string `json:"summary"`
	OriginalLength int    `json:"original_length,omitempty"`
	SummaryLength  int    `json:"summary_length,omitempty"`
}
