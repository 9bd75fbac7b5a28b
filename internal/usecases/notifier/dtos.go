package notifier

// DispatchRequestDTO is the JSON body of a dispatch submission.
type DispatchRequestDTO struct {
	RecipientID   int64   `json:"recipient_id" binding:"required,gt=0"`
	RecipientType string  `json:"recipient_type" binding:"required"`
	Type          string  `json:"type" binding:"required"`
	Message       string  `json:"message"`
	ReferenceID   *int64  `json:"reference_id"`
	ReferenceType *string `json:"reference_type"`
	Metadata      *string `json:"metadata"`
}

// DispatchResponseDTO acknowledges an accepted dispatch event.
type DispatchResponseDTO struct {
	EventID string `json:"event_id"`
	Status  string `json:"status"`
}
