package service

// DeliveryOutcome is the result of one recipient in a send.
type DeliveryOutcome struct {
	Success   bool   `json:"success"`
	ContactID int    `json:"contactId"`
	Email     string `json:"email"`
	Error     string `json:"error,omitempty"`
}

// SendResult is what a send reports back to the caller.
type SendResult struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// Summarize counts outcomes. Total is always Successful + Failed.
func Summarize(outcomes []DeliveryOutcome) SendResult {
	r := SendResult{Total: len(outcomes)}
	for _, o := range outcomes {
		if o.Success {
			r.Successful++
		}
	}
	r.Failed = r.Total - r.Successful
	return r
}
