package tink

import "net/url"

// CallbackSuccess is the query payload of a successful Tink Link redirect.
type CallbackSuccess struct {
	Code          string
	CredentialsID string
	State         string
}

// CallbackError is the query payload of a failed Tink Link redirect.
type CallbackError struct {
	Status           string // error category, e.g. AUTHENTICATION_ERROR, USER_CANCELLED
	Reason           string
	Message          string
	TrackingID       string
	Credentials      string
	ErrorType        string
	ProviderName     string
	PaymentRequestID string
	State            string
}

// CallbackResult is the parsed outcome of a Tink Link redirect. Exactly one
// of Success and Failure is set.
type CallbackResult struct {
	Success *CallbackSuccess
	Failure *CallbackError
}

// OK reports whether the callback carried an authorization code.
func (r CallbackResult) OK() bool {
	return r.Success != nil
}

// UserCancelled reports whether the user aborted the Tink Link flow.
func (r CallbackResult) UserCancelled() bool {
	return r.Failure != nil && r.Failure.Status == "USER_CANCELLED"
}

// ParseCallback parses the query parameters of a Tink Link redirect into a
// tagged success or error result. A callback without an error parameter is a
// success when it carries a code.
func ParseCallback(query url.Values) CallbackResult {
	if e := query.Get("error"); e != "" {
		return CallbackResult{Failure: &CallbackError{
			Status:           e,
			Reason:           query.Get("error_reason"),
			Message:          query.Get("message"),
			TrackingID:       query.Get("tracking_id"),
			Credentials:      query.Get("credentials"),
			ErrorType:        query.Get("error_type"),
			ProviderName:     query.Get("provider_name"),
			PaymentRequestID: query.Get("payment_request_id"),
			State:            query.Get("state"),
		}}
	}

	return CallbackResult{Success: &CallbackSuccess{
		Code:          query.Get("code"),
		CredentialsID: query.Get("credentials_id"),
		State:         query.Get("state"),
	}}
}
