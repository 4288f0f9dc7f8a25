package models

// FeedbackDocument is a prompt/SQL pair collected from assistant feedback.
// Documents live in exactly one container at a time; the container is the
// partition the document is stored in, not a field of the document.
//
// Field names match the document store schema (and the console front-end),
// which capitalizes the text fields.
type FeedbackDocument struct {
	ID         string `json:"id"`
	UserPrompt string `json:"UserPrompt"`
	Query      string `json:"Query"`
	// AssistantPrompt is present in some container schemas and absent in
	// others; empty means absent.
	AssistantPrompt string `json:"AssistantPrompt,omitempty"`

	// Embedding vectors are computed by an external service from the
	// corresponding text field. An empty vector means the embedding has not
	// been computed yet (or was cleared because the text changed).
	UserPromptVector      []float32 `json:"UserPromptVector,omitempty"`
	QueryVector           []float32 `json:"QueryVector,omitempty"`
	AssistantPromptVector []float32 `json:"AssistantPromptVector,omitempty"`

	// TS is the store-assigned last-modified time (unix seconds). Refreshed
	// on every write; listing orders newest first by this value.
	TS int64 `json:"_ts"`
}

// TextFields returns the tracked text fields and their current values.
// Tracked fields are the ones with a paired embedding vector.
func (d *FeedbackDocument) TextFields() map[string]string {
	return map[string]string{
		FieldUserPrompt:      d.UserPrompt,
		FieldQuery:           d.Query,
		FieldAssistantPrompt: d.AssistantPrompt,
	}
}

// Field returns the value of the named tracked text field.
func (d *FeedbackDocument) Field(name string) (string, bool) {
	switch name {
	case FieldUserPrompt:
		return d.UserPrompt, true
	case FieldQuery:
		return d.Query, true
	case FieldAssistantPrompt:
		return d.AssistantPrompt, true
	default:
		return "", false
	}
}

// SetField sets the value of the named tracked text field.
func (d *FeedbackDocument) SetField(name, value string) bool {
	switch name {
	case FieldUserPrompt:
		d.UserPrompt = value
	case FieldQuery:
		d.Query = value
	case FieldAssistantPrompt:
		d.AssistantPrompt = value
	default:
		return false
	}
	return true
}

// Vector returns the embedding vector paired with the named text field.
func (d *FeedbackDocument) Vector(field string) ([]float32, bool) {
	switch field {
	case FieldUserPrompt:
		return d.UserPromptVector, true
	case FieldQuery:
		return d.QueryVector, true
	case FieldAssistantPrompt:
		return d.AssistantPromptVector, true
	default:
		return nil, false
	}
}

// SetVector sets the embedding vector paired with the named text field.
func (d *FeedbackDocument) SetVector(field string, vec []float32) bool {
	switch field {
	case FieldUserPrompt:
		d.UserPromptVector = vec
	case FieldQuery:
		d.QueryVector = vec
	case FieldAssistantPrompt:
		d.AssistantPromptVector = vec
	default:
		return false
	}
	return true
}

// Tracked text field names. These are the only fields searchable and
// bulk-editable through the API.
const (
	FieldUserPrompt      = "UserPrompt"
	FieldQuery           = "Query"
	FieldAssistantPrompt = "AssistantPrompt"
)

// TrackedFields lists the tracked text field names in display order.
var TrackedFields = []string{FieldUserPrompt, FieldQuery, FieldAssistantPrompt}

// IsTrackedField reports whether name is a tracked text field.
func IsTrackedField(name string) bool {
	switch name {
	case FieldUserPrompt, FieldQuery, FieldAssistantPrompt:
		return true
	default:
		return false
	}
}
