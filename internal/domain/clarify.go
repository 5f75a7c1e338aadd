package domain

import "github.com/mrz1836/structure/internal/constants"

// ClarifyOption is one enumerated answer to a clarification question.
type ClarifyOption struct {
	OptionID       string `json:"option_id"       yaml:"option_id"`
	Label          string `json:"label"           yaml:"label"`
	Description    string `json:"description,omitempty" yaml:"description,omitempty"`
	CanonicalValue string `json:"canonical_value" yaml:"canonical_value"`
	UnitUCUM       string `json:"unit_ucum,omitempty" yaml:"unit_ucum,omitempty"`
}

// ClarifyRequest asks the user to disambiguate one term.
// QuestionID is the required field the answer resolves; answers submitted
// under that id land in context as answer_<question_id>.
type ClarifyRequest struct {
	RequestID      string                `json:"request_id"`
	QuestionID     string                `json:"question_id"`
	ClarifyType    constants.ClarifyType `json:"clarify_type"`
	AmbiguousTerm  string                `json:"ambiguous_term,omitempty"`
	Question       string                `json:"question"`
	Options        []ClarifyOption       `json:"options,omitempty"`
	RequiredFields []string              `json:"required_fields"`
	ReasonCode     string                `json:"reason_code"`
	GateID         string                `json:"gate_id"`
}

// HasOptions reports whether the request is multiple choice.
func (r ClarifyRequest) HasOptions() bool {
	return len(r.Options) > 0
}

// Option returns the option with the given id or canonical value.
func (r ClarifyRequest) Option(idOrValue string) (ClarifyOption, bool) {
	for _, o := range r.Options {
		if o.OptionID == idOrValue || o.CanonicalValue == idOrValue {
			return o, true
		}
	}
	return ClarifyOption{}, false
}

// ClarifyAnswer is the user's response to a ClarifyRequest.
type ClarifyAnswer struct {
	RequestID        string            `json:"request_id"`
	ClarifyRequestID string            `json:"clarify_request_id,omitempty"`
	SelectedOptionID string            `json:"selected_option_id,omitempty"`
	ProvidedValues   map[string]string `json:"provided_values,omitempty"`
	FreeformResponse string            `json:"freeform_response,omitempty"`
}

// ClarifyExchange pairs a request with its answer.
type ClarifyExchange struct {
	Request ClarifyRequest `json:"request"`
	Answer  ClarifyAnswer  `json:"answer"`
}

// ClarifyChain records every clarification exchanged for a request.
type ClarifyChain struct {
	RequestID string            `json:"request_id"`
	Exchanges []ClarifyExchange `json:"exchanges"`
	Resolved  bool              `json:"resolved"`
}

// AddExchange appends an exchange to the chain.
func (c *ClarifyChain) AddExchange(req ClarifyRequest, ans ClarifyAnswer) {
	c.Exchanges = append(c.Exchanges, ClarifyExchange{Request: req, Answer: ans})
}

// ClarifyPayload is the aggregate returned to a caller when gates block.
// GateID and Message come from the first blocking decision; the lists are
// the deduplicated union across all blocking decisions.
type ClarifyPayload struct {
	GateID         string             `json:"gate_id"`
	Decision       constants.Decision `json:"decision"`
	Message        string             `json:"message"`
	Reasons        []string           `json:"reasons"`
	RequiredFields []string           `json:"required_fields"`
	Questions      []string           `json:"clarifying_questions"`
	Requests       []ClarifyRequest   `json:"requests,omitempty"`
}
