package models

// Phase is the recognition lifecycle of the current image.
type Phase int

const (
	Idle Phase = iota
	Requesting
	ResultReady
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Requesting:
		return "requesting"
	case ResultReady:
		return "result-ready"
	case Failed:
		return "failed"
	}
	return "unknown"
}

type ResultKind int

const (
	ResultFound ResultKind = iota + 1
	ResultNotFound
)

func (k ResultKind) MarshalText() ([]byte, error) {
	switch k {
	case ResultFound:
		return []byte("found"), nil
	case ResultNotFound:
		return []byte("not_found"), nil
	}
	return []byte("unknown"), nil
}

// RecognitionResult is the outcome of one completed recognition request.
// A nil *RecognitionResult means no result yet.
type RecognitionResult struct {
	Kind ResultKind `json:"kind"`

	// Found fields
	Name        string  `json:"name,omitempty"`         // label as reported by the service
	DisplayName string  `json:"display_name,omitempty"` // curated name from the directory, or Name
	Confidence  float64 `json:"confidence,omitempty"`   // service-defined range, not validated locally
	Description string  `json:"description,omitempty"`
	Location    string  `json:"location,omitempty"`
	MapLink     string  `json:"map_link,omitempty"`

	// NotFound may carry a service note such as "image too large".
	Message string `json:"message,omitempty"`
}

func (r *RecognitionResult) Found() bool {
	return r != nil && r.Kind == ResultFound
}

func (r *RecognitionResult) NotFound() bool {
	return r != nil && r.Kind == ResultNotFound
}

// ImageSummary describes the active uploaded image without exposing its bytes.
type ImageSummary struct {
	Name      string
	MediaType string
	Size      int
	Width     int
	Height    int
	Preview   string // preview handle, resolved through the intake preview table
}

// Snapshot is an immutable copy of core state pushed to the UI.
type Snapshot struct {
	Phase         Phase
	Image         *ImageSummary
	Result        *RecognitionResult
	Error         string
	Progress      any
	Transcript    []Message
	AwaitingReply bool
	Generation    uint64
}
