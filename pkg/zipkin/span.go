package zipkin

import "strconv"

// Core annotation values.
const (
	ClientSend    = "cs"
	ClientReceive = "cr"
	ServerSend    = "ss"
	ServerReceive = "sr"
)

// Endpoint is the service instance that recorded an annotation.
type Endpoint struct {
	ServiceName string `json:"serviceName"`
	IPv4        string `json:"ipv4,omitempty"`
	Port        int    `json:"port,omitempty"` // 0 when unknown
}

// Address returns "ipv4:port", or just the IPv4 when the port is unknown.
func (e *Endpoint) Address() string {
	if e == nil || e.IPv4 == "" {
		return ""
	}
	if e.Port == 0 {
		return e.IPv4
	}
	return e.IPv4 + ":" + strconv.Itoa(e.Port)
}

// Service returns the endpoint service name, tolerating a nil endpoint.
func (e *Endpoint) Service() string {
	if e == nil {
		return ""
	}
	return e.ServiceName
}

// Annotation is a timestamped event on a span.
type Annotation struct {
	Timestamp int64     `json:"timestamp"`
	Value     string    `json:"value"`
	Endpoint  *Endpoint `json:"endpoint,omitempty"`
}

// BinaryAnnotation is a key/value tag recorded by a service.
type BinaryAnnotation struct {
	Key      string    `json:"key"`
	Value    string    `json:"value"`
	Endpoint *Endpoint `json:"endpoint,omitempty"`
}

// Span is a single timed operation within a trace.
type Span struct {
	TraceID           string             `json:"traceId"`
	ID                string             `json:"id"`
	ParentID          string             `json:"parentId,omitempty"`
	Name              string             `json:"name"`
	Timestamp         int64              `json:"timestamp,omitempty"`
	Duration          int64              `json:"duration,omitempty"`
	Annotations       []Annotation       `json:"annotations,omitempty"`
	BinaryAnnotations []BinaryAnnotation `json:"binaryAnnotations,omitempty"`
}

// Instant is an optional timestamp in microseconds.
type Instant struct {
	Micros int64
	Valid  bool
}

// At returns a valid Instant.
func At(us int64) Instant { return Instant{Micros: us, Valid: true} }

// Or returns the instant when it is set, otherwise fallback.
func (i Instant) Or(fallback int64) int64 {
	if i.Valid {
		return i.Micros
	}
	return fallback
}

// Resolve returns the first valid instant in sources, in order of precedence.
// It returns an invalid Instant when none is set.
func Resolve(sources ...Instant) Instant {
	for _, s := range sources {
		if s.Valid {
			return s
		}
	}
	return Instant{}
}
