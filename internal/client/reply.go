package client

import (
	"encoding/json"
	"fmt"
)

type ReplyKind int

const (
	// ReplyOther covers every status without a dedicated branch, including
	// "ready" without a download URL.
	ReplyOther ReplyKind = iota
	ReplyReady
	ReplyQueued
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyReady:
		return "ready"
	case ReplyQueued:
		return "queued"
	default:
		return "other"
	}
}

const (
	StatusReady  = "ready"
	StatusQueued = "queued"
)

// Reply is a decoded backend response, discriminated by Kind.
type Reply struct {
	Kind        ReplyKind
	Status      string
	DownloadURL string
	Message     string
	JobID       string
}

// DecodeResult is the outcome of decoding a raw body. Exactly one of Reply
// or Err is meaningful.
type DecodeResult struct {
	Reply Reply
	Err   error
	Raw   string
}

func (d DecodeResult) OK() bool {
	return d.Err == nil
}

// Decode parses a raw response body. An empty body decodes as an empty
// object. Any well-formed JSON is accepted; fields that are missing or not
// strings read as empty.
func Decode(body []byte) DecodeResult {
	result := DecodeResult{Raw: string(body)}
	if len(body) == 0 {
		result.Reply = classify(nil)
		return result
	}

	var value interface{}
	if err := json.Unmarshal(body, &value); err != nil {
		result.Err = fmt.Errorf("invalid JSON: %w", err)
		return result
	}

	fields, _ := value.(map[string]interface{})
	result.Reply = classify(fields)
	return result
}

func classify(fields map[string]interface{}) Reply {
	reply := Reply{
		Status:      stringField(fields, "status"),
		DownloadURL: stringField(fields, "downloadUrl"),
		Message:     stringField(fields, "message"),
		JobID:       stringField(fields, "jobId"),
	}

	switch {
	case reply.Status == StatusReady && reply.DownloadURL != "":
		reply.Kind = ReplyReady
	case reply.Status == StatusQueued:
		reply.Kind = ReplyQueued
	default:
		reply.Kind = ReplyOther
	}
	return reply
}

func stringField(fields map[string]interface{}, key string) string {
	if fields == nil {
		return ""
	}
	s, _ := fields[key].(string)
	return s
}
