package voice

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// NormalizePayload flattens a telephony webhook body of unknown encoding into
// a string-keyed map. Vendors deliver JSON, form-urlencoded or multipart
// bodies interchangeably, sometimes with a wrong or missing content type.
//
// This function never fails: malformed input degrades to an empty map. A phone
// call in progress must always receive some response, never an error page.
func NormalizePayload(r *http.Request) map[string]string {
	out := map[string]string{}
	if r == nil || r.Body == nil {
		return out
	}

	ct := strings.ToLower(r.Header.Get("Content-Type"))
	switch {
	case strings.Contains(ct, "application/json"):
		body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
		if err != nil {
			return out
		}
		mergeJSON(out, body)

	case strings.Contains(ct, "application/x-www-form-urlencoded"):
		if err := r.ParseForm(); err != nil {
			return out
		}
		for k, vs := range r.PostForm {
			if len(vs) > 0 {
				out[k] = vs[0]
			}
		}

	case strings.Contains(ct, "multipart/form-data"):
		if err := r.ParseMultipartForm(maxPayloadBytes); err != nil {
			return out
		}
		if r.MultipartForm != nil {
			for k, vs := range r.MultipartForm.Value {
				if len(vs) > 0 {
					out[k] = vs[0]
				}
			}
		}

	default:
		// Best effort: some vendors send JSON with no content type at all.
		body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
		if err != nil {
			return out
		}
		mergeJSON(out, body)
	}
	return out
}

const maxPayloadBytes = 1 << 20

func mergeJSON(out map[string]string, body []byte) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return
	}
	for k, v := range raw {
		out[k] = stringifyValue(v)
	}
}

func stringifyValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		// Nested objects/arrays are kept as their JSON text.
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// Fields is the provider-agnostic view of one webhook payload. Each logical
// field has several accepted vendor spellings; the alias lists below are the
// single place they are declared.
type Fields struct {
	CallerPhone    string
	CallerName     string
	ProviderCallID string
	RecordingURL   string
	Event          string
	Duration       int
}

var fieldAliases = struct {
	callerPhone    []string
	callerName     []string
	providerCallID []string
	recordingURL   []string
	event          []string
	duration       []string
}{
	callerPhone:    []string{"caller_id", "from", "caller_number"},
	callerName:     []string{"caller_name"},
	providerCallID: []string{"uuid", "call_id", "call_uuid"},
	recordingURL:   []string{"recording_url", "recordingUrl", "recording"},
	event:          []string{"event", "status"},
	duration:       []string{"duration"},
}

// ExtractFields resolves the alias table against a normalized payload.
func ExtractFields(p map[string]string) Fields {
	f := Fields{
		CallerPhone:    firstAlias(p, fieldAliases.callerPhone),
		CallerName:     firstAlias(p, fieldAliases.callerName),
		ProviderCallID: firstAlias(p, fieldAliases.providerCallID),
		RecordingURL:   firstAlias(p, fieldAliases.recordingURL),
		Event:          firstAlias(p, fieldAliases.event),
	}
	if v := firstAlias(p, fieldAliases.duration); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			f.Duration = n
		}
	}
	return f
}

func firstAlias(p map[string]string, aliases []string) string {
	for _, a := range aliases {
		if v, ok := p[a]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
