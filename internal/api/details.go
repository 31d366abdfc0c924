package api

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
)

// Pay methods used by employer postings.
const (
	PayHourly = "hourlyWage"
	PayFixed  = "fixedPrice"
)

// detailKeys are the keys JobDetails understands, in the order new
// descriptions are written.
var detailKeys = []string{"description", "place_name", "coordinates", "text", "job", "payMethod", "wage"}

// JobDetails is the structured content of a posting's description field.
// The API stores it as a JSON string; DecodeDetails and EncodeDetails are the
// only places that cross that boundary.
type JobDetails struct {
	Description string    `json:"description"`
	PlaceName   string    `json:"place_name,omitempty"`
	Coordinates []float64 `json:"coordinates,omitempty"`
	Text        string    `json:"text,omitempty"`
	Job         *bool     `json:"job,omitempty"`
	PayMethod   string    `json:"payMethod,omitempty"`
	Wage        string    `json:"wage,omitempty"`

	// src is set by DecodeDetails and lets EncodeDetails reproduce the
	// stored text.
	src *detailsSource
}

// detailsSource is what DecodeDetails saw.
type detailsSource struct {
	raw    string
	plain  bool // raw was not a JSON object
	keys   []string
	extra  map[string]json.RawMessage // unknown keys and known keys of an unexpected type
	fields JobDetails                 // decoded values, src unset
}

// IsJobOffer reports whether the posting was made by an employer.
func (d JobDetails) IsJobOffer() bool {
	return d.Job != nil && *d.Job
}

// SetJob records whether the posting is a job offer.
func (d *JobDetails) SetJob(job bool) {
	d.Job = &job
}

func (d JobDetails) textOnly() bool {
	return d.PlaceName == "" && len(d.Coordinates) == 0 && d.Text == "" &&
		d.Job == nil && d.PayMethod == "" && d.Wage == ""
}

// DecodeDetails parses a description field. Text that is not a JSON object
// becomes a plain description.
func DecodeDetails(raw string) JobDetails {
	d, ok := decodeObject(raw)
	if !ok {
		d = JobDetails{Description: raw}
		d.src = &detailsSource{raw: raw, plain: true}
	}
	d.src.fields = d.snapshot()
	return d
}

// EncodeDetails renders details into the description field. Decoded details
// that were not changed come back as the exact stored text; changed ones keep
// the stored key order, empty keys and unknown keys.
func EncodeDetails(d JobDetails) (string, error) {
	if s := d.src; s != nil {
		if s.plain && d.textOnly() {
			return d.Description, nil
		}
		if sameDetails(d, s.fields) {
			return s.raw, nil
		}
	}
	return encodeOrdered(d)
}

// decodeObject reads raw key by key so that order and unknown keys survive.
func decodeObject(raw string) (JobDetails, bool) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") || !json.Valid([]byte(trimmed)) {
		return JobDetails{}, false
	}

	dec := json.NewDecoder(strings.NewReader(trimmed))
	if _, err := dec.Token(); err != nil {
		return JobDetails{}, false
	}

	src := &detailsSource{raw: raw, extra: make(map[string]json.RawMessage)}
	d := JobDetails{src: src}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return JobDetails{}, false
		}
		key, _ := tok.(string)
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return JobDetails{}, false
		}
		if !slices.Contains(src.keys, key) {
			src.keys = append(src.keys, key)
		}
		if !d.setField(key, val) {
			src.extra[key] = val
		}
	}
	return d, true
}

// setField stores val in the field named key. It reports false, leaving d
// untouched, for unknown keys and for values of the wrong type.
func (d *JobDetails) setField(key string, val json.RawMessage) bool {
	switch key {
	case "description":
		return unmarshalField(val, &d.Description)
	case "place_name":
		return unmarshalField(val, &d.PlaceName)
	case "coordinates":
		return unmarshalField(val, &d.Coordinates)
	case "text":
		return unmarshalField(val, &d.Text)
	case "job":
		return unmarshalField(val, &d.Job)
	case "payMethod":
		return unmarshalField(val, &d.PayMethod)
	case "wage":
		return unmarshalField(val, &d.Wage)
	}
	return false
}

func unmarshalField[T any](val json.RawMessage, dst *T) bool {
	var v T
	if err := json.Unmarshal(val, &v); err != nil {
		return false
	}
	*dst = v
	return true
}

// field returns the value stored under key and whether it is set.
func (d JobDetails) field(key string) (any, bool) {
	switch key {
	case "description":
		return d.Description, d.Description != ""
	case "place_name":
		return d.PlaceName, d.PlaceName != ""
	case "coordinates":
		return d.Coordinates, len(d.Coordinates) > 0
	case "text":
		return d.Text, d.Text != ""
	case "job":
		return d.Job, d.Job != nil
	case "payMethod":
		return d.PayMethod, d.PayMethod != ""
	case "wage":
		return d.Wage, d.Wage != ""
	}
	return nil, false
}

// snapshot copies the field values so later edits through d cannot reach it.
func (d JobDetails) snapshot() JobDetails {
	s := d
	s.src = nil
	s.Coordinates = slices.Clone(d.Coordinates)
	if d.Job != nil {
		s.SetJob(*d.Job)
	}
	return s
}

func sameDetails(a, b JobDetails) bool {
	sameJob := (a.Job == nil) == (b.Job == nil) && (a.Job == nil || *a.Job == *b.Job)
	return sameJob &&
		a.Description == b.Description &&
		a.PlaceName == b.PlaceName &&
		slices.Equal(a.Coordinates, b.Coordinates) &&
		a.Text == b.Text &&
		a.PayMethod == b.PayMethod &&
		a.Wage == b.Wage
}

// encodeOrdered writes the keys seen on decode first, in their order, then
// any newly set known keys. Keys present on decode are kept even when empty;
// a stored value of the wrong type is kept until the field is set.
func encodeOrdered(d JobDetails) (string, error) {
	var buf bytes.Buffer
	written := make(map[string]bool)

	write := func(key string, val any) error {
		k, err := encodeEmbedded(key)
		if err != nil {
			return err
		}
		v, err := encodeEmbedded(val)
		if err != nil {
			return err
		}
		if len(written) > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(k)
		buf.WriteByte(':')
		buf.WriteString(v)
		written[key] = true
		return nil
	}

	buf.WriteByte('{')
	if d.src != nil {
		for _, key := range d.src.keys {
			val, set := d.field(key)
			if raw, ok := d.src.extra[key]; ok && !set {
				if err := write(key, raw); err != nil {
					return "", err
				}
				continue
			}
			if key == "job" && d.Job == nil {
				continue
			}
			if err := write(key, val); err != nil {
				return "", err
			}
		}
	}
	for _, key := range detailKeys {
		if written[key] {
			continue
		}
		if val, ok := d.field(key); ok || key == "description" {
			if err := write(key, val); err != nil {
				return "", err
			}
		}
	}
	buf.WriteByte('}')
	return buf.String(), nil
}

// decodeEmbedded unmarshals a JSON object carried inside a string field.
// It reports false, leaving dst untouched, when raw is not such an object.
func decodeEmbedded[T any](raw string, dst *T) bool {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return false
	}
	var v T
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return false
	}
	*dst = v
	return true
}

// encodeEmbedded is the inverse of decodeEmbedded. HTML escaping is off so
// the output matches what the mobile client writes.
func encodeEmbedded(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
