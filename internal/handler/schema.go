package handler

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

const maxBodySize = 1 << 20

// RequestError reports a malformed request.
type RequestError struct {
	Msg string
	Err error
}

func (e *RequestError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *RequestError) Unwrap() error { return e.Err }

func invalidBody(err error) error {
	return &RequestError{Msg: "invalid request body", Err: err}
}

// OptString is an optional string field.
type OptString struct {
	Value string
	Set   bool
}

// Get returns the value and whether it was present.
func (o OptString) Get() (string, bool) { return o.Value, o.Set }

// Ptr returns nil when the field was absent.
func (o OptString) Ptr() *string {
	if !o.Set {
		return nil
	}
	v := o.Value
	return &v
}

func (o *OptString) Decode(d *jx.Decoder) error {
	v, err := d.Str()
	if err != nil {
		return err
	}
	o.Value, o.Set = v, true
	return nil
}

// OptNilString is an optional, nullable string field. Null decodes as a set
// empty value, which clears the field.
type OptNilString struct {
	Value string
	Set   bool
}

// Ptr returns nil when absent and a pointer to "" when null.
func (o OptNilString) Ptr() *string {
	if !o.Set {
		return nil
	}
	v := o.Value
	return &v
}

func (o *OptNilString) Decode(d *jx.Decoder) error {
	o.Set = true
	if d.Next() == jx.Null {
		o.Value = ""
		return d.Null()
	}
	v, err := d.Str()
	o.Value = v
	return err
}

// OptInt is an optional integer field.
type OptInt struct {
	Value int
	Set   bool
}

// Ptr returns nil when the field was absent.
func (o OptInt) Ptr() *int {
	if !o.Set {
		return nil
	}
	v := o.Value
	return &v
}

func (o *OptInt) Decode(d *jx.Decoder) error {
	v, err := d.Int()
	if err != nil {
		return err
	}
	o.Value, o.Set = v, true
	return nil
}

// OptDecimal is an optional money field, accepted as a JSON number or a
// numeric string.
type OptDecimal struct {
	Value decimal.Decimal
	Set   bool
}

func (o *OptDecimal) Decode(d *jx.Decoder) error {
	var raw string
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return err
		}
		raw = s
	default:
		n, err := d.Num()
		if err != nil {
			return err
		}
		raw = n.String()
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return errors.Wrap(err, "parse decimal")
	}
	o.Value, o.Set = v, true
	return nil
}

// Ptr returns nil when the field was absent.
func (o OptDecimal) Ptr() *decimal.Decimal {
	if !o.Set {
		return nil
	}
	v := o.Value
	return &v
}

// decodeBody reads a JSON object from r, calling field for every key.
// Unknown keys must be skipped by field.
func decodeBody(r *http.Request, field func(d *jx.Decoder, key string) error) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return invalidBody(err)
	}
	if len(data) > maxBodySize {
		return invalidBody(errors.New("body too large"))
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return invalidBody(errors.New("empty body"))
	}
	if err := jx.DecodeBytes(data).Obj(field); err != nil {
		return invalidBody(err)
	}
	return nil
}

// writeJSON encodes with enc and writes the result.
func writeJSON(w http.ResponseWriter, status int, enc func(e *jx.Encoder)) {
	var e jx.Encoder
	enc(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func encodeMoney(e *jx.Encoder, d decimal.Decimal) {
	e.Raw([]byte(d.StringFixed(2)))
}

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.Format(time.RFC3339))
}

func encodeNilString(e *jx.Encoder, v *string) {
	if v == nil {
		e.Null()
		return
	}
	e.Str(*v)
}
