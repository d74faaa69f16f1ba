package section

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

// ErrUnknownType is returned by Decode for a discriminator with no renderer.
var ErrUnknownType = errors.New("section: unknown type")

// Decode builds the variant named by the record's `_type` field.
func Decode(raw json.RawMessage) (Section, error) {
	var head struct {
		Type Type `json:"_type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("section: read discriminator: %w", err)
	}
	s := newVariant(head.Type)
	if s == nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownType, head.Type)
	}
	if err := json.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("section: decode %s: %w", head.Type, err)
	}
	return s, nil
}

// List is the ordered body of a page.  Unmarshalling drops records whose
// discriminator is unknown or whose payload does not decode; the remaining
// records keep their relative order.
type List []Section

func (l *List) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*l = nil
		return nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(b, &raws); err != nil {
		return err
	}
	*l = DecodeList(raws)
	return nil
}

func (l List) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, s := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := marshalTagged(s)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// DecodeList decodes raws in order.  Unknown and malformed records are
// skipped, never reported as errors.
func DecodeList(raws []json.RawMessage) List {
	out := make(List, 0, len(raws))
	for _, raw := range raws {
		s, err := Decode(raw)
		if err != nil {
			zap.L().Debug("section dropped", zap.Error(err))
			continue
		}
		out = append(out, s)
	}
	return out
}

// marshalTagged encodes s with its `_type` discriminator spliced in front.
func marshalTagged(s Section) ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	head := []byte(`{"_type":` + strconv.Quote(string(s.Type())))
	if len(b) <= 2 {
		return append(head, '}'), nil
	}
	head = append(head, ',')
	return append(head, b[1:]...), nil
}
