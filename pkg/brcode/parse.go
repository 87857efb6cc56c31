package brcode

import (
	"fmt"
	"strconv"

	"github.com/fredcarvalho/notafiscal/internal/domain/errors"
	"github.com/shopspring/decimal"
)

// Field is one decoded TLV entry.
type Field struct {
	Tag   string
	Value string
	Sub   []Field
}

// Payload is the structural decoding of an encoded BR code.
type Payload struct {
	Fields      []Field
	ReceiverKey string
	Amount      decimal.Decimal
	Country     string
	TxID        string
	Checksum    string
}

// Parse decodes the TLV stream and verifies the trailing checksum. It is
// used by tests and by reconciliation when comparing a stored payload
// against freshly resolved document data.
func Parse(payload string) (*Payload, error) {
	fields, err := parseTLV(payload)
	if err != nil {
		return nil, err
	}

	out := &Payload{Fields: fields}
	for i := range fields {
		f := &fields[i]
		switch f.Tag {
		case tagMerchantAccount:
			f.Sub, err = parseTLV(f.Value)
			if err != nil {
				return nil, fmt.Errorf("merchant account block: %w", err)
			}
			for _, sub := range f.Sub {
				if sub.Tag == subTagKey {
					out.ReceiverKey = sub.Value
				}
			}
		case tagAmount:
			out.Amount, err = decimal.NewFromString(f.Value)
			if err != nil {
				return nil, fmt.Errorf("amount %q: %w", f.Value, errors.ErrInvalidPayload)
			}
		case tagCountry:
			out.Country = f.Value
		case tagAdditionalData:
			f.Sub, err = parseTLV(f.Value)
			if err != nil {
				return nil, fmt.Errorf("additional data block: %w", err)
			}
			for _, sub := range f.Sub {
				if sub.Tag == subTagTxID {
					out.TxID = sub.Value
				}
			}
		case tagChecksum:
			out.Checksum = f.Value
		}
	}

	if len(out.Checksum) != 4 {
		return nil, fmt.Errorf("missing checksum field: %w", errors.ErrInvalidPayload)
	}
	covered := payload[:len(payload)-4]
	want := fmt.Sprintf("%04X", crc16([]byte(covered)))
	if out.Checksum != want {
		return nil, fmt.Errorf("checksum %s, computed %s: %w", out.Checksum, want, errors.ErrBadChecksum)
	}

	return out, nil
}

func parseTLV(s string) ([]Field, error) {
	var fields []Field
	for i := 0; i < len(s); {
		if i+4 > len(s) {
			return nil, fmt.Errorf("truncated field header at offset %d: %w", i, errors.ErrInvalidPayload)
		}
		tag := s[i : i+2]
		length, err := strconv.Atoi(s[i+2 : i+4])
		if err != nil {
			return nil, fmt.Errorf("bad length at offset %d: %w", i, errors.ErrInvalidPayload)
		}
		i += 4
		if i+length > len(s) {
			return nil, fmt.Errorf("field %s declares %d bytes past end: %w", tag, length, errors.ErrInvalidPayload)
		}
		fields = append(fields, Field{Tag: tag, Value: s[i : i+length]})
		i += length
	}
	return fields, nil
}
