// Package brcode serializes Bacen EMV "copia e cola" payment payloads.
// Every field is emitted as <2-digit tag><2-digit length><value>; the
// payload ends with a CRC-16/CCITT-FALSE checksum over everything before
// it, including the literal "6304" tag+length of the checksum field.
package brcode

import (
	"fmt"
	"strings"

	"github.com/fredcarvalho/notafiscal/internal/domain/errors"
	"github.com/shopspring/decimal"
)

const (
	tagFormatIndicator  = "00"
	tagInitiationMethod = "01"
	tagMerchantAccount  = "26"
	tagCategoryCode     = "52"
	tagCurrency         = "53"
	tagAmount           = "54"
	tagCountry          = "58"
	tagReceiverName     = "59"
	tagReceiverCity     = "60"
	tagAdditionalData   = "62"
	tagChecksum         = "63"

	subTagGUI = "00"
	subTagKey = "01"
	subTagTxID = "05"

	pixGUI = "br.gov.bcb.pix"

	maxKeyLen  = 77
	maxNameLen = 25
	maxCityLen = 15
	maxTxIDLen = 25
)

// Request holds the inputs to Encode.
type Request struct {
	ReceiverKey  string
	ReceiverName string
	ReceiverCity string
	AmountCents  int64
	// TxID is the correlation id carried under tag 62/05. Optional.
	TxID string
}

// Encode builds the full payload string for the request. It is
// deterministic: identical inputs always produce a byte-identical payload.
func Encode(req Request) (string, error) {
	if req.AmountCents <= 0 {
		return "", errors.ErrInvalidAmount
	}
	key := sanitize(req.ReceiverKey)
	if key == "" {
		return "", fmt.Errorf("receiver key: %w", errors.ErrEmptyField)
	}
	if len(key) > maxKeyLen {
		return "", fmt.Errorf("receiver key (%d > %d bytes): %w", len(key), maxKeyLen, errors.ErrFieldOverflow)
	}

	// Names and cities are truncated by rule; keys and txids overflow hard.
	name := truncate(sanitize(req.ReceiverName), maxNameLen)
	if name == "" {
		return "", fmt.Errorf("receiver name: %w", errors.ErrEmptyField)
	}
	city := truncate(sanitize(req.ReceiverCity), maxCityLen)
	if city == "" {
		return "", fmt.Errorf("receiver city: %w", errors.ErrEmptyField)
	}
	txid := sanitize(req.TxID)
	if len(txid) > maxTxIDLen {
		return "", fmt.Errorf("txid (%d > %d bytes): %w", len(txid), maxTxIDLen, errors.ErrFieldOverflow)
	}

	amount := decimal.New(req.AmountCents, -2).StringFixed(2)

	var b strings.Builder
	emit(&b, tagFormatIndicator, "01")
	emit(&b, tagInitiationMethod, "12") // dynamic, amount-bound

	account, err := field(subTagGUI, pixGUI)
	if err != nil {
		return "", err
	}
	keyField, err := field(subTagKey, key)
	if err != nil {
		return "", err
	}
	merchant, err := field(tagMerchantAccount, account+keyField)
	if err != nil {
		return "", err
	}
	b.WriteString(merchant)

	emit(&b, tagCategoryCode, "0000")
	emit(&b, tagCurrency, "986") // ISO 4217 numeric BRL
	emit(&b, tagAmount, amount)
	emit(&b, tagCountry, "BR")
	emit(&b, tagReceiverName, name)
	emit(&b, tagReceiverCity, city)

	if txid != "" {
		ref, err := field(subTagTxID, txid)
		if err != nil {
			return "", err
		}
		additional, err := field(tagAdditionalData, ref)
		if err != nil {
			return "", err
		}
		b.WriteString(additional)
	}

	// The checksum covers the payload including its own tag+length.
	b.WriteString(tagChecksum + "04")
	sum := crc16([]byte(b.String()))
	b.WriteString(fmt.Sprintf("%04X", sum))

	return b.String(), nil
}

// field renders one TLV field, refusing values whose declared length would
// not fit two digits. A length mismatch makes the whole code unscannable,
// so overflow is an error rather than a trim.
func field(tag, value string) (string, error) {
	if len(value) > 99 {
		return "", fmt.Errorf("tag %s value (%d bytes): %w", tag, len(value), errors.ErrFieldOverflow)
	}
	return fmt.Sprintf("%s%02d%s", tag, len(value), value), nil
}

func emit(b *strings.Builder, tag, value string) {
	// callers pass constants or pre-bounded values
	f, _ := field(tag, value)
	b.WriteString(f)
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

// translit maps the accented characters that show up in Brazilian names and
// city labels onto ASCII. Field lengths are byte counts, so multi-byte
// runes cannot pass through.
var translit = map[rune]rune{
	'á': 'a', 'à': 'a', 'ã': 'a', 'â': 'a', 'ä': 'a',
	'é': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e',
	'í': 'i', 'ì': 'i', 'î': 'i', 'ï': 'i',
	'ó': 'o', 'ò': 'o', 'õ': 'o', 'ô': 'o', 'ö': 'o',
	'ú': 'u', 'ù': 'u', 'û': 'u', 'ü': 'u',
	'ç': 'c', 'ñ': 'n',
	'Á': 'A', 'À': 'A', 'Ã': 'A', 'Â': 'A', 'Ä': 'A',
	'É': 'E', 'È': 'E', 'Ê': 'E', 'Ë': 'E',
	'Í': 'I', 'Ì': 'I', 'Î': 'I', 'Ï': 'I',
	'Ó': 'O', 'Ò': 'O', 'Õ': 'O', 'Ô': 'O', 'Ö': 'O',
	'Ú': 'U', 'Ù': 'U', 'Û': 'U', 'Ü': 'U',
	'Ç': 'C', 'Ñ': 'N',
}

// sanitize transliterates accented characters and drops anything left
// outside printable ASCII.
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if t, ok := translit[r]; ok {
			r = t
		}
		if r >= 0x20 && r <= 0x7e {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
