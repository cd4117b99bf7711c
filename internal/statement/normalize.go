package statement

import (
	"fmt"
	"io"
	"strings"

	"github.com/dvloznov/easybudget/internal/domain"
)

// Decode reads a statement CSV, classifies its layout and normalizes every
// row. Any malformed cell aborts the whole file: imports are all-or-nothing.
func Decode(r io.Reader) ([]domain.TransactionRecord, error) {
	header, rows, err := ReadRows(r)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &InputFormatError{Reason: "file has a header but no data rows"}
	}

	variant, err := Classify(header, rows[0])
	if err != nil {
		return nil, err
	}

	records := make([]domain.TransactionRecord, 0, len(rows))
	for i, row := range rows {
		rec, err := Normalize(variant, row, i+1)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Normalize converts one raw row into a canonical record using the given
// variant's date, amount and sign rules. line is the 1-based data row number,
// used only for error reporting.
func Normalize(v Variant, row Row, line int) (domain.TransactionRecord, error) {
	switch v {
	case VariantCardStatement:
		return normalizeCard(row, line)
	case VariantDottedDate:
		return normalizeDotted(row, line)
	case VariantISODate:
		return normalizeISO(row, line)
	default:
		return domain.TransactionRecord{}, &InputFormatError{Reason: "cannot normalize unclassified row"}
	}
}

func normalizeCard(row Row, line int) (domain.TransactionRecord, error) {
	date, err := reformatDottedDate(row[colCardDate], false)
	if err != nil {
		return domain.TransactionRecord{}, &ParseError{Line: line, Field: colCardDate, Value: row[colCardDate], Err: err}
	}

	// Amounts in the card export arrive already signed; the Debito/Credito
	// flag is captured but does not alter the sign.
	amount, err := ParseAmount(row[colCardAmount])
	if err != nil {
		return domain.TransactionRecord{}, &ParseError{Line: line, Field: colCardAmount, Value: row[colCardAmount], Err: err}
	}

	return domain.TransactionRecord{
		Date:             date,
		Description:      row[colCardDesc],
		Amount:           amount,
		Direction:        row[colCardDirection],
		MerchantCategory: row[colCardMerchant],
	}, nil
}

func normalizeDotted(row Row, line int) (domain.TransactionRecord, error) {
	date, err := reformatDottedDate(row[colDate], true)
	if err != nil {
		return domain.TransactionRecord{}, &ParseError{Line: line, Field: colDate, Value: row[colDate], Err: err}
	}

	parsed, err := ParseAmount(row[colAmount])
	if err != nil {
		return domain.TransactionRecord{}, &ParseError{Line: line, Field: colAmount, Value: row[colAmount], Err: err}
	}

	// Negative-in-source means income in this export.
	amount := parsed.Abs()
	if parsed.Sign() < 0 {
		amount = amount.Neg()
	}

	return domain.TransactionRecord{
		Date:             date,
		Description:      row[colDesc],
		Amount:           amount,
		MerchantCategory: row[colMerchant],
	}, nil
}

func normalizeISO(row Row, line int) (domain.TransactionRecord, error) {
	parsed, err := ParseAmount(row[colAmount])
	if err != nil {
		return domain.TransactionRecord{}, &ParseError{Line: line, Field: colAmount, Value: row[colAmount], Err: err}
	}

	// Positive-in-source means income in this export, the opposite of the
	// dotted-date convention.
	amount := parsed.Abs()
	if parsed.Sign() > 0 {
		amount = amount.Neg()
	}

	return domain.TransactionRecord{
		Date:             strings.TrimSpace(row[colDate]),
		Description:      row[colDesc],
		Amount:           amount,
		MerchantCategory: row[colMerchant],
	}, nil
}

// reformatDottedDate turns DD.MM.YYYY (or DD.MM.YY when expandCentury is set)
// into YYYY-MM-DD with zero-padded day and month. Two-digit years are assumed
// to be in the 2000s.
func reformatDottedDate(s string, expandCentury bool) (string, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("want DD.MM.YY or DD.MM.YYYY, got %q", s)
	}
	day, month, year := pad2(parts[0]), pad2(parts[1]), strings.TrimSpace(parts[2])
	if day == "" || month == "" || year == "" {
		return "", fmt.Errorf("want DD.MM.YY or DD.MM.YYYY, got %q", s)
	}
	if expandCentury {
		year = "20" + year
	}
	return year + "-" + month + "-" + day, nil
}

func pad2(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
