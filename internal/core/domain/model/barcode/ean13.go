package barcode

import (
	"fmt"

	"fulfillment/internal/pkg/errs"
)

const (
	ean13Length  = 13
	prefixLength = 3
	serialDigits = 9
	maxSerial    = 999_999_999
)

// CheckDigit computes the EAN-13 check digit for a 12-digit payload.
func CheckDigit(payload string) (byte, error) {
	if len(payload) != ean13Length-1 || !isDigits(payload) {
		return 0, errs.NewValueIsInvalidErrorWithCause("ean13 payload", fmt.Errorf("%q is not 12 digits", payload))
	}

	sum := 0
	for i := range len(payload) {
		d := int(payload[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return byte('0' + (10-sum%10)%10), nil
}

// NewEAN13 builds a barcode from a 3-digit prefix and a serial of up to nine digits.
func NewEAN13(prefix string, serial int64) (string, error) {
	if len(prefix) != prefixLength || !isDigits(prefix) {
		return "", errs.NewValueIsInvalidErrorWithCause("barcode prefix", fmt.Errorf("%q is not 3 digits", prefix))
	}
	if serial <= 0 || serial > maxSerial {
		return "", errs.NewValueIsOutOfRangeError("barcode serial", serial, 1, maxSerial)
	}

	payload := fmt.Sprintf("%s%0*d", prefix, serialDigits, serial)
	check, err := CheckDigit(payload)
	if err != nil {
		return "", err
	}
	return payload + string(check), nil
}

// ValidateEAN13 checks length, digits and the check digit.
func ValidateEAN13(code string) error {
	if len(code) != ean13Length || !isDigits(code) {
		return errs.NewValueIsInvalidErrorWithCause("barcode", fmt.Errorf("%q is not 13 digits", code))
	}
	check, err := CheckDigit(code[:ean13Length-1])
	if err != nil {
		return err
	}
	if code[ean13Length-1] != check {
		return errs.NewValueIsInvalidErrorWithCause("barcode", fmt.Errorf("%q has check digit %c, want %c",
			code, code[ean13Length-1], check))
	}
	return nil
}

func isDigits(s string) bool {
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
