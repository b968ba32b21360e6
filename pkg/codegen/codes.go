// Package codegen generates the random alphabetic pickup codes a caller
// hands out after a sort run, the Go counterpart of the original's
// code_generator.generate_codes. It is a standalone utility: nothing in
// internal/sorter or internal/service imports it, since ticket-code issuance
// and PDF-form filling sit outside this repo's sorting engine.
package codegen

import (
	"crypto/rand"
	"fmt"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// DefaultCodeLength matches the original's generate_codes default.
const DefaultCodeLength = 10

// GenerateCodes returns numCodes random, uppercase alphabetic strings of
// codeLength characters each, the fixed-length pickup codes a ticketing
// system hands a recipient after a sort run. Codes are not guaranteed
// unique; callers that need uniqueness should dedupe against already-issued
// codes themselves, the same obligation the original leaves to its caller.
func GenerateCodes(numCodes, codeLength int) ([]string, error) {
	if numCodes < 0 {
		return nil, fmt.Errorf("codegen: numCodes must be >= 0")
	}
	if codeLength < 1 {
		return nil, fmt.Errorf("codegen: codeLength must be >= 1")
	}

	codes := make([]string, numCodes)
	for i := range codes {
		code, err := randomCode(codeLength)
		if err != nil {
			return nil, fmt.Errorf("codegen: generate code %d: %w", i, err)
		}
		codes[i] = code
	}
	return codes, nil
}

func randomCode(codeLength int) (string, error) {
	idx := make([]byte, codeLength)
	if _, err := rand.Read(idx); err != nil {
		return "", err
	}
	buf := make([]byte, codeLength)
	for i, b := range idx {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf), nil
}
