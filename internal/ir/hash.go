package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed digests.
// Version suffix enables future algorithm migration.
const (
	DomainCall    = "gemledger/call/v1"
	DomainOutcome = "gemledger/outcome/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CallDigest computes the content address of a logged call.
// It binds the action, its arguments, the context it ran under and its
// log position, so a tampered log entry no longer matches its digest.
func CallDigest(seq int64, action ActionRef, args Object, cc CallContext) (string, error) {
	if args == nil {
		args = Object{}
	}
	obj := Object{
		"action": String(action),
		"args":   args,
		"caller": String(cc.Caller),
		"height": Int(cc.Height),
		"seq":    Int(seq),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("call digest: %w", err)
	}
	return hashWithDomain(DomainCall, canonical), nil
}

// OutcomeDigest computes the content address of an outcome.
// Replay compares outcome digests instead of deep-comparing results.
func OutcomeDigest(out Outcome) (string, error) {
	result := out.Result
	if result == nil {
		result = Object{}
	}
	obj := Object{
		"case":   String(out.Case),
		"code":   Int(out.Code),
		"result": result,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("outcome digest: %w", err)
	}
	return hashWithDomain(DomainOutcome, canonical), nil
}
