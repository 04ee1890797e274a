// Package validator implements the sampled write-through check: a fraction
// of cache writes are immediately read back and compared against what was
// written, surfacing storage-layer corruption that a plain write/read cycle
// on its own would never catch.
package validator

import (
	"encoding/json"
	"log"
	"math/rand"

	"github.com/eden-redis/loadengine/internal/metrics"
)

// Result classifies the outcome of a validation read-back.
type Result string

const (
	ResultMatch      Result = "match"
	ResultMismatch   Result = "mismatch"
	ResultParseError Result = "parse_error"
	ResultNotFound   Result = "not_found"
	ResultReadError  Result = "read_error"
)

// maxLoggedChars truncates logged payloads so a corrupt multi-kilobyte
// document doesn't flood stderr; this is a log-noise mitigation, not a
// security control.
const maxLoggedChars = 200

// Validator samples a Bernoulli trial per write to decide whether to
// validate it, using the configured sample rate.
type Validator struct {
	rate float64
}

// New clamps rate into [0, 1].
func New(rate float64) *Validator {
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	return &Validator{rate: rate}
}

// ShouldValidate draws a fresh PRNG sample per call and returns true with
// probability rate. A rate of 0 never validates; a rate of 1 always does.
func (v *Validator) ShouldValidate() bool {
	if v.rate <= 0 {
		return false
	}
	if v.rate >= 1 {
		return true
	}
	return rand.Float64() < v.rate
}

// Validate compares originalJSON (what was written) against retrieved
// (what a subsequent read returned, or nil if the read found nothing, or
// readErr if the read itself failed). Byte-equal payloads short-circuit to
// a match; otherwise both sides are reparsed as JSON and compared
// semantically, so key-ordering differences introduced by round-tripping
// through Redis don't register as corruption.
func Validate(kind string, originalJSON []byte, retrieved []byte, found bool, readErr error) Result {
	var result Result
	switch {
	case readErr != nil:
		result = ResultReadError
	case !found:
		result = ResultNotFound
	case string(originalJSON) == string(retrieved):
		result = ResultMatch
	default:
		var a, b interface{}
		if err := json.Unmarshal(originalJSON, &a); err != nil {
			result = ResultParseError
			break
		}
		if err := json.Unmarshal(retrieved, &b); err != nil {
			result = ResultParseError
			break
		}
		if deepEqualJSON(a, b) {
			result = ResultMatch
		} else {
			result = ResultMismatch
		}
	}

	metrics.ValidationResultsTotal.WithLabelValues(string(result)).Inc()
	if result != ResultMatch {
		logValidationFailure(kind, result, originalJSON, retrieved)
	}
	return result
}

func deepEqualJSON(a, b interface{}) bool {
	aj, errA := json.Marshal(a)
	bj, errB := json.Marshal(b)
	return errA == nil && errB == nil && string(aj) == string(bj)
}

func truncate(b []byte) string {
	s := string(b)
	if len(s) > maxLoggedChars {
		return s[:maxLoggedChars] + "...(truncated)"
	}
	return s
}

func logValidationFailure(kind string, result Result, original, retrieved []byte) {
	log.Printf("validator: %s mismatch kind=%s original=%q retrieved=%q",
		result, kind, truncate(original), truncate(retrieved))
}
