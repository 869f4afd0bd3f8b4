package routedispatch

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/kodewerx/memoria/pkg/apierr"
)

// Validator is a single composable validation check. A Route's
// ValidateRequest runs the relevant ones for its fields and returns the
// first failure, wrapped as a VALIDATION_ERROR.
type Validator func() error

// Run executes vs in order, returning the first validation failure as an
// *apierr.Error.
func Run(vs ...Validator) error {
	for _, v := range vs {
		if err := v(); err != nil {
			return apierr.New(apierr.KindValidation, err.Error())
		}
	}
	return nil
}

// NotEmpty rejects an empty string field.
func NotEmpty(field, value string) Validator {
	return func() error {
		if value == "" {
			return fmt.Errorf("%s must not be empty", field)
		}
		return nil
	}
}

// VecNotEmpty rejects an empty vector field.
func VecNotEmpty(field string, vec []float32) Validator {
	return func() error {
		if len(vec) == 0 {
			return fmt.Errorf("%s must not be empty", field)
		}
		return nil
	}
}

// InRange rejects a numeric field outside [min, max], inclusive.
func InRange(field string, value, min, max float64) Validator {
	return func() error {
		if value < min || value > max {
			return fmt.Errorf("%s must be in [%g, %g], got %g", field, min, max, value)
		}
		return nil
	}
}

// InIntRange is InRange for integer fields (e.g. max_tokens, rag k).
func InIntRange(field string, value, min, max int) Validator {
	return func() error {
		if value < min || value > max {
			return fmt.Errorf("%s must be in [%d, %d], got %d", field, min, max, value)
		}
		return nil
	}
}

// ValidAudioCodec rejects a codec name outside the supported set.
func ValidAudioCodec(codec string) Validator {
	return func() error {
		switch codec {
		case "opus", "g722", "pcmu", "pcma", "aac":
			return nil
		default:
			return fmt.Errorf("unsupported audio codec %q", codec)
		}
	}
}

// ValidSampleRate rejects a sample rate outside the supported set (§12).
func ValidSampleRate(hz int) Validator {
	return func() error {
		switch hz {
		case 8000, 16000, 24000, 48000:
			return nil
		default:
			return fmt.Errorf("unsupported sample rate %d", hz)
		}
	}
}

// ValidChannels rejects a channel count outside [1, 8].
func ValidChannels(channels int) Validator {
	return func() error {
		if channels < 1 || channels > 8 {
			return fmt.Errorf("channels must be in [1, 8], got %d", channels)
		}
		return nil
	}
}

// ValidBitrate rejects a non-positive or implausibly large bitrate.
func ValidBitrate(kbps int) Validator {
	return func() error {
		if kbps <= 0 || kbps > 512 {
			return fmt.Errorf("bitrate_kbps must be in (0, 512], got %d", kbps)
		}
		return nil
	}
}

// ValidUuid rejects a malformed UUID string.
func ValidUuid(field, value string) Validator {
	return func() error {
		if _, err := uuid.Parse(value); err != nil {
			return fmt.Errorf("%s is not a valid uuid: %v", field, err)
		}
		return nil
	}
}

// TopNWithinBounds rejects a rerank top_n greater than the document count.
func TopNWithinBounds(topN, docCount int) Validator {
	return func() error {
		if topN > docCount {
			return fmt.Errorf("top_n (%d) must not exceed documents length (%d)", topN, docCount)
		}
		return nil
	}
}
