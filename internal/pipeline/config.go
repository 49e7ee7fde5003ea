package pipeline

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/tracefold/internal/contraction"
)

// Defaults for Config fields.
const (
	DefaultOrder     = 4
	DefaultPool      = 5000
	DefaultWorkers   = 10
	DefaultFileTerms = 5000
)

// MaxOrder is the highest supported expansion order. It is bounded by the
// number of points the contraction enumerator supports.
const MaxOrder = contraction.MaxPoints

// Config holds the evaluation parameters. The json tags name the fields of
// a configuration file.
type Config struct {
	// Order is the highest formal order kept.
	Order int `json:"order" validate:"gte=1,lte=10"`

	// EvenOnly drops terms of odd formal order.
	EvenOnly bool `json:"evenOnly"`

	// Pool is the chunk size for evaluation by parts and the batch size
	// for merging.
	Pool int `json:"pool" validate:"gte=1"`

	// Workers bounds the number of chunks evaluated concurrently.
	Workers int `json:"workers" validate:"gte=1"`

	// FileTerms is the maximum number of terms per checkpoint file.
	FileTerms int `json:"fileTerms" validate:"gte=1"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Order:     DefaultOrder,
		EvenOnly:  true,
		Pool:      DefaultPool,
		Workers:   DefaultWorkers,
		FileTerms: DefaultFileTerms,
	}
}

var validate = validator.New()

// Validate checks the field bounds. It returns an INVALID_CONFIG *Error
// naming every failing field.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &Error{Code: ErrCodeInvalidConfig, Message: err.Error()}
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s (got %v)",
			fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
	}
	return &Error{Code: ErrCodeInvalidConfig, Message: strings.Join(msgs, "; ")}
}
