package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ErrInvalidInput is wrapped by every error returned from this package
var ErrInvalidInput = errors.New("invalid input")

const (
	MaxNameLength       = 100
	MaxTitleLength      = 200
	MaxAgendaLength     = 500
	MaxOptionNameLength = 100
	MaxPollOptions      = 20
)

func invalid(message string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, message)
}

// ValidateRequired checks that a field is not blank
func ValidateRequired(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(fieldName + " is required")
	}
	return nil
}

// ValidateMinLength checks the minimum length of a string in runes
func ValidateMinLength(value string, minLength int, fieldName string) error {
	if utf8.RuneCountInString(strings.TrimSpace(value)) < minLength {
		return invalid(fieldName + " must be at least " + strconv.Itoa(minLength) + " characters long")
	}
	return nil
}

// ValidateMaxLength checks the maximum length of a string in runes
func ValidateMaxLength(value string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(strings.TrimSpace(value)) > maxLength {
		return invalid(fieldName + " must be at most " + strconv.Itoa(maxLength) + " characters long")
	}
	return nil
}

// ParseUUID parses a path or body identifier
func ParseUUID(value, fieldName string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, invalid(fieldName + " must be a valid UUID")
	}
	return id, nil
}

// ValidateNotPast rejects a start time more than a day in the past
func ValidateNotPast(t *time.Time, fieldName string) error {
	if t == nil {
		return nil
	}
	if t.Before(time.Now().Add(-24 * time.Hour)) {
		return invalid(fieldName + " cannot be in the past")
	}
	return nil
}

// GatheringValidation holds the checks for gatherings and their events
type GatheringValidation struct{}

// ValidateName validates a gathering name
func (v GatheringValidation) ValidateName(name string) error {
	if err := ValidateRequired(name, "name"); err != nil {
		return err
	}
	if err := ValidateMinLength(name, 3, "name"); err != nil {
		return err
	}
	return ValidateMaxLength(name, MaxNameLength, "name")
}

// ValidateEventTitle validates an event title
func (v GatheringValidation) ValidateEventTitle(title string) error {
	if err := ValidateRequired(title, "title"); err != nil {
		return err
	}
	return ValidateMaxLength(title, MaxTitleLength, "title")
}

// PollValidation holds the request-level size limits for polls. Blank agendas,
// blank option names and the two-option minimum are rules of the poll itself.
type PollValidation struct{}

// ValidateAgenda validates a poll agenda
func (v PollValidation) ValidateAgenda(agenda string) error {
	return ValidateMaxLength(agenda, MaxAgendaLength, "agenda")
}

// ValidateOptionNames validates the option list of a new poll
func (v PollValidation) ValidateOptionNames(names []string) error {
	if len(names) > MaxPollOptions {
		return invalid("a poll can have at most " + strconv.Itoa(MaxPollOptions) + " options")
	}
	for i, name := range names {
		field := "option_names[" + strconv.Itoa(i) + "]"
		if err := ValidateMaxLength(name, MaxOptionNameLength, field); err != nil {
			return err
		}
	}
	return nil
}
