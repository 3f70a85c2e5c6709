package notify

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

const (
	// MaxContentLength is Discord's per-message limit, in code points.
	MaxContentLength = 2000
	// MaxUsernameLength is Discord's display-name limit, in code points.
	MaxUsernameLength = 80
)

// ErrValidation is wrapped by every message validation failure.
var ErrValidation = errors.New("invalid message")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// Message is the JSON body of a webhook execution.
type Message struct {
	Content  string `json:"content" validate:"notblank,max=2000"`
	Username string `json:"username,omitempty" validate:"max=80"`
}

// NewMessage builds a validated Message.
func NewMessage(content, username string) (Message, error) {
	m := Message{Content: content, Username: username}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}

// Validate checks content and username against Discord's limits.
func (m Message) Validate() error {
	err := validate.Struct(m)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Field() {
		case "Content":
			if fe.Tag() == "notblank" {
				msgs = append(msgs, "message content cannot be empty")
			} else {
				msgs = append(msgs, fmt.Sprintf("message content must be at most %d characters (got %d)",
					MaxContentLength, utf8.RuneCountInString(m.Content)))
			}
		case "Username":
			msgs = append(msgs, fmt.Sprintf("username must be at most %d characters (got %d)",
				MaxUsernameLength, utf8.RuneCountInString(m.Username)))
		default:
			msgs = append(msgs, fe.Error())
		}
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

// ValidateUsername checks a display-name override on its own, before any content exists.
func ValidateUsername(username string) error {
	if err := validate.Var(username, "max=80"); err != nil {
		return fmt.Errorf("%w: username must be at most %d characters (got %d)",
			ErrValidation, MaxUsernameLength, utf8.RuneCountInString(username))
	}
	return nil
}

// Truncate cuts s to at most limit code points, ending with suffix when cut.
func Truncate(s string, limit int, suffix string) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	keep := limit - utf8.RuneCountInString(suffix)
	if keep < 0 {
		return string([]rune(suffix)[:limit])
	}
	runes := []rune(s)
	return string(runes[:keep]) + suffix
}
