package types

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const MaxMessageLength = 4000

type ChatRequest struct {
	Content string `json:"content"`
}

func (r ChatRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content,
			validation.Required,
			validation.By(notBlank),
			validation.RuneLength(1, MaxMessageLength),
		),
	)
}

type StarRequest struct {
	Starred *bool `json:"starred"`
}

func (r StarRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Starred, validation.NotNil),
	)
}

// WSMessage is a frame sent by the client over /chat/ws. The first frame
// must carry the token.
type WSMessage struct {
	Token   string `json:"token,omitempty"`
	Content string `json:"content"`
}

type MemoryRequest struct {
	Content string `json:"content"`
}

func (r MemoryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.Required, validation.By(notBlank), validation.RuneLength(1, 500)),
	)
}

func notBlank(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_blank", "must not be blank")
	}
	return nil
}
