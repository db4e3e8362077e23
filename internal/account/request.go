package account

import (
	"fmt"
	"time"

	"github.com/mateuscastro5/gym-api/internal/models"
	"github.com/mateuscastro5/gym-api/internal/util"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

type RegisterRequest struct {
	Name             string             `json:"name"`
	Email            string             `json:"email"`
	Password         string             `json:"password"`
	AccessLevel      models.AccessLevel `json:"access_level"`
	SecurityQuestion string             `json:"security_question"`
	SecurityAnswer   string             `json:"security_answer"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 100), is.EmailFormat),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.AccessLevel, validation.In(models.LevelBasic, models.LevelModerator, models.LevelAdmin)),
		validation.Field(&r.SecurityQuestion, validation.Length(0, 255)),
		validation.Field(&r.SecurityAnswer,
			validation.When(r.SecurityQuestion != "", validation.Required),
			validation.By(maxBytes(util.MaxPasswordBytes))),
	)
}

// maxBytes bounds a value that is later hashed with bcrypt.
func maxBytes(n int) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if len(s) > n {
			return validation.NewError("validation_length_too_long", fmt.Sprintf("the length must be no more than %d bytes", n))
		}
		return nil
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type RecoveryRequest struct {
	Email string `json:"email"`
}

func (r RecoveryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
	)
}

type ConfirmRecoveryRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

func (r ConfirmRecoveryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Code, validation.Required),
		validation.Field(&r.NewPassword, validation.Required),
	)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required),
	)
}

// Summary is the public view of an account.
type Summary struct {
	ID          uint                 `json:"id"`
	Name        string               `json:"name"`
	Email       string               `json:"email"`
	AccessLevel models.AccessLevel   `json:"access_level"`
	Status      models.AccountStatus `json:"status"`
	LastLoginAt *time.Time           `json:"last_login_at,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	Deleted     bool                 `json:"deleted,omitempty"`
}

func summarize(a *models.Account) Summary {
	return Summary{
		ID:          a.ID,
		Name:        a.Name,
		Email:       a.Email,
		AccessLevel: a.AccessLevel,
		Status:      a.Status,
		LastLoginAt: a.LastLoginAt,
		CreatedAt:   a.CreatedAt,
		Deleted:     a.Deleted,
	}
}

// LoginResult is returned by a successful login. PreviousLoginAt is the last
// login before this one, nil on first access.
type LoginResult struct {
	Token           string
	ExpiresIn       time.Duration
	Account         Summary
	PreviousLoginAt *time.Time
	Welcome         string
}
