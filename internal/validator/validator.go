package validator

import (
	"reflect"
	"strings"

	"github.com/SAP-F-2025/assessment-session-service/internal/errors"
	"github.com/SAP-F-2025/assessment-session-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Use shared validation errors from errors package
type ValidationError = errors.ValidationError
type ValidationErrors = errors.ValidationErrors

// Validator combines struct tag validation with the assessment business rules
type Validator struct {
	structValidator   *validator.Validate
	questionValidator *QuestionValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:   structValidator,
		questionValidator: NewQuestionValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		if out := errors.ToValidationErrors(err); len(out) > 0 {
			return out
		}
		return err
	}
	return nil
}

// Validate performs complete validation (struct + business rules)
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		return err
	}

	switch t := s.(type) {
	case *models.AssessmentDefinition:
		return v.questionValidator.ValidateDefinition(t).OrNil()
	case *models.ScheduleWindow:
		return ValidateWindow(t).OrNil()
	}
	return nil
}

// Question returns the question validator
func (v *Validator) Question() *QuestionValidator {
	return v.questionValidator
}

// Engine exposes the underlying go-playground validator, e.g. for gin binding.
func (v *Validator) Engine() *validator.Validate {
	return v.structValidator
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", oneOfValidator(
		models.QuestionSingle, models.QuestionMultiple, models.QuestionText,
	))
	validate.RegisterValidation("difficulty_level", oneOfValidator(
		models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard,
	))
	validate.RegisterValidation("assessment_kind", oneOfValidator(
		models.KindQuiz, models.KindCode,
	))
	validate.RegisterValidation("owner_type", oneOfValidator(
		models.OwnerCourse, models.OwnerQuiz, models.OwnerCodeExercise,
	))
	validate.RegisterValidation("gate_policy", oneOfValidator("open", "closed"))

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// oneOfValidator accepts a string field whose value is one of the given constants.
func oneOfValidator[T ~string](valid ...T) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, v := range valid {
			if string(v) == value {
				return true
			}
		}
		return false
	}
}
