package validator

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var classCodePattern = regexp.MustCompile(`^[A-Za-z0-9-]{4,50}$`)

// registerCustomRules installs the service's named validation rules
func registerCustomRules(validate *validator.Validate) {
	_ = validate.RegisterValidation("exam_name", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		return len(name) >= 3 && len(name) <= 200
	})

	_ = validate.RegisterValidation("class_code", func(fl validator.FieldLevel) bool {
		return classCodePattern.MatchString(fl.Field().String())
	})
}

// ValidateExamGraph checks the cross-field rules of an exam write that struct
// tags cannot express.
func (v *Validator) ValidateExamGraph(questions []QuestionRequest) ValidationErrors {
	var errors ValidationErrors

	for i, q := range questions {
		if len(q.Results) == 0 && len(q.TestCases) == 0 {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("questions[%d]", i),
				Message: "question needs at least one answer option or test case",
				Rule:    "question_children",
			})
		}

		seenKeys := make(map[int]bool, len(q.Results))
		hasCorrect := false
		for _, r := range q.Results {
			key := r.ResultKey.Int()
			if seenKeys[key] {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("questions[%d].results", i),
					Message: fmt.Sprintf("duplicate result key %d", key),
					Value:   key,
					Rule:    "result_key_unique",
				})
			}
			seenKeys[key] = true
			if r.IsCorrect {
				hasCorrect = true
			}
		}

		if len(q.Results) > 0 && !hasCorrect {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("questions[%d].results", i),
				Message: "question has no correct answer option",
				Rule:    "correct_answer_required",
			})
		}
	}

	return errors
}
