package providers

import (
	"fmt"

	"github.com/gookit/validate"

	"gpscam/internal/structures"
)

// Aspect ratio names contain colons, which the in: rule parser treats as
// option separators, so the enum lives in a named validator instead.
func init() {
	validate.AddValidator("aspectRatio", func(val string) bool {
		switch val {
		case "1:1", "4:3", "16:9", "3:4", "9:16", "full":
			return true
		}
		return false
	})
}

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

// Validate checks the config against its struct rule tags.
func (cv *CnfValidator) Validate() error {
	v := validate.Struct(cv.conf)
	if !v.Validate() {
		return fmt.Errorf("invalid config: %s", v.Errors.One())
	}
	return nil
}
