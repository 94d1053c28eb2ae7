package validator

import (
	"anoa.com/forumguard/internal/model"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators wires the domain enums into gin's binding layer
// so malformed values are rejected before a handler runs.
func RegisterCustomValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	_ = v.RegisterValidation("reactionkind", func(fl validator.FieldLevel) bool {
		return model.ReactionKind(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("flagreason", func(fl validator.FieldLevel) bool {
		return model.FlagReason(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("modaction", func(fl validator.FieldLevel) bool {
		return model.ActionType(fl.Field().String()).Valid()
	})
}
