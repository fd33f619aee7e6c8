package api

import (
	"alcyxob/fitcoach/internal/service"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// bindingMessages holds the user-facing text of a failed rule, keyed by
// "field.tag" and then by tag alone.
var bindingMessages = map[string]string{
	"email":                        "Digite um e-mail válido.",
	"password.min":                 fmt.Sprintf("A senha precisa ter pelo menos %d caracteres.", service.MinPasswordLength),
	"passwordConfirmation.eqfield": "As senhas digitadas não conferem.",
	"file.required":                fmt.Sprintf("multipart field %q is required", avatarFormField),
	"required":                     "Preencha todos os campos.",
}

// bindingFields renames a failing field in the response.
var bindingFields = map[string]string{
	"passwordConfirmation": service.FieldPassword,
}

var registerNames sync.Once

// useWireNames makes validation errors name fields by their json or form key.
func useWireNames() {
	registerNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	})
}

// bindJSON decodes and validates the JSON body into req, aborting with 400
// when it does not fit.
func bindJSON(c *gin.Context, req any) bool {
	return bindWith(c, c.ShouldBindJSON(req))
}

// bindForm is bindJSON for form and multipart bodies.
func bindForm(c *gin.Context, req any) bool {
	return bindWith(c, c.ShouldBind(req))
}

func bindWith(c *gin.Context, err error) bool {
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return false
	}

	fe := verrs[0]
	field := fe.Field()
	message, ok := bindingMessages[field+"."+fe.Tag()]
	if !ok {
		message, ok = bindingMessages[fe.Tag()]
	}
	if !ok {
		switch fe.Tag() {
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", field, fe.Param())
		default:
			message = "Validation error: " + fe.Error()
		}
	}
	if renamed, ok := bindingFields[field]; ok {
		field = renamed
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message, "field": field})
	return false
}
