package view

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// 错误里的字段名使用 json 名
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return strings.ToLower(fld.Name)
		}
		return name
	})
	return v
}

// FieldErrors 字段名到提示语，表单校验失败时整体返回
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return strings.Join(parts, "; ")
}

type fieldRule struct {
	field, tag string
}

func check(v any, messages map[fieldRule]string) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	out := FieldErrors{}
	for _, fe := range ves {
		name := fe.Field()
		if _, seen := out[name]; seen {
			continue
		}
		msg, ok := messages[fieldRule{fe.StructField(), fe.Tag()}]
		if !ok {
			msg = "Invalid value"
		}
		out[name] = msg
	}
	return out
}

type CommunityInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required,min=10"`
}

var communityMessages = map[fieldRule]string{
	{"Name", "required"}:        "Community name is required",
	{"Description", "required"}: "Description is required",
	{"Description", "min"}:      "Description must be at least 10 characters",
}

func (in CommunityInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	return check(in, communityMessages)
}

type SignUpInput struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

var authMessages = map[fieldRule]string{
	{"FullName", "required"}: "Full name is required",
	{"Email", "required"}:    "Email is required",
	{"Email", "email"}:       "Invalid email address",
	{"Password", "required"}: "Password is required",
	{"Password", "min"}:      "Password must be at least 6 characters",
}

func (in SignUpInput) Validate() error {
	in.FullName = strings.TrimSpace(in.FullName)
	return check(in, authMessages)
}

func (in SignInInput) Validate() error {
	return check(in, authMessages)
}
