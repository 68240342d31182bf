// Package schema validates the client-suppliable subset of each entity.
//
// Every validator takes the raw decoded request mapping and returns either a
// normalized typed record or an *apperr.ValidationError naming every failing
// field by its JSON name.
package schema

import (
	"reflect"
	"strconv"
	"strings"

	"connectx/apperr"
	"connectx/types"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/infinitybotlist/eureka/jsonimpl"
	"github.com/infinitybotlist/eureka/snippets"
)

// NewValidator returns a validator with the custom rules used across the API and config
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterValidation("nospaces", snippets.ValidatorNoSpaces)
	v.RegisterValidation("https", snippets.ValidatorIsHttps)
	v.RegisterValidation("httporhttps", snippets.ValidatorIsHttpOrHttps)
	v.RegisterValidation("maxbytes", maxBytes)
	v.RegisterTagNameFunc(jsonName)
	return v
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// maxBytes bounds the encoded length of a string, where max counts runes
func maxBytes(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= n
}

type Schema struct {
	v *validator.Validate
}

func New(v *validator.Validate) *Schema {
	if v == nil {
		v = NewValidator()
	}
	return &Schema{v: v}
}

func (s *Schema) User(raw map[string]any) (*types.RegisterUser, error) {
	u, typeErrs := decode[types.RegisterUser](raw)

	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.TrimSpace(u.Email)
	u.FullName = trimOptional(u.FullName)
	u.ProfileImage = trimOptional(u.ProfileImage)
	u.Bio = trimOptional(u.Bio)

	if err := s.validate(u, typeErrs); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Schema) Login(raw map[string]any) (*types.Login, error) {
	l, typeErrs := decode[types.Login](raw)

	l.Username = strings.TrimSpace(l.Username)

	if err := s.validate(l, typeErrs); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Schema) Post(raw map[string]any) (*types.CreatePost, error) {
	p, typeErrs := decode[types.CreatePost](raw)

	p.ImageURL = strings.TrimSpace(p.ImageURL)
	p.Caption = trimOptional(p.Caption)

	if err := s.validate(p, typeErrs); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Schema) Comment(raw map[string]any) (*types.CreateComment, error) {
	c, typeErrs := decode[types.CreateComment](raw)

	c.Content = strings.TrimSpace(c.Content)

	if err := s.validate(c, typeErrs); err != nil {
		return nil, err
	}
	return c, nil
}

// Struct validates an already typed payload
func (s *Schema) Struct(payload any) error {
	return s.validate(payload, nil)
}

// validate runs the struct rules and merges them with fields that already
// failed to decode. A field keeps its first failure.
func (s *Schema) validate(payload any, fields map[string]string) error {
	if fields == nil {
		fields = make(map[string]string)
	}

	err := s.v.Struct(payload)
	if err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}

		msgs := fieldMessages(payload)

		for _, fe := range verrs {
			msg := msgs[fe.StructField()]
			if msg == "" {
				msg = fe.Error()
			} else {
				msg = msg + " [" + fe.Tag() + "]"
			}

			if _, seen := fields[fe.Field()]; !seen {
				fields[fe.Field()] = msg
			}
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return &apperr.ValidationError{Fields: fields}
}

func fieldMessages(payload any) map[string]string {
	t := reflect.TypeOf(payload)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	msgs := make(map[string]string)
	for _, f := range reflect.VisibleFields(t) {
		msgs[f.Name] = f.Tag.Get("msg")
	}
	return msgs
}

// decode fills T one field at a time from the raw mapping. A value of the
// wrong JSON type leaves its field zeroed and is reported under the field's
// JSON name, so the remaining fields are still validated.
func decode[T any](raw map[string]any) (*T, map[string]string) {
	var dst T
	typeErrs := make(map[string]string)

	v := reflect.ValueOf(&dst).Elem()

	for _, f := range reflect.VisibleFields(v.Type()) {
		if !f.IsExported() || len(f.Index) != 1 {
			continue
		}

		name := jsonName(f)
		if name == "" {
			continue
		}

		val, ok := raw[name]
		if !ok || val == nil {
			continue
		}

		field := v.FieldByIndex(f.Index)

		b, err := jsonimpl.Marshal(val)
		if err == nil {
			err = jsonimpl.Unmarshal(b, field.Addr().Interface())
		}
		if err != nil {
			field.Set(reflect.Zero(f.Type))
			typeErrs[name] = "Must be a " + kindName(f.Type) + " [type]"
		}
	}

	return &dst, typeErrs
}

func kindName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	}
	return "valid value"
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
