package models

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

// ErrValidation marks malformed content records, colours and configs.
var ErrValidation = errors.New("validation failed")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct tags of v.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// Decode converts a loosely typed document (as produced by encoding/json or yaml)
// into out, using the json tags as field names, and validates the result.
func Decode(raw any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return Validate(out)
}

// DecodePost builds a Post from a stored record.
func DecodePost(raw any) (Post, error) {
	var post Post
	if raw == nil {
		return post, fmt.Errorf("%w: empty post record", ErrValidation)
	}
	if err := Decode(raw, &post); err != nil {
		return Post{}, err
	}
	if post.Comments == nil {
		post.Comments = []Comment{}
	}
	return post, nil
}

// DecodeMenuItem builds a MenuItem from a stored record.
func DecodeMenuItem(raw any) (MenuItem, error) {
	var item MenuItem
	if err := Decode(raw, &item); err != nil {
		return MenuItem{}, err
	}
	return item, nil
}

// DecodePluginDeclaration builds a PluginDeclaration from a stored record.
func DecodePluginDeclaration(raw any) (PluginDeclaration, error) {
	var decl PluginDeclaration
	if err := Decode(raw, &decl); err != nil {
		return PluginDeclaration{}, err
	}
	return decl, nil
}
