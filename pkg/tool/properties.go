package tool

import "github.com/pkg/errors"

// Property helpers used by Settings implementations to resolve raw task
// properties. YAML decoding produces map[string]any with []any slices, so
// the list helper accepts both []string and []any forms.

// StringProperty returns the string value of a property, or fallback when the
// property is absent. A present value of the wrong type is a
// ConfigurationError.
func StringProperty(props map[string]any, key, fallback string) (string, error) {
	v, ok := props[key]
	if !ok || v == nil {
		return fallback, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &ConfigurationError{Property: key, Err: errors.Errorf("expected string, got %T", v)}
	}
	return s, nil
}

// BoolProperty returns the boolean value of a property, or fallback when the
// property is absent.
func BoolProperty(props map[string]any, key string, fallback bool) (bool, error) {
	v, ok := props[key]
	if !ok || v == nil {
		return fallback, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, &ConfigurationError{Property: key, Err: errors.Errorf("expected bool, got %T", v)}
	}
	return b, nil
}

// StringListProperty returns the string-list value of a property. An absent
// property yields a nil slice.
func StringListProperty(props map[string]any, key string) ([]string, error) {
	v, ok := props[key]
	if !ok || v == nil {
		return nil, nil
	}

	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, &ConfigurationError{Property: key, Err: errors.Errorf("expected string element, got %T", item)}
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, &ConfigurationError{Property: key, Err: errors.Errorf("expected list of strings, got %T", v)}
	}
}

// RequiredStringListProperty is StringListProperty for properties that must
// be present and non-empty.
func RequiredStringListProperty(props map[string]any, key string) ([]string, error) {
	list, err := StringListProperty(props, key)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, &ConfigurationError{Property: key, Err: errors.New("property is required")}
	}
	return list, nil
}
