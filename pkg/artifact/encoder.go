package artifact

import (
	"fmt"
	"sort"
)

// UnknownCategoryError is returned when a value is outside the vocabulary an
// encoder was fitted on.
type UnknownCategoryError struct {
	Field string
	Value string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown %s category: %q", e.Field, e.Value)
}

// LabelEncoder maps a fixed, sorted vocabulary to integer codes (the code of a
// class is its index in Classes).
type LabelEncoder struct {
	Name    string   `json:"-"`
	Classes []string `json:"classes"`

	index map[string]int
}

func NewLabelEncoder(name string, classes []string) (*LabelEncoder, error) {
	e := &LabelEncoder{Name: name, Classes: classes}
	if err := e.build(); err != nil {
		return nil, err
	}
	return e, nil
}

// FitLabelEncoder collects the distinct values and sorts them.
func FitLabelEncoder(name string, values []string) *LabelEncoder {
	seen := map[string]struct{}{}
	classes := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		classes = append(classes, v)
	}
	sort.Strings(classes)
	e := &LabelEncoder{Name: name, Classes: classes}
	_ = e.build()
	return e
}

func (e *LabelEncoder) build() error {
	if len(e.Classes) == 0 {
		return fmt.Errorf("encoder %s has no classes", e.Name)
	}
	e.index = make(map[string]int, len(e.Classes))
	for i, c := range e.Classes {
		if _, dup := e.index[c]; dup {
			return fmt.Errorf("encoder %s: duplicate class %q", e.Name, c)
		}
		e.index[c] = i
	}
	return nil
}

func (e *LabelEncoder) Encode(v string) (int, error) {
	code, ok := e.index[v]
	if !ok {
		return 0, &UnknownCategoryError{Field: e.Name, Value: v}
	}
	return code, nil
}

func (e *LabelEncoder) Decode(code int) (string, error) {
	if code < 0 || code >= len(e.Classes) {
		return "", fmt.Errorf("encoder %s: code %d out of range", e.Name, code)
	}
	return e.Classes[code], nil
}

func (e *LabelEncoder) Len() int { return len(e.Classes) }
