package reflect

import (
	"fmt"
	"reflect"
	"strings"
)

const TagKey = "inject"

type Field struct {
	Name     string
	Index    []int
	Type     reflect.Type
	Named    string
	Optional bool
}

type TagOptions struct {
	Named    string
	Optional bool
	Skip     bool
}

// ParseTag reads an inject tag: "", "optional", "name=x" or a comma
// separated combination. "-" skips the field.
func ParseTag(tag string) (TagOptions, error) {
	var opts TagOptions
	if tag == "-" {
		opts.Skip = true
		return opts, nil
	}
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case part == "optional":
			opts.Optional = true
		case strings.HasPrefix(part, "name="):
			opts.Named = strings.TrimPrefix(part, "name=")
			if opts.Named == "" {
				return opts, fmt.Errorf("empty name in tag %q", tag)
			}
		default:
			return opts, fmt.Errorf("unknown option %q in tag %q", part, tag)
		}
	}
	return opts, nil
}

// InjectFields lists the tagged fields of t's struct in declaration order.
// Fields of embedded structs are listed in place, with index paths that
// reach through the embedding.
func InjectFields(t reflect.Type) ([]Field, error) {
	st, ok := StructOf(t)
	if !ok {
		return nil, nil
	}
	var out []Field
	if err := collectFields(st, nil, &out, map[reflect.Type]bool{}); err != nil {
		return nil, err
	}
	return out, nil
}

func collectFields(st reflect.Type, prefix []int, out *[]Field, seen map[reflect.Type]bool) error {
	if seen[st] {
		return nil
	}
	seen[st] = true

	for i := range st.NumField() {
		f := st.Field(i)
		index := append(append([]int(nil), prefix...), i)

		tag, tagged := f.Tag.Lookup(TagKey)
		if f.Anonymous && !tagged {
			if base, ok := StructOf(f.Type); ok {
				if err := collectFields(base, index, out, seen); err != nil {
					return err
				}
			}
			continue
		}
		if !tagged {
			continue
		}

		opts, err := ParseTag(tag)
		if err != nil {
			return fmt.Errorf("field %s.%s: %w", st.Name(), f.Name, err)
		}
		if opts.Skip {
			continue
		}
		if !f.IsExported() {
			return fmt.Errorf("field %s.%s is unexported and cannot be injected", st.Name(), f.Name)
		}
		*out = append(
			*out, Field{
				Name:     f.Name,
				Index:    index,
				Type:     f.Type,
				Named:    opts.Named,
				Optional: opts.Optional,
			},
		)
	}
	return nil
}

// FieldByIndex walks index from v, allocating nil embedded pointers on the
// way so the target field is always settable.
func FieldByIndex(v reflect.Value, index []int) (reflect.Value, error) {
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	for i, x := range index {
		if i > 0 {
			for v.Kind() == reflect.Ptr {
				if v.IsNil() {
					if !v.CanSet() {
						return reflect.Value{}, fmt.Errorf("cannot allocate embedded %s", TypeKeyOf(v.Type()))
					}
					v.Set(reflect.New(v.Type().Elem()))
				}
				v = v.Elem()
			}
		}
		v = v.Field(x)
	}
	return v, nil
}
