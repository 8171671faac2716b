package docrep

import (
	"fmt"
	"strings"
)

// TagKey is the struct tag key read by SchemaOf.
const TagKey = "dr"

// ParseStructTag parses a dr struct tag into key/value pairs. Parts are
// separated by spaces or commas; a part without '=' is a flag with an
// empty value. Values may be single or double quoted to hold spaces:
// `dr:"field=raw help='the raw text'"`.
func ParseStructTag(tag string) (map[string]string, error) {
	result := make(map[string]string)
	if tag == "" {
		return result, nil
	}

	var parts []string
	var current strings.Builder
	inSingle, inDouble := false, false
	flush := func() {
		if part := strings.TrimSpace(current.String()); part != "" {
			parts = append(parts, part)
		}
		current.Reset()
	}
	for i := 0; i < len(tag); i++ {
		c := tag[i]
		switch {
		case c == '\'' && !inDouble:
			inSingle = !inSingle
			current.WriteByte(c)
		case c == '"' && !inSingle:
			inDouble = !inDouble
			current.WriteByte(c)
		case (c == ',' || c == ' ') && !inSingle && !inDouble:
			flush()
		default:
			current.WriteByte(c)
		}
	}
	if inSingle || inDouble {
		return nil, fmt.Errorf("invalid tag %q: unterminated quote", tag)
	}
	flush()

	for _, part := range parts {
		idx := strings.IndexByte(part, '=')
		if idx < 0 {
			result[part] = ""
			continue
		}
		key := strings.TrimSpace(part[:idx])
		if key == "" {
			return nil, fmt.Errorf("invalid tag: empty key in %q", part)
		}
		result[key] = unquoteValue(strings.TrimSpace(part[idx+1:]))
	}
	return result, nil
}

func unquoteValue(v string) string {
	if len(v) >= 2 {
		if (v[0] == '\'' && v[len(v)-1] == '\'') || (v[0] == '"' && v[len(v)-1] == '"') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

// fieldTag is a parsed field or store tag.
type fieldTag struct {
	serial string
	class  string
	store  string
	help   string
	mode   Mode
	skip   bool
}

func parseFieldTag(tag string) (*fieldTag, error) {
	if tag == "-" {
		return &fieldTag{skip: true}, nil
	}
	kvs, err := ParseStructTag(tag)
	if err != nil {
		return nil, err
	}
	ft := &fieldTag{mode: ReadWrite}
	modeSet := false
	setMode := func(s string) error {
		if modeSet {
			return fmt.Errorf("mode given more than once in %q", tag)
		}
		m, err := ParseMode(s)
		if err != nil {
			return err
		}
		ft.mode, modeSet = m, true
		return nil
	}
	for k, v := range kvs {
		switch k {
		case "field":
			ft.serial = v
		case "class":
			ft.class = v
		case "store":
			ft.store = v
		case "help":
			ft.help = v
		case "mode":
			err = setMode(v)
		case "ro", "rw", "delete":
			err = setMode(k)
		default:
			err = fmt.Errorf("unknown key %q in tag %q", k, tag)
		}
		if err != nil {
			return nil, err
		}
	}
	return ft, nil
}
