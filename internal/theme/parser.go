package theme

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"reflect"
	"strings"

	"github.com/example/s2c/internal/shape"
)

var rgbaType = reflect.TypeOf(color.RGBA{})

// Parse reads a theme definition from an io.Reader.
// The format is one "Key: value" pair per line where value is a hex colour
// (#RRGGBB or #RRGGBBAA) or a CSS colour name.
func Parse(r io.Reader) (*Theme, error) {
	t := Default()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if err := SetField(t, strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return nil, err
		}
	}
	return t, scanner.Err()
}

// SetField assigns one theme key, matched case-insensitively. Unknown keys
// are ignored for forward compatibility.
func SetField(t *Theme, key, value string) error {
	if strings.EqualFold(key, "Name") {
		t.Name = value
		return nil
	}
	val := reflect.ValueOf(t).Elem()
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !strings.EqualFold(f.Name, key) || f.Type != rgbaType {
			continue
		}
		col, err := shape.ParseColor(value)
		if err != nil {
			return fmt.Errorf("invalid color for key %s: %w", key, err)
		}
		val.Field(i).Set(reflect.ValueOf(col))
		return nil
	}
	return nil
}

// Fields lists the colour keys in declaration order.
func Fields() []string {
	var out []string
	tt := reflect.TypeOf(Theme{})
	for i := 0; i < tt.NumField(); i++ {
		if tt.Field(i).Type == rgbaType {
			out = append(out, tt.Field(i).Name)
		}
	}
	return out
}

// Color returns the colour stored under field name.
func (t *Theme) Color(name string) (color.RGBA, bool) {
	f := reflect.ValueOf(t).Elem().FieldByName(name)
	if !f.IsValid() || f.Type() != rgbaType {
		return color.RGBA{}, false
	}
	return f.Interface().(color.RGBA), true
}
