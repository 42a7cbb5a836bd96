package script

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

var errBadColor = errors.New(`color must be "#rrggbb", "#rrggbbaa" or {r, g, b, a}`)

// parseColor reads a straight-alpha color and returns it premultiplied.
func parseColor(v lua.LValue) (color.RGBA, error) {
	var c color.NRGBA
	switch v := v.(type) {
	case lua.LString:
		s := strings.TrimPrefix(string(v), "#")
		if len(s) != 6 && len(s) != 8 {
			return color.RGBA{}, errBadColor
		}
		if len(s) == 6 {
			s += "ff"
		}
		n, err := strconv.ParseUint(s, 16, 32)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("%w: %v", errBadColor, err)
		}
		c = color.NRGBA{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}
	case *lua.LTable:
		ch := [4]uint8{0, 0, 0, 255}
		for i := range ch {
			x := v.RawGetInt(i + 1)
			if x == lua.LNil {
				continue
			}
			n, ok := x.(lua.LNumber)
			if !ok || n < 0 || n > 255 {
				return color.RGBA{}, errBadColor
			}
			ch[i] = uint8(n)
		}
		c = color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}
	default:
		return color.RGBA{}, errBadColor
	}
	return color.RGBAModel.Convert(c).(color.RGBA), nil
}
