package script

import (
	"image"
	"image/color"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/rasterdoc/internal/engine/action"
	"github.com/dshills/rasterdoc/internal/engine/changeinfo"
	"github.com/dshills/rasterdoc/internal/engine/changes"
	"github.com/dshills/rasterdoc/internal/engine/document"
)

func (r *Runner) newDocTable() *lua.LTable {
	fns := map[string]lua.LGFunction{
		"size":    r.size,
		"root":    r.root,
		"members": r.members,
		"pixel":   r.pixel,

		"create_layer":  r.createMember(document.KindLayer),
		"create_folder": r.createMember(document.KindFolder),
		"delete":        r.deleteMember,
		"move":          r.moveMember,
		"duplicate":     r.duplicate,
		"set_name":      r.setName,
		"set_visible":   r.setVisible,
		"set_opacity":   r.setOpacity,
		"create_mask":   r.createMask,
		"delete_mask":   r.deleteMask,

		"draw_rect":    r.drawShape(false),
		"draw_ellipse": r.drawShape(true),
		"line":         r.line,
		"clear":        r.clear,
		"fill":         r.fill,

		"resize":          r.resize,
		"select_rect":     r.selectRect,
		"clear_selection": r.clearSelection,
		"symmetry":        r.symmetry,

		"undo":          r.undo,
		"redo":          r.redo,
		"boundary":      r.boundary,
		"clear_history": r.clearHistory,
		"history":       r.history,
	}
	return r.L.SetFuncs(r.L.NewTable(), fns)
}

// Reads.

func (r *Runner) size(L *lua.LState) int {
	s := r.tracker.Document().Size()
	L.Push(lua.LNumber(s.X))
	L.Push(lua.LNumber(s.Y))
	return 2
}

func (r *Runner) root(L *lua.LState) int {
	L.Push(lua.LString(r.tracker.Document().RootID().String()))
	return 1
}

// members lists every member in composition order.
func (r *Runner) members(L *lua.LState) int {
	list := L.NewTable()
	r.tracker.Document().Walk(func(m *document.Member, depth int) bool {
		t := L.NewTable()
		t.RawSetString("id", lua.LString(m.ID.String()))
		t.RawSetString("parent", lua.LString(m.Parent.String()))
		t.RawSetString("name", lua.LString(m.Name))
		t.RawSetString("kind", lua.LString(m.Kind.String()))
		t.RawSetString("depth", lua.LNumber(depth))
		t.RawSetString("opacity", lua.LNumber(m.Opacity))
		t.RawSetString("visible", lua.LBool(m.Visible))
		t.RawSetString("mask", lua.LBool(m.HasMask()))
		list.Append(t)
		return true
	})
	L.Push(list)
	return 1
}

// pixel returns the committed premultiplied pixel of a layer.
func (r *Runner) pixel(L *lua.LState) int {
	m := r.checkLayer(L, 1)
	p := image.Pt(L.CheckInt(2), L.CheckInt(3))
	img := m.Image
	if L.OptBool(4, false) {
		if !m.HasMask() {
			L.ArgError(4, "layer has no mask")
		}
		img = m.Mask
	}
	c := img.CommittedPixel(p)
	for _, v := range []uint8{c.R, c.G, c.B, c.A} {
		L.Push(lua.LNumber(v))
	}
	return 4
}

// Structure.

func (r *Runner) createMember(kind document.Kind) lua.LGFunction {
	return func(L *lua.LState) int {
		opts := L.OptTable(1, L.NewTable())
		doc := r.tracker.Document()

		parent := doc.RootID()
		if v := opts.RawGetString("parent"); v != lua.LNil {
			parent = r.parseID(L, v.String())
		}
		p, ok := doc.FindMember(parent)
		if !ok {
			L.RaiseError("parent %s not found", parent)
		}
		index := len(p.Children)
		if v, ok := opts.RawGetString("index").(lua.LNumber); ok {
			index = int(v)
		}
		name := kind.String()
		if v, ok := opts.RawGetString("name").(lua.LString); ok {
			name = string(v)
		}

		id := document.NewID()
		r.process(L, action.CreateMember{Parent: parent, Index: index, ID: id, Kind: kind, MemberName: name})
		L.Push(lua.LString(id.String()))
		return 1
	}
}

func (r *Runner) deleteMember(L *lua.LState) int {
	r.process(L, action.DeleteMember{ID: r.checkID(L, 1)})
	return 0
}

func (r *Runner) moveMember(L *lua.LState) int {
	r.process(L, action.MoveMember{ID: r.checkID(L, 1), Parent: r.checkID(L, 2), Index: L.CheckInt(3)})
	return 0
}

func (r *Runner) duplicate(L *lua.LState) int {
	id := document.NewID()
	r.process(L, action.DuplicateLayer{ID: r.checkID(L, 1), NewID: id})
	L.Push(lua.LString(id.String()))
	return 1
}

func (r *Runner) setName(L *lua.LState) int {
	r.process(L, action.SetName{ID: r.checkID(L, 1), MemberName: L.CheckString(2)})
	return 0
}

func (r *Runner) setVisible(L *lua.LState) int {
	r.process(L, action.SetVisibility{ID: r.checkID(L, 1), Visible: L.CheckBool(2)})
	return 0
}

func (r *Runner) setOpacity(L *lua.LState) int {
	r.process(L, action.SetOpacity{ID: r.checkID(L, 1), Opacity: float64(L.CheckNumber(2))})
	return 0
}

func (r *Runner) createMask(L *lua.LState) int {
	r.process(L, action.CreateMask{ID: r.checkID(L, 1)})
	return 0
}

func (r *Runner) deleteMask(L *lua.LState) int {
	r.process(L, action.DeleteMask{ID: r.checkID(L, 1)})
	return 0
}

// Drawing.

// drawShape draws a rectangle or ellipse as one start and end interaction.
// Arguments: id, x, y, w, h, {fill, stroke, width, mask}.
func (r *Runner) drawShape(ellipse bool) lua.LGFunction {
	return func(L *lua.LState) int {
		id := r.checkID(L, 1)
		rect := image.Rect(L.CheckInt(2), L.CheckInt(3), 0, 0)
		rect.Max = rect.Min.Add(image.Pt(L.CheckInt(4), L.CheckInt(5)))
		opts := L.OptTable(6, L.NewTable())

		shape := changes.Shape{
			Rect:        rect,
			Fill:        r.optColor(L, opts, "fill", color.RGBA{}),
			Stroke:      r.optColor(L, opts, "stroke", color.RGBA{}),
			StrokeWidth: optInt(opts, "width", 0),
		}
		onMask := optBool(opts, "mask")
		if ellipse {
			r.process(L, action.DrawEllipse{Member: id, Shape: shape, OnMask: onMask}, action.EndDrawEllipse{})
		} else {
			r.process(L, action.DrawRectangle{Member: id, Shape: shape, OnMask: onMask}, action.EndDrawRectangle{})
		}
		return 0
	}
}

// line draws a pen stroke through points, a list of {x, y} pairs.
// Arguments: id, points, {color, width, mask}.
func (r *Runner) line(L *lua.LState) int {
	id := r.checkID(L, 1)
	points := L.CheckTable(2)
	opts := L.OptTable(3, L.NewTable())
	c := r.optColor(L, opts, "color", color.RGBA{A: 255})
	width := optInt(opts, "width", 1)
	onMask := optBool(opts, "mask")

	n := points.Len()
	if n == 0 {
		L.ArgError(2, "no points")
	}
	actions := make([]action.Action, 0, n+1)
	for i := 1; i <= n; i++ {
		pt, ok := points.RawGetInt(i).(*lua.LTable)
		if !ok {
			L.ArgError(2, "points must be {x, y} tables")
		}
		actions = append(actions, action.LinePen{
			Member: id,
			Color:  c,
			Width:  width,
			Point:  image.Pt(int(lua.LVAsNumber(pt.RawGetInt(1))), int(lua.LVAsNumber(pt.RawGetInt(2)))),
			OnMask: onMask,
		})
	}
	r.process(L, append(actions, action.EndLinePen{})...)
	return 0
}

func (r *Runner) clear(L *lua.LState) int {
	r.process(L, action.ClearLayer{Member: r.checkID(L, 1), OnMask: L.OptBool(2, false)})
	return 0
}

// fill pastes a solid w by h block. Arguments: id, x, y, w, h, color, mask.
func (r *Runner) fill(L *lua.LState) int {
	id := r.checkID(L, 1)
	pos := image.Pt(L.CheckInt(2), L.CheckInt(3))
	w, h := L.CheckInt(4), L.CheckInt(5)
	if w <= 0 || h <= 0 {
		L.ArgError(4, "size must be positive")
	}
	c := r.checkColor(L, 6)
	src := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	r.process(L, action.PasteImage{Member: id, Pos: pos, Image: src, OnMask: L.OptBool(7, false)})
	return 0
}

// Canvas.

func (r *Runner) resize(L *lua.LState) int {
	r.process(L, action.ResizeCanvas{Size: image.Pt(L.CheckInt(1), L.CheckInt(2))})
	return 0
}

func (r *Runner) selectRect(L *lua.LState) int {
	rect := image.Rect(L.CheckInt(1), L.CheckInt(2), 0, 0)
	rect.Max = rect.Min.Add(image.Pt(L.CheckInt(3), L.CheckInt(4)))
	r.process(L, action.SelectRectangle{Rect: rect}, action.EndSelectRectangle{})
	return 0
}

func (r *Runner) clearSelection(L *lua.LState) int {
	r.process(L, action.ClearSelection{})
	return 0
}

// symmetry sets an axis: "horizontal" or "vertical", enabled, and an
// optional position.
func (r *Runner) symmetry(L *lua.LState) int {
	var axis changeinfo.Axis
	switch strings.ToLower(L.CheckString(1)) {
	case "horizontal", "h":
		axis = changeinfo.AxisHorizontal
	case "vertical", "v":
		axis = changeinfo.AxisVertical
	default:
		L.ArgError(1, "axis must be horizontal or vertical")
	}
	actions := []action.Action{action.SetSymmetryAxisState{Axis: axis, Enabled: L.CheckBool(2)}}
	if L.GetTop() >= 3 {
		actions = append(actions,
			action.SetSymmetryAxisPosition{Axis: axis, Position: L.CheckInt(3)},
			action.EndSetSymmetryAxisPosition{},
		)
	}
	r.process(L, actions...)
	return 0
}

// History.

func (r *Runner) undo(L *lua.LState) int {
	r.process(L, action.Undo{})
	return 0
}

func (r *Runner) redo(L *lua.LState) int {
	r.process(L, action.Redo{})
	return 0
}

func (r *Runner) boundary(L *lua.LState) int {
	r.process(L, action.ChangeBoundary{})
	return 0
}

func (r *Runner) clearHistory(L *lua.LState) int {
	r.process(L, action.DeleteRecordedChanges{})
	return 0
}

// history returns the undo and redo depths.
func (r *Runner) history(L *lua.LState) int {
	s := r.tracker.Stats()
	L.Push(lua.LNumber(s.UndoDepth))
	L.Push(lua.LNumber(s.RedoDepth))
	return 2
}

// Argument helpers.

func (r *Runner) parseID(L *lua.LState, s string) document.ID {
	id, err := document.ParseID(s)
	if err != nil {
		L.RaiseError("invalid member id %q", s)
	}
	return id
}

func (r *Runner) checkID(L *lua.LState, n int) document.ID {
	id, err := document.ParseID(L.CheckString(n))
	if err != nil {
		L.ArgError(n, "invalid member id")
	}
	return id
}

func (r *Runner) checkLayer(L *lua.LState, n int) *document.Member {
	m, err := r.tracker.Document().FindMemberOrFail(r.checkID(L, n))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	if !m.IsLayer() {
		L.ArgError(n, "not a layer")
	}
	return m
}

func (r *Runner) checkColor(L *lua.LState, n int) color.RGBA {
	c, err := parseColor(L.Get(n))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return c
}

func (r *Runner) optColor(L *lua.LState, opts *lua.LTable, key string, def color.RGBA) color.RGBA {
	v := opts.RawGetString(key)
	if v == lua.LNil {
		return def
	}
	c, err := parseColor(v)
	if err != nil {
		L.RaiseError("%s: %v", key, err)
	}
	return c
}

func optInt(opts *lua.LTable, key string, def int) int {
	if v, ok := opts.RawGetString(key).(lua.LNumber); ok {
		return int(v)
	}
	return def
}

func optBool(opts *lua.LTable, key string) bool {
	return lua.LVAsBool(opts.RawGetString(key))
}
