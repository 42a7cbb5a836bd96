package script

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/rasterdoc/internal/engine"
	"github.com/dshills/rasterdoc/internal/engine/document"
)

func newRunner(t *testing.T, opts ...Option) (*Runner, *engine.Tracker) {
	t.Helper()
	tr, err := engine.New(image.Pt(64, 64))
	require.NoError(t, err)
	r := NewRunner(tr, opts...)
	t.Cleanup(func() {
		r.Close()
		tr.Close()
	})
	return r, tr
}

func run(t *testing.T, r *Runner, code string) {
	t.Helper()
	require.NoError(t, r.RunString(context.Background(), t.Name(), code))
}

func TestDrawAndUndo(t *testing.T) {
	r, tr := newRunner(t)
	run(t, r, `
		local l = doc.create_layer{name = "sky"}
		doc.draw_rect(l, 0, 0, 8, 8, {fill = "#ff0000"})
		local red, g, b, a = doc.pixel(l, 2, 2)
		assert(red == 255 and g == 0 and a == 255, "rectangle not drawn")
		doc.undo()
		red, g, b, a = doc.pixel(l, 2, 2)
		assert(a == 0, "undo left pixels")
		layer = l
	`)

	id, err := document.ParseID(r.L.GetGlobal("layer").String())
	require.NoError(t, err)
	m, ok := tr.Document().FindMember(id)
	require.True(t, ok)
	assert.Equal(t, "sky", m.Name)

	s := tr.Stats()
	assert.Equal(t, 1, s.UndoDepth)
	assert.Equal(t, 1, s.RedoDepth)
	assert.Equal(t, 4, r.Actions())
}

func TestStructureCalls(t *testing.T) {
	r, tr := newRunner(t)
	run(t, r, `
		local f = doc.create_folder{name = "group"}
		local a = doc.create_layer{parent = f, name = "a"}
		local b = doc.create_layer{name = "b"}
		doc.move(b, f, 0)
		local c = doc.duplicate(a)
		doc.set_opacity(f, 0.5)
		doc.set_visible(c, false)
		doc.create_mask(a)

		local list = doc.members()
		assert(#list == 4, "want 4 members, got " .. #list)
		assert(list[1].kind == "folder" and list[1].depth == 0)
		assert(list[2].name == "b" and list[2].depth == 1)
		assert(list[3].name == "a" and list[3].mask)
		assert(list[4].name == "a copy" and not list[4].visible)
		assert(list[1].opacity == 0.5)
	`)
	assert.Equal(t, 4, tr.Document().MemberCount())
}

func TestLineAndFill(t *testing.T) {
	r, _ := newRunner(t)
	run(t, r, `
		local l = doc.create_layer{}
		doc.line(l, {{1, 5}, {20, 5}}, {color = "#0000ff", width = 3})
		local _, _, b, a = doc.pixel(l, 10, 5)
		assert(b > 0 and a > 0, "line missing")

		doc.fill(l, 40, 40, 4, 4, {0, 255, 0})
		local _, g = doc.pixel(l, 41, 41)
		assert(g == 255, "fill missing")

		doc.clear(l)
		_, _, _, a = doc.pixel(l, 41, 41)
		assert(a == 0, "clear failed")
	`)
}

func TestCanvasCalls(t *testing.T) {
	r, tr := newRunner(t)
	run(t, r, `
		doc.resize(100, 50)
		local w, h = doc.size()
		assert(w == 100 and h == 50)
		doc.select_rect(0, 0, 10, 10)
		doc.symmetry("vertical", true, 50)
		doc.clear_selection()
		local undo, redo = doc.history()
		assert(redo == 0 and undo > 0)
		doc.clear_history()
		undo, redo = doc.history()
		assert(undo == 0)
	`)
	assert.Equal(t, image.Pt(100, 50), tr.Document().Size())
	assert.True(t, tr.Document().Symmetry().VerticalEnabled)
}

func TestTrackerErrorStopsScript(t *testing.T) {
	r, tr := newRunner(t)
	err := r.RunString(context.Background(), "missing", `
		doc.set_name("`+document.NewID().String()+`", "x")
		doc.create_layer{}
	`)
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "missing", se.Script)
	assert.ErrorIs(t, err, document.ErrMemberNotFound)
	var ae *engine.ActionError
	assert.ErrorAs(t, err, &ae)
	assert.Equal(t, 0, tr.Document().MemberCount())
}

func TestLuaErrors(t *testing.T) {
	r, _ := newRunner(t)

	err := r.RunString(context.Background(), "syntax", "doc.undo(")
	var se *Error
	require.ErrorAs(t, err, &se)
	var ae *engine.ActionError
	assert.False(t, errors.As(err, &ae))

	err = r.RunString(context.Background(), "badid", `doc.delete("nope")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid member id")

	err = r.RunString(context.Background(), "badcolor", `
		local l = doc.create_layer{}
		doc.draw_rect(l, 0, 0, 4, 4, {fill = "red"})
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fill")
}

func TestSandbox(t *testing.T) {
	r, _ := newRunner(t)
	run(t, r, `
		assert(io == nil, "io")
		assert(os == nil, "os")
		assert(require == nil, "require")
		assert(load == nil and loadstring == nil and dofile == nil, "loaders")
		assert(string.format("%d", 3) == "3")
		assert(math.floor(2.5) == 2)
	`)
}

func TestPrintAndLog(t *testing.T) {
	var out bytes.Buffer
	r, _ := newRunner(t, WithOutput(&out))
	run(t, r, `
		doc.create_layer{}
		print("members", #doc.members())
		log("done")
	`)
	assert.Equal(t, "members\t1\n", out.String())
}

func TestTimeoutAndCancel(t *testing.T) {
	r, _ := newRunner(t, WithTimeout(50*time.Millisecond))
	err := r.RunString(context.Background(), "spin", "while true do end")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = r.RunString(ctx, "cancelled", "while true do end")
	assert.Error(t, err)

	// The state stays usable.
	run(t, r, "doc.create_layer{}")
}

func TestClosedRunner(t *testing.T) {
	r, _ := newRunner(t)
	r.Close()
	assert.ErrorIs(t, r.RunString(context.Background(), "x", ""), ErrRunnerClosed)
	r.Close()
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		name    string
		in      lua.LValue
		want    color.RGBA
		wantErr bool
	}{
		{"hex", lua.LString("#ff8000"), color.RGBA{R: 255, G: 128, A: 255}, false},
		{"hex alpha", lua.LString("#ff000080"), color.RGBA{R: 128, A: 128}, false},
		{"short", lua.LString("#f00"), color.RGBA{}, true},
		{"not hex", lua.LString("#gg0000"), color.RGBA{}, true},
		{"number", lua.LNumber(3), color.RGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseColor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	L := lua.NewState()
	defer L.Close()
	tbl := L.NewTable()
	tbl.Append(lua.LNumber(0))
	tbl.Append(lua.LNumber(255))
	tbl.Append(lua.LNumber(0))
	got, err := parseColor(tbl)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{G: 255, A: 255}, got)

	tbl.Append(lua.LNumber(300))
	_, err = parseColor(tbl)
	assert.Error(t, err)
}
