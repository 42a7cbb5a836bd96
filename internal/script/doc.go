// Package script drives a document tracker from Lua.
//
// A script sees a global table named doc whose functions turn into tracker
// actions. Every call is processed immediately, so a script can read back
// the state it just produced:
//
//	local l = doc.create_layer{name = "sky"}
//	doc.draw_rect(l, 0, 0, 64, 32, {fill = "#3080ff"})
//	doc.set_opacity(l, 0.5)
//	doc.undo()
//
// Only the base, table, string and math libraries are available.
package script
