// Package render dumps roots committed by the bridge as HTML for inspection.
//
// The input is what vdom.Host produces: a *vdom.VNode tree, or a plain
// string when the producer sent a leaf root.
//
//	renderer := render.NewRenderer(render.RendererConfig{Pretty: true})
//	html, err := renderer.RenderToString(host.Root())
//
// Text and attribute values are escaped. Event handler props are not
// rendered as attributes; the element gets a data-on-<event> marker and,
// from the host, a data-hid hydration ID instead. The reserved "key" prop is
// never rendered.
package render
