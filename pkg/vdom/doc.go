// Package vdom is an in-memory reference host for the reconciler.
//
// Host implements reconcile.Host by materializing each render description as
// a VNode. It does no diffing of its own: the reconciler decides what to
// re-render, and unchanged subtrees come back as the same *VNode.
//
// # Hydration
//
// Interactive elements (those holding a *reconcile.Handler prop) receive a
// hydration ID when created. Commit indexes the displayed tree by HID and
// Fire dispatches a runtime event to a handler by HID:
//
//	host := vdom.NewHost()
//	b, _ := bridge.New(producer, host, bridge.WithDisplay(host.Commit))
//	...
//	err := host.Fire("h3", "onclick", payload)
package vdom
