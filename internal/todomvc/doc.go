// Package todomvc is an in-process reference implementation of the TodoMVC
// application, exposed through the surface.Driver interface.
//
// It renders the same element structure a browser would show: a primary
// input, one row per item under the active filter (title, toggle, destroy
// control), an inline editor while a row is being edited, and a footer with
// the counter, the filter links and the "clear completed" action. The footer
// is only rendered while the list is non-empty, the clear action only while
// an item is completed, and a row's destroy control only while the row is
// hovered.
//
// Every mutation is written through to a Storage, keyed by the application's
// instance ID; ReadPersistedItems reads it back independently of rendering.
//
// Faults can be injected to make rendering and storage diverge the way a real
// application can:
//
//   - drop_write: mutations update the rendered list but skip the storage write
//   - missing_marker: completed rows lose their "completed" class
//   - stale_render: mutations are persisted but the rendered list is not refreshed
//
// The harness and the package tests use it as the default, browser-free
// surface.
package todomvc
