// Package surface describes the rendering and interaction surface of the
// application under test without committing to any markup.
//
// Elements are addressed by Hook, a stable name for one kind of element
// (the primary input, an item row, a row's toggle control, ...). A Locator
// pairs a hook with a position inside the set of elements the hook matches.
// Drivers translate locators into whatever their backend understands: a CSS
// selector for a real browser, a direct lookup for the in-process reference
// application.
//
// # Hooks
//
//   - new_item: the primary text-entry control
//   - item_row: one element per rendered item, in display order
//   - item_title: the text label of each rendered item
//   - toggle: the completion toggle of each rendered item
//   - destroy: the delete control of each rendered item (visible on hover)
//   - edit_input: the inline editor of the item being edited
//   - filter: the status-filter link for Locator.Param
//   - clear_completed: the "clear completed" action
//   - toggle_all: the control that marks every item completed or active
//   - counter: the "N items left" label
//
// item_title defines the rendered view: counts, texts and positions are read
// from it, so a row without a title label is not counted as an item.
//
// Every primitive blocks until the backend reports the interaction settled.
// Sessions are scenario scoped and never shared.
package surface
