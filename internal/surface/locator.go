package surface

import "fmt"

// Hook names one kind of element on the surface.
type Hook string

// Hooks the page façade relies on.
const (
	HookNewItem        Hook = "new_item"
	HookItemRow        Hook = "item_row"
	HookItemTitle      Hook = "item_title"
	HookToggle         Hook = "toggle"
	HookDestroy        Hook = "destroy"
	HookEditInput      Hook = "edit_input"
	HookFilter         Hook = "filter"
	HookClearCompleted Hook = "clear_completed"
	HookToggleAll      Hook = "toggle_all"
	HookCounter        Hook = "counter"
)

// Hooks lists every hook a complete profile must resolve.
var Hooks = []Hook{
	HookNewItem,
	HookItemRow,
	HookItemTitle,
	HookToggle,
	HookDestroy,
	HookEditInput,
	HookFilter,
	HookClearCompleted,
	HookToggleAll,
	HookCounter,
}

// All is the Locator.Index that addresses every element a hook matches.
const All = -1

// Locator addresses the element(s) matched by a hook.
type Locator struct {
	Hook Hook

	// Index selects one element among the matches, in document order.
	// All addresses the whole set (for Count and Texts).
	Index int

	// Param parameterizes the hook (the filter route for HookFilter).
	Param string
}

// At addresses the i-th element matched by h.
func At(h Hook, i int) Locator {
	return Locator{Hook: h, Index: i}
}

// First addresses the first element matched by h.
func First(h Hook) Locator {
	return At(h, 0)
}

// Every addresses all elements matched by h.
func Every(h Hook) Locator {
	return Locator{Hook: h, Index: All}
}

// FilterLink addresses the filter link for the given route.
func FilterLink(route string) Locator {
	return Locator{Hook: HookFilter, Index: 0, Param: route}
}

// String renders the locator for error messages, e.g. toggle[2].
func (l Locator) String() string {
	s := string(l.Hook)
	if l.Param != "" {
		s += "(" + l.Param + ")"
	}
	if l.Index == All {
		return s + "[*]"
	}
	return fmt.Sprintf("%s[%d]", s, l.Index)
}

// Key is a keyboard key sent with Press.
type Key string

// Keys used by the façade.
const (
	KeyEnter  Key = "Enter"
	KeyEscape Key = "Escape"
)
