// Package profile maps surface hooks to CSS selectors.
//
// Profiles are CUE files with a single top-level "profile" struct. Each file
// is unified with the embedded #Profile schema, so a profile that misses a
// hook, leaves one empty or names an unknown field is rejected at load time
// instead of failing halfway through a scenario.
package profile

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/roach88/todoracle/internal/surface"
)

//go:embed schema.cue
var schemaSrc string

//go:embed default.cue
var defaultSrc string

// Profile holds one CSS selector per hook.
type Profile struct {
	NewItem        string `json:"new_item"`
	ItemRow        string `json:"item_row"`
	ItemTitle      string `json:"item_title"`
	Toggle         string `json:"toggle"`
	Destroy        string `json:"destroy"`
	EditInput      string `json:"edit_input"`
	Filter         string `json:"filter"` // format string, %s is the filter route
	ClearCompleted string `json:"clear_completed"`
	ToggleAll      string `json:"toggle_all"`
	Counter        string `json:"counter"`

	// CompletedClass is the class an item row carries when rendered as
	// completed.
	CompletedClass string `json:"completed_class"`
}

// Default returns the built-in profile for the TodoMVC React demo.
func Default() *Profile {
	p, err := Parse("default.cue", []byte(defaultSrc))
	if err != nil {
		panic(fmt.Sprintf("embedded default profile is invalid: %v", err))
	}
	return p
}

// Load reads and validates a profile file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	return Parse(path, data)
}

// Parse compiles src and validates it against the profile schema.
func Parse(filename string, src []byte) (*Profile, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile profile schema: %w", err)
	}

	value := ctx.CompileBytes(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("compile profile: %s", errors.Details(err, nil))
	}

	raw := value.LookupPath(cue.ParsePath("profile"))
	if !raw.Exists() {
		return nil, fmt.Errorf("%s: missing top-level \"profile\" struct", filename)
	}

	unified := schema.LookupPath(cue.ParsePath("#Profile")).Unify(raw)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid profile: %s", errors.Details(err, nil))
	}

	var p Profile
	if err := unified.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}

// Selector returns the CSS selector for the hook of loc.
// The locator index is applied by the driver, not encoded in the selector.
func (p *Profile) Selector(loc surface.Locator) (string, error) {
	switch loc.Hook {
	case surface.HookNewItem:
		return p.NewItem, nil
	case surface.HookItemRow:
		return p.ItemRow, nil
	case surface.HookItemTitle:
		return p.ItemTitle, nil
	case surface.HookToggle:
		return p.Toggle, nil
	case surface.HookDestroy:
		return p.Destroy, nil
	case surface.HookEditInput:
		return p.EditInput, nil
	case surface.HookFilter:
		return fmt.Sprintf(p.Filter, loc.Param), nil
	case surface.HookClearCompleted:
		return p.ClearCompleted, nil
	case surface.HookToggleAll:
		return p.ToggleAll, nil
	case surface.HookCounter:
		return p.Counter, nil
	}
	return "", fmt.Errorf("profile has no selector for hook %q", loc.Hook)
}

// Selectors returns the raw selector of every hook, for display.
func (p *Profile) Selectors() map[surface.Hook]string {
	out := make(map[surface.Hook]string, len(surface.Hooks))
	for _, h := range surface.Hooks {
		loc := surface.First(h)
		if h == surface.HookFilter {
			out[h] = p.Filter
			continue
		}
		sel, _ := p.Selector(loc)
		out[h] = sel
	}
	return out
}
