// Package browser drives a real TodoMVC page through a headless browser.
//
// Two engines are supported: Chrome over the DevTools protocol with chromedp,
// and go-rod. Both resolve surface hooks to CSS selectors through a
// profile.Profile, perform actions with native input events (so the
// application sees real clicks and keystrokes), and answer reads by
// evaluating small scripts in the page. Every session gets isolated storage:
// chromedp launches a fresh browser with a temporary profile, rod opens an
// incognito context.
//
// The persisted snapshot is the application's localStorage entry, decoded
// with item.DecodeSnapshot.
package browser
