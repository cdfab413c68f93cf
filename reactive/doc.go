// Package reactive tracks which observers read which properties of plain
// key-value data and re-runs exactly those observers when the properties
// change.
//
// Data is instrumented with MakeReactive, which turns maps into Objects whose
// Get and Set calls are mediated by a per-key Dep. A Watcher resolves a dot
// path once while it is the active observer of its System, joining the Dep of
// every property it reads, and re-resolves the path whenever any of them is
// written. Notification is synchronous and depth first: a Set does not return
// until every affected watcher, and everything those watchers wrote, has run.
package reactive
