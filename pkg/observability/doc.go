/*
Package observability turns wphook lifecycle hooks into metrics and logs.

NewMetrics registers Prometheus collectors and exposes them as domain.Hooks;
DebugHooks logs the same events. Combine them with domain.MergeHooks.
*/
package observability
