/*
Package observability turns pipeline lifecycle events into metrics and logs.

Both Metrics.Hooks and LoggingHooks return domain.LifecycleHooks; combine them
with LifecycleHooks.Merge and hand the result to the assembler, builder and
filterer.
*/
package observability
