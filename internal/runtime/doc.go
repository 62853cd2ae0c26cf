/*
Package runtime implements the workflow controller.

A run moves a request through Start -> Researching -> Planning -> Advising -> Done.
Failed is absorbing and reachable from Researching, Planning and Advising. When a
session cache holds a usable bundle for the destination, Researching is skipped and
the run goes from Start straight to Planning.

Every stage fires the lifecycle hooks and runs inside an OpenTelemetry span named
"tabi.<stage>", under a "tabi.run" span for the whole request.
*/
package runtime
