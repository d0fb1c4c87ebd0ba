// Package adhoc executes user-submitted read-only SQL with pagination and
// out-of-band cancellation.
//
// Every execution checks out a dedicated connection, records the backend
// pid of that connection in a Registry under its query id, and removes the
// entry when it finishes. A concurrent cancel request looks the pid up and
// asks the server to cancel the running statement.
package adhoc
