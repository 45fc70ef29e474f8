// Package sessions defines durable storage for agent-side ACP sessions.
//
// An agent that advertises loadSession must be able to replay a session's
// conversation as session/update notifications, possibly after a restart. A
// Store keeps two things per session:
//
//	Record  -> metadata listed by session/list (cwd, title, mode, timestamps)
//	History -> the ordered session updates, replayed by session/load and
//	           copied by session/fork
//
// Implementations
//
//	memorystore : in-process reference used for tests and single-process agents
//	redisstore  : Redis backed, with history kept in a Redis Stream per session
//
// sessionstoretest holds the conformance suite both implementations run.
package sessions
