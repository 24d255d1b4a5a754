// Package source implements the session sources agentboard reads from a
// Claude data directory (normally ~/.claude).
//
// Two sources are provided:
//
//   - [TeamsSource] reads multi-agent teams: teams/{team}/config.json, the
//     per-agent inboxes under teams/{team}/inboxes/, and the team's task list
//     under tasks/{team}/.
//   - [TasksSource] reads solo task lists under tasks/{session}/ that do not
//     belong to a team.
//
// Both read through an [afero.Fs] so tests can use an in-memory filesystem,
// decode JSON leniently (comments and trailing commas are accepted), and
// degrade malformed or unreadable files to empty fields instead of failing
// the scan. Watches are backed by fsnotify on the real filesystem and
// debounce bursts of writes into a single re-scan.
package source
