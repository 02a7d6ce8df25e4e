/*
Package session serialises access to session edge logs.

A Manager wraps a ports.SessionStore with per-session mutexes (reference counted
so idle sessions hold no memory) and, optionally, a ports.DistributedLocker so
that several processes sharing one store never interleave a load-modify-save
cycle on the same session.
*/
package session
