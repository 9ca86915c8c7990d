/*
Package workspace keeps loaded datasets and their graphs between requests.

A workspace is addressed by a random UUID. Every mutation of a workspace (new
auxiliary data, a rebuild) runs under one lock per workspace id, so a rebuild
never observes a half-appended dataset. Locks are reference counted and
released as soon as no caller holds them. An optional ports.DistributedLocker
extends the same guarantee to several replicas sharing one store.
*/
package workspace
