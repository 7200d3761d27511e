// Package state keeps per-user conversation sessions for the bot.
// Sessions live in memory, are serialized per user via Lock, and can be
// mirrored to Redis so an in-flight workflow survives a restart.
package state
