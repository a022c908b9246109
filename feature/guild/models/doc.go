// Package models contains the GORM models for guilds, characters,
// memberships, ranks and users, plus the update payloads written by a sync.
package models
